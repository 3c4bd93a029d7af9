package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"genv-studio/internal/broadcast"
	"genv-studio/internal/domain"
	"genv-studio/internal/domain/model"
	"genv-studio/internal/domain/ports/adapter"
	"genv-studio/internal/infra/metrics"
)

// Compile-time check
var _ VideoGenerationUseCase = (*videoUC)(nil)

// Snapshot is the value published on the status feed. The zero Snapshot
// means idle (no operation submitted, or the current one was cleared).
// Exactly one of Status and Err is set on non-idle updates; both terminal
// errors and statuses travel on the same feed so subscribers are never left
// waiting on a failure.
type Snapshot struct {
	Handle    string                 `json:"handle,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
	Prompt    string                 `json:"prompt,omitempty"`
	Status    *model.OperationStatus `json:"status,omitempty"`
	Err       error                  `json:"-"`
}

// Idle reports whether the snapshot is the zero (no operation) value.
func (s Snapshot) Idle() bool {
	return s.Handle == "" && s.Status == nil && s.Err == nil
}

// Terminal reports whether this snapshot ends its poll session.
func (s Snapshot) Terminal() bool {
	return s.Err != nil || (s.Status != nil && s.Status.Done)
}

// SubmitInput carries one generation submission.
type SubmitInput struct {
	Prompt      string
	SessionID   string
	ImageBytes  []byte
	ImageGCSURI string
	MimeType    string
}

// VideoGenerationUseCase submits Veo generation requests and tracks the
// resulting long-running operation until completion, failure, or timeout.
// A new Submit supersedes the previous poll session: its in-flight results
// are dropped, never published.
type VideoGenerationUseCase interface {
	Submit(ctx context.Context, in SubmitInput) (string, error)
	Clear()
	Handle() string
	Current() Snapshot
	Subscribe(fn func(Snapshot)) (cancel func())
	FetchStatus(ctx context.Context, handle string) (*model.OperationStatus, error)
}

type videoUC struct {
	gen      adapter.VideoGenAdapter
	signer   adapter.BlobStorage // optional, signs completed video URIs
	signTTL  time.Duration
	interval time.Duration
	timeout  time.Duration
	log      *zerolog.Logger

	feed *broadcast.Cell[Snapshot]

	mu     sync.Mutex
	seq    uint64 // session token; bumped by Submit and Clear
	handle string // latest stored operation handle, "" when none
	cancel context.CancelFunc
}

// NewVideoGenerationUseCase builds the tracker. Interval is the poll cadence
// and timeout the overall budget per submission; both are injectable so
// tests run on compressed timeframes. signer may be nil.
func NewVideoGenerationUseCase(
	gen adapter.VideoGenAdapter,
	signer adapter.BlobStorage,
	signTTL time.Duration,
	interval, timeout time.Duration,
	logger *zerolog.Logger,
) *videoUC {
	l := logger.With().Str("component", "VideoGenUC").Logger()
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &videoUC{
		gen:      gen,
		signer:   signer,
		signTTL:  signTTL,
		interval: interval,
		timeout:  timeout,
		log:      &l,
		feed:     broadcast.NewCell[Snapshot](),
	}
}

// Submit clears any previous session, issues the generation request, stores
// the returned handle, and starts a poll session for it. On request failure
// the state stays cleared and no handle is ever stored.
func (u *videoUC) Submit(ctx context.Context, in SubmitInput) (string, error) {
	if strings.TrimSpace(in.Prompt) == "" {
		return "", domain.ErrInvalidArgument
	}

	// Supersede the previous session before anything external happens so
	// stale data is never visible to new observers.
	token := u.supersede()

	handle, err := u.gen.RequestGeneration(ctx, adapter.GenerationRequest{
		Prompt:      in.Prompt,
		ImageBytes:  in.ImageBytes,
		ImageGCSURI: in.ImageGCSURI,
		MimeType:    in.MimeType,
	})
	if err != nil {
		// State stays cleared: no handle stored, feed left at idle. The
		// error goes to the caller of Submit, not onto the feed.
		metrics.IncGenerateRequest("error")
		u.log.Error().Err(err).Msg("generation request failed")
		return "", &domain.RequestError{Err: err}
	}
	metrics.IncGenerateRequest("ok")

	u.mu.Lock()
	if u.seq != token {
		// Another Submit or Clear won while the request was in flight;
		// this session is already abandoned.
		u.mu.Unlock()
		return handle, nil
	}
	u.handle = handle
	sctx, cancel := context.WithTimeout(context.Background(), u.timeout)
	u.cancel = cancel
	u.mu.Unlock()

	u.feed.Set(Snapshot{Handle: handle, SessionID: in.SessionID, Prompt: in.Prompt})
	metrics.SetSessionActive(true)
	u.log.Info().Str("operation", handle).Msg("generation submitted, tracking started")

	go u.poll(sctx, token, handle, in.SessionID, in.Prompt)
	return handle, nil
}

// Clear abandons the current session and returns the tracker to idle.
// Safe to call at any time; calling it twice is the same as once.
func (u *videoUC) Clear() {
	u.supersede()
	metrics.SetSessionActive(false)
}

func (u *videoUC) Handle() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.handle
}

func (u *videoUC) Current() Snapshot { return u.feed.Get() }

func (u *videoUC) Subscribe(fn func(Snapshot)) (cancel func()) {
	return u.feed.Subscribe(fn)
}

// FetchStatus is a single-shot status lookup, used by the status proxy
// endpoint. It does not touch the tracking session.
func (u *videoUC) FetchStatus(ctx context.Context, handle string) (*model.OperationStatus, error) {
	if handle == "" {
		return nil, domain.ErrInvalidArgument
	}
	st, err := u.gen.FetchOperationStatus(ctx, handle)
	if err != nil {
		return nil, &domain.FetchError{Handle: handle, Err: err}
	}
	u.sign(ctx, st)
	return st, nil
}

// supersede bumps the session token, cancels the previous session's context
// so its timers and in-flight fetches can no longer publish, and resets the
// feed. The reset happens under the same lock as the token bump so it can
// never land after a newer session's first publish.
func (u *videoUC) supersede() uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.seq++
	u.handle = ""
	if u.cancel != nil {
		u.cancel()
		u.cancel = nil
		metrics.IncOperationResult("superseded")
	}
	u.feed.Reset()
	return u.seq
}

// poll drives one session: fetch status every interval until the operation
// reports done, the fetch fails, the overall deadline passes, or the session
// is superseded. Ticks are sequential: the next one is armed only after the
// previous fetch resolved, so two fetches are never in flight for one
// session. Ties between a due tick and the deadline resolve to timeout.
func (u *videoUC) poll(ctx context.Context, token uint64, handle, sessionID, prompt string) {
	timer := time.NewTimer(u.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			u.finish(ctx, token, handle, sessionID, prompt)
			return
		case <-timer.C:
		}
		if ctx.Err() != nil {
			u.finish(ctx, token, handle, sessionID, prompt)
			return
		}

		start := time.Now()
		st, err := u.gen.FetchOperationStatus(ctx, handle)
		metrics.ObservePoll(time.Since(start), err == nil)
		if err != nil {
			if ctx.Err() != nil {
				u.finish(ctx, token, handle, sessionID, prompt)
				return
			}
			metrics.IncOperationResult("fetch_error")
			u.publish(token, Snapshot{
				Handle: handle, SessionID: sessionID, Prompt: prompt,
				Err: &domain.FetchError{Handle: handle, Err: err},
			})
			u.endSession(token)
			return
		}

		if st.Done {
			u.sign(ctx, st)
			if st.Name == "" {
				st.Name = handle
			}
			if u.publish(token, Snapshot{Handle: handle, SessionID: sessionID, Prompt: prompt, Status: st}) {
				metrics.IncOperationResult("completed")
				u.log.Info().Str("operation", handle).Int("videos", len(st.Videos)).
					Msg("operation completed")
			}
			u.endSession(token)
			return
		}

		if !u.publish(token, Snapshot{Handle: handle, SessionID: sessionID, Prompt: prompt, Status: st}) {
			return // superseded, go quiet
		}
		timer.Reset(u.interval)
	}
}

// finish handles a session context that ended without a terminal status.
// Deadline exceeded publishes the timeout failure; plain cancellation means
// the session was superseded and stays silent.
func (u *videoUC) finish(ctx context.Context, token uint64, handle, sessionID, prompt string) {
	if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return
	}
	if u.publish(token, Snapshot{
		Handle: handle, SessionID: sessionID, Prompt: prompt,
		Err: &domain.TimeoutError{After: u.timeout},
	}) {
		metrics.IncOperationResult("timeout")
		u.log.Warn().Str("operation", handle).Dur("after", u.timeout).
			Msg("operation tracking timed out")
	}
	u.endSession(token)
}

// publish delivers snap to the feed only if this session is still current.
// The token check and the feed write happen under one lock, so a stale
// session can never interleave a publish after a newer one reset the feed.
func (u *videoUC) publish(token uint64, snap Snapshot) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.seq != token {
		return false
	}
	u.feed.Set(snap)
	return true
}

// endSession releases the session's timer resources without touching the
// feed: the terminal snapshot stays visible until the next Submit or Clear.
func (u *videoUC) endSession(token uint64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.seq != token {
		return
	}
	if u.cancel != nil {
		u.cancel()
		u.cancel = nil
	}
	metrics.SetSessionActive(false)
}

// sign attaches signed download URLs to finished videos, best effort.
func (u *videoUC) sign(ctx context.Context, st *model.OperationStatus) {
	if u.signer == nil || st == nil || !st.Done {
		return
	}
	for i := range st.Videos {
		if st.Videos[i].URI == "" {
			continue
		}
		signed, err := u.signer.SignedURL(ctx, st.Videos[i].URI, u.signTTL)
		if err != nil {
			u.log.Warn().Err(err).Str("uri", st.Videos[i].URI).Msg("signing video url failed")
			continue
		}
		st.Videos[i].SignedURI = signed
	}
}
