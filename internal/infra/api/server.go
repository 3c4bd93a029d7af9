package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"genv-studio/internal/domain"
	"genv-studio/internal/domain/model"
	"genv-studio/internal/domain/ports/repository"
	"genv-studio/internal/infra/logging"
	"genv-studio/internal/usecase"
)

const maxUploadBytes = 16 << 20

// Server exposes the studio HTTP API: Veo generation and operation
// tracking, the live status feed, and the media asset collections.
type Server struct {
	video    usecase.VideoGenerationUseCase
	assets   usecase.AssetUseCase
	prompts  usecase.PromptUseCase  // nil when no provider is configured
	statuses repository.StatusStore // nil when the cache is disabled
	auth     *AuthManager           // nil leaves /api/v1 open (dev mode)
	log      *zerolog.Logger
}

func NewServer(
	video usecase.VideoGenerationUseCase,
	assets usecase.AssetUseCase,
	prompts usecase.PromptUseCase,
	statuses repository.StatusStore,
	auth *AuthManager,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "API").Logger()
	return &Server{video: video, assets: assets, prompts: prompts, statuses: statuses, auth: auth, log: &l}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.auth.Guard())

		r.Route("/veo", func(r chi.Router) {
			r.With(Timeout(30 * time.Second)).Post("/generate", s.handleGenerate)
			r.With(Timeout(15 * time.Second)).Post("/operation/status", s.handleOperationStatus)
			r.With(Timeout(60 * time.Second)).Post("/prompt", s.handleSuggestPrompt)
		})

		r.Route("/operations", func(r chi.Router) {
			r.Get("/current", s.handleCurrent)
			r.Delete("/current", s.handleClear)
			r.Get("/events", s.handleEvents) // SSE, no timeout middleware
		})

		r.Route("/assets", func(r chi.Router) {
			r.Use(Timeout(30 * time.Second))
			r.Post("/images", s.handleUploadImage)
			r.Get("/images", s.handleListImages)
			r.Delete("/images/{id}", s.handleDeleteImage)
			r.Get("/videos", s.handleListVideos)
		})
	})
	return r
}

// ---------------- generation & tracking ----------------

type generateRequest struct {
	Prompt    string `json:"prompt"`
	SessionID string `json:"session_id"`
	Image     string `json:"image"`    // optional data URL (data:<mime>;base64,...)
	ImageID   string `json:"image_id"` // optional reference to an uploaded asset
}

type generateResponse struct {
	OperationName string `json:"operation_name"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	if req.SessionID != "" {
		r = r.WithContext(logging.WithSessionID(r.Context(), req.SessionID))
	}

	in := usecase.SubmitInput{Prompt: req.Prompt, SessionID: req.SessionID}
	switch {
	case req.ImageID != "":
		img, err := s.assets.GetImage(r.Context(), req.ImageID)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		in.ImageGCSURI = img.URI
		in.MimeType = img.MimeType
	case req.Image != "":
		data, mime, err := parseDataURL(req.Image)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		in.ImageBytes = data
		in.MimeType = mime
	}

	handle, err := s.video.Submit(r.Context(), in)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{OperationName: handle})
}

type statusRequest struct {
	OperationName string `json:"operation_name"`
}

func (s *Server) handleOperationStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	st, err := s.video.FetchStatus(r.Context(), req.OperationName)
	if err != nil {
		// The backend may be briefly unreachable; serve the last snapshot
		// the feed wrote to the cache instead of failing the lookup.
		if s.statuses != nil {
			if cached, cerr := s.statuses.LoadStatus(r.Context(), req.OperationName); cerr == nil {
				writeJSON(w, http.StatusOK, cached)
				return
			}
		}
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// snapshotDTO is the wire form of a feed snapshot; Err is flattened into a
// message plus kind so clients can branch without parsing text.
type snapshotDTO struct {
	Idle      bool                   `json:"idle"`
	Handle    string                 `json:"handle,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
	Prompt    string                 `json:"prompt,omitempty"`
	Status    *model.OperationStatus `json:"status,omitempty"`
	Error     string                 `json:"error,omitempty"`
	ErrorKind string                 `json:"error_kind,omitempty"`
}

func toDTO(snap usecase.Snapshot) snapshotDTO {
	dto := snapshotDTO{
		Idle:      snap.Idle(),
		Handle:    snap.Handle,
		SessionID: snap.SessionID,
		Prompt:    snap.Prompt,
		Status:    snap.Status,
	}
	if snap.Err != nil {
		dto.Error = snap.Err.Error()
		dto.ErrorKind = errorKind(snap.Err)
	}
	return dto
}

func errorKind(err error) string {
	var re *domain.RequestError
	var fe *domain.FetchError
	var te *domain.TimeoutError
	switch {
	case errors.As(err, &te):
		return "timeout"
	case errors.As(err, &fe):
		return "fetch"
	case errors.As(err, &re):
		return "request"
	default:
		return "internal"
	}
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	snap := s.video.Current()
	if snap.Idle() {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, toDTO(snap))
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if s.statuses != nil {
		if handle := s.video.Handle(); handle != "" {
			if err := s.statuses.ClearStatus(r.Context(), handle); err != nil {
				logging.With(r.Context(), s.log).Warn().Err(err).Str("operation", handle).
					Msg("clearing cached status failed")
			}
		}
	}
	s.video.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// handleEvents streams feed snapshots as server-sent events: the latest
// value on connect, then every update until the client goes away.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// The feed delivers synchronously; hand off through a buffered channel
	// so a slow client never stalls the tracker. The buffer is deep enough
	// for any realistic burst; if it ever fills, the update is dropped and
	// the client resyncs on its next event.
	events := make(chan usecase.Snapshot, 32)
	cancel := s.video.Subscribe(func(snap usecase.Snapshot) {
		select {
		case events <- snap:
		default:
		}
	})
	defer cancel()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	// json.Encoder's trailing newline doubles as the first of the two
	// frame terminators SSE requires.
	enc := json.NewEncoder(w)
	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case snap := <-events:
			if _, err := io.WriteString(w, "data: "); err != nil {
				return
			}
			if err := enc.Encode(toDTO(snap)); err != nil {
				return
			}
			if _, err := io.WriteString(w, "\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// ---------------- prompt suggestion ----------------

type promptRequest struct {
	ImageID string `json:"image_id"`
	Hint    string `json:"hint"`
}

type promptResponse struct {
	Prompt string `json:"prompt"`
}

func (s *Server) handleSuggestPrompt(w http.ResponseWriter, r *http.Request) {
	if s.prompts == nil {
		writeError(w, http.StatusServiceUnavailable, "no prompt provider configured")
		return
	}
	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.ImageID == "" {
		writeError(w, http.StatusBadRequest, "image_id is required")
		return
	}
	suggestion, err := s.prompts.SuggestFromImage(r.Context(), req.ImageID, req.Hint)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, promptResponse{Prompt: suggestion})
}

// ---------------- assets ----------------

type uploadImageResponse struct {
	ImageID  string `json:"image_id"`
	Message  string `json:"message"`
	Location string `json:"location"`
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading image failed")
		return
	}
	if len(data) > maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "image too large")
		return
	}

	mime := header.Header.Get("Content-Type")
	if mime == "" {
		mime = http.DetectContentType(data)
	}

	img, err := s.assets.UploadImage(r.Context(), usecase.UploadImageInput{
		Name:      r.FormValue("image_name"),
		Source:    model.ImageSource(r.FormValue("source")),
		SessionID: r.FormValue("session_id"),
		Context:   r.FormValue("context"),
		MimeType:  mime,
		Data:      data,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, uploadImageResponse{
		ImageID:  img.ID,
		Message:  "Image uploaded successfully!",
		Location: "/api/v1/assets/images/" + img.ID,
	})
}

func (s *Server) handleListImages(w http.ResponseWriter, r *http.Request) {
	imgs, err := s.assets.ListImages(r.Context(), r.URL.Query().Get("session_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if imgs == nil {
		imgs = []*model.ImageAsset{}
	}
	writeJSON(w, http.StatusOK, imgs)
}

func (s *Server) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	if err := s.assets.DeleteImage(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	vids, err := s.assets.ListVideos(r.Context(), r.URL.Query().Get("session_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if vids == nil {
		vids = []*model.VideoAsset{}
	}
	writeJSON(w, http.StatusOK, vids)
}

// ---------------- helpers ----------------

var dataURLRe = regexp.MustCompile(`^data:(?P<mime>[\w/\-\.]+);base64,`)

// parseDataURL decodes a data:<mime>;base64,<payload> URL.
func parseDataURL(s string) (data []byte, mime string, err error) {
	m := dataURLRe.FindStringSubmatch(s)
	if m == nil {
		return nil, "", errors.New("image must be a base64 data URL")
	}
	payload := s[len(m[0]):]
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", errors.New("image payload is not valid base64")
	}
	return data, m[1], nil
}

func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var re *domain.RequestError
	var fe *domain.FetchError
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &re), errors.As(err, &fe):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		logging.With(r.Context(), s.log).Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
