package veo

import (
	"context"
	"fmt"
	"sync"

	"genv-studio/internal/domain/model"
	"genv-studio/internal/domain/ports/adapter"
)

var _ adapter.VideoGenAdapter = (*MockAdapter)(nil)

// MockAdapter serves synthetic operations without touching the backend,
// for local development and API tests (veo.use_mocks). Each operation
// reports done after pollsUntilDone status fetches.
type MockAdapter struct {
	pollsUntilDone int

	mu    sync.Mutex
	next  int
	polls map[string]int
}

func NewMockAdapter(pollsUntilDone int) *MockAdapter {
	if pollsUntilDone <= 0 {
		pollsUntilDone = 3
	}
	return &MockAdapter{pollsUntilDone: pollsUntilDone, polls: map[string]int{}}
}

func (m *MockAdapter) RequestGeneration(ctx context.Context, req adapter.GenerationRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	return fmt.Sprintf("operations/mock-%d", m.next), nil
}

func (m *MockAdapter) FetchOperationStatus(ctx context.Context, handle string) (*model.OperationStatus, error) {
	m.mu.Lock()
	m.polls[handle]++
	n := m.polls[handle]
	m.mu.Unlock()

	st := &model.OperationStatus{Name: handle}
	if n >= m.pollsUntilDone {
		st.Done = true
		st.Videos = []model.Video{
			{URI: "gs://mock-bucket/videos/" + handle + "/sample_0.mp4", Encoding: "video/mp4"},
			{URI: "gs://mock-bucket/videos/" + handle + "/sample_1.mp4", Encoding: "video/mp4"},
		}
	}
	return st, nil
}
