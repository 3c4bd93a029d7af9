package repository

import (
	"context"

	"genv-studio/internal/domain/model"
)

// StatusStore caches the most recent operation status so reconnecting
// clients can read it without waiting for the next poll tick. Writes are
// best-effort; the in-process feed remains the source of truth.
type StatusStore interface {
	StoreStatus(ctx context.Context, st *model.OperationStatus) error
	LoadStatus(ctx context.Context, handle string) (*model.OperationStatus, error)
	ClearStatus(ctx context.Context, handle string) error
}
