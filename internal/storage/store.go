package storage

import (
	"context"

	"github.com/google/uuid"

	"photonlab/internal/model"
)

// Store defines persistence operations for completed fit runs.
type Store interface {
	Init(ctx context.Context) error
	SaveFitRun(ctx context.Context, run model.FitRun) error
	GetFitRun(ctx context.Context, id string) (model.FitRun, bool, error)
	ListFitRuns(ctx context.Context) ([]model.FitRun, error)
}

// NewRunID returns a fresh fit-run identifier.
func NewRunID() string {
	return uuid.NewString()
}
