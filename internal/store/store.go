// Package store persists the run log: one run per processed file plus the
// per-row outcomes.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/equitle/enrichment-cli/internal/model"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = eris.New("store: run not found")

// DefaultListLimit caps ListRuns when no limit is given.
const DefaultListLimit = 100

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

// Store defines the persistence interface for the run log.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, fileName, providerName string) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, summary model.BatchSummary) error
	FailRun(ctx context.Context, runID string, message string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Rows
	SaveRows(ctx context.Context, runID string, rows []model.RunRow) error
	ListRows(ctx context.Context, runID string) ([]model.RunRow, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// runRowColumns is the column order used by both backends.
var runRowColumns = []string{
	"run_id", "row_index", "company", "domain", "status", "error_message", "contact_count",
}

func rowValues(runID string, r model.RunRow) []any {
	return []any{runID, r.RowIndex, r.Company, r.Domain, string(r.Status), r.ErrorMessage, r.ContactCount}
}
