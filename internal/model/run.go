package model

import "time"

// RunStatus represents the current state of a file enrichment run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one processed upload, kept in the run log.
type Run struct {
	ID        string        `json:"id"`
	FileName  string        `json:"file_name"`
	Provider  string        `json:"provider"`
	Status    RunStatus     `json:"status"`
	Summary   *BatchSummary `json:"summary,omitempty"`
	Error     string        `json:"error,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// RunRow is the per-record outcome stored alongside a run.
type RunRow struct {
	RunID        string       `json:"run_id"`
	RowIndex     int          `json:"row_index"`
	Company      string       `json:"company"`
	Domain       string       `json:"domain"`
	Status       RecordStatus `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
	ContactCount int          `json:"contact_count"`
}

// NewRunRows flattens enriched records into run-log rows.
func NewRunRows(runID string, records []EnrichedRecord) []RunRow {
	rows := make([]RunRow, 0, len(records))
	for i, r := range records {
		domain := r.Domain
		if domain == "" {
			domain = r.Website
		}
		rows = append(rows, RunRow{
			RunID:        runID,
			RowIndex:     i,
			Company:      r.Company,
			Domain:       domain,
			Status:       r.Status,
			ErrorMessage: r.ErrorMessage,
			ContactCount: len(r.Contacts()),
		})
	}
	return rows
}
