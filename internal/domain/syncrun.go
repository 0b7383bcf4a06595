package domain

import (
	"time"

	"github.com/google/uuid"
)

// SyncRun is the audit trail of one reconciliation attempt.
type SyncRun struct {
	ID                 uuid.UUID
	SourceURL          string
	SheetName          string
	Status             SyncStatus
	RecordsTotal       int
	SpeciesUpserted    int
	SpeciesExcluded    int
	SpeciesMarkedLost  int
	CategoriesInserted int
	RegionsInserted    int
	Error              *string
	StartedAt          time.Time
	FinishedAt         *time.Time
}

// NewSyncRun creates a running sync run for the given spreadsheet.
func NewSyncRun(sourceURL, sheetName string, records int) SyncRun {
	return SyncRun{
		ID:           uuid.New(),
		SourceURL:    sourceURL,
		SheetName:    sheetName,
		Status:       SyncStatusRunning,
		RecordsTotal: records,
		StartedAt:    time.Now().UTC(),
	}
}

// Finish closes the run: succeeded when err is nil, failed otherwise.
func (r *SyncRun) Finish(err error) {
	now := time.Now().UTC()
	r.FinishedAt = &now
	if err != nil {
		msg := err.Error()
		r.Error = &msg
		r.Status = SyncStatusFailed
		return
	}
	r.Error = nil
	r.Status = SyncStatusSucceeded
}
