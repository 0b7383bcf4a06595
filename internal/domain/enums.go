package domain

// SpeciesState is the sync lifecycle marker of a species row.
type SpeciesState string

const (
	// SpeciesStateActive marks a species confirmed by the latest sync.
	SpeciesStateActive SpeciesState = "active"
	// SpeciesStateLost marks a species that was not reconfirmed by the latest
	// sync. Lost rows are kept, never deleted.
	SpeciesStateLost SpeciesState = "lost"
)

func (s SpeciesState) String() string { return string(s) }

func (s SpeciesState) IsValid() bool {
	switch s {
	case SpeciesStateActive, SpeciesStateLost:
		return true
	}
	return false
}

// SyncStatus is the outcome of a sync run.
type SyncStatus string

const (
	SyncStatusRunning   SyncStatus = "running"
	SyncStatusSucceeded SyncStatus = "succeeded"
	SyncStatusFailed    SyncStatus = "failed"
)

func (s SyncStatus) String() string { return string(s) }

func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusRunning, SyncStatusSucceeded, SyncStatusFailed:
		return true
	}
	return false
}
