package interfaces

import "portfolio-runner/src/models"

// IJournal records runner lifecycle events and per-run rows
type IJournal interface {
	Initialize() error
	RecordEvent(kind string, detail string) error
	RecordRunStart(pid int) (int64, error)
	RecordRunEnd(runID int64, exitDetail string) error
	RecentEvents(limit int) ([]models.MEvent, error)
	CleanupOldEvents() error
	Close() error
}
