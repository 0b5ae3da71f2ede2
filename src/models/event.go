package models

// Journal event kinds
const (
	EventBootstrap = "bootstrap"
	EventScaffold  = "scaffold"
	EventStart     = "start"
	EventExit      = "exit"
	EventRestart   = "restart"
	EventError     = "error"
)

// MEvent is a single entry in the run journal.
type MEvent struct {
	ID        int64  `json:"id"`
	Kind      string `json:"kind"`
	Detail    string `json:"detail"`
	Timestamp int64  `json:"timestamp"`
}
