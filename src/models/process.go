package models

// Process lifecycle states
const (
	StateStopped  = "stopped"
	StateStarting = "starting"
	StateRunning  = "running"
	StateCrashed  = "crashed"
	StateGivenUp  = "given_up"
)

// MProcessStatus is the supervised child process snapshot.
type MProcessStatus struct {
	State       string `json:"state"`
	PID         int    `json:"pid"`
	StartedAt   int64  `json:"started_at"`
	Restarts    int    `json:"restarts"`
	LastExit    string `json:"last_exit,omitempty"`
	LastExitAt  int64  `json:"last_exit_at,omitempty"`
	LastRestart string `json:"last_restart_reason,omitempty"`
}

// MLogLine is a single line of child process output.
type MLogLine struct {
	Stream    string `json:"stream"` // "stdout" or "stderr"
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// MStatusUpdate is what the control server broadcasts to websocket clients.
type MStatusUpdate struct {
	Type    string          `json:"type"` // "INITIAL", "STATUS" or "LOG"
	Status  *MProcessStatus `json:"status,omitempty"`
	Log     *MLogLine       `json:"log,omitempty"`
	Backlog []MLogLine      `json:"backlog,omitempty"`
}

// MSubscribeCommand is the only client->server websocket message.
type MSubscribeCommand struct {
	Command string `json:"command"`
	Backlog int    `json:"backlog"`
}
