package testutils

import (
	"context"
	"strings"
	"sync"

	"portfolio-runner/src/models"
)

// -----------------------------------------------------------------------------
// MockCommandRunner
// -----------------------------------------------------------------------------

type RunnerCall struct {
	Dir  string
	Name string
	Args []string
}

// MockCommandRunner records every command and returns scripted results.
type MockCommandRunner struct {
	Mu     sync.Mutex
	Calls  []RunnerCall
	Output []byte
	// Errors maps a space-joined command-line prefix to the error returned
	// when a command matches it.
	Errors map[string]error
}

func (m *MockCommandRunner) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	m.Calls = append(m.Calls, RunnerCall{Dir: dir, Name: name, Args: args})

	line := strings.Join(append([]string{name}, args...), " ")
	for prefix, err := range m.Errors {
		if strings.HasPrefix(line, prefix) {
			return nil, err
		}
	}
	return m.Output, nil
}

// CommandLine renders call i as a single string for assertions
func (m *MockCommandRunner) CommandLine(i int) string {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	if i < 0 || i >= len(m.Calls) {
		return ""
	}
	c := m.Calls[i]
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// -----------------------------------------------------------------------------
// MockJournal
// -----------------------------------------------------------------------------

type MockRun struct {
	PID        int
	ExitDetail string
	Ended      bool
}

type MockJournal struct {
	Mu     sync.Mutex
	Events []models.MEvent
	Runs   []MockRun

	RecordErr error
}

func (m *MockJournal) Initialize() error { return nil }

func (m *MockJournal) RecordEvent(kind string, detail string) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.Events = append(m.Events, models.MEvent{
		ID:     int64(len(m.Events) + 1),
		Kind:   kind,
		Detail: detail,
	})
	return nil
}

func (m *MockJournal) RecordRunStart(pid int) (int64, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	if m.RecordErr != nil {
		return 0, m.RecordErr
	}
	m.Runs = append(m.Runs, MockRun{PID: pid})
	return int64(len(m.Runs)), nil
}

func (m *MockJournal) RecordRunEnd(runID int64, exitDetail string) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	if m.RecordErr != nil {
		return m.RecordErr
	}
	if runID < 1 || runID > int64(len(m.Runs)) {
		return nil
	}
	m.Runs[runID-1].Ended = true
	m.Runs[runID-1].ExitDetail = exitDetail
	return nil
}

func (m *MockJournal) RecentEvents(limit int) ([]models.MEvent, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	// Newest first, like the real journal
	var out []models.MEvent
	for i := len(m.Events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.Events[i])
	}
	return out, nil
}

func (m *MockJournal) CleanupOldEvents() error { return nil }

func (m *MockJournal) Close() error { return nil }

// EventKinds returns the recorded kinds in order
func (m *MockJournal) EventKinds() []string {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	kinds := make([]string, 0, len(m.Events))
	for _, e := range m.Events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

// -----------------------------------------------------------------------------
// MockRestarter
// -----------------------------------------------------------------------------

type MockRestarter struct {
	Mu      sync.Mutex
	Reasons []string
	Err     error
}

func (m *MockRestarter) Restart(reason string) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.Reasons = append(m.Reasons, reason)
	return nil
}

func (m *MockRestarter) Count() int {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return len(m.Reasons)
}
