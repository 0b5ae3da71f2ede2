package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"portfolio-runner/src/logger"
	"portfolio-runner/src/models"
	"portfolio-runner/src/testutils"
	"portfolio-runner/src/utils"
)

func newTestServer(t *testing.T) (*ControlServer, *testutils.MockJournal) {
	t.Helper()

	cfg := &models.MConfig{
		Name:     "portfolio-runner",
		Host:     "127.0.0.1",
		Port:     5050,
		LogLevel: "ERROR",
		App: models.MAppLaunchConfig{
			Entrypoint: "portfolio_web_app.py",
			FlaskEnv:   "development",
		},
	}

	journal := &testutils.MockJournal{}
	ring := utils.NewLogRing(10)
	srv := NewControlServer(cfg, logger.NewLogger("ERROR", "test"), ring, journal)
	return srv, journal
}

func doRequest(srv *ControlServer, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	srv.engine.ServeHTTP(w, req)
	return w
}

func TestGetHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(srv, http.MethodGet, "/api/health")
	if w.Code != 200 {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body["status"])
	}
	if body["app_state"] != models.StateStopped {
		t.Errorf("Expected app_state stopped, got %v", body["app_state"])
	}
}

func TestGetStatus_ReflectsPublishedState(t *testing.T) {
	srv, _ := newTestServer(t)

	// Push a status straight into the cache (hub loop not running in tests)
	srv.stateMutex.Lock()
	srv.latestStatus = models.MProcessStatus{
		State:     models.StateRunning,
		PID:       4321,
		StartedAt: time.Now().Unix(),
	}
	srv.stateMutex.Unlock()

	w := doRequest(srv, http.MethodGet, "/api/status")
	if w.Code != 200 {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var status models.MProcessStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if status.State != models.StateRunning || status.PID != 4321 {
		t.Errorf("Unexpected status: %+v", status)
	}
}

func TestGetLogs_ReturnsRingContent(t *testing.T) {
	srv, _ := newTestServer(t)

	for i := 0; i < 3; i++ {
		srv.Ring.Append(models.MLogLine{Stream: "stdout", Text: "boot", Timestamp: int64(i)})
	}

	w := doRequest(srv, http.MethodGet, "/api/logs?limit=2")
	if w.Code != 200 {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body struct {
		Lines []models.MLogLine `json:"lines"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(body.Lines) != 2 {
		t.Errorf("Expected 2 lines, got %d", len(body.Lines))
	}
}

func TestGetEvents(t *testing.T) {
	srv, journal := newTestServer(t)

	journal.RecordEvent(models.EventStart, "started pid 1")
	journal.RecordEvent(models.EventExit, "exit status 1")

	w := doRequest(srv, http.MethodGet, "/api/events")
	if w.Code != 200 {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body struct {
		Events []models.MEvent `json:"events"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(body.Events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(body.Events))
	}
	if body.Events[0].Kind != models.EventExit {
		t.Errorf("Expected newest event first, got %s", body.Events[0].Kind)
	}
}

func TestPostRestart(t *testing.T) {
	srv, _ := newTestServer(t)

	// Without a launcher wired in the endpoint must refuse
	w := doRequest(srv, http.MethodPost, "/api/restart")
	if w.Code != 503 {
		t.Fatalf("Expected 503 before SetRestarter, got %d", w.Code)
	}

	restarter := &testutils.MockRestarter{}
	srv.SetRestarter(restarter)

	w = doRequest(srv, http.MethodPost, "/api/restart")
	if w.Code != 200 {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if restarter.Count() != 1 {
		t.Errorf("Expected 1 restart, got %d", restarter.Count())
	}
	if restarter.Reasons[0] != "api request" {
		t.Errorf("Unexpected restart reason: %s", restarter.Reasons[0])
	}
}

func TestGetConfig_OmitsSecrets(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(srv, http.MethodGet, "/api/config")
	if w.Code != 200 {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if body["entrypoint"] != "portfolio_web_app.py" {
		t.Errorf("Expected entrypoint in config summary, got %v", body["entrypoint"])
	}
}

func TestStop_EndsHubAndDisconnectsClients(t *testing.T) {
	srv, _ := newTestServer(t)

	finished := make(chan struct{})
	go func() {
		srv.handleWebsockets()
		close(finished)
	}()

	client := &Client{hub: srv, send: make(chan *models.MStatusUpdate, 8)}
	srv.register <- client

	if err := srv.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Hub loop did not exit after Stop")
	}

	// The client's send channel must be drained to a close, not left open
	closed := false
	for !closed {
		select {
		case _, ok := <-client.send:
			if !ok {
				closed = true
			}
		case <-time.After(time.Second):
			t.Fatal("Client send channel was not closed on Stop")
		}
	}

	// Late publishers must not panic or wedge
	srv.PublishStatus(models.MProcessStatus{State: models.StateStopped})
	srv.PublishLog(models.MLogLine{Stream: "stdout", Text: "late line"})
}
