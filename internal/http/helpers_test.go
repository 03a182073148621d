package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"smarttrack/internal/config"
	"smarttrack/internal/events"
	"smarttrack/internal/http/handlers"
	applog "smarttrack/internal/log"
	"smarttrack/internal/repos"
)

var fixedNow = time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC)

type testApp struct {
	app    *fiber.App
	db     *sqlx.DB
	events *events.Recorder
}

func baseConfig() config.Config {
	return config.Config{
		Port:         "8000",
		DBDriver:     repos.DriverSQLite,
		DBDSN:        ":memory:",
		TemplatesDir: "../../web/templates",
	}
}

// newTestApp builds the full app over a fresh in-memory store with a fixed clock.
func newTestApp(t *testing.T, tweak func(*config.Config)) *testApp {
	t.Helper()
	cfg := baseConfig()
	if tweak != nil {
		tweak(&cfg)
	}
	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	rec := &events.Recorder{}
	deps := handlers.NewDeps(db, rec, func() time.Time { return fixedNow })
	return &testApp{app: handlers.NewApp(deps, cfg), db: db, events: rec}
}

func (a *testApp) do(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := a.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return resp, body
}

func (a *testApp) getJSON(t *testing.T, path string) (int, map[string]any) {
	t.Helper()
	resp, body := a.do(t, httptest.NewRequest(http.MethodGet, path, nil))
	return resp.StatusCode, decodeObject(t, body)
}

func (a *testApp) getList(t *testing.T, path string) (int, []map[string]any) {
	t.Helper()
	resp, body := a.do(t, httptest.NewRequest(http.MethodGet, path, nil))
	var out []map[string]any
	if resp.StatusCode == fiber.StatusOK {
		if err := json.Unmarshal(body, &out); err != nil {
			t.Fatalf("decode list: %v (%s)", err, body)
		}
	}
	return resp.StatusCode, out
}

func (a *testApp) postJSON(t *testing.T, path, payload string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(payload))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	resp, body := a.do(t, req)
	return resp.StatusCode, decodeObject(t, body)
}

// mustPost posts JSON and fails the test unless the response is 200.
func (a *testApp) mustPost(t *testing.T, path, payload string) map[string]any {
	t.Helper()
	status, out := a.postJSON(t, path, payload)
	if status != fiber.StatusOK {
		t.Fatalf("POST %s: status %d, body %v", path, status, out)
	}
	return out
}

func decodeObject(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode object: %v (%s)", err, body)
	}
	return out
}

func errorKind(out map[string]any) string {
	e, _ := out["error"].(map[string]any)
	k, _ := e["kind"].(string)
	return k
}

func errorMessage(out map[string]any) string {
	e, _ := out["error"].(map[string]any)
	m, _ := e["message"].(string)
	return m
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

// captureLogs runs fn with the process logger redirected and returns the entries it wrote.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	buf := &lockedBuf{}
	applog.Setup(buf, slog.LevelDebug)
	defer applog.Setup(os.Stdout, slog.LevelInfo)

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.b.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func hasAction(entries []logEntry, action string) bool {
	for _, e := range entries {
		if e.Action == action {
			return true
		}
	}
	return false
}
