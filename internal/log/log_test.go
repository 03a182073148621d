package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func TestWriteIncludesRequestContext(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, slog.LevelInfo)
	defer Setup(os.Stdout, slog.LevelInfo)

	app := fiber.New()
	app.Use(requestid.New())
	app.Get("/x", func(c *fiber.Ctx) error {
		Error(c, "sale.create.fail", errors.New("boom"), map[string]any{"sale_id": 7})
		return c.SendStatus(fiber.StatusNoContent)
	})
	if _, err := app.Test(httptest.NewRequest("GET", "/x", nil)); err != nil {
		t.Fatal(err)
	}

	var e map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &e); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if e["action"] != "sale.create.fail" || e["level"] != "error" || e["err"] != "boom" {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if e["path"] != "/x" || e["method"] != "GET" {
		t.Fatalf("request fields missing: %+v", e)
	}
	if rid, _ := e["req_id"].(string); rid == "" {
		t.Fatalf("request id missing: %+v", e)
	}
	fields, _ := e["fields"].(map[string]any)
	if fields["sale_id"] != float64(7) {
		t.Fatalf("fields missing: %+v", e)
	}
}

func TestAuditLevelName(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, slog.LevelInfo)
	defer Setup(os.Stdout, slog.LevelInfo)

	Audit(nil, "sale.create", nil)
	var e map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &e); err != nil {
		t.Fatal(err)
	}
	if e["level"] != "audit" {
		t.Fatalf("want audit level, got %v", e["level"])
	}
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, ParseLevel("warn"))
	defer Setup(os.Stdout, slog.LevelInfo)

	Info(nil, "noise", nil)
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}
	Security(nil, "validation.fail", nil)
	if buf.Len() == 0 {
		t.Fatal("warn entry missing")
	}
}
