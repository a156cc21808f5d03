package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func captureLastLogLine(t *testing.T, fn func()) map[string]any {
	t.Helper()
	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	defer func() {
		os.Stdout = origStdout
	}()

	fn()

	_ = w.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("read log output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	last := lines[len(lines)-1]
	var payload map[string]any
	if err := json.Unmarshal([]byte(last), &payload); err != nil {
		t.Fatalf("decode log json %q: %v", last, err)
	}
	return payload
}

func TestLoggingIncludesRequiredFields(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID(), Logging())
	router.POST("/upload", func(c *gin.Context) {
		c.Set("tenant", "Acme Corp")
		c.Set("dbName", "tenant_acme_corp")
		c.Set("recordId", "rec-1")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	payload := captureLastLogLine(t, func() {
		req := httptest.NewRequest(http.MethodPost, "/upload", nil)
		req.Header.Set("X-Request-Id", "req-42")
		router.ServeHTTP(httptest.NewRecorder(), req)
	})

	if payload["msg"] != "request.complete" {
		t.Fatalf("unexpected msg: %v", payload["msg"])
	}
	for _, key := range []string{"request_id", "method", "path", "status", "duration_ms", "tenant", "db_name", "record_id"} {
		if _, ok := payload[key]; !ok {
			t.Fatalf("missing log field: %s", key)
		}
	}
	if payload["request_id"] != "req-42" {
		t.Fatalf("unexpected request_id: %v", payload["request_id"])
	}
	if payload["tenant"] != "Acme Corp" || payload["db_name"] != "tenant_acme_corp" {
		t.Fatalf("unexpected tenant fields: %v", payload)
	}
	if _, ok := payload["step"]; ok {
		t.Fatalf("step should be omitted on success")
	}
}

func TestLoggingRecordsFailedStep(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID(), Logging())
	router.POST("/upload", func(c *gin.Context) {
		c.Set("step", "extract")
		c.JSON(http.StatusBadRequest, gin.H{"error": "extract: bad pdf"})
	})

	payload := captureLastLogLine(t, func() {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/upload", nil))
	})
	if payload["step"] != "extract" {
		t.Fatalf("unexpected step: %v", payload["step"])
	}
	if payload["status"] != float64(http.StatusBadRequest) {
		t.Fatalf("unexpected status: %v", payload["status"])
	}
}
