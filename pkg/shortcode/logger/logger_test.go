package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
		ok       bool
	}{
		{"debug", zapcore.DebugLevel, true},
		{"info", zapcore.InfoLevel, true},
		{"warn", zapcore.WarnLevel, true},
		{"error", zapcore.ErrorLevel, true},
		{"verbose", zapcore.InfoLevel, false},
		{"", zapcore.InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			lvl, ok := ParseLevel(tt.input)
			if ok != tt.ok {
				t.Errorf("Expected ok=%v, got %v", tt.ok, ok)
			}
			if lvl != tt.expected {
				t.Errorf("Expected level %v, got %v", tt.expected, lvl)
			}
		})
	}
}

func TestNew(t *testing.T) {
	for _, pretty := range []bool{true, false} {
		log, err := New("debug", pretty)
		if err != nil {
			t.Fatalf("New(pretty=%v) failed: %v", pretty, err)
		}
		if log == nil {
			t.Fatal("Expected logger to be created")
		}
	}
}

func setupObservedRouter(handler gin.HandlerFunc) (*gin.Engine, *observer.ObservedLogs) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)
	log := FromZap(zap.New(core))

	r := gin.New()
	r.Use(RequestLogger(log), Recovery(log))
	r.GET("/ping", handler)
	return r, logs
}

func TestRequestLoggerWritesOneLine(t *testing.T) {
	router, logs := setupObservedRouter(func(c *gin.Context) {
		c.String(http.StatusTeapot, "short and stout")
	})

	req, _ := http.NewRequest("GET", "/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	entries := logs.FilterMessage("http_request").All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 http_request log line, got %d", len(entries))
	}

	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusTeapot) {
		t.Errorf("Expected status %d in log, got %v", http.StatusTeapot, fields["status"])
	}
	if fields["path"] != "/ping" {
		t.Errorf("Expected path /ping in log, got %v", fields["path"])
	}
	if fields["request_id"] == "" {
		t.Error("Expected request_id in log")
	}
	if resp.Header().Get(HeaderRequestID) == "" {
		t.Error("Expected X-Request-ID response header")
	}
}

func TestRequestLoggerReusesRequestID(t *testing.T) {
	var seen string
	router, _ := setupObservedRouter(func(c *gin.Context) {
		seen = RequestID(c)
		c.Status(http.StatusNoContent)
	})

	req, _ := http.NewRequest("GET", "/ping", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if seen != "req-123" {
		t.Errorf("Expected request id 'req-123' in context, got %q", seen)
	}
	if got := resp.Header().Get(HeaderRequestID); got != "req-123" {
		t.Errorf("Expected X-Request-ID 'req-123', got %q", got)
	}
}

func TestRecoveryReturns500(t *testing.T) {
	router, logs := setupObservedRouter(func(c *gin.Context) {
		panic("boom")
	})

	req, _ := http.NewRequest("GET", "/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", resp.Code)
	}
	if logs.FilterMessage("panic recovered").Len() != 1 {
		t.Error("Expected panic to be logged")
	}
}
