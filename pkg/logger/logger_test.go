package logger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestInitWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("warn", &buf)
	defer Init("info")

	Info().Msg("hidden")
	Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("warn message should be written")
	}
}

func TestInitWithWriter_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("nonsense", &buf)
	defer Init("info")

	Debug().Msg("debug-line")
	Info().Msg("info-line")

	out := buf.String()
	if strings.Contains(out, "debug-line") {
		t.Error("debug should be filtered at info level")
	}
	if !strings.Contains(out, "info-line") {
		t.Error("info should be written")
	}
}

func TestWith_AddsComponent(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("info", &buf)
	defer Init("info")

	l := With("importer")
	l.Info().Msg("hello")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log line: %v", err)
	}
	if entry["component"] != "importer" {
		t.Errorf("component = %v, expected importer", entry["component"])
	}
}

func TestGinLogger_SetsRequestID(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("info", &buf)
	defer Init("info")

	router := gin.New()
	router.Use(GinLogger())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ping", nil)
	router.ServeHTTP(w, req)

	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("response should carry a request id")
	}
	if !strings.Contains(buf.String(), `"path":"/ping"`) {
		t.Errorf("request log missing path: %s", buf.String())
	}
}

func TestGinLogger_ReusesClientRequestID(t *testing.T) {
	InitWithWriter("info", &bytes.Buffer{})
	defer Init("info")

	router := gin.New()
	router.Use(GinLogger())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	router.ServeHTTP(w, req)

	if w.Body.String() != "abc-123" {
		t.Errorf("request_id = %q, expected abc-123", w.Body.String())
	}
}

func TestGinRecovery(t *testing.T) {
	InitWithWriter("info", &bytes.Buffer{})
	defer Init("info")

	router := gin.New()
	router.Use(GinRecovery())
	router.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/boom", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
}
