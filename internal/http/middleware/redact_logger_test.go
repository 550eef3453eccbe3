package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRedact(t *testing.T) {
	cases := map[string]string{
		"":                                       "",
		"call +998 90 123 45 67 now":             "call [REDACTED:phone] now",
		"phone=%2B998901234567":                  "phone=[REDACTED:phone]",
		"mail ali@example.uz":                    "mail [REDACTED:email]",
		"id 123e4567-e89b-12d3-a456-426614174000": "id [REDACTED:id]",
		"key=AIzaSyD-secret&model=x":             "key=[REDACTED]&model=x",
		"page=2&pageSize=20":                     "page=2&pageSize=20",
	}
	for in, want := range cases {
		if got := redact(in); got != want {
			t.Errorf("redact(%q) = %q; want %q", in, got, want)
		}
	}
}

func decodeLines(t *testing.T, raw string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("bad log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestRedactingLogger_MasksAndLevels(t *testing.T) {
	buf := captureLogs(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), RedactingLogger(RedactOptions{MaskHeaders: []string{" X-Secret "}}))
	r.GET("/orders/track", func(c *gin.Context) {
		LoggerFrom(c).Info().Msg("inside")
		c.Status(http.StatusOK)
	})
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(errors.New("db for +998901234567 down"))
		c.Status(http.StatusInternalServerError)
	})

	req := httptest.NewRequest(http.MethodGet, "/orders/track?phone=%2B998901234567", nil)
	req.Header.Set("Authorization", "Bearer t")
	req.Header.Set("X-Secret", "s")
	req.Header.Set("X-Goog-Api-Key", "AIza")
	req.Header.Set("X-Request-ID", "rid-1")
	r.ServeHTTP(httptest.NewRecorder(), req)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))

	lines := decodeLines(t, buf.String())
	if len(lines) != 4 {
		t.Fatalf("want 4 log lines, got %d: %s", len(lines), buf.String())
	}

	inside, access := lines[0], lines[1]
	if inside["message"] != "inside" || inside["request_id"] != "rid-1" || inside["path"] != "/orders/track" {
		t.Fatalf("scoped logger fields missing: %v", inside)
	}
	if access["level"] != "info" || access["message"] != "http_request" {
		t.Fatalf("access line: %v", access)
	}
	if q := access["query"].(string); strings.Contains(q, "998901234567") {
		t.Fatalf("phone leaked in query: %q", q)
	}
	headers := access["headers"].(map[string]any)
	for _, h := range []string{"Authorization", "X-Secret", "X-Goog-Api-Key"} {
		if headers[h] != "[REDACTED]" {
			t.Fatalf("%s not masked: %v", h, headers[h])
		}
	}

	if lines[2]["level"] != "warn" {
		t.Fatalf("404 should log at warn: %v", lines[2])
	}
	if lines[3]["level"] != "error" {
		t.Fatalf("500 should log at error: %v", lines[3])
	}
	if e, _ := lines[3]["errors"].(string); strings.Contains(e, "998901234567") || e == "" {
		t.Fatalf("errors field not redacted: %q", e)
	}
}
