package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RedactOptions configures RedactingLogger. MaskHeaders are replaced with
// "[REDACTED]" in addition to Authorization, Cookie, Set-Cookie and
// X-Goog-Api-Key.
type RedactOptions struct {
	MaskHeaders []string
}

var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// Uzbek numbers are usually written as +998 90 123 45 67; the pattern also
	// covers compact and URL-encoded ("%2B998...") forms.
	phoneRE = regexp.MustCompile(`(?:\+|%2[Bb]|\b)(?:\d[ .()\-]?){8,14}\d\b`)
	// API keys in query strings (the voice descriptor URL carries one).
	keyParamRE = regexp.MustCompile(`(?i)\b(key|api_key|token)=[^&\s]+`)
)

// redact scrubs ids, e-mails, phone numbers and credentials from s. UUIDs go
// first so the phone pattern never eats their digit groups.
func redact(s string) string {
	if s == "" {
		return s
	}
	s = keyParamRE.ReplaceAllString(s, "$1=[REDACTED]")
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	s = phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
	return s
}

// RedactingLogger logs one line per request with sensitive values scrubbed
// and attaches a request-scoped logger for handlers. Bodies are never logged.
// Level follows the status: error for 5xx, warn for 4xx, info otherwise.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	mask := map[string]struct{}{
		"authorization":  {},
		"cookie":         {},
		"set-cookie":     {},
		"x-goog-api-key": {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			mask[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		headers := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := mask[strings.ToLower(k)]; ok {
				headers[k] = "[REDACTED]"
				continue
			}
			headers[k] = redact(strings.Join(vv, ", "))
		}

		rl := log.With().
			Str("request_id", GetRequestID(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Logger()
		c.Set(loggerKey, &rl)

		c.Next()

		status := c.Writer.Status()
		ev := rl.Info()
		switch {
		case status >= 500 || len(c.Errors) > 0:
			ev = rl.Error()
			if len(c.Errors) > 0 {
				ev = ev.Str("errors", redact(c.Errors.String()))
			}
		case status >= 400:
			ev = rl.Warn()
		}
		ev.
			Str("query", truncate(redact(c.Request.URL.RawQuery), maxQueryLogLength)).
			Str("client_ip", c.ClientIP()).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}
