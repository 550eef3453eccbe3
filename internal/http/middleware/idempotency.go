package middleware

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey carries the client's idempotency key on order
// submission. HeaderClientID optionally names the client installation; the
// client IP is used when it is absent.
const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderClientID       = "X-Client-ID"
	HeaderReplayed       = "Idempotency-Replayed"
)

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay" // string: stored order id
	ctxKeyRateBypass = "rate.bypass"
)

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the validated key stored by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	s := c.GetString(ctxKeyIdemKey)
	return s, s != ""
}

// ReplayID returns the order id recorded for this key, if the request is a
// replay of a completed submission.
func ReplayID(c *gin.Context) (string, bool) {
	s := c.GetString(ctxKeyIdemReplay)
	return s, s != ""
}

// IsReplay reports whether IdempotencyValidator found a stored result.
func IsReplay(c *gin.Context) bool {
	_, ok := ReplayID(c)
	return ok
}

// ClientID identifies the caller for idempotency and rate limiting:
// "client:<X-Client-ID>" when the header is usable, otherwise "ip:<addr>".
func ClientID(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(HeaderClientID)); id != "" && len(id) <= 64 && defaultKeyPattern.MatchString(id) {
		return "client:" + id
	}
	return "ip:" + c.ClientIP()
}

// IdempotencyOptions configures header validation. TTL is enforced by the
// lookup, not here.
type IdempotencyOptions struct {
	// MaxLen caps the key length; <= 0 means 128.
	MaxLen int
	// Pattern restricts allowed characters; nil means ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
}

// IdempotencyLookup returns the resource id stored for (clientID, scope, key)
// if a still-valid record exists. Errors are logged and treated as a miss.
type IdempotencyLookup func(ctx context.Context, clientID, scope, key string, now time.Time) (resourceID string, exists bool, err error)

// IdempotencyValidator validates the Idempotency-Key header when present and,
// when lookup finds a prior result, marks the request as a replay so the
// handler can return the stored order and the rate limiter lets it through.
// The scope is the matched route.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 128
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": GetRequestID(c),
				"code":       "bad_idempotency_key",
				"error":      "Idempotency-Key noto'g'ri",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			id, ok, err := lookup(c.Request.Context(), ClientID(c), c.FullPath(), key, time.Now().UTC())
			switch {
			case err != nil:
				LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
			case ok && id != "":
				c.Set(ctxKeyIdemReplay, id)
				c.Set(ctxKeyRateBypass, true)
				c.Header(HeaderReplayed, "true")
			}
		}
		c.Next()
	}
}
