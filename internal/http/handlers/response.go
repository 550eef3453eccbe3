// Package handlers implements the storefront HTTP endpoints.
//
// Every error goes out through fail() in one envelope:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "error": "Mahsulot topilmadi"
//	}
//
// The error text is shopper-facing (Uzbek); clients branch on code.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/http/middleware"
)

// ErrorResponse is the error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go)
	Code string `json:"code" example:"not_found"`
	// Human-readable message, safe to show to shoppers
	Error string `json:"error" example:"Mahsulot topilmadi"`
}

// DataResponse wraps successful payloads of the order endpoints.
type DataResponse[T any] struct {
	Data T `json:"data"`
}

// fail aborts with the error envelope. 5xx responses are logged with the
// request-scoped logger; cause is attached to the log line only.
func fail(c *gin.Context, status int, code, msg string, cause ...error) {
	if status >= http.StatusInternalServerError {
		ev := middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code)
		if len(cause) > 0 && cause[0] != nil {
			ev = ev.Err(cause[0])
			_ = c.Error(cause[0])
		}
		ev.Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: middleware.GetRequestID(c),
		Code:      code,
		Error:     msg,
	})
}

// Fail is fail for the router's NoRoute/NoMethod handlers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
