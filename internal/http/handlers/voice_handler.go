package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/services"
)

// VoiceSession godoc
// @ID          voiceSession
// @Summary     Get a live voice session descriptor
// @Description Returns the websocket URL (with credential) and model for one live voice session. The response must not be cached.
// @Tags        Voice
// @Produce     json
// @Success     200  {object}  services.VoiceDescriptor
// @Header      200  {string}  Cache-Control  "no-store"
// @Failure     503  {object}  handlers.ErrorResponse  "Voice not configured"
// @Router      /voice/session [get]
func (h *Handlers) VoiceSession(c *gin.Context) {
	if h.voice == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, msgVoiceUnavailable)
		return
	}
	d, err := h.voice.Descriptor()
	switch {
	case errors.Is(err, services.ErrVoiceUnavailable):
		fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, msgVoiceUnavailable)
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, msgInternal, err)
	default:
		ok(c, http.StatusOK, d)
	}
}
