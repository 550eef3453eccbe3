package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/assistant"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/services"
)

// GenerateRequest is the text generation payload. Exactly one of message
// (multi-turn, with history) and prompt (one-shot) is set.
type GenerateRequest struct {
	Message           string           `json:"message,omitempty"           example:"Oltin uzuklar bormi?"`
	Prompt            string           `json:"prompt,omitempty"`
	SystemInstruction string           `json:"systemInstruction,omitempty"`
	History           []assistant.Turn `json:"history,omitempty"`
	ResponseMIMEType  string           `json:"responseMimeType,omitempty"  example:"application/json"`
}

// GenerateResponse carries the generated text.
type GenerateResponse struct {
	Text string `json:"text" example:"Ha, bizda 18 karatli oltin uzuklar bor."`
}

// Generate godoc
// @ID          generateText
// @Summary     Generate assistant text
// @Description Runs the request through the configured keys and models in order and returns the first non-empty answer.
// @Tags        AI
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.GenerateRequest  true  "Message or prompt"
// @Success     200  {object}  handlers.GenerateResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     502  {object}  handlers.ErrorResponse  "Every model failed"
// @Failure     503  {object}  handlers.ErrorResponse  "Not configured"
// @Router      /ai/generate [post]
func (h *Handlers) Generate(c *gin.Context) {
	if h.ai == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, msgAIUnavailable)
		return
	}
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgBadJSON)
		return
	}
	text, err := h.ai.Generate(c.Request.Context(), services.GenerateInput{
		Message:           req.Message,
		Prompt:            req.Prompt,
		SystemInstruction: req.SystemInstruction,
		History:           req.History,
		ResponseMIMEType:  req.ResponseMIMEType,
	})
	if err != nil {
		e := generateError(err)
		fail(c, e.status, e.code, e.msg, err)
		return
	}
	ok(c, http.StatusOK, GenerateResponse{Text: text})
}
