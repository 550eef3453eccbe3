package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/assistant"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/search"
)

const (
	modeMessage = "message"
	modePrompt  = "prompt"
)

// GenerateInput is a text generation request.
type GenerateInput struct {
	Message           string
	Prompt            string
	SystemInstruction string
	History           []assistant.Turn
	ResponseMIMEType  string
}

// AssistantService validates generation requests and runs them through the
// fallback chain. Conversational requests can be grounded in store help text.
type AssistantService struct {
	Generator assistant.Generator

	// Knowledge, when set, contributes its best matches to the system
	// instruction of conversational requests.
	Knowledge    search.Index
	KnowledgeTop int

	MaxInputRunes int
	MaxHistory    int
}

// Generate returns generated text for in.
func (s *AssistantService) Generate(ctx context.Context, in GenerateInput) (string, error) {
	tr := otel.Tracer("services/AssistantService")
	ctx, span := tr.Start(ctx, "Generate")
	defer span.End()

	req, err := s.request(in)
	if err != nil {
		return "", err
	}
	mode := modeMessage
	if req.Prompt != "" {
		mode = modePrompt
	}
	span.SetAttributes(
		attribute.String("assistant.mode", mode),
		attribute.Int("assistant.history", len(req.History)),
	)
	if s.Generator == nil {
		return "", ErrAssistantUnavailable
	}

	out, err := s.Generator.Generate(ctx, req)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	return strings.TrimSpace(out), nil
}

func (s *AssistantService) request(in GenerateInput) (assistant.Request, error) {
	msg := strings.TrimSpace(in.Message)
	prompt := strings.TrimSpace(in.Prompt)
	if (msg == "") == (prompt == "") {
		return assistant.Request{}, ErrGenerateMode
	}
	if s.tooLong(msg) || s.tooLong(prompt) || s.tooLong(in.SystemInstruction) {
		return assistant.Request{}, ErrTooLong
	}

	req := assistant.Request{
		SystemInstruction: strings.TrimSpace(in.SystemInstruction),
	}
	if prompt != "" {
		req.Prompt = prompt
		req.ResponseMIMEType = strings.TrimSpace(in.ResponseMIMEType)
		return req, nil
	}

	req.Message = msg
	history := in.History
	if s.MaxHistory > 0 && len(history) > s.MaxHistory {
		history = history[len(history)-s.MaxHistory:]
	}
	for _, t := range history {
		role, ok := assistant.NormalizeRole(t.Role)
		if !ok {
			return assistant.Request{}, ErrInvalidHistory
		}
		req.History = append(req.History, assistant.Turn{Role: role, Text: t.Text})
	}
	req.SystemInstruction = s.ground(req.SystemInstruction, msg)
	return req, nil
}

// ground appends the best knowledge matches for msg to instruction.
func (s *AssistantService) ground(instruction, msg string) string {
	if s.Knowledge == nil {
		return instruction
	}
	k := s.KnowledgeTop
	if k <= 0 {
		k = 3
	}
	hits := s.Knowledge.TopK(msg, k)
	if len(hits) == 0 {
		return instruction
	}
	var b strings.Builder
	b.WriteString(instruction)
	if instruction != "" {
		b.WriteString("\n\n")
	}
	b.WriteString("Do'kon ma'lumotlari:\n")
	for _, h := range hits {
		b.WriteString("- ")
		b.WriteString(h.Snippet)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *AssistantService) tooLong(v string) bool {
	return s.MaxInputRunes > 0 && utf8.RuneCountInString(v) > s.MaxInputRunes
}
