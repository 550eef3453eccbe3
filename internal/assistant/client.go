package assistant

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/metrics"
)

// Roles accepted in history.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one prior exchange in a multi-turn conversation.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Request is a generation request. Exactly one of Message (multi-turn, with
// History) or Prompt (one-shot) is set.
type Request struct {
	Message           string
	Prompt            string
	SystemInstruction string
	History           []Turn
	ResponseMIMEType  string
}

// Generator produces text for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Candidate is one credential and model pair.
type Candidate struct {
	APIKey string
	Model  string
}

// Candidates orders every key for the first model, then every key for the
// next model, so a preferred model is exhausted across keys before degrading.
func Candidates(keys, models []string) []Candidate {
	out := make([]Candidate, 0, len(keys)*len(models))
	for _, m := range models {
		for _, k := range keys {
			out = append(out, Candidate{APIKey: k, Model: m})
		}
	}
	return out
}

// NormalizeRole maps client role names onto Gemini roles.
func NormalizeRole(role string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "user":
		return RoleUser, true
	case "model", "assistant", "bot":
		return RoleModel, true
	}
	return "", false
}

// Config configures a Client.
type Config struct {
	APIKeys []string
	Models  []string
	Timeout time.Duration // per attempt
}

// callFunc performs a single attempt against one candidate.
type callFunc func(ctx context.Context, c Candidate, req Request) (string, error)

// Client is a Gemini-backed Generator with key/model fallback.
type Client struct {
	candidates []Candidate
	timeout    time.Duration
	metrics    *metrics.Metrics
	log        zerolog.Logger
	call       callFunc

	mu      sync.Mutex
	clients map[string]*genai.Client
}

// New builds a Client. m may be nil.
func New(cfg Config, m *metrics.Metrics, log zerolog.Logger) *Client {
	c := &Client{
		candidates: Candidates(cfg.APIKeys, cfg.Models),
		timeout:    cfg.Timeout,
		metrics:    m,
		log:        log.With().Str("component", "assistant").Logger(),
		clients:    map[string]*genai.Client{},
	}
	c.call = c.callGemini
	return c
}

// Configured reports whether at least one candidate exists.
func (c *Client) Configured() bool { return len(c.candidates) > 0 }

// Generate walks the candidates until one yields text.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	return Chain(ctx, c.candidates, func(ctx context.Context, cand Candidate) (string, error) {
		if c.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
		start := time.Now()
		out, err := c.call(ctx, cand, req)
		c.metrics.ObserveUpstream("gemini", cand.Model, start, err)
		if err != nil {
			c.log.Warn().Err(err).Str("model", cand.Model).Str("key", maskKey(cand.APIKey)).Msg("gemini attempt failed")
		}
		return out, err
	})
}

func (c *Client) genaiClient(ctx context.Context, key string) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cl, ok := c.clients[key]; ok {
		return cl, nil
	}
	cl, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	c.clients[key] = cl
	return cl, nil
}

func (c *Client) callGemini(ctx context.Context, cand Candidate, req Request) (string, error) {
	cl, err := c.genaiClient(ctx, cand.APIKey)
	if err != nil {
		return "", err
	}
	contents, err := buildContents(req)
	if err != nil {
		return "", err
	}
	resp, err := cl.Models.GenerateContent(ctx, cand.Model, contents, buildConfig(req))
	if err != nil {
		return "", fmt.Errorf("generate %s: %w", cand.Model, err)
	}
	return resp.Text(), nil
}

func buildContents(req Request) ([]*genai.Content, error) {
	if req.Prompt != "" {
		return genai.Text(req.Prompt), nil
	}
	out := make([]*genai.Content, 0, len(req.History)+1)
	for _, t := range req.History {
		role, ok := NormalizeRole(t.Role)
		if !ok {
			return nil, fmt.Errorf("history role %q: unsupported", t.Role)
		}
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		out = append(out, genai.NewContentFromText(t.Text, genai.Role(role)))
	}
	out = append(out, genai.NewContentFromText(req.Message, genai.RoleUser))
	return out, nil
}

func buildConfig(req Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if s := strings.TrimSpace(req.SystemInstruction); s != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(s)}}
	}
	if req.ResponseMIMEType != "" {
		cfg.ResponseMIMEType = req.ResponseMIMEType
	}
	return cfg
}

func maskKey(k string) string {
	if len(k) <= 6 {
		return "***"
	}
	return k[:4] + "…" + k[len(k)-2:]
}
