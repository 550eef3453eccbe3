// Package assistant generates text with Gemini. Every call walks an ordered
// list of candidates (API key and model pairs, or whole generators) and
// returns the first non-empty answer; when all fail, the last error is
// returned.
package assistant

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNoCandidates is returned when there is nothing to try.
	ErrNoCandidates = errors.New("assistant: no candidates configured")
	// ErrEmptyResponse is returned by a candidate that answered with no text.
	ErrEmptyResponse = errors.New("assistant: empty response")
)

// Chain calls try for each candidate in order. The first non-blank result
// wins. Otherwise the error of the last attempt is returned. A cancelled ctx
// stops the walk.
func Chain[C any](ctx context.Context, candidates []C, try func(context.Context, C) (string, error)) (string, error) {
	if len(candidates) == 0 {
		return "", ErrNoCandidates
	}
	var last error
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			if last == nil {
				return "", err
			}
			return "", errors.Join(err, last)
		}
		out, err := try(ctx, c)
		if err != nil {
			last = err
			continue
		}
		if strings.TrimSpace(out) == "" {
			last = ErrEmptyResponse
			continue
		}
		return out, nil
	}
	return "", last
}

// Fallback returns a Generator that tries gens in order.
func Fallback(gens ...Generator) Generator {
	return fallback(gens)
}

type fallback []Generator

func (f fallback) Generate(ctx context.Context, req Request) (string, error) {
	return Chain(ctx, []Generator(f), func(ctx context.Context, g Generator) (string, error) {
		return g.Generate(ctx, req)
	})
}
