// Package noop provides a tts.Provider that performs no synthesis, for
// tests and deployments that don't wire a real backend.
package noop

import (
	"context"

	"github.com/vocabtrainer/server/internal/tts"
)

// Provider returns zero-length audio for every request.
type Provider struct{}

func (Provider) Synthesize(ctx context.Context, text string) (tts.Audio, error) {
	return tts.Audio{ContentHash: tts.ContentHash(text)}, nil
}

var _ tts.Provider = Provider{}
