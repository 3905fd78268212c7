// Package tts holds the clients for the two synthesis backends: the remote
// Hakka TTS service for Han-script runs and a generic TTS endpoint for
// Latin-script runs. Both are consumed as opaque remote services; this
// package only guarantees the request/response contract.
package tts

import "context"

// Synthesizer turns one text run into raw WAV bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
