// Package genclient performs generation calls against the image service
// with bounded concurrency, bounded latency and automatic retry. It holds
// no round or output state.
package genclient

import (
	"context"
	"errors"

	"thumbcast/internal/domain"
)

// Request describes one image-generation call.
type Request struct {
	// Model is the service model identifier (not the catalog key).
	Model string
	// SystemInstruction is the style-governing instruction, sent separately
	// from the prompt on multimodal models and folded into the prompt on
	// direct ones.
	SystemInstruction string
	// Prompt is the composed prompt (user text + layout suffix).
	Prompt string
	// InputImage is an optional reference image as a data URI.
	InputImage string
	// Direct selects the direct image-synthesis request shape; false uses
	// multimodal content generation constrained to image output.
	Direct bool
}

// Provider is the transport behind the client. Implementations must honor
// context cancellation.
type Provider interface {
	// GenerateImage performs one attempt and returns the generated asset as
	// a data URI.
	GenerateImage(ctx context.Context, req Request) (string, error)
	// GenerateMetadata issues a schema-constrained text call returning
	// title/description/tags for the given prompt.
	GenerateMetadata(ctx context.Context, prompt string) (domain.SeoMetadata, error)
}

// ErrGeneration is the terminal error after all attempts exhaust.
var ErrGeneration = errors.New("generation failed")

// ErrNoImageData marks a response that arrived without usable image data.
var ErrNoImageData = errors.New("no image data in response")

// PlaceholderMetadata is returned when metadata generation fails; metadata
// is best-effort and never propagates an error.
func PlaceholderMetadata() domain.SeoMetadata {
	return domain.SeoMetadata{Title: "Error generating title", Tags: []string{}}
}
