package genclient

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"thumbcast/internal/domain"
)

// Defaults mirror the production service limits.
const (
	DefaultConcurrency = 9
	DefaultMaxRetries  = 3
	DefaultTimeout     = 193 * time.Second
	DefaultBaseDelay   = 1233 * time.Millisecond
)

// Options bound a Client.
type Options struct {
	Concurrency int           // max in-flight calls across the process
	MaxRetries  int           // attempts per logical call
	Timeout     time.Duration // wall-clock cap per attempt
	BaseDelay   time.Duration // backoff base; delay = base << attempt
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = DefaultBaseDelay
	}
	return o
}

// Client is a bounded-concurrency retrying request executor over a
// Provider. The admission gate is owned by the Client and therefore global
// to every caller sharing it.
type Client struct {
	provider Provider
	sem      *semaphore.Weighted
	opts     Options
	log      zerolog.Logger
}

// New returns a Client enforcing the given bounds.
func New(p Provider, opts Options, log zerolog.Logger) *Client {
	opts = opts.withDefaults()
	return &Client{
		provider: p,
		sem:      semaphore.NewWeighted(int64(opts.Concurrency)),
		opts:     opts,
		log:      log,
	}
}

// Generate performs one logical generation call: admission through the
// global gate, then up to MaxRetries attempts, each raced against the
// per-attempt timeout, with exponential backoff between failures. The
// final attempt's failure propagates wrapped in ErrGeneration.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.sem.Release(1)

	var lastErr error
	for attempt := 0; attempt < c.opts.MaxRetries; attempt++ {
		src, err := c.attempt(ctx, req)
		if err == nil {
			return src, nil
		}
		lastErr = err
		c.log.Warn().
			Err(err).
			Str("model", req.Model).
			Int("attempt", attempt+1).
			Msg("generation attempt failed")

		if attempt == c.opts.MaxRetries-1 {
			break
		}
		delay := c.opts.BaseDelay * (1 << attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("%w: %d attempts: %v", ErrGeneration, c.opts.MaxRetries, lastErr)
}

// attempt races one provider call against the attempt timeout. A provider
// that outlives the deadline keeps running but its result is discarded.
func (c *Client) attempt(ctx context.Context, req Request) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	type result struct {
		src string
		err error
	}
	ch := make(chan result, 1)
	go func() {
		src, err := c.provider.GenerateImage(attemptCtx, req)
		ch <- result{src, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return "", r.err
		}
		if r.src == "" {
			return "", ErrNoImageData
		}
		return r.src, nil
	case <-attemptCtx.Done():
		return "", attemptCtx.Err()
	}
}

// GenerateMetadata is best-effort: any provider failure yields the
// placeholder instead of an error so metadata can never block or fail the
// primary generation flow. It does not pass through the admission gate.
func (c *Client) GenerateMetadata(ctx context.Context, prompt string) domain.SeoMetadata {
	md, err := c.provider.GenerateMetadata(ctx, prompt)
	if err != nil {
		c.log.Warn().Err(err).Msg("metadata generation failed, using placeholder")
		return PlaceholderMetadata()
	}
	return md
}
