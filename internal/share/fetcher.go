// Package share covers the two edges rounds cross the process boundary:
// fetching shared collections from the read-only collection service and
// exporting a single output as a standalone document.
package share

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"thumbcast/internal/domain"
)

// maxResponseBytes caps fetched bodies; collections carry inline images.
const maxResponseBytes = 64 << 20

// Collection is a shared set of rounds published under one id.
type Collection struct {
	ID     string          `json:"id"`
	Title  string          `json:"title"`
	Rounds []*domain.Round `json:"rounds"`
}

// StatusError is a non-2xx response from the collection service.
type StatusError struct {
	Status int
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("collection service returned %d for %s", e.Status, e.URL)
}

// Fetcher reads shared collections and results. It never mutates anything
// remote; fetched rounds belong in the feed only.
type Fetcher struct {
	baseURL string
	client  *http.Client
}

// NewFetcher points at the collection service. baseURL is the service
// root, without a trailing slash requirement.
func NewFetcher(baseURL string) *Fetcher {
	return &Fetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// ListCollections returns the ids of the published collections.
func (f *Fetcher) ListCollections(ctx context.Context) ([]string, error) {
	var ids []string
	if err := f.getJSON(ctx, "/collections", &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// FetchCollection returns one collection with its rounds.
func (f *Fetcher) FetchCollection(ctx context.Context, id string) (Collection, error) {
	var c Collection
	if err := f.getJSON(ctx, "/collections/"+url.PathEscape(id), &c); err != nil {
		return Collection{}, err
	}
	return c, nil
}

// FetchRound returns a single shared round.
func (f *Fetcher) FetchRound(ctx context.Context, id string) (*domain.Round, error) {
	var r domain.Round
	if err := f.getJSON(ctx, "/results/"+url.PathEscape(id), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (f *Fetcher) getJSON(ctx context.Context, path string, out any) error {
	u := f.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Status: resp.StatusCode, URL: u}
	}

	body := io.LimitReader(resp.Body, maxResponseBytes)
	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", u, err)
	}
	return nil
}
