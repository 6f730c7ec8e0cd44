package domain

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"
)

// OutputState is the lifecycle state of a single generated asset.
// Transitions are pending→success or pending→error, exactly once.
type OutputState string

const (
	OutputPending OutputState = "pending"
	OutputSuccess OutputState = "success"
	OutputError   OutputState = "error"
)

// CreatedBy markers. Rounds authored in this process carry the anonymous
// marker; a round serialized for sharing is rewritten to exported.
const (
	CreatedByAnonymous = "anonymous"
	CreatedByExported  = "exported"
)

// Output is one generated asset within a Round: one Model × one Mode.
// It is owned by its parent Round and mutated only by the generation task
// assigned to it.
type Output struct {
	ID        string        `json:"id"`
	Model     string        `json:"model"`
	Mode      string        `json:"mode"`
	Source    string        `json:"source,omitempty"` // data URI once successful
	State     OutputState   `json:"state"`
	StartedAt time.Time     `json:"started_at"`
	TotalTime time.Duration `json:"total_time"` // 0 while pending
}

// SeoMetadata is best-effort video metadata attached to a Round after
// creation.
type SeoMetadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// Round is one user-submitted generation request and its outputs.
// SystemInstructions is captured verbatim at creation so later catalog
// edits never alter history.
type Round struct {
	ID                 string             `json:"id"`
	Prompt             string             `json:"prompt"`
	InputImage         string             `json:"input_image,omitempty"` // data URI
	SystemInstructions string             `json:"system_instructions"`
	Mode               string             `json:"mode"`
	Layout             string             `json:"layout"`
	CreatedAt          time.Time          `json:"created_at"`
	CreatedBy          string             `json:"created_by"`
	Outputs            map[string]*Output `json:"outputs"`
	Seo                *SeoMetadata       `json:"seo_metadata,omitempty"`
	FavoritedOutputIDs []string           `json:"favorited_output_ids,omitempty"`
	HasFavorites       bool               `json:"has_favorites,omitempty"`
}

// NewOutput returns a pending Output for the given model and mode keys.
func NewOutput(model, mode string) *Output {
	return &Output{
		ID:        uuid.NewString(),
		Model:     model,
		Mode:      mode,
		State:     OutputPending,
		StartedAt: time.Now(),
	}
}

// NewRound allocates a Round with a fresh id and the anonymous creator
// marker. Outputs are keyed by their own ids.
func NewRound(prompt, inputImage, systemInstructions, mode, layout string, outputs []*Output) Round {
	m := make(map[string]*Output, len(outputs))
	for _, o := range outputs {
		m[o.ID] = o
	}
	return Round{
		ID:                 uuid.NewString(),
		Prompt:             prompt,
		InputImage:         inputImage,
		SystemInstructions: systemInstructions,
		Mode:               mode,
		Layout:             layout,
		CreatedAt:          time.Now(),
		CreatedBy:          CreatedByAnonymous,
		Outputs:            m,
	}
}

// Settled reports whether every output has reached a terminal state.
func (r Round) Settled() bool {
	for _, o := range r.Outputs {
		if o.State == OutputPending {
			return false
		}
	}
	return true
}

// SortedOutputs returns the outputs ordered by the given model rank,
// breaking ties by output id so rendering is stable.
func (r Round) SortedOutputs(rank func(model string) int) []*Output {
	out := make([]*Output, 0, len(r.Outputs))
	for _, o := range r.Outputs {
		out = append(out, o)
	}
	slices.SortFunc(out, func(a, b *Output) int {
		if d := cmp.Compare(rank(a.Model), rank(b.Model)); d != 0 {
			return d
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Clone returns a deep copy sharing no memory with the receiver.
func (r Round) Clone() Round {
	c := r
	c.Outputs = make(map[string]*Output, len(r.Outputs))
	for id, o := range r.Outputs {
		oc := *o
		c.Outputs[id] = &oc
	}
	if r.Seo != nil {
		seo := *r.Seo
		seo.Tags = append([]string(nil), r.Seo.Tags...)
		c.Seo = &seo
	}
	c.FavoritedOutputIDs = append([]string(nil), r.FavoritedOutputIDs...)
	return c
}

// CloneRounds deep-copies a round list.
func CloneRounds(rounds []*Round) []*Round {
	if rounds == nil {
		return nil
	}
	out := make([]*Round, len(rounds))
	for i, r := range rounds {
		c := r.Clone()
		out[i] = &c
	}
	return out
}
