// Package studio turns user generate intents into Rounds and resolves
// each Output independently against the generation client.
package studio

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"thumbcast/internal/catalog"
	"thumbcast/internal/domain"
	"thumbcast/internal/genclient"
	"thumbcast/internal/store"
)

// Generator is the slice of the generation client the orchestrator needs.
// *genclient.Client satisfies it; tests inject fakes.
type Generator interface {
	Generate(ctx context.Context, req genclient.Request) (string, error)
	GenerateMetadata(ctx context.Context, prompt string) domain.SeoMetadata
}

// Overrides optionally replace the store's sticky selections for a single
// AddRound call. Nil fields fall back to the current selection.
type Overrides struct {
	Mode             *string
	Layout           *string
	BatchMode        *bool
	BatchSize        *int
	BatchModel       *string
	ComparisonModels []string // nil means no override; empty overrides to none
}

// Orchestrator owns round creation and resolution. All state flows through
// the store; the orchestrator itself keeps no round data.
type Orchestrator struct {
	store *store.Store
	gen   Generator
	log   zerolog.Logger

	// OnRoundSettled, when set, is called once per round after its last
	// output reaches a terminal state. Runs on the reconcile goroutine.
	OnRoundSettled func(roundID string)

	wg sync.WaitGroup
}

func New(st *store.Store, gen Generator, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{store: st, gen: gen, log: log}
}

// Wait blocks until every in-flight round spawned by this orchestrator has
// fully reconciled. Intended for shutdown and tests.
func (o *Orchestrator) Wait() { o.wg.Wait() }

// patch is one reconcile instruction, keyed by round id and, for output
// patches, output id. A patch whose target is gone applies as a no-op.
type patch struct {
	roundID  string
	outputID string // empty for metadata patches
	src      string
	elapsed  time.Duration
	failed   bool
	seo      *domain.SeoMetadata
}

// AddRound creates a Round for the prompt and starts resolving it. The
// placeholder Round is visible in both feed and userRounds before AddRound
// returns. A comparison-mode call with no model toggled is a silent no-op
// returning an empty id.
func (o *Orchestrator) AddRound(ctx context.Context, prompt, inputImage string, ov Overrides) (string, error) {
	snap := o.store.Snapshot()
	sel := snap.Selections

	modeKey := sel.ActiveMode
	if ov.Mode != nil {
		modeKey = *ov.Mode
	}
	layoutKey := sel.ActiveLayout
	if ov.Layout != nil {
		layoutKey = *ov.Layout
	}
	batchMode := sel.BatchMode
	if ov.BatchMode != nil {
		batchMode = *ov.BatchMode
	}
	batchSize := sel.BatchSize
	if ov.BatchSize != nil {
		batchSize = *ov.BatchSize
	}
	batchModel := sel.BatchModel
	if ov.BatchModel != nil {
		batchModel = *ov.BatchModel
	}
	comparison := sel.ComparisonModels
	if ov.ComparisonModels != nil {
		comparison = ov.ComparisonModels
	}

	var modelKeys []string
	if batchMode {
		if batchSize < 1 {
			batchSize = 1
		}
		for i := 0; i < batchSize; i++ {
			modelKeys = append(modelKeys, batchModel)
		}
	} else {
		if len(comparison) == 0 {
			return "", nil // user-input guard, not an error
		}
		modelKeys = append(modelKeys, comparison...)
	}

	systemInstruction := ""
	if mode, ok := catalog.ModeByKey(modeKey); ok {
		systemInstruction = mode.SystemInstruction
	}
	composed := prompt
	if layout, ok := catalog.LayoutByKey(layoutKey); ok && layout.PromptSuffix != "" {
		composed = prompt + ". " + layout.PromptSuffix
	}

	outputs := make([]*domain.Output, 0, len(modelKeys))
	for _, mk := range modelKeys {
		outputs = append(outputs, domain.NewOutput(mk, modeKey))
	}
	round := domain.NewRound(prompt, inputImage, systemInstruction, modeKey, layoutKey, outputs)

	// Phase 1: placeholder insert, newest first, before any network call.
	o.store.Update(func(s *store.AppState) {
		head := round.Clone()
		s.Feed = append([]*domain.Round{&head}, s.Feed...)
		mirror := round.Clone()
		s.UserRounds = append([]*domain.Round{&mirror}, s.UserRounds...)
	})

	// Phase 2: fan out one task per output plus the metadata task; a single
	// reconcile goroutine drains their results into targeted store patches.
	results := make(chan patch, len(outputs)+1)
	var tasks sync.WaitGroup

	tasks.Add(1)
	go func() {
		defer tasks.Done()
		md := o.gen.GenerateMetadata(ctx, composed)
		results <- patch{roundID: round.ID, seo: &md}
	}()

	for _, out := range outputs {
		tasks.Add(1)
		go func(out *domain.Output) {
			defer tasks.Done()
			results <- o.resolveOutput(ctx, round.ID, out, composed, systemInstruction, inputImage)
		}(out)
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		go func() {
			tasks.Wait()
			close(results)
		}()
		for p := range results {
			o.apply(p)
		}
	}()

	return round.ID, nil
}

// resolveOutput runs one generation task to completion and reports the
// outcome. A model key absent from the catalog fails the output
// immediately; that is a configuration error, not something to retry.
func (o *Orchestrator) resolveOutput(ctx context.Context, roundID string, out *domain.Output, composed, systemInstruction, inputImage string) patch {
	model, ok := catalog.ModelByKey(out.Model)
	if !ok {
		o.log.Error().
			Str("round", roundID).
			Str("model", out.Model).
			Msg("model key not in catalog, failing output")
		return patch{
			roundID:  roundID,
			outputID: out.ID,
			failed:   true,
			elapsed:  time.Since(out.StartedAt),
		}
	}

	src, err := o.gen.Generate(ctx, genclient.Request{
		Model:             model.ServiceID,
		SystemInstruction: systemInstruction,
		Prompt:            composed,
		InputImage:        inputImage,
		Direct:            model.Direct,
	})
	p := patch{
		roundID:  roundID,
		outputID: out.ID,
		elapsed:  time.Since(out.StartedAt),
	}
	if err != nil {
		o.log.Warn().Err(err).
			Str("round", roundID).
			Str("output", out.ID).
			Msg("output generation failed")
		p.failed = true
		return p
	}
	p.src = src
	return p
}

// apply commits one patch. Rounds or outputs that disappeared, and outputs
// already settled, absorb the patch as a no-op.
func (o *Orchestrator) apply(p patch) {
	settled := false
	o.store.Update(func(s *store.AppState) {
		for _, r := range []*domain.Round{s.FindRound(p.roundID), s.FindUserRound(p.roundID)} {
			if r == nil {
				continue
			}
			if p.seo != nil {
				seo := *p.seo
				r.Seo = &seo
				continue
			}
			out, ok := r.Outputs[p.outputID]
			if !ok || out.State != domain.OutputPending {
				continue
			}
			if p.failed {
				out.State = domain.OutputError
			} else {
				out.State = domain.OutputSuccess
				out.Source = p.src
			}
			out.TotalTime = p.elapsed
		}
		if p.outputID != "" {
			// the feed copy may have been swapped out for a fetched
			// collection; the userRounds copy still settles
			r := s.FindRound(p.roundID)
			if r == nil {
				r = s.FindUserRound(p.roundID)
			}
			if r != nil && r.Settled() {
				settled = true
			}
		}
	})
	if settled && o.OnRoundSettled != nil {
		o.OnRoundSettled(p.roundID)
	}
}

// RemoveRound drops the round from both lists. The primitive is
// unconditional; whether the action is offered for a given round is the
// presentation layer's call (see IsRemovable).
func (o *Orchestrator) RemoveRound(id string) {
	o.store.Update(func(s *store.AppState) {
		s.Feed = dropRound(s.Feed, id)
		s.UserRounds = dropRound(s.UserRounds, id)
	})
}

// IsRemovable reports whether the presentation layer should offer removal:
// only rounds authored locally are removable.
func IsRemovable(r *domain.Round) bool {
	return r != nil && r.CreatedBy == domain.CreatedByAnonymous
}

func dropRound(rounds []*domain.Round, id string) []*domain.Round {
	out := rounds[:0]
	for _, r := range rounds {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}
