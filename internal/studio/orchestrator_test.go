package studio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"thumbcast/internal/domain"
	"thumbcast/internal/genclient"
	"thumbcast/internal/store"
)

// fakeGen is a controllable Generator. A non-nil gate blocks image calls
// until it is closed, letting tests observe in-flight state.
type fakeGen struct {
	mu       sync.Mutex
	reqs     []genclient.Request
	fail     bool
	src      string
	gate     chan struct{}
	mdGate   chan struct{}
	md       domain.SeoMetadata
	mdPrompt string
}

func (f *fakeGen) Generate(ctx context.Context, req genclient.Request) (string, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if f.fail {
		return "", errors.New("generation failed")
	}
	if f.src != "" {
		return f.src, nil
	}
	return "data:image/png;base64,ok", nil
}

func (f *fakeGen) GenerateMetadata(ctx context.Context, prompt string) domain.SeoMetadata {
	if f.mdGate != nil {
		<-f.mdGate
	}
	f.mu.Lock()
	f.mdPrompt = prompt
	f.mu.Unlock()
	if f.md.Title != "" {
		return f.md
	}
	return genclient.PlaceholderMetadata()
}

func newTestOrchestrator(gen Generator) (*Orchestrator, *store.Store) {
	st := store.New(nil, zerolog.Nop())
	_ = st.Init()
	return New(st, gen, zerolog.Nop()), st
}

func boolPtr(b bool) *bool    { return &b }
func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

func TestAddRoundInsertsPlaceholderSynchronously(t *testing.T) {
	gen := &fakeGen{gate: make(chan struct{}), mdGate: make(chan struct{})}
	orch, st := newTestOrchestrator(gen)

	id, err := orch.AddRound(context.Background(), "a fox", "", Overrides{
		BatchMode: boolPtr(true), BatchSize: intPtr(2), BatchModel: strPtr("imagen"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// No generation has resolved yet; the placeholder must already be there.
	snap := st.Snapshot()
	require.Len(t, snap.Feed, 1)
	require.Len(t, snap.UserRounds, 1)
	require.Equal(t, id, snap.Feed[0].ID)
	require.Len(t, snap.Feed[0].Outputs, 2)
	for _, o := range snap.Feed[0].Outputs {
		require.Equal(t, domain.OutputPending, o.State)
		require.Empty(t, o.Source)
	}

	close(gen.gate)
	close(gen.mdGate)
	orch.Wait()
}

func TestBatchModeProducesBatchSizeOutputs(t *testing.T) {
	gen := &fakeGen{}
	orch, st := newTestOrchestrator(gen)

	id, err := orch.AddRound(context.Background(), "a fox", "", Overrides{
		BatchMode: boolPtr(true), BatchSize: intPtr(3), BatchModel: strPtr("imagen"),
	})
	require.NoError(t, err)
	orch.Wait()

	r := st.Snapshot().FindRound(id)
	require.NotNil(t, r)
	require.Len(t, r.Outputs, 3)
	for _, o := range r.Outputs {
		require.Equal(t, "imagen", o.Model)
		require.Equal(t, domain.OutputSuccess, o.State)
	}
}

func TestComparisonModeProducesOneOutputPerModel(t *testing.T) {
	gen := &fakeGen{}
	orch, st := newTestOrchestrator(gen)

	id, err := orch.AddRound(context.Background(), "a fox", "", Overrides{
		BatchMode:        boolPtr(false),
		BatchSize:        intPtr(7), // must be ignored in comparison mode
		ComparisonModels: []string{"imagen", "flash-image"},
	})
	require.NoError(t, err)
	orch.Wait()

	r := st.Snapshot().FindRound(id)
	require.NotNil(t, r)
	require.Len(t, r.Outputs, 2)
	models := map[string]bool{}
	for _, o := range r.Outputs {
		models[o.Model] = true
	}
	require.True(t, models["imagen"])
	require.True(t, models["flash-image"])
}

func TestComparisonModeWithNoModelsAbortsSilently(t *testing.T) {
	gen := &fakeGen{}
	orch, st := newTestOrchestrator(gen)

	id, err := orch.AddRound(context.Background(), "a fox", "", Overrides{
		BatchMode:        boolPtr(false),
		ComparisonModels: []string{},
	})
	require.NoError(t, err)
	require.Empty(t, id)
	require.Empty(t, st.Snapshot().Feed)
	require.Empty(t, st.Snapshot().UserRounds)
}

func TestMissingModelFailsOutputTerminally(t *testing.T) {
	gen := &fakeGen{}
	orch, st := newTestOrchestrator(gen)

	id, err := orch.AddRound(context.Background(), "a fox", "", Overrides{
		BatchMode: boolPtr(true), BatchSize: intPtr(1), BatchModel: strPtr("retired-model"),
	})
	require.NoError(t, err)
	orch.Wait()

	r := st.Snapshot().FindRound(id)
	require.NotNil(t, r)
	require.Len(t, r.Outputs, 1)
	for _, o := range r.Outputs {
		require.Equal(t, domain.OutputError, o.State, "unknown model must settle as error, not hang pending")
	}
	require.Empty(t, gen.reqs, "no generation call for an unknown model")
}

func TestRemovedRoundAbsorbsLateResolutions(t *testing.T) {
	gen := &fakeGen{gate: make(chan struct{})}
	orch, st := newTestOrchestrator(gen)

	id, err := orch.AddRound(context.Background(), "a fox", "", Overrides{
		BatchMode: boolPtr(true), BatchSize: intPtr(2), BatchModel: strPtr("imagen"),
	})
	require.NoError(t, err)

	orch.RemoveRound(id)
	require.Empty(t, st.Snapshot().Feed)
	require.Empty(t, st.Snapshot().UserRounds)

	close(gen.gate)
	orch.Wait()

	// Late successes must not resurrect the round.
	require.Empty(t, st.Snapshot().Feed)
	require.Empty(t, st.Snapshot().UserRounds)
}

func TestOutputTransitionsExactlyOnce(t *testing.T) {
	gen := &fakeGen{}
	orch, st := newTestOrchestrator(gen)

	id, err := orch.AddRound(context.Background(), "a fox", "", Overrides{
		BatchMode: boolPtr(true), BatchSize: intPtr(1), BatchModel: strPtr("imagen"),
	})
	require.NoError(t, err)
	orch.Wait()

	r := st.Snapshot().FindRound(id)
	require.NotNil(t, r)
	var outputID string
	var firstTime time.Duration
	for oid, o := range r.Outputs {
		require.Equal(t, domain.OutputSuccess, o.State)
		outputID = oid
		firstTime = o.TotalTime
	}

	// A duplicate failure patch for an already-settled output is a no-op.
	orch.apply(patch{roundID: id, outputID: outputID, failed: true, elapsed: time.Hour})

	r = st.Snapshot().FindRound(id)
	for _, o := range r.Outputs {
		require.Equal(t, domain.OutputSuccess, o.State, "settled output must not transition again")
		require.Equal(t, firstTime, o.TotalTime)
	}
}

func TestFailedOutputRecordsTotalTime(t *testing.T) {
	gen := &fakeGen{fail: true}
	orch, st := newTestOrchestrator(gen)

	id, err := orch.AddRound(context.Background(), "a fox", "", Overrides{
		BatchMode: boolPtr(true), BatchSize: intPtr(1), BatchModel: strPtr("imagen"),
	})
	require.NoError(t, err)
	orch.Wait()

	r := st.Snapshot().FindRound(id)
	require.NotNil(t, r)
	for _, o := range r.Outputs {
		require.Equal(t, domain.OutputError, o.State)
		require.Empty(t, o.Source)
		require.Greater(t, o.TotalTime, time.Duration(0))
	}
}

func TestFailureScopedToSingleOutput(t *testing.T) {
	gen := &fakeGen{}
	orch, st := newTestOrchestrator(gen)

	// One valid model, one unknown: only the unknown one errors.
	id, err := orch.AddRound(context.Background(), "a fox", "", Overrides{
		BatchMode:        boolPtr(false),
		ComparisonModels: []string{"imagen", "retired-model"},
	})
	require.NoError(t, err)
	orch.Wait()

	r := st.Snapshot().FindRound(id)
	require.NotNil(t, r)
	states := map[string]domain.OutputState{}
	for _, o := range r.Outputs {
		states[o.Model] = o.State
	}
	require.Equal(t, domain.OutputSuccess, states["imagen"])
	require.Equal(t, domain.OutputError, states["retired-model"])
}

func TestMetadataAttachesToBothLists(t *testing.T) {
	gen := &fakeGen{md: domain.SeoMetadata{Title: "Epic Fox", Tags: []string{"fox"}}}
	orch, st := newTestOrchestrator(gen)

	id, err := orch.AddRound(context.Background(), "a fox", "", Overrides{
		BatchMode: boolPtr(true), BatchSize: intPtr(1), BatchModel: strPtr("imagen"),
	})
	require.NoError(t, err)
	orch.Wait()

	snap := st.Snapshot()
	require.NotNil(t, snap.FindRound(id).Seo)
	require.Equal(t, "Epic Fox", snap.FindRound(id).Seo.Title)
	require.NotNil(t, snap.FindUserRound(id).Seo)
}

func TestMetadataReceivesComposedPrompt(t *testing.T) {
	gen := &fakeGen{md: domain.SeoMetadata{Title: "T"}}
	orch, _ := newTestOrchestrator(gen)

	_, err := orch.AddRound(context.Background(), "a fox", "", Overrides{
		Layout:    strPtr("split"),
		BatchMode: boolPtr(true), BatchSize: intPtr(1), BatchModel: strPtr("imagen"),
	})
	require.NoError(t, err)
	orch.Wait()

	require.Contains(t, gen.mdPrompt, "a fox. ")
	require.Contains(t, gen.mdPrompt, "split-screen", "metadata call takes the composed prompt with the layout suffix")
}

func TestRoundSettlesWhileViewingCollection(t *testing.T) {
	gen := &fakeGen{gate: make(chan struct{})}
	orch, _ := newTestOrchestrator(gen)

	settled := make(chan string, 1)
	orch.OnRoundSettled = func(roundID string) { settled <- roundID }

	id, err := orch.AddRound(context.Background(), "a fox", "", Overrides{
		BatchMode: boolPtr(true), BatchSize: intPtr(1), BatchModel: strPtr("imagen"),
	})
	require.NoError(t, err)

	// Swap the feed for a fetched collection while generation is in flight;
	// the round's userRounds copy is the one that settles.
	other := domain.NewRound("shared", "", "", "viral-tech", "center", nil)
	other.CreatedBy = domain.CreatedByExported
	orch.SetFeed([]*domain.Round{&other}, "col-1", "")

	close(gen.gate)
	orch.Wait()

	select {
	case got := <-settled:
		require.Equal(t, id, got)
	default:
		t.Fatal("settled hook did not fire for a round displaced from the feed")
	}
}

func TestMetadataAfterRemovalIsNoOp(t *testing.T) {
	gen := &fakeGen{mdGate: make(chan struct{}), md: domain.SeoMetadata{Title: "Late"}}
	orch, st := newTestOrchestrator(gen)

	id, err := orch.AddRound(context.Background(), "a fox", "", Overrides{
		BatchMode: boolPtr(true), BatchSize: intPtr(1), BatchModel: strPtr("imagen"),
	})
	require.NoError(t, err)

	orch.RemoveRound(id)
	close(gen.mdGate)
	orch.Wait()

	require.Empty(t, st.Snapshot().Feed)
}

func TestAddRoundCapturesSystemInstructionAndComposesPrompt(t *testing.T) {
	gen := &fakeGen{}
	orch, st := newTestOrchestrator(gen)

	id, err := orch.AddRound(context.Background(), "a fox", "", Overrides{
		Mode:      strPtr("cinematic"),
		Layout:    strPtr("split"),
		BatchMode: boolPtr(true), BatchSize: intPtr(1), BatchModel: strPtr("imagen"),
	})
	require.NoError(t, err)
	orch.Wait()

	r := st.Snapshot().FindRound(id)
	require.NotNil(t, r)
	require.Equal(t, "a fox", r.Prompt, "round stores the raw user prompt")
	require.Contains(t, r.SystemInstructions, "Movie Poster")

	require.Len(t, gen.reqs, 1)
	require.Contains(t, gen.reqs[0].Prompt, "a fox. ")
	require.Contains(t, gen.reqs[0].Prompt, "split-screen")
	require.Equal(t, "imagen-4.0-generate-001", gen.reqs[0].Model, "request carries the service id")
	require.True(t, gen.reqs[0].Direct)
}

func TestOnRoundSettledFiresOnce(t *testing.T) {
	gen := &fakeGen{}
	orch, _ := newTestOrchestrator(gen)

	settled := make(chan string, 4)
	orch.OnRoundSettled = func(roundID string) { settled <- roundID }

	id, err := orch.AddRound(context.Background(), "a fox", "", Overrides{
		BatchMode: boolPtr(true), BatchSize: intPtr(3), BatchModel: strPtr("imagen"),
	})
	require.NoError(t, err)
	orch.Wait()

	require.Equal(t, id, <-settled)
	select {
	case extra := <-settled:
		t.Fatalf("settled fired again for %s", extra)
	default:
	}
}

func TestIsRemovablePolicy(t *testing.T) {
	mine := domain.NewRound("p", "", "", "viral-tech", "center", nil)
	require.True(t, IsRemovable(&mine))

	shared := domain.NewRound("p", "", "", "viral-tech", "center", nil)
	shared.CreatedBy = domain.CreatedByExported
	require.False(t, IsRemovable(&shared))
	require.False(t, IsRemovable(nil))
}
