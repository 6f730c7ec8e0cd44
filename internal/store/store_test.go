package store

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"thumbcast/internal/domain"
)

// memPersister records saves in memory.
type memPersister struct {
	rec   PersistedState
	found bool
	saves int
}

func (m *memPersister) Load() (PersistedState, bool, error) { return m.rec, m.found, nil }
func (m *memPersister) Save(rec PersistedState) error {
	m.rec = rec
	m.found = true
	m.saves++
	return nil
}

func roundWithStates(states ...domain.OutputState) *domain.Round {
	outs := make([]*domain.Output, len(states))
	for i, st := range states {
		o := domain.NewOutput("imagen", "viral-tech")
		o.State = st
		if st == domain.OutputSuccess {
			o.Source = "data:image/png;base64,x"
		}
		outs[i] = o
	}
	r := domain.NewRound("p", "", "sys", "viral-tech", "center", outs)
	return &r
}

func TestInitPrunesUnsettledOutputs(t *testing.T) {
	p := &memPersister{
		found: true,
		rec: PersistedState{
			UserRounds: []*domain.Round{
				roundWithStates(domain.OutputSuccess, domain.OutputPending, domain.OutputError),
				roundWithStates(domain.OutputPending),
			},
		},
	}
	s := New(p, zerolog.Nop())
	require.NoError(t, s.Init())

	snap := s.Snapshot()
	require.Len(t, snap.UserRounds, 1, "round with no successful outputs must drop")
	require.Len(t, snap.UserRounds[0].Outputs, 1)
	for _, o := range snap.UserRounds[0].Outputs {
		require.Equal(t, domain.OutputSuccess, o.State)
	}
	require.Len(t, snap.Feed, 1, "feed seeds from user rounds")
	require.True(t, snap.DidInit)
}

func TestInitIsIdempotent(t *testing.T) {
	p := &memPersister{found: true, rec: PersistedState{
		UserRounds: []*domain.Round{roundWithStates(domain.OutputSuccess)},
	}}
	s := New(p, zerolog.Nop())
	require.NoError(t, s.Init())
	require.NoError(t, s.Init())
	require.Len(t, s.Snapshot().UserRounds, 1)
}

func TestInitRestoresSelections(t *testing.T) {
	p := &memPersister{found: true, rec: PersistedState{
		Selections: &Selections{
			ActiveMode:   "cinematic",
			ActiveLayout: "split",
			BatchMode:    true,
			BatchSize:    5,
			BatchModel:   "flash-image",
		},
	}}
	s := New(p, zerolog.Nop())
	require.NoError(t, s.Init())

	sel := s.Snapshot().Selections
	require.Equal(t, "cinematic", sel.ActiveMode)
	require.Equal(t, 5, sel.BatchSize)
	require.NotNil(t, sel.ComparisonModels)
}

func TestUpdateNotifiesSubscribers(t *testing.T) {
	s := New(nil, zerolog.Nop())

	var got []string
	unsub := s.Subscribe(func(snap AppState) {
		got = append(got, snap.Selections.ActiveMode)
	})

	s.Update(func(st *AppState) { st.Selections.ActiveMode = "cinematic" })
	s.Update(func(st *AppState) { st.Selections.ActiveMode = "minimal" })
	unsub()
	s.Update(func(st *AppState) { st.Selections.ActiveMode = "gaming-3d" })

	require.Equal(t, []string{"cinematic", "minimal"}, got)
}

func TestSnapshotIsIsolated(t *testing.T) {
	s := New(nil, zerolog.Nop())
	s.Update(func(st *AppState) {
		st.Feed = []*domain.Round{roundWithStates(domain.OutputPending)}
	})

	snap := s.Snapshot()
	for _, o := range snap.Feed[0].Outputs {
		o.State = domain.OutputError
	}

	for _, o := range s.Snapshot().Feed[0].Outputs {
		require.Equal(t, domain.OutputPending, o.State, "snapshot mutation must not reach the store")
	}
}

func TestUpdateWritesThrough(t *testing.T) {
	p := &memPersister{}
	s := New(p, zerolog.Nop())

	s.Update(func(st *AppState) {
		st.UserRounds = []*domain.Round{roundWithStates(domain.OutputSuccess)}
	})

	require.Equal(t, 1, p.saves)
	require.Len(t, p.rec.UserRounds, 1)
	require.NotNil(t, p.rec.Selections)
}
