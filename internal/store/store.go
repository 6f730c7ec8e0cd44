package store

import (
	"sync"

	"github.com/rs/zerolog"

	"thumbcast/internal/domain"
)

// Store serializes all state mutation through a single mutex. Updates run
// as functions against the live state; every completed update produces one
// deep-cloned snapshot that is handed to subscribers and, when the durable
// slice changed, written through to the persister.
type Store struct {
	mu    sync.Mutex
	state AppState

	subMu  sync.Mutex
	subs   map[int]func(AppState)
	nextID int

	persister Persister
	log       zerolog.Logger
}

// New returns a Store starting from DefaultState. persister may be nil
// (nothing is persisted, useful in tests).
func New(persister Persister, log zerolog.Logger) *Store {
	return &Store{
		state:     DefaultState(),
		subs:      map[int]func(AppState){},
		persister: persister,
		log:       log,
	}
}

// Init loads the persisted record, prunes non-successful outputs from the
// restored rounds (in-flight work never survives a restart), drops rounds
// left empty, and publishes the result. Calling Init twice is a no-op.
func (s *Store) Init() error {
	s.mu.Lock()
	if s.state.DidInit {
		s.mu.Unlock()
		return nil
	}

	if s.persister != nil {
		rec, found, err := s.persister.Load()
		if err != nil {
			s.mu.Unlock()
			return err
		}
		if found {
			if rec.Selections != nil {
				s.state.Selections = *rec.Selections
			}
			s.state.UserRounds = pruneUnsettled(rec.UserRounds)
		}
	}
	if s.state.Selections.ComparisonModels == nil {
		s.state.Selections.ComparisonModels = []string{}
	}
	s.state.Feed = domain.CloneRounds(s.state.UserRounds)
	s.state.DidInit = true

	snap := s.state.Clone()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// pruneUnsettled keeps only successful outputs; rounds with none left are
// dropped entirely.
func pruneUnsettled(rounds []*domain.Round) []*domain.Round {
	out := make([]*domain.Round, 0, len(rounds))
	for _, r := range rounds {
		kept := map[string]*domain.Output{}
		for id, o := range r.Outputs {
			if o.State == domain.OutputSuccess {
				kept[id] = o
			}
		}
		if len(kept) == 0 {
			continue
		}
		r.Outputs = kept
		out = append(out, r)
	}
	return out
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Update applies fn to the state under the lock, then notifies subscribers
// and persists outside it. fn must not retain pointers into the state past
// its return.
func (s *Store) Update(fn func(*AppState)) {
	s.mu.Lock()
	fn(&s.state)
	snap := s.state.Clone()
	s.mu.Unlock()

	s.persist(snap)
	s.notify(snap)
}

// Subscribe registers fn to receive every post-update snapshot. The
// returned function unsubscribes. Callbacks run on the updating goroutine
// and must not call back into the Store synchronously.
func (s *Store) Subscribe(fn func(AppState)) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(snap AppState) {
	s.subMu.Lock()
	fns := make([]func(AppState), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (s *Store) persist(snap AppState) {
	if s.persister == nil {
		return
	}
	rec := PersistedState{
		Selections: &snap.Selections,
		UserRounds: snap.UserRounds,
	}
	if err := s.persister.Save(rec); err != nil {
		s.log.Error().Err(err).Msg("persist state")
	}
}
