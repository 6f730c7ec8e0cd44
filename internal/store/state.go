// Package store holds the normalized application state behind a
// mutex-serialized update loop, notifies subscribers with immutable
// snapshots, and persists the durable slice of the state to sqlite.
package store

import (
	"thumbcast/internal/catalog"
	"thumbcast/internal/domain"
)

// Selections are the user's sticky generation choices. They survive
// restarts.
type Selections struct {
	ActiveMode       string   `json:"activeMode"`
	ActiveLayout     string   `json:"activeLayout"`
	BatchMode        bool     `json:"batchMode"`
	BatchSize        int      `json:"batchSize"`
	BatchModel       string   `json:"batchModel"`
	ComparisonModels []string `json:"comparisonModels"`
}

// ViewFlags are transient UI toggles. They are session-local and never
// persisted.
type ViewFlags struct {
	FullscreenID       string
	FullscreenAnimate  bool
	FullscreenSound    bool
	ScreensaverOn      bool
	ScreensaverSound   bool
	ActiveCollectionID string
	ActiveResultID     string
}

// AppState is the whole application state. Feed holds what the user is
// currently looking at (possibly a fetched shared collection); UserRounds
// holds only rounds this user created and is the durable list.
type AppState struct {
	Selections Selections
	Feed       []*domain.Round
	UserRounds []*domain.Round
	View       ViewFlags
	DidInit    bool
}

// DefaultState returns the state used before any persisted record loads.
func DefaultState() AppState {
	return AppState{
		Selections: Selections{
			ActiveMode:       catalog.DefaultMode(),
			ActiveLayout:     catalog.DefaultLayout(),
			BatchMode:        false,
			BatchSize:        3,
			BatchModel:       catalog.DefaultModel(),
			ComparisonModels: []string{},
		},
		Feed:       []*domain.Round{},
		UserRounds: []*domain.Round{},
	}
}

// Clone deep-copies the state so snapshots can escape the store's lock.
func (s AppState) Clone() AppState {
	out := s
	out.Selections.ComparisonModels = append([]string(nil), s.Selections.ComparisonModels...)
	out.Feed = domain.CloneRounds(s.Feed)
	out.UserRounds = domain.CloneRounds(s.UserRounds)
	return out
}

// FindRound returns the round with the given id from the feed, or nil.
func (s AppState) FindRound(id string) *domain.Round {
	for _, r := range s.Feed {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// FindUserRound returns the round with the given id from UserRounds, or nil.
func (s AppState) FindUserRound(id string) *domain.Round {
	for _, r := range s.UserRounds {
		if r.ID == id {
			return r
		}
	}
	return nil
}
