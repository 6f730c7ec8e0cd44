package studio

import (
	"thumbcast/internal/catalog"
	"thumbcast/internal/domain"
	"thumbcast/internal/store"
)

// Selection and view actions. Thin wrappers over store.Update so the
// presentation layer never touches state fields directly.

func (o *Orchestrator) SetActiveMode(key string) {
	if _, ok := catalog.ModeByKey(key); !ok {
		return
	}
	o.store.Update(func(s *store.AppState) { s.Selections.ActiveMode = key })
}

func (o *Orchestrator) SetActiveLayout(key string) {
	if _, ok := catalog.LayoutByKey(key); !ok {
		return
	}
	o.store.Update(func(s *store.AppState) { s.Selections.ActiveLayout = key })
}

func (o *Orchestrator) SetBatchMode(on bool) {
	o.store.Update(func(s *store.AppState) { s.Selections.BatchMode = on })
}

// SetBatchSize clamps to 1..9; the generation gate makes larger batches
// pointless.
func (o *Orchestrator) SetBatchSize(n int) {
	if n < 1 {
		n = 1
	}
	if n > 9 {
		n = 9
	}
	o.store.Update(func(s *store.AppState) { s.Selections.BatchSize = n })
}

func (o *Orchestrator) SetBatchModel(key string) {
	if _, ok := catalog.ModelByKey(key); !ok {
		return
	}
	o.store.Update(func(s *store.AppState) { s.Selections.BatchModel = key })
}

// ToggleComparisonModel flips a model in or out of the comparison set.
func (o *Orchestrator) ToggleComparisonModel(key string) {
	if _, ok := catalog.ModelByKey(key); !ok {
		return
	}
	o.store.Update(func(s *store.AppState) {
		models := s.Selections.ComparisonModels
		for i, m := range models {
			if m == key {
				s.Selections.ComparisonModels = append(models[:i], models[i+1:]...)
				return
			}
		}
		s.Selections.ComparisonModels = append(models, key)
	})
}

// SetFeed replaces the visible feed, e.g. with a fetched shared
// collection. UserRounds are untouched; fetched rounds never join them.
func (o *Orchestrator) SetFeed(rounds []*domain.Round, collectionID, resultID string) {
	o.store.Update(func(s *store.AppState) {
		s.Feed = domain.CloneRounds(rounds)
		s.View.ActiveCollectionID = collectionID
		s.View.ActiveResultID = resultID
	})
}

// ShowUserRounds resets the feed back to the user's own history.
func (o *Orchestrator) ShowUserRounds() {
	o.store.Update(func(s *store.AppState) {
		s.Feed = domain.CloneRounds(s.UserRounds)
		s.View.ActiveCollectionID = ""
		s.View.ActiveResultID = ""
	})
}

func (o *Orchestrator) SetFullscreen(outputID string, animate, sound bool) {
	o.store.Update(func(s *store.AppState) {
		s.View.FullscreenID = outputID
		s.View.FullscreenAnimate = animate
		s.View.FullscreenSound = sound
	})
}

func (o *Orchestrator) SetScreensaver(on, sound bool) {
	o.store.Update(func(s *store.AppState) {
		s.View.ScreensaverOn = on
		s.View.ScreensaverSound = sound
	})
}

// ToggleFavorite flips an output's favorite mark on its round, in both
// lists when the round exists in both.
func (o *Orchestrator) ToggleFavorite(roundID, outputID string) {
	o.store.Update(func(s *store.AppState) {
		for _, r := range []*domain.Round{s.FindRound(roundID), s.FindUserRound(roundID)} {
			if r == nil {
				continue
			}
			toggleFavorite(r, outputID)
		}
	})
}

func toggleFavorite(r *domain.Round, outputID string) {
	if _, ok := r.Outputs[outputID]; !ok {
		return
	}
	for i, id := range r.FavoritedOutputIDs {
		if id == outputID {
			r.FavoritedOutputIDs = append(r.FavoritedOutputIDs[:i], r.FavoritedOutputIDs[i+1:]...)
			r.HasFavorites = len(r.FavoritedOutputIDs) > 0
			return
		}
	}
	r.FavoritedOutputIDs = append(r.FavoritedOutputIDs, outputID)
	r.HasFavorites = true
}
