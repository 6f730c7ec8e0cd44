package store

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"thumbcast/internal/domain"
)

func openTestDB(t *testing.T) *SQLitePersister {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, RunMigrations(db))
	return NewSQLitePersister(db)
}

func TestPersistRoundTrip(t *testing.T) {
	p := openTestDB(t)

	_, found, err := p.Load()
	require.NoError(t, err)
	require.False(t, found, "fresh database has no record")

	r := roundWithStates(domain.OutputSuccess)
	r.Seo = &domain.SeoMetadata{Title: "T", Tags: []string{"x"}}
	rec := PersistedState{
		Selections: &Selections{ActiveMode: "cinematic", BatchSize: 4, ComparisonModels: []string{"imagen"}},
		UserRounds: []*domain.Round{r},
	}
	require.NoError(t, p.Save(rec))

	got, found, err := p.Load()
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "cinematic", got.Selections.ActiveMode)
	require.Len(t, got.UserRounds, 1)
	require.Equal(t, r.ID, got.UserRounds[0].ID)
	require.Equal(t, "T", got.UserRounds[0].Seo.Title)
}

func TestPersistOverwritesSingleRecord(t *testing.T) {
	p := openTestDB(t)

	require.NoError(t, p.Save(PersistedState{Selections: &Selections{ActiveMode: "minimal"}}))
	require.NoError(t, p.Save(PersistedState{Selections: &Selections{ActiveMode: "cinematic"}}))

	got, found, err := p.Load()
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "cinematic", got.Selections.ActiveMode)

	var count int
	require.NoError(t, p.db.QueryRow(`SELECT COUNT(*) FROM app_state`).Scan(&count))
	require.Equal(t, 1, count)
}

func TestPersistedStateToleratesUnknownFields(t *testing.T) {
	raw := []byte(`{
		"selections": {"activeMode": "cinematic", "futureField": 42},
		"userRounds": [],
		"someNewTopLevel": {"nested": true}
	}`)
	var rec PersistedState
	require.NoError(t, json.Unmarshal(raw, &rec))
	require.Equal(t, "cinematic", rec.Selections.ActiveMode)
}
