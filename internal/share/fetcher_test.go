package share

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"thumbcast/internal/domain"
)

func TestFetcherListCollections(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]string{"summer", "launch"})
	}))
	defer srv.Close()

	ids, err := NewFetcher(srv.URL).ListCollections(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"summer", "launch"}, ids)
}

func TestFetcherFetchCollection(t *testing.T) {
	out := domain.NewOutput("imagen", "viral-tech")
	out.State = domain.OutputSuccess
	round := domain.NewRound("a fox", "", "sys", "viral-tech", "center", []*domain.Output{out})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/summer", r.URL.Path)
		_ = json.NewEncoder(w).Encode(Collection{ID: "summer", Title: "Summer", Rounds: []*domain.Round{&round}})
	}))
	defer srv.Close()

	col, err := NewFetcher(srv.URL).FetchCollection(context.Background(), "summer")
	require.NoError(t, err)
	require.Equal(t, "Summer", col.Title)
	require.Len(t, col.Rounds, 1)
	require.Equal(t, round.ID, col.Rounds[0].ID)
}

func TestFetcherFetchRound(t *testing.T) {
	out := domain.NewOutput("imagen", "viral-tech")
	round := domain.NewRound("a fox", "", "sys", "viral-tech", "center", []*domain.Output{out})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/results/"+round.ID, r.URL.Path)
		_ = json.NewEncoder(w).Encode(round)
	}))
	defer srv.Close()

	got, err := NewFetcher(srv.URL).FetchRound(context.Background(), round.ID)
	require.NoError(t, err)
	require.Equal(t, round.ID, got.ID)
}

func TestFetcherStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewFetcher(srv.URL).FetchCollection(context.Background(), "missing")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusNotFound, statusErr.Status)
}

func TestFetcherMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	_, err := NewFetcher(srv.URL).ListCollections(context.Background())
	require.Error(t, err)
}
