package evidence_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/factlens/backend/internal/evidence"
	"github.com/factlens/backend/internal/nlp"
)

func newRetriever(endpoint string, skipEmpty bool) *evidence.Retriever {
	return evidence.NewRetriever(evidence.Config{
		Endpoint:       endpoint,
		APIKey:         "test-key",
		MaxResults:     10,
		SkipEmptyQuery: skipEmpty,
		Timeout:        5 * time.Second,
	})
}

func TestRetrieveNormalizesHits(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		require.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		w.Write([]byte(`{
			"organic_results": [
				{"title": "First", "snippet": "line one\nline two", "link": "https://a.example"},
				{"title": "Second"},
				{"snippet": "only snippet", "link": "https://c.example"}
			]
		}`))
	}))
	defer server.Close()

	r := newRetriever(server.URL, false)

	records := r.Retrieve(context.Background(), []nlp.Entity{
		{Text: "Obama", Label: "PERSON"},
		{Text: "Berlin", Label: "GPE"},
	})

	require.Equal(t, "Obama Berlin", gotQuery)
	require.Equal(t, []evidence.Record{
		{Title: "First", Snippet: "line one line two", Link: "https://a.example"},
		{Title: "Second", Snippet: "", Link: ""},
		{Title: "", Snippet: "only snippet", Link: "https://c.example"},
	}, records)
}

func TestRetrieveProviderErrorYieldsEmpty(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "http 500",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "internal", http.StatusInternalServerError)
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("{not json"))
			},
		},
		{
			name: "missing results key",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"search_metadata": {}}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			r := newRetriever(server.URL, false)
			records := r.Retrieve(context.Background(), []nlp.Entity{{Text: "query", Label: "RAW"}})
			require.Empty(t, records)
		})
	}
}

func TestRetrieveUnreachableProviderYieldsEmpty(t *testing.T) {
	r := newRetriever("http://127.0.0.1:1", false)
	records := r.Retrieve(context.Background(), []nlp.Entity{{Text: "query", Label: "RAW"}})
	require.Empty(t, records)
}

func TestRetrieveEmptyQueryPolicy(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		require.Equal(t, "", r.URL.Query().Get("q"))
		w.Write([]byte(`{"organic_results": []}`))
	}))
	defer server.Close()

	// Default policy sends the empty query through to the provider.
	r := newRetriever(server.URL, false)
	records := r.Retrieve(context.Background(), nil)
	require.Empty(t, records)
	require.Equal(t, 1, hits)

	// Opt-in policy skips the call entirely.
	r = newRetriever(server.URL, true)
	records = r.Retrieve(context.Background(), nil)
	require.Empty(t, records)
	require.Equal(t, 1, hits)
}
