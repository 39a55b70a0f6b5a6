package nlp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/factlens/backend/internal/nlp"
)

func newSummarizer(endpoint string) *nlp.HFSummarizer {
	return nlp.NewHFSummarizer(nlp.HFSummarizerConfig{
		Endpoint:  endpoint,
		Model:     "facebook/bart-large-cnn",
		MaxLength: 100,
		MinLength: 10,
		Threshold: 15,
		Timeout:   5 * time.Second,
	})
}

func TestSummarizeShortInputIsIdentity(t *testing.T) {
	// Nothing under the threshold should ever reach the service.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("service should not be called for short input")
	}))
	defer server.Close()

	s := newSummarizer(server.URL)

	summary, err := s.Summarize(context.Background(), "No news.")
	require.NoError(t, err)
	require.Equal(t, "No news.", summary)
}

func TestSummarizeCallsService(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/facebook/bart-large-cnn", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode([]map[string]string{
			{"summary_text": "A short summary."},
		})
	}))
	defer server.Close()

	s := newSummarizer(server.URL)

	input := "This is a much longer piece of article text that needs summarizing."
	summary, err := s.Summarize(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, "A short summary.", summary)

	require.Equal(t, input, gotBody["inputs"])
	params, ok := gotBody["parameters"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, float64(100), params["max_length"])
	require.Equal(t, float64(10), params["min_length"])
	require.Equal(t, false, params["do_sample"])
}

func TestSummarizeServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	s := newSummarizer(server.URL)

	_, err := s.Summarize(context.Background(), "This text is long enough to summarize.")
	require.Error(t, err)
}

func TestSummarizeEmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	s := newSummarizer(server.URL)

	_, err := s.Summarize(context.Background(), "This text is long enough to summarize.")
	require.Error(t, err)
}
