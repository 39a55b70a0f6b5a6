// Package evidence retrieves related web articles for a set of
// entities through an external search provider.
package evidence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/factlens/backend/internal/nlp"
	"github.com/factlens/backend/pkg/logger"
)

// Record is one normalized search hit. Missing provider fields stay
// empty strings.
type Record struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

type Retriever struct {
	endpoint       string
	apiKey         string
	maxResults     int
	skipEmptyQuery bool
	httpClient     *http.Client
}

type Config struct {
	Endpoint       string
	APIKey         string
	MaxResults     int
	SkipEmptyQuery bool
	Timeout        time.Duration
}

func NewRetriever(cfg Config) *Retriever {
	return &Retriever{
		endpoint:       cfg.Endpoint,
		apiKey:         cfg.APIKey,
		maxResults:     cfg.MaxResults,
		skipEmptyQuery: cfg.SkipEmptyQuery,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Retrieve is best-effort: any provider failure yields an empty slice,
// never an error. The pipeline proceeds with whatever evidence exists.
func (r *Retriever) Retrieve(ctx context.Context, entities []nlp.Entity) []Record {
	query := buildQuery(entities)

	if query == "" && r.skipEmptyQuery {
		logger.Info("Skipping evidence retrieval for empty query")
		return nil
	}

	logger.Info("Searching for evidence", zap.String("query", query))

	hits, err := r.search(ctx, query)
	if err != nil {
		logger.Warn("Evidence search failed", zap.Error(err))
		return nil
	}

	records := make([]Record, 0, len(hits))
	for _, hit := range hits {
		records = append(records, Record{
			Title:   hit.Title,
			Snippet: strings.ReplaceAll(hit.Snippet, "\n", " "),
			Link:    hit.Link,
		})
	}

	logger.Info("Evidence retrieved", zap.Int("records", len(records)))

	return records
}

func buildQuery(entities []nlp.Entity) string {
	terms := make([]string, 0, len(entities))
	for _, e := range entities {
		terms = append(terms, e.Text)
	}
	return strings.Join(terms, " ")
}

type organicResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

func (r *Retriever) search(ctx context.Context, query string) ([]organicResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("api_key", r.apiKey)
	if r.maxResults > 0 {
		params.Set("num", fmt.Sprintf("%d", r.maxResults))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s?%s", r.endpoint, params.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("new search request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search provider returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}

	var searchResp struct {
		OrganicResults []organicResult `json:"organic_results"`
	}
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}

	return searchResp.OrganicResults, nil
}
