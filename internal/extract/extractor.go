// Package extract pulls the main body text out of a news article page.
package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/factlens/backend/pkg/logger"
)

// ErrNoContent means the page was fetched and parsed but none of the
// extraction strategies produced any text.
var ErrNoContent = errors.New("no article text found")

type Extractor struct {
	userAgent  string
	httpClient *http.Client
}

func New(userAgent string, timeout time.Duration) *Extractor {
	if userAgent == "" {
		userAgent = "Mozilla/5.0"
	}
	return &Extractor{
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Extract fetches the URL and runs the strategy cascade: the first
// <article> element's paragraphs, then the first div carrying an
// "article" or "content" class, then every <p> and <span> on the page.
// It never returns an empty string without an error.
func (e *Extractor) Extract(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		logger.Warn("Failed to build article request", zap.String("url", url), zap.Error(err))
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		logger.Warn("Failed to fetch article", zap.String("url", url), zap.Error(err))
		return "", fmt.Errorf("failed to fetch article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warn("Article fetch returned bad status",
			zap.String("url", url),
			zap.Int("status", resp.StatusCode),
		)
		return "", fmt.Errorf("article fetch returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		logger.Warn("Failed to parse article HTML", zap.String("url", url), zap.Error(err))
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	text := fromArticleTag(doc)
	if strings.TrimSpace(text) == "" {
		text = fromLabeledDiv(doc)
	}
	if strings.TrimSpace(text) == "" {
		text = fromLooseTags(doc)
	}

	if strings.TrimSpace(text) == "" {
		logger.Warn("No article text extracted", zap.String("url", url))
		return "", ErrNoContent
	}

	logger.Debug("Article text extracted",
		zap.String("url", url),
		zap.Int("chars", len(text)),
	)

	return text, nil
}

func fromArticleTag(doc *goquery.Document) string {
	article := doc.Find("article").First()
	if article.Length() == 0 {
		return ""
	}
	return joinText(article.Find("p"))
}

func fromLabeledDiv(doc *goquery.Document) string {
	var text string
	doc.Find("div").EachWithBreak(func(_ int, div *goquery.Selection) bool {
		if !hasClassToken(div, "article") && !hasClassToken(div, "content") {
			return true
		}
		if t := joinText(div.Find("p")); t != "" {
			text = t
			return false
		}
		return true
	})
	return text
}

func fromLooseTags(doc *goquery.Document) string {
	parts := collectText(doc.Find("p"))
	parts = append(parts, collectText(doc.Find("span"))...)
	return strings.Join(parts, " ")
}

func joinText(sel *goquery.Selection) string {
	return strings.Join(collectText(sel), " ")
}

func collectText(sel *goquery.Selection) []string {
	var parts []string
	sel.Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return parts
}

// hasClassToken matches whole class-list tokens, not substrings, so
// class="article-footer" does not count as "article".
func hasClassToken(sel *goquery.Selection, token string) bool {
	classes, ok := sel.Attr("class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(classes) {
		if c == token {
			return true
		}
	}
	return false
}
