package extract_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/factlens/backend/internal/extract"
)

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestExtractFromArticleTag(t *testing.T) {
	server := serve(t, http.StatusOK,
		`<html><body><article><p>A.</p><p>B.</p></article></body></html>`)

	e := extract.New("", 5*time.Second)
	text, err := e.Extract(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, "A. B.", text)
}

func TestExtractFallsBackToLabeledDiv(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "article class",
			html: `<div class="article"><p>Div body.</p></div>`,
			want: "Div body.",
		},
		{
			name: "content class",
			html: `<div class="main content"><p>Content body.</p></div>`,
			want: "Content body.",
		},
		{
			name: "empty article tag is skipped",
			html: `<article></article><div class="content"><p>Fallback.</p></div>`,
			want: "Fallback.",
		},
		{
			name: "first matching div with text wins",
			html: `<div class="article"></div><div class="content"><p>Second.</p></div>`,
			want: "Second.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := serve(t, http.StatusOK, "<html><body>"+tt.html+"</body></html>")

			e := extract.New("", 5*time.Second)
			text, err := e.Extract(context.Background(), server.URL)
			require.NoError(t, err)
			require.Equal(t, tt.want, text)
		})
	}
}

func TestExtractClassTokenIsNotASubstringMatch(t *testing.T) {
	// "article-footer" must not satisfy the "article" class check; the
	// loose p+span scan picks the text up instead.
	server := serve(t, http.StatusOK,
		`<html><body><div class="article-footer"><p>Footer text.</p></div></body></html>`)

	e := extract.New("", 5*time.Second)
	text, err := e.Extract(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, "Footer text.", text)
}

func TestExtractFallsBackToLooseTags(t *testing.T) {
	server := serve(t, http.StatusOK,
		`<html><body><p>Para one.</p><span>Span one.</span></body></html>`)

	e := extract.New("", 5*time.Second)
	text, err := e.Extract(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, "Para one. Span one.", text)
}

func TestExtractNoContent(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{name: "empty page", html: `<html><body></body></html>`},
		{name: "no matching tags", html: `<html><body><h1>Title only</h1></body></html>`},
		{name: "whitespace only", html: `<html><body><p>   </p><span>
		</span></body></html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := serve(t, http.StatusOK, tt.html)

			e := extract.New("", 5*time.Second)
			_, err := e.Extract(context.Background(), server.URL)
			require.ErrorIs(t, err, extract.ErrNoContent)
		})
	}
}

func TestExtractBadStatus(t *testing.T) {
	server := serve(t, http.StatusInternalServerError, "boom")

	e := extract.New("", 5*time.Second)
	_, err := e.Extract(context.Background(), server.URL)
	require.Error(t, err)
	require.NotErrorIs(t, err, extract.ErrNoContent)
}

func TestExtractUnreachableHost(t *testing.T) {
	e := extract.New("", 500*time.Millisecond)
	_, err := e.Extract(context.Background(), "http://127.0.0.1:1")
	require.Error(t, err)
}

func TestExtractSendsUserAgent(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`<article><p>Hi.</p></article>`))
	}))
	defer server.Close()

	e := extract.New("Mozilla/5.0", 5*time.Second)
	_, err := e.Extract(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, "Mozilla/5.0", gotUA)
}
