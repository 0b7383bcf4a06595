package source

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/eecc-crawler/internal/config"
	"github.com/heartmarshall/eecc-crawler/internal/domain"
	"github.com/heartmarshall/eecc-crawler/internal/fetch"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const landingHTML = `<html><body>
<div id="container">
  <ul>
    <li><a href="otro-listado.xlsx">2013</a></li>
    <li><a href="file.xlsx">Listado de especies nativas 2014</a></li>
  </ul>
</div>
</body></html>`

func sourceConfig(baseURL string) config.SourceConfig {
	return config.SourceConfig{
		BaseURL:      baseURL,
		LandingPage:  "listado.htm",
		LinkSelector: "div#container > ul > li:nth-child(2) > a",
		SheetIndex:   1,
	}
}

// ---------------------------------------------------------------------------
// Mock: DocumentFetcher
// ---------------------------------------------------------------------------

type documentFetcherMock struct {
	mu    sync.Mutex
	calls []string

	DocumentFunc func(ctx context.Context, url string) (*goquery.Document, error)
}

func (m *documentFetcherMock) Document(ctx context.Context, url string) (*goquery.Document, error) {
	m.mu.Lock()
	m.calls = append(m.calls, url)
	m.mu.Unlock()
	return m.DocumentFunc(ctx, url)
}

func htmlDocument(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestResolver_SpreadsheetURL_JoinsBase(t *testing.T) {
	t.Parallel()

	mock := &documentFetcherMock{
		DocumentFunc: func(_ context.Context, _ string) (*goquery.Document, error) {
			return htmlDocument(t, landingHTML), nil
		},
	}

	r := NewResolver(mock, sourceConfig("http://example.test/clasificacionespecies"), newTestLogger())
	got, err := r.SpreadsheetURL(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "http://example.test/clasificacionespecies/file.xlsx", got)
	require.Len(t, mock.calls, 1)
	assert.Equal(t, "http://example.test/clasificacionespecies/listado.htm", mock.calls[0])
}

func TestResolver_SpreadsheetURL_OverHTTP(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/clasificacionespecies/listado.htm" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(landingHTML))
	}))
	defer srv.Close()

	pages := fetch.NewFetcher(config.FetchConfig{
		Timeout:     2 * time.Second,
		MaxAttempts: 1,
		Backoff:     time.Millisecond,
		MaxBackoff:  time.Millisecond,
	}, newTestLogger())

	base := srv.URL + "/clasificacionespecies"
	r := NewResolver(pages, sourceConfig(base), newTestLogger())
	got, err := r.SpreadsheetURL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, base+"/file.xlsx", got)
}

func TestResolver_SpreadsheetURL_NoMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
	}{
		{name: "no container", html: `<html><body><p>mantenimiento</p></body></html>`},
		{name: "single item", html: `<div id="container"><ul><li><a href="a.xlsx">a</a></li></ul></div>`},
		{name: "empty href", html: `<div id="container"><ul><li></li><li><a href="  ">b</a></li></ul></div>`},
		{name: "anchor without href", html: `<div id="container"><ul><li></li><li><a>b</a></li></ul></div>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mock := &documentFetcherMock{
				DocumentFunc: func(_ context.Context, _ string) (*goquery.Document, error) {
					return htmlDocument(t, tt.html), nil
				},
			}
			r := NewResolver(mock, sourceConfig("http://example.test"), newTestLogger())
			_, err := r.SpreadsheetURL(context.Background())

			assert.ErrorIs(t, err, domain.ErrResourceNotFound)
			var mErr *MissingResourceError
			require.ErrorAs(t, err, &mErr)
			assert.Equal(t, "div#container > ul > li:nth-child(2) > a", mErr.Selector)
		})
	}
}

func TestResolver_SpreadsheetURL_FetchErrorPropagates(t *testing.T) {
	t.Parallel()

	netErr := &fetch.NetworkError{URL: "http://example.test/listado.htm", Err: errors.New("timeout")}
	mock := &documentFetcherMock{
		DocumentFunc: func(_ context.Context, _ string) (*goquery.Document, error) {
			return nil, netErr
		},
	}

	r := NewResolver(mock, sourceConfig("http://example.test"), newTestLogger())
	_, err := r.SpreadsheetURL(context.Background())
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.Same(t, netErr, err)
}

func TestJoinURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		base string
		href string
		want string
	}{
		{name: "relative file", base: "http://h/a", href: "file.xlsx", want: "http://h/a/file.xlsx"},
		{name: "base trailing slash", base: "http://h/a/", href: "file.xlsx", want: "http://h/a/file.xlsx"},
		{name: "leading slash appended", base: "http://h/a", href: "/docs/file.xlsx", want: "http://h/a/docs/file.xlsx"},
		{name: "query kept", base: "http://h/a", href: "get.php?id=7", want: "http://h/a/get.php?id=7"},
		{name: "spaces escaped", base: "http://h/a", href: "Listado 2014.xlsx", want: "http://h/a/Listado%202014.xlsx"},
		{name: "escaped percent kept", base: "http://www.mma.gob.cl/clasificacionespecies", href: "100%25.xlsx", want: "http://www.mma.gob.cl/clasificacionespecies/100%25.xlsx"},
		{name: "escaped slash kept", base: "http://h/a", href: "a%2Fb.xlsx", want: "http://h/a/a%2Fb.xlsx"},
		{name: "escaped accent", base: "http://h/a", href: "Regi%C3%B3n.xlsx", want: "http://h/a/Regi%C3%B3n.xlsx"},
		{name: "absolute passes through", base: "http://h/a", href: "https://cdn.test/f.xlsx", want: "https://cdn.test/f.xlsx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := joinURL(tt.base, tt.href)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
