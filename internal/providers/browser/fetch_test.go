package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentBrowser/internal/providers/http/client"
)

func testFetcher() *Fetcher {
	cfg := client.DefaultConfig()
	cfg.MaxRetries = 0
	return NewFetcher(client.New(cfg, nil), nil)
}

func TestFetchDecodesCharset(t *testing.T) {
	var (
		mu       sync.Mutex
		referers []string
		agents   []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		referers = append(referers, r.Header.Get("Referer"))
		agents = append(agents, r.Header.Get("User-Agent"))
		mu.Unlock()
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte("<html><head><title>Caf\xe9</title></head><body>ok</body></html>"))
	}))
	defer srv.Close()

	f := testFetcher()
	doc, err := f.Fetch(context.Background(), srv.URL+"/menu")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, doc.Status)
	assert.Contains(t, doc.HTML, "<title>Café</title>")
	assert.Equal(t, srv.URL+"/menu", doc.URL)

	_, err = f.Fetch(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"", srv.URL + "/menu"}, referers)
	assert.Equal(t, DefaultUserAgent, agents[0])
}

func TestFetchRejectsNonHTTP(t *testing.T) {
	_, err := testFetcher().Fetch(context.Background(), "file:///etc/passwd")
	assert.Error(t, err)
}
