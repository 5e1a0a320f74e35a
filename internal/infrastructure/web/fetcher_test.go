package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articlePage = `<html><head><title>T</title><style>.x{color:red}</style></head>
<body>
  <nav><a href="/">Home</a> <a href="/world">World</a></nav>
  <script>var tracking = "shocking";</script>
  <article>
    <h1>Council approves budget</h1>
    <p>The city council approved the annual budget on Tuesday after a long debate.</p>
  </article>
  <footer>Copyright</footer>
</body></html>`

func TestFetchTextStripsChrome(t *testing.T) {
	t.Parallel()

	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(articlePage))
	}))
	defer server.Close()

	f := NewFetcher(server.Client(), Options{UserAgent: "test-agent", CacheSize: 4}, nil)

	text, err := f.FetchText(context.Background(), server.URL+"/story")
	require.NoError(t, err)
	assert.Contains(t, text, "Council approves budget")
	assert.Contains(t, text, "approved the annual budget")
	assert.NotContains(t, text, "tracking")
	assert.NotContains(t, text, "color:red")
	assert.NotContains(t, text, "Copyright")
	assert.False(t, strings.Contains(text, "  "))

	again, err := f.FetchText(context.Background(), server.URL+"/story")
	require.NoError(t, err)
	assert.Equal(t, text, again)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestFetchTextBadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewFetcher(server.Client(), Options{}, nil).FetchText(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
