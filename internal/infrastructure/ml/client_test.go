package ml

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sentiment", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "good news", body["text"])

		_, _ = w.Write([]byte(`{"label":"POSITIVE","score":0.93}`))
	}))
	defer server.Close()

	c := NewClient(server.URL+"/", "secret", time.Second)
	got, err := c.Classify(context.Background(), "good news")
	require.NoError(t, err)
	assert.Equal(t, "POSITIVE", got.Label)
	assert.InDelta(t, 0.93, got.Score, 1e-9)
}

func TestClassifyErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "", time.Second).Classify(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")

	_, err = NewClient("", "", time.Second).Classify(context.Background(), "x")
	assert.Error(t, err)
}
