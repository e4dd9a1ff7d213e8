package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithHeaderAppliedToEveryRequest(t *testing.T) {
	t.Parallel()

	var captured http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		captured = r.Header
	}))
	defer srv.Close()

	client := NewHTTPClient(WithHeader("X-Bridge-Service", "github"))
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "github", captured.Get("X-Bridge-Service"))
	assert.Contains(t, captured.Get("User-Agent"), "oasbridge/")
}

func TestWithHeaderDoesNotOverridePerRequestHeaders(t *testing.T) {
	t.Parallel()

	var captured http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		captured = r.Header
	}))
	defer srv.Close()

	client := NewHTTPClient(WithHeader("Authorization", "Bearer client-wide"))
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer token")

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "Bearer token", captured.Get("Authorization"))
}
