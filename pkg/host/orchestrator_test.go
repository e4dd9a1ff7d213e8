package host

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oasbridge/bridge/pkg/policy"
)

func writeSpec(t *testing.T, baseURL string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "spec.json")
	content := []byte(fmtSpec(baseURL))
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func fmtSpec(baseURL string) string {
	return "{\"openapi\":\"3.0.0\",\"info\":{\"title\":\"t\",\"version\":\"1\"},\"servers\":[{\"url\":\"" + baseURL + "\"}],\"paths\":{\"/users\":{\"get\":{\"operationId\":\"listUsers\",\"responses\":{\"200\":{\"description\":\"ok\"}}}}}}"
}

func TestBuildLoadsServiceAndRegistersTools(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1}]`))
	}))
	defer srv.Close()

	specPath := writeSpec(t, srv.URL)
	cfg := &Config{Services: []ServiceEntry{{Name: "svc", SpecFile: specPath}}}

	reg, warnings, err := Build(t.Context(), cfg, srv.Client(), nil)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 1, reg.Len())

	handler, err := reg.Lookup("svc.listUsers")
	require.NoError(t, err)

	result, err := handler(t.Context(), nil)
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"id": float64(1)}}, result)
}

func TestBuildRecoversFromOneBadServiceAndLoadsTheRest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	good := writeSpec(t, srv.URL)
	cfg := &Config{Services: []ServiceEntry{
		{Name: "broken", SpecFile: "/nonexistent/spec.json"},
		{Name: "good", SpecFile: good},
	}}

	reg, warnings, err := Build(t.Context(), cfg, srv.Client(), nil)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "broken")
	assert.Equal(t, 1, reg.Len())
}

func TestBuildFailsWhenZeroServicesLoad(t *testing.T) {
	cfg := &Config{Services: []ServiceEntry{{Name: "broken", SpecFile: "/nonexistent/spec.json"}}}

	_, warnings, err := Build(t.Context(), cfg, http.DefaultClient, nil)
	require.Error(t, err)
	require.Len(t, warnings, 1)
}

func TestBuildWithPolicyEngineEnforcesMethodAllowlist(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	specPath := writeSpec(t, srv.URL)
	cfg := &Config{Services: []ServiceEntry{{Name: "svc", SpecFile: specPath}}}

	pol := policy.New(policy.Config{AllowedMethods: []string{"POST"}}, policy.NoopSink{})
	reg, _, err := Build(t.Context(), cfg, srv.Client(), pol)
	require.NoError(t, err)

	handler, err := reg.Lookup("svc.listUsers")
	require.NoError(t, err)

	_, err = handler(t.Context(), nil)
	require.Error(t, err)
}
