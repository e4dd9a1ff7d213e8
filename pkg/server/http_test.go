package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oasbridge/bridge/pkg/protocol"
	"github.com/oasbridge/bridge/pkg/registry"
)

func testDispatcher(t *testing.T) *protocol.Dispatcher {
	t.Helper()
	reg := registry.New()
	require.NoError(t, reg.Register("svc", []registry.Tool{{
		Descriptor: registry.Descriptor{Name: "svc.echo"},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			return args, nil
		},
	}}))
	return protocol.New(reg, "oasbridge", "test")
}

func TestHTTPValidRequestReturns200(t *testing.T) {
	t.Parallel()

	e := echo.New()
	RegisterHTTP(e, testDispatcher(t))

	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	req.Header.Set(echo.HeaderContentType, "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"result"`)
}

func TestHTTPMalformedBodyReturns400(t *testing.T) {
	t.Parallel()

	e := echo.New()
	RegisterHTTP(e, testDispatcher(t))

	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(`not json at all`))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTPRPCErrorStillReturns200(t *testing.T) {
	t.Parallel()

	e := echo.New()
	RegisterHTTP(e, testDispatcher(t))

	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(`{"jsonrpc":"2.0","id":1,"method":"bogusMethod"}`))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}
