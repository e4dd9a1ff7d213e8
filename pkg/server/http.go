package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/oasbridge/bridge/pkg/protocol"
)

// RegisterHTTP mounts POST /mcp on e: JSON body in, JSON response out
// (§5.8). A body that isn't even syntactically valid JSON gets HTTP 400;
// any RPC-level failure still travels as a 200 with an "error" field, since
// it's a successful protocol exchange about a failed call.
func RegisterHTTP(e *echo.Echo, d *protocol.Dispatcher) {
	e.POST("/mcp", func(c echo.Context) error {
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return c.String(http.StatusBadRequest, "cannot read request body")
		}

		if !json.Valid(body) {
			return c.String(http.StatusBadRequest, "malformed request body")
		}

		out := d.Handle(c.Request().Context(), body)
		if out == nil {
			// A notification has nothing to reply with, but an HTTP request
			// still needs a response of some kind.
			return c.NoContent(http.StatusNoContent)
		}

		return c.Blob(http.StatusOK, "application/json; charset=utf-8", out)
	})
}
