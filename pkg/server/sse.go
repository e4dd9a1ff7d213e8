package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// keepaliveInterval is how often RegisterSSE writes a comment frame to keep
// intermediaries from closing an idle connection.
const keepaliveInterval = 20 * time.Second

// RegisterSSE mounts GET /mcp-sse (§5.8): a compatibility shim that exists
// to keep clients alive over a streaming connection. The core defines no
// server-initiated notifications, so the only event emitted is the initial
// announce.
func RegisterSSE(e *echo.Echo, serverName, serverVersion string) {
	e.GET("/mcp-sse", func(c echo.Context) error {
		w := c.Response()
		w.Header().Set(echo.HeaderContentType, "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		fmt.Fprintf(w, "data:{\"serverInfo\":{\"name\":%q,\"version\":%q}}\n\n", serverName, serverVersion)
		w.Flush()

		ticker := time.NewTicker(keepaliveInterval)
		defer ticker.Stop()

		ctx := c.Request().Context()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				fmt.Fprint(w, ": keepalive\n\n")
				w.Flush()
			}
		}
	})
}
