package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/oasbridge/bridge/pkg/protocol"
)

const (
	wsMaxMessageSize = 1 << 20
	wsPongTimeout    = 60 * time.Second
	wsPingInterval   = 30 * time.Second
	wsWriteTimeout   = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(_ *http.Request) bool { return true },
}

// RegisterWS mounts GET /mcp on e and upgrades it to a WebSocket (§5.8).
// Each connection is independent: one RPC message per frame, dispatched to
// its own goroutine so a slow tool call on one message doesn't block the
// next frame's read.
func RegisterWS(e *echo.Echo, d *protocol.Dispatcher) {
	e.GET("/mcp", func(c echo.Context) error {
		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			return err
		}

		serveWS(c.Request().Context(), conn, d)
		return nil
	})
}

func serveWS(ctx context.Context, conn *websocket.Conn, d *protocol.Dispatcher) {
	defer conn.Close()

	var writeMu sync.Mutex
	var wg sync.WaitGroup
	defer wg.Wait()

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	conn.SetReadLimit(wsMaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})

	go runWSPingLoop(connCtx, conn, &writeMu)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}

		wg.Add(1)
		go func(msg []byte) {
			defer wg.Done()
			out := d.Handle(connCtx, msg)
			if out == nil {
				return
			}
			writeMu.Lock()
			defer writeMu.Unlock()
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			_ = conn.WriteMessage(websocket.TextMessage, out)
		}(message)
	}
}

func runWSPingLoop(ctx context.Context, conn *websocket.Conn, writeMu *sync.Mutex) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
			writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
