package root

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/oasbridge/bridge/internal/buildinfo"
	"github.com/oasbridge/bridge/pkg/host"
	"github.com/oasbridge/bridge/pkg/httpclient"
	"github.com/oasbridge/bridge/pkg/policy"
	"github.com/oasbridge/bridge/pkg/protocol"
	"github.com/oasbridge/bridge/pkg/server"
)

type serverFlags struct {
	config     string
	transports []string
	port       int
	ssePort    int
	wsPort     int
	onceMethod string
}

func newServerCmd() *cobra.Command {
	var flags serverFlags

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Load configured services and serve the tool protocol",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd, flags, args)
		},
	}

	cmd.Flags().StringVar(&flags.config, "config", "", "Path to the services.json/yaml configuration")
	cmd.Flags().StringSliceVar(&flags.transports, "transport", []string{"stdio", "http", "sse", "ws"}, "Transports to bind: stdio,http,sse,ws")
	cmd.Flags().IntVar(&flags.port, "port", 8080, "HTTP port")
	cmd.Flags().IntVar(&flags.ssePort, "ssePort", 8081, "SSE port")
	cmd.Flags().IntVar(&flags.wsPort, "wsPort", 8082, "WebSocket port")
	cmd.Flags().StringVar(&flags.onceMethod, "once", "", "Run a single RPC method and exit (pair with a JSON params positional argument)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func runServer(cmd *cobra.Command, flags serverFlags, args []string) error {
	ctx := cmd.Context()

	cfg, err := host.LoadConfig(flags.config)
	if err != nil {
		return err
	}

	client := httpclient.NewHTTPClient()

	audit, closeAudit, err := host.AuditSinkFromEnv()
	if err != nil {
		return err
	}
	if closeAudit != nil {
		defer closeAudit()
	}

	pol := policy.New(host.PolicyConfigFromEnv(), audit)

	reg, warnings, err := host.Build(ctx, cfg, client, pol)
	if err != nil {
		host.PrintWarnings(cmd.ErrOrStderr(), warnings, host.WarnFormatter())
		return RuntimeError{Err: err}
	}
	host.PrintWarnings(cmd.ErrOrStderr(), warnings, host.WarnFormatter())

	d := protocol.New(reg, "oasbridge", buildinfo.Version)

	if flags.onceMethod != "" {
		params := ""
		if len(args) > 0 {
			params = args[0]
		}
		out, err := server.RunOnce(ctx, d, flags.onceMethod, params)
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		if err != nil {
			return onceError{Err: err}
		}
		return nil
	}

	return serveTransports(ctx, cmd, d, flags)
}

func serveTransports(ctx context.Context, cmd *cobra.Command, d *protocol.Dispatcher, flags serverFlags) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	wanted := map[string]bool{}
	for _, t := range flags.transports {
		wanted[strings.ToLower(strings.TrimSpace(t))] = true
	}

	g, gctx := errgroup.WithContext(ctx)

	if wanted["stdio"] {
		g.Go(func() error {
			// Closing stdin ends the process: stop cancels ctx, which shuts
			// down every other bound transport.
			defer stop()
			return server.ServeStdio(gctx, d, cmd.InOrStdin(), cmd.OutOrStdout())
		})
	}

	if wanted["http"] {
		e := echo.New()
		e.HideBanner, e.HidePort = true, true
		server.RegisterHTTP(e, d)
		bindEcho(gctx, g, e, fmt.Sprintf(":%d", flags.port))
	}

	if wanted["sse"] {
		e := echo.New()
		e.HideBanner, e.HidePort = true, true
		server.RegisterSSE(e, "oasbridge", buildinfo.Version)
		bindEcho(gctx, g, e, fmt.Sprintf(":%d", flags.ssePort))
	}

	if wanted["ws"] {
		e := echo.New()
		e.HideBanner, e.HidePort = true, true
		server.RegisterWS(e, d)
		bindEcho(gctx, g, e, fmt.Sprintf(":%d", flags.wsPort))
	}

	return g.Wait()
}

func bindEcho(ctx context.Context, g *errgroup.Group, e *echo.Echo, addr string) {
	httpServer := &http.Server{Addr: addr, Handler: e}

	g.Go(func() error {
		ln, err := server.Listen(ctx, addr)
		if err != nil {
			return err
		}
		if err := httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return httpServer.Close()
	})
}
