package host

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/oasbridge/bridge/pkg/auth"
	"github.com/oasbridge/bridge/pkg/compiler"
	"github.com/oasbridge/bridge/pkg/concurrent"
	"github.com/oasbridge/bridge/pkg/env"
	"github.com/oasbridge/bridge/pkg/policy"
	"github.com/oasbridge/bridge/pkg/registry"
	"github.com/oasbridge/bridge/pkg/specdoc"
	"github.com/oasbridge/bridge/pkg/synth"
)

// Build loads every configured service concurrently, wraps each tool
// handler with the shared policy engine, and registers the results. A
// per-service failure is recovered and reported as a warning rather than
// aborting its siblings (§5.9).
func Build(ctx context.Context, cfg *Config, client *http.Client, pol *policy.Engine) (*registry.Registry, []string, error) {
	reg := registry.New()
	warnings := concurrent.NewSlice[string]()

	g, gctx := errgroup.WithContext(ctx)
	results := make([][]registry.Tool, len(cfg.Services))

	for i, svc := range cfg.Services {
		i, svc := i, svc
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					warnings.Append(fmt.Sprintf("service %q panicked: %v", svc.Name, r))
					err = nil
				}
			}()

			tools, buildErr := buildService(gctx, svc, client, pol)
			if buildErr != nil {
				warnings.Append(fmt.Sprintf("service %q: %v", svc.Name, buildErr))
				return nil
			}
			results[i] = tools
			if svc.Auth != nil && !hasCredentialSource(svc.Auth) {
				warnings.Append(fmt.Sprintf("service %q: no credential source configured (auth.onMissing=fail-at-call); calls fail with an auth error unless the caller supplies credentials", svc.Name))
			}
			return nil
		})
	}

	// errgroup's error is always nil here (build failures are recovered
	// into warnings, never returned), but Wait still joins every goroutine.
	_ = g.Wait()

	loaded := 0
	for i, svc := range cfg.Services {
		if results[i] == nil {
			continue
		}
		if err := reg.Register(svc.Name, results[i]); err != nil {
			warnings.Append(fmt.Sprintf("service %q: %v", svc.Name, err))
			continue
		}
		loaded++
	}

	if loaded == 0 {
		return reg, warnings.All(), fmt.Errorf("no services loaded")
	}

	return reg, warnings.All(), nil
}

func buildService(ctx context.Context, svc ServiceEntry, client *http.Client, pol *policy.Engine) ([]registry.Tool, error) {
	if svc.Type != "" && svc.Type != "openapi" && svc.Type != "auto" {
		return nil, fmt.Errorf("unsupported service type %q; only openapi services are loaded", svc.Type)
	}
	if svc.SpecFile == "" && svc.SpecURL == "" {
		return nil, fmt.Errorf("service has neither specFile nor specUrl")
	}

	source := svc.SpecFile
	if source == "" {
		source = svc.SpecURL
	}

	doc, err := specdoc.Load(ctx, source)
	if err != nil {
		return nil, err
	}

	broker, authSettings, err := buildAuthBroker(svc)
	if err != nil {
		return nil, err
	}

	ops, err := compiler.Compile(svc.Name, doc, svc.Filters.ToFilters(), authSettings, svc.BaseURL)
	if err != nil {
		return nil, err
	}

	onMissing := auth.OnMissingFailAtCall
	if svc.Auth != nil && svc.Auth.OnMissing == string(auth.OnMissingSkip) {
		onMissing = auth.OnMissingSkip
	}
	if onMissing == auth.OnMissingSkip && svc.Auth != nil && !hasCredentialSource(svc.Auth) {
		return nil, fmt.Errorf("auth.onMissing=skip and no credential source configured")
	}

	tools := make([]registry.Tool, 0, len(ops))
	for _, op := range ops {
		tool := synth.Synthesize(op, client, broker)
		tool.Handler = wrapPolicy(pol, op, tool.Handler)
		tools = append(tools, tool)
	}

	return tools, nil
}

func buildAuthBroker(svc ServiceEntry) (*auth.Broker, compiler.AuthSettings, error) {
	fallback := env.NewEnvVariableProvider()

	if svc.Auth == nil {
		return auth.New(svc.Name, nil, fallback), compiler.AuthSettings{}, nil
	}

	hostProvider, err := hostProviderFor(svc.Auth)
	if err != nil {
		return nil, compiler.AuthSettings{}, err
	}

	broker := auth.New(svc.Name, hostProvider, fallback)
	settings := compiler.AuthSettings{
		HasCredentialSource: func(string) bool { return hasCredentialSource(svc.Auth) },
	}
	return broker, settings, nil
}

func hostProviderFor(a *AuthEntry) (env.Provider, error) {
	switch {
	case a.Value != "":
		return &staticValueProvider{value: a.Value}, nil
	case a.Env != "":
		return &fixedNameProvider{envName: a.Env, inner: env.NewEnvVariableProvider()}, nil
	default:
		return nil, nil
	}
}

func hasCredentialSource(a *AuthEntry) bool {
	if a == nil {
		return false
	}
	return a.Value != "" || a.Env != "" || (a.ClientIDEnv != "" && a.ClientSecretEnv != "")
}

// wrapPolicy binds the policy engine around a synthesised tool handler,
// computing hasQuery from the actual call arguments rather than the
// operation's declared schema (§5.7).
func wrapPolicy(pol *policy.Engine, op *compiler.Operation, handler registry.Handler) registry.Handler {
	if pol == nil {
		return handler
	}

	return func(ctx context.Context, args map[string]any) (any, error) {
		hasQuery := false
		for _, p := range op.Parameters {
			if p.In == compiler.InQuery {
				if _, ok := args[p.Name]; ok {
					hasQuery = true
					break
				}
			}
		}

		return pol.Invoke(ctx, op.Method, op.PathTemplate, hasQuery, func(ctx context.Context) (any, error) {
			return handler(ctx, args)
		})
	}
}

// PrintWarnings writes each startup warning to w, one per line, via the
// caller-selected colorizer (see WarnFormatter in warnings.go).
func PrintWarnings(w io.Writer, warnings []string, warn func(string, ...any) string) {
	for _, msg := range warnings {
		fmt.Fprintln(w, warn("warning: %s", msg))
	}
}
