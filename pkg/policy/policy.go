// Package policy implements the Policy Engine (C7): method/path allowlists,
// a sliding-window rate limiter with optional burst cap, concurrency
// ceilings, and audit-record emission, wrapped around every tool
// invocation.
package policy

import (
	"context"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/oasbridge/bridge/pkg/bridgeerr"
)

// Config is the process-wide policy configuration (§7.3's environment
// variables).
type Config struct {
	AllowedMethods []string
	AllowedPaths   []string

	RateLimit    int
	RateWindow   time.Duration
	RateBurst    int // 0 disables the burst sub-window

	Concurrency        int // 0 disables the global cap
	ConcurrencyPerPath int // 0 disables the per-template cap
}

// Engine enforces Config against every invocation and emits one audit
// record per call.
type Engine struct {
	methods map[string]bool
	paths   []*regexp.Regexp

	limiter *rateLimiter

	global   *semaphore.Weighted
	perPath  int
	pathSems *pathSemaphores

	audit Sink
}

func New(cfg Config, audit Sink) *Engine {
	methods := make(map[string]bool, len(cfg.AllowedMethods))
	for _, m := range cfg.AllowedMethods {
		methods[strings.ToUpper(strings.TrimSpace(m))] = true
	}

	paths := make([]*regexp.Regexp, 0, len(cfg.AllowedPaths))
	for _, p := range cfg.AllowedPaths {
		paths = append(paths, compileWildcard(p))
	}

	e := &Engine{
		methods: methods,
		paths:   paths,
		limiter: newRateLimiter(cfg.RateLimit, cfg.RateWindow, cfg.RateBurst),
		perPath: cfg.ConcurrencyPerPath,
		audit:   audit,
	}

	if cfg.Concurrency > 0 {
		e.global = semaphore.NewWeighted(int64(cfg.Concurrency))
	}
	if cfg.ConcurrencyPerPath > 0 {
		e.pathSems = newPathSemaphores(cfg.ConcurrencyPerPath)
	}

	return e
}

// compileWildcard turns a §4.7 wildcard pattern ("*" matches any substring,
// other regex metacharacters are literal) into a regexp.
func compileWildcard(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	for _, part := range strings.Split(pattern, "*") {
		b.WriteString(regexp.QuoteMeta(part))
		b.WriteString(".*")
	}
	re := strings.TrimSuffix(b.String(), ".*") + "$"
	return regexp.MustCompile(re)
}

// Invoke enforces the policy around fn, emitting exactly one audit record.
func (e *Engine) Invoke(ctx context.Context, method, pathTemplate string, hasQuery bool, fn func(ctx context.Context) (any, error)) (any, error) {
	start := time.Now()

	if err := e.checkMethod(method); err != nil {
		e.record(method, pathTemplate, hasQuery, start, false, 0)
		return nil, err
	}
	if err := e.checkPath(pathTemplate); err != nil {
		e.record(method, pathTemplate, hasQuery, start, false, 0)
		return nil, err
	}
	if err := e.limiter.allow(); err != nil {
		e.record(method, pathTemplate, hasQuery, start, false, 0)
		return nil, err
	}

	release, err := e.acquireConcurrency(ctx, pathTemplate)
	if err != nil {
		e.record(method, pathTemplate, hasQuery, start, false, 0)
		return nil, err
	}
	defer release()

	result, err := fn(ctx)

	status, ok := outcomeStatus(ctx, err)
	e.record(method, pathTemplate, hasQuery, start, ok, status)
	return result, err
}

func outcomeStatus(ctx context.Context, err error) (int, bool) {
	if err == nil {
		return 200, true
	}
	if ctx.Err() != nil {
		return 0, false
	}
	if ue, ok := err.(*bridgeerr.UpstreamError); ok {
		return ue.StatusCode, false
	}
	return 0, false
}

func (e *Engine) checkMethod(method string) error {
	if len(e.methods) == 0 || e.methods[strings.ToUpper(method)] {
		return nil
	}
	return &bridgeerr.PolicyError{Kind: bridgeerr.MethodNotAllowed, Detail: method}
}

func (e *Engine) checkPath(pathTemplate string) error {
	if len(e.paths) == 0 {
		return nil
	}
	for _, re := range e.paths {
		if re.MatchString(pathTemplate) {
			return nil
		}
	}
	return &bridgeerr.PolicyError{Kind: bridgeerr.PathNotAllowed, Detail: pathTemplate}
}

func (e *Engine) acquireConcurrency(ctx context.Context, pathTemplate string) (func(), error) {
	var releases []func()

	if e.global != nil {
		if !e.global.TryAcquire(1) {
			return nil, &bridgeerr.PolicyError{Kind: bridgeerr.ConcurrencyLimited, Detail: "global"}
		}
		releases = append(releases, func() { e.global.Release(1) })
	}

	if e.pathSems != nil {
		sem := e.pathSems.get(pathTemplate)
		if !sem.TryAcquire(1) {
			for _, r := range releases {
				r()
			}
			return nil, &bridgeerr.PolicyError{Kind: bridgeerr.ConcurrencyLimited, Detail: pathTemplate}
		}
		releases = append(releases, func() { sem.Release(1) })
	}

	return func() {
		for _, r := range releases {
			r()
		}
	}, nil
}

func (e *Engine) record(method, pathTemplate string, hasQuery bool, start time.Time, ok bool, status int) {
	if e.audit == nil {
		return
	}
	e.audit.Write(Record{
		Timestamp:    start.UTC(),
		Method:       method,
		PathTemplate: pathTemplate,
		HasQuery:     hasQuery,
		Status:       status,
		OK:           ok,
		DurationMS:   time.Since(start).Milliseconds(),
	})
}
