// Package auth implements the Auth Broker (C5): it turns a declared
// security scheme plus process/host configuration into header, query, and
// cookie mutations applied to an outbound tool call, and owns the OAuth2
// client-credentials token lifecycle.
package auth

import (
	"context"

	"github.com/oasbridge/bridge/pkg/bridgeerr"
	"github.com/oasbridge/bridge/pkg/compiler"
	"github.com/oasbridge/bridge/pkg/env"
)

// Mutation is the per-call bag a scheme strategy fills in.
type Mutation struct {
	Headers map[string]string
	Query   map[string]string
	Cookies map[string]string
}

func newMutation() *Mutation {
	return &Mutation{
		Headers: map[string]string{},
		Query:   map[string]string{},
		Cookies: map[string]string{},
	}
}

// ServiceAuth is one service's auth configuration, as read from services.json
// (§7.2's `auth` ServiceEntry field).
type ServiceAuth struct {
	// HostProvider is the service-specific handler supplied by the host
	// orchestrator — priority 1 in §5.5. Nil if the service declared no
	// host-level override.
	HostProvider env.Provider
	// OnMissing selects what happens when no credential source exists for a
	// required scheme at construction time.
	OnMissing OnMissing
}

type OnMissing string

const (
	OnMissingFailAtCall OnMissing = "fail-at-call"
	OnMissingSkip       OnMissing = "skip"
)

// Broker resolves security schemes to call mutations for one service.
type Broker struct {
	hostProvider env.Provider
	fallback     env.Provider
	oauth2       *tokenCache
	service      string
}

// New builds a broker for one service. hostProvider (priority 1, §5.5) may
// be nil if the service declared no host-level override; fallback (priority
// 3) is consulted last, normally env.NewEnvVariableProvider().
func New(service string, hostProvider env.Provider, fallback env.Provider) *Broker {
	return &Broker{
		hostProvider: hostProvider,
		fallback:     fallback,
		oauth2:       newTokenCache(),
		service:      service,
	}
}

// Resolve applies every scheme declared on the operation, in order, to a
// fresh Mutation. callerArgs are the arguments the caller supplied in the
// tools/call request — priority 2 in §5.5.
func (b *Broker) Resolve(ctx context.Context, schemes []compiler.SecurityRef, callerArgs map[string]any) (*Mutation, error) {
	m := newMutation()

	for _, sec := range schemes {
		strategy, ok := strategyFor(sec.Kind)
		if !ok {
			continue
		}
		if err := strategy.apply(ctx, b, sec, callerArgs, m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// credential resolves one named credential for sec using the §5.5 priority
// chain: host override -> caller args -> process env fallback.
func (b *Broker) credential(ctx context.Context, sec compiler.SecurityRef, callerArgs map[string]any, argName, envName string) (string, error) {
	if b.hostProvider != nil {
		value, err := b.hostProvider.GetEnv(ctx, envName)
		if err != nil {
			return "", &bridgeerr.AuthError{Scheme: sec.Name, Reason: err.Error()}
		}
		if value != "" {
			return value, nil
		}
	}

	if v, ok := callerArgs[argName]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s, nil
		}
	}

	value, err := b.fallback.GetEnv(ctx, envName)
	if err != nil {
		return "", &bridgeerr.AuthError{Scheme: sec.Name, Reason: err.Error()}
	}
	return value, nil
}
