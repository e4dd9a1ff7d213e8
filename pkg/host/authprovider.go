package host

import (
	"context"

	"github.com/oasbridge/bridge/pkg/env"
)

// fixedNameProvider ignores the name the caller asks for and always
// resolves a single, fixed environment variable — the adapter that lets a
// services.json `auth.env` field plug into the scheme-keyed env.Provider
// chain the Auth Broker expects (§5.5 point 1).
type fixedNameProvider struct {
	envName string
	inner   env.Provider
}

func (p *fixedNameProvider) GetEnv(ctx context.Context, _ string) (string, error) {
	return p.inner.GetEnv(ctx, p.envName)
}

// staticValueProvider ignores the requested name and always returns a
// fixed, config-supplied credential value (services.json `auth.value`).
type staticValueProvider struct {
	value string
}

func (p *staticValueProvider) GetEnv(_ context.Context, _ string) (string, error) {
	return p.value, nil
}
