package auth

import (
	"context"
	"encoding/base64"
	"regexp"
	"strings"

	"github.com/oasbridge/bridge/pkg/bridgeerr"
	"github.com/oasbridge/bridge/pkg/compiler"
)

// strategy is dispatched on a security scheme's kind tag (§10's "Auth
// handler pluggability" design note).
type strategy interface {
	apply(ctx context.Context, b *Broker, sec compiler.SecurityRef, callerArgs map[string]any, m *Mutation) error
}

func strategyFor(kind compiler.SecurityKind) (strategy, bool) {
	switch kind {
	case compiler.SecurityAPIKey:
		return apiKeyStrategy{}, true
	case compiler.SecurityBearer:
		return bearerStrategy{}, true
	case compiler.SecurityBasic:
		return basicStrategy{}, true
	case compiler.SecurityOAuth2CC:
		return oauth2Strategy{}, true
	default:
		return nil, false
	}
}

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]+`)

// envNameFor derives the process-wide fallback environment variable name for
// a scheme, e.g. scheme "githubApiKey" suffix "API_KEY" -> "GITHUBAPIKEY_API_KEY".
func envNameFor(sec compiler.SecurityRef, suffix string) string {
	base := strings.ToUpper(nonAlnum.ReplaceAllString(sec.Name, ""))
	return base + "_" + suffix
}

type apiKeyStrategy struct{}

func (apiKeyStrategy) apply(ctx context.Context, b *Broker, sec compiler.SecurityRef, callerArgs map[string]any, m *Mutation) error {
	argName := sec.APIKeyName
	if argName == "" {
		argName = sec.Name
	}

	envName := envNameFor(sec, "API_KEY")
	value, err := b.credential(ctx, sec, callerArgs, argName, envName)
	if err != nil {
		return err
	}
	if value == "" {
		return &bridgeerr.AuthError{Scheme: sec.Name, Reason: "no credential source for apiKey scheme " + sec.Name + " (set " + envName + ")"}
	}

	switch sec.APIKeyIn {
	case compiler.InQuery:
		m.Query[sec.APIKeyName] = value
	case compiler.InCookie:
		m.Cookies[sec.APIKeyName] = value
	default:
		m.Headers[sec.APIKeyName] = value
	}
	return nil
}

type bearerStrategy struct{}

func (bearerStrategy) apply(ctx context.Context, b *Broker, sec compiler.SecurityRef, callerArgs map[string]any, m *Mutation) error {
	token, err := b.credential(ctx, sec, callerArgs, "bearerToken", envNameFor(sec, "TOKEN"))
	if err != nil {
		return err
	}
	if token == "" {
		return &bridgeerr.AuthError{Scheme: sec.Name, Reason: "no credential source for bearer scheme " + sec.Name + " (set " + envNameFor(sec, "TOKEN") + ")"}
	}
	m.Headers["Authorization"] = "Bearer " + token
	return nil
}

type basicStrategy struct{}

func (basicStrategy) apply(ctx context.Context, b *Broker, sec compiler.SecurityRef, callerArgs map[string]any, m *Mutation) error {
	user, err := b.credential(ctx, sec, callerArgs, "username", envNameFor(sec, "USERNAME"))
	if err != nil {
		return err
	}
	pass, err := b.credential(ctx, sec, callerArgs, "password", envNameFor(sec, "PASSWORD"))
	if err != nil {
		return err
	}
	if user == "" && pass == "" {
		return &bridgeerr.AuthError{Scheme: sec.Name, Reason: "no credential source for basic scheme " + sec.Name + " (set " + envNameFor(sec, "USERNAME") + " and " + envNameFor(sec, "PASSWORD") + ")"}
	}

	token := base64.StdEncoding.EncodeToString([]byte(user + ":" + pass))
	m.Headers["Authorization"] = "Basic " + token
	return nil
}

type oauth2Strategy struct{}

func (oauth2Strategy) apply(ctx context.Context, b *Broker, sec compiler.SecurityRef, callerArgs map[string]any, m *Mutation) error {
	clientID, err := b.credential(ctx, sec, callerArgs, "clientId", envNameFor(sec, "CLIENT_ID"))
	if err != nil {
		return err
	}
	clientSecret, err := b.credential(ctx, sec, callerArgs, "clientSecret", envNameFor(sec, "CLIENT_SECRET"))
	if err != nil {
		return err
	}
	if clientID == "" || clientSecret == "" {
		return &bridgeerr.AuthError{Scheme: sec.Name, Reason: "missing client credentials for oauth2 scheme " + sec.Name + " (set " + envNameFor(sec, "CLIENT_ID") + " and " + envNameFor(sec, "CLIENT_SECRET") + ")"}
	}

	token, err := b.oauth2.token(ctx, sec.TokenURL, clientID, clientSecret)
	if err != nil {
		return &bridgeerr.AuthError{Scheme: sec.Name, Reason: err.Error()}
	}

	m.Headers["Authorization"] = "Bearer " + token
	return nil
}
