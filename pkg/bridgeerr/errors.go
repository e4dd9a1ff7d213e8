// Package bridgeerr defines the typed error kinds shared across the bridge's
// components, and their mapping onto the JSON-RPC error codes the transport
// layer puts on the wire (§8 of the design).
package bridgeerr

import (
	"encoding/json"
	"fmt"
)

// RPC error codes recognised by the tool protocol.
const (
	CodeParseError     = -32700
	CodeUnknownMethod  = -32601
	CodeUnknownTool    = -32601
	CodeHandlerFailure = -32000
)

// SpecFetchError reports a failure to retrieve or decode an OpenAPI document.
// It never reaches the wire: it prevents a service from loading.
type SpecFetchError struct {
	Source string
	Reason string
}

func (e *SpecFetchError) Error() string {
	return fmt.Sprintf("fetch spec %s: %s", e.Source, e.Reason)
}

// SpecInvalidError reports a spec that parsed but cannot be compiled (no
// resolvable base URL, duplicate tool names, ...).
type SpecInvalidError struct {
	Service string
	Reason  string
}

func (e *SpecInvalidError) Error() string {
	return fmt.Sprintf("invalid spec for service %q: %s", e.Service, e.Reason)
}

// MissingParameterError reports a required path or body argument absent
// from a tools/call invocation.
type MissingParameterError struct {
	Parameter string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing required parameter %q", e.Parameter)
}

func (e *MissingParameterError) RPCCode() int { return CodeHandlerFailure }

// AuthError reports a missing credential source or a token endpoint failure.
type AuthError struct {
	Scheme string
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error for scheme %q: %s", e.Scheme, e.Reason)
}

func (e *AuthError) RPCCode() int { return CodeHandlerFailure }

// PolicyErrorKind distinguishes the policy rejection reasons in §5.7.
type PolicyErrorKind int

const (
	MethodNotAllowed PolicyErrorKind = iota
	PathNotAllowed
	RateLimited
	ConcurrencyLimited
)

func (k PolicyErrorKind) String() string {
	switch k {
	case MethodNotAllowed:
		return "MethodNotAllowed"
	case PathNotAllowed:
		return "PathNotAllowed"
	case RateLimited:
		return "RateLimited"
	case ConcurrencyLimited:
		return "ConcurrencyLimited"
	default:
		return "PolicyError"
	}
}

// PolicyError reports a rejection by the policy engine, always raised before
// any upstream call is attempted.
type PolicyError struct {
	Kind   PolicyErrorKind
	Detail string
}

func (e *PolicyError) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *PolicyError) RPCCode() int { return CodeHandlerFailure }

// UpstreamError reports an upstream HTTP response with status >= 400. Body
// is the decoded JSON value when parseable, otherwise the raw response text.
type UpstreamError struct {
	StatusCode int
	Status     string
	Body       any
	Headers    map[string][]string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("API Error: %d %s - %s", e.StatusCode, e.Status, jsonPreview(e.Body))
}

func (e *UpstreamError) RPCCode() int { return CodeHandlerFailure }

// Data returns the structured envelope carried alongside the RPC error
// message (§8: "UpstreamError additionally carries a data object").
func (e *UpstreamError) Data() map[string]any {
	return map[string]any{
		"statusCode": e.StatusCode,
		"status":     e.Status,
		"body":       e.Body,
		"headers":    e.Headers,
	}
}

// TransportError reports a connection- or deadline-level failure reaching
// the upstream service, surfaced identically to UpstreamError on the wire.
type TransportError struct {
	Reason string
}

func (e *TransportError) Error() string { return fmt.Sprintf("transport error: %s", e.Reason) }

func (e *TransportError) RPCCode() int { return CodeHandlerFailure }

// UnknownToolError reports tools/call against an unregistered fully-qualified
// name.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string { return fmt.Sprintf("unknown tool %q", e.Name) }

func (e *UnknownToolError) RPCCode() int { return CodeUnknownTool }

func jsonPreview(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
