// Package synth implements the Tool Synthesiser (C4): for each compiled
// operation it builds a registry.Tool whose handler validates arguments,
// binds authentication, performs the upstream HTTP call, and surfaces a
// structured result or a typed error (§5.4).
package synth

import (
	"context"
	"net/http"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/oasbridge/bridge/pkg/auth"
	"github.com/oasbridge/bridge/pkg/compiler"
	"github.com/oasbridge/bridge/pkg/registry"
)

// upstreamTimeout is the per-call deadline against the upstream API (§6).
const upstreamTimeout = 30 * time.Second

// Synthesize builds the descriptor+handler pair for one operation. client
// performs the upstream call (a mock transport may be substituted via
// client.Transport, per §5.4); broker resolves the operation's security
// schemes into request mutations.
func Synthesize(op *compiler.Operation, client *http.Client, broker *auth.Broker) registry.Tool {
	schemaLoader := gojsonschema.NewGoLoader(op.InputSchema)

	return registry.Tool{
		Descriptor: registry.Descriptor{
			Name:        op.FullyQualifiedName(),
			Description: op.Description,
			InputSchema: op.InputSchema,
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			if args == nil {
				args = map[string]any{}
			}
			return invoke(ctx, op, client, broker, schemaLoader, args)
		},
	}
}

func invoke(
	ctx context.Context,
	op *compiler.Operation,
	client *http.Client,
	broker *auth.Broker,
	schemaLoader gojsonschema.JSONLoader,
	args map[string]any,
) (any, error) {
	if err := validateArgs(schemaLoader, args); err != nil {
		return nil, err
	}

	mutation, err := broker.Resolve(ctx, op.Security, args)
	if err != nil {
		return nil, err
	}

	path, err := resolvePath(op, args)
	if err != nil {
		return nil, err
	}

	query := buildQuery(op, args, mutation.Query)
	headers := buildHeaders(op, args, mutation.Headers)
	cookies := buildCookies(op, args, mutation.Cookies)
	body, hasBody, err := resolveBody(op, args)
	if err != nil {
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, upstreamTimeout)
	defer cancel()

	req, err := buildRequest(reqCtx, op, path, query, headers, cookies, body, hasBody)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp)
}
