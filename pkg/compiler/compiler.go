// Package compiler implements the Operation Compiler (C3): it iterates
// paths × methods of a dereferenced OpenAPI document, applies include/exclude
// filters, and produces one immutable Operation per surviving spec
// operation.
package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/oasbridge/bridge/pkg/bridgeerr"
	"github.com/oasbridge/bridge/pkg/schema"
)

var methodOrder = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}

// AuthSettings controls how required-auth credential fields are folded into
// an operation's input schema (§3 point 3 of the filter/schema contract).
type AuthSettings struct {
	// HasCredentialSource reports, per scheme name, whether the host will
	// supply that scheme's credentials itself. When true, the corresponding
	// input-schema fields are optional instead of required.
	HasCredentialSource func(schemeName string) bool
}

// Compile produces the operation records for one service. baseURLOverride,
// when non-empty, takes precedence over the spec's servers[0].
func Compile(service string, doc *openapi3.T, filters Filters, auth AuthSettings, baseURLOverride string) ([]*Operation, error) {
	baseURL := resolveBaseURL(doc, baseURLOverride)
	if baseURL == "" {
		return nil, &bridgeerr.SpecInvalidError{Service: service, Reason: "no resolvable base URL"}
	}

	var ops []*Operation
	seen := map[string]bool{}
	schemeDefs := resolveSchemeDefs(doc)

	paths := sortedPaths(doc)
	for _, path := range paths {
		item := doc.Paths.Value(path)
		if item == nil {
			continue
		}

		for _, method := range methodOrder {
			op := operationFor(item, method)
			if op == nil {
				continue
			}

			opID, ok := operationIdentifier(op.OperationID, op.Extensions)
			if !ok {
				continue
			}

			text := strings.TrimSpace(op.Summary + " " + op.Description)
			if !filters.allows(op.Tags, opID, path, text) {
				continue
			}

			toolName := sanitizeToolName(opID)
			if toolName == "" {
				continue
			}
			if seen[toolName] {
				return nil, &bridgeerr.SpecInvalidError{
					Service: service,
					Reason:  fmt.Sprintf("duplicate tool name %q", toolName),
				}
			}
			seen[toolName] = true

			record, err := buildOperation(service, toolName, method, path, baseURL, op, auth, doc.Security, schemeDefs)
			if err != nil {
				return nil, err
			}
			ops = append(ops, record)
		}
	}

	return ops, nil
}

func sortedPaths(doc *openapi3.T) []string {
	if doc.Paths == nil {
		return nil
	}
	names := make([]string, 0, doc.Paths.Len())
	for path := range doc.Paths.Map() {
		names = append(names, path)
	}
	sort.Strings(names)
	return names
}

func operationFor(item *openapi3.PathItem, method string) *openapi3.Operation {
	switch method {
	case "GET":
		return item.Get
	case "POST":
		return item.Post
	case "PUT":
		return item.Put
	case "PATCH":
		return item.Patch
	case "DELETE":
		return item.Delete
	case "HEAD":
		return item.Head
	case "OPTIONS":
		return item.Options
	default:
		return nil
	}
}

func resolveBaseURL(doc *openapi3.T, override string) string {
	if override != "" {
		return strings.TrimSuffix(override, "/")
	}
	if len(doc.Servers) > 0 && doc.Servers[0].URL != "" {
		return strings.TrimSuffix(doc.Servers[0].URL, "/")
	}
	return ""
}

func buildOperation(service, toolName, method, path, baseURL string, op *openapi3.Operation, auth AuthSettings, docSecurity openapi3.SecurityRequirements, schemeDefs map[string]schemeDef) (*Operation, error) {
	record := &Operation{
		Service:      service,
		ToolName:     toolName,
		Description:  operationDescription(op),
		Method:       method,
		PathTemplate: path,
		BaseURL:      baseURL,
	}

	properties := map[string]any{}
	var required []string

	for _, pr := range op.Parameters {
		if pr.Value == nil {
			continue
		}
		p := pr.Value
		loc := ParamLocation(p.In)
		record.Parameters = append(record.Parameters, Parameter{
			Name:     p.Name,
			In:       loc,
			Required: p.Required,
			Schema:   schema.Map(p.Schema),
		})
		properties[p.Name] = schema.Map(p.Schema)
		if p.Required {
			required = append(required, p.Name)
		}
	}

	if op.RequestBody != nil && op.RequestBody.Value != nil {
		rb := op.RequestBody.Value
		if bodySchema, ok := requestBodySchema(rb); ok {
			record.RequestBody = &RequestBody{Schema: bodySchema, Required: rb.Required}
			properties["body"] = bodySchema
			if rb.Required {
				required = append(required, "body")
			}
		}
	}

	record.Security = securityForOperation(op, docSecurity, schemeDefs)
	for _, sec := range record.Security {
		fields := credentialFields(sec)
		for name, fieldSchema := range fields {
			properties[name] = fieldSchema
		}
		if auth.HasCredentialSource == nil || !auth.HasCredentialSource(sec.Name) {
			for name := range fields {
				required = append(required, name)
			}
		}
	}

	record.InputSchema = map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   dedupe(required),
	}

	return record, nil
}

func dedupe(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func operationDescription(op *openapi3.Operation) string {
	switch {
	case op.Summary != "":
		return op.Summary
	case op.Description != "":
		const max = 200
		if len(op.Description) > max {
			return op.Description[:max]
		}
		return op.Description
	default:
		return ""
	}
}

func requestBodySchema(rb *openapi3.RequestBody) (map[string]any, bool) {
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded"} {
		if mt := rb.Content.Get(mediaType); mt != nil {
			return schema.Map(mt.Schema), true
		}
	}
	return nil, false
}

// credentialFields returns the input-schema fields a security scheme
// contributes, per §3 point 3.
func credentialFields(sec SecurityRef) map[string]any {
	switch sec.Kind {
	case SecurityBearer:
		return map[string]any{"bearerToken": map[string]any{"type": "string"}}
	case SecurityBasic:
		return map[string]any{
			"username": map[string]any{"type": "string"},
			"password": map[string]any{"type": "string"},
		}
	case SecurityOAuth2CC:
		return map[string]any{
			"clientId":     map[string]any{"type": "string"},
			"clientSecret": map[string]any{"type": "string"},
		}
	case SecurityAPIKey:
		name := sec.APIKeyName
		if name == "" {
			name = sec.Name
		}
		return map[string]any{name: map[string]any{"type": "string"}}
	default:
		return nil
	}
}
