package compiler

import "github.com/getkin/kin-openapi/openapi3"

// schemeDef is the resolved shape of one named security scheme declared in
// components.securitySchemes.
type schemeDef struct {
	kind       SecurityKind
	apiKeyName string
	apiKeyIn   ParamLocation
	tokenURL   string
}

func resolveSchemeDefs(doc *openapi3.T) map[string]schemeDef {
	defs := map[string]schemeDef{}
	if doc.Components == nil {
		return defs
	}

	for name, ref := range doc.Components.SecuritySchemes {
		if ref == nil || ref.Value == nil {
			continue
		}
		s := ref.Value

		switch s.Type {
		case "apiKey":
			defs[name] = schemeDef{
				kind:       SecurityAPIKey,
				apiKeyName: s.Name,
				apiKeyIn:   ParamLocation(s.In),
			}
		case "http":
			switch s.Scheme {
			case "basic":
				defs[name] = schemeDef{kind: SecurityBasic}
			default:
				defs[name] = schemeDef{kind: SecurityBearer}
			}
		case "oauth2":
			tokenURL := ""
			if s.Flows != nil && s.Flows.ClientCredentials != nil {
				tokenURL = s.Flows.ClientCredentials.TokenURL
				defs[name] = schemeDef{kind: SecurityOAuth2CC, tokenURL: tokenURL}
			}
		}
	}

	return defs
}

// securityForOperation resolves an operation's declared security requirement
// (falling back to the document-level default, per OpenAPI semantics) into
// fully resolved SecurityRef values.
func securityForOperation(op *openapi3.Operation, docSecurity openapi3.SecurityRequirements, defs map[string]schemeDef) []SecurityRef {
	reqs := op.Security
	if reqs == nil {
		if len(docSecurity) == 0 {
			return nil
		}
		reqs = &docSecurity
	}

	var refs []SecurityRef
	for _, req := range *reqs {
		for name := range req {
			def, ok := defs[name]
			if !ok {
				continue
			}
			refs = append(refs, SecurityRef{
				Name:       name,
				Kind:       def.kind,
				APIKeyName: def.apiKeyName,
				APIKeyIn:   def.apiKeyIn,
				TokenURL:   def.tokenURL,
			})
		}
	}
	return refs
}
