package compiler

import (
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schemesSpec = `{
  "openapi": "3.0.0",
  "info": {"title": "t", "version": "1"},
  "servers": [{"url": "https://api.example.com"}],
  "components": {
    "securitySchemes": {
      "apiKeyAuth": {"type": "apiKey", "name": "X-Api-Key", "in": "header"},
      "bearerAuth": {"type": "http", "scheme": "bearer"},
      "basicAuth": {"type": "http", "scheme": "basic"},
      "oauth2Auth": {
        "type": "oauth2",
        "flows": {"clientCredentials": {"tokenUrl": "https://auth.example.com/token", "scopes": {}}}
      }
    }
  },
  "security": [{"apiKeyAuth": []}],
  "paths": {
    "/open": {
      "get": {"operationId": "openOp", "responses": {"200": {"description": "ok"}}}
    },
    "/secure": {
      "get": {
        "operationId": "secureOp",
        "security": [{"bearerAuth": []}],
        "responses": {"200": {"description": "ok"}}
      }
    },
    "/basic": {
      "get": {
        "operationId": "basicOp",
        "security": [{"basicAuth": []}],
        "responses": {"200": {"description": "ok"}}
      }
    },
    "/oauth": {
      "get": {
        "operationId": "oauthOp",
        "security": [{"oauth2Auth": []}],
        "responses": {"200": {"description": "ok"}}
      }
    },
    "/default": {
      "get": {"operationId": "defaultOp", "responses": {"200": {"description": "ok"}}}
    }
  }
}`

func loadSchemesDoc(t *testing.T) *openapi3.T {
	t.Helper()
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData([]byte(schemesSpec))
	require.NoError(t, err)
	return doc
}

func TestResolveSchemeDefs(t *testing.T) {
	doc := loadSchemesDoc(t)
	defs := resolveSchemeDefs(doc)

	require.Contains(t, defs, "apiKeyAuth")
	assert.Equal(t, SecurityAPIKey, defs["apiKeyAuth"].kind)
	assert.Equal(t, "X-Api-Key", defs["apiKeyAuth"].apiKeyName)
	assert.Equal(t, InHeader, defs["apiKeyAuth"].apiKeyIn)

	require.Contains(t, defs, "bearerAuth")
	assert.Equal(t, SecurityBearer, defs["bearerAuth"].kind)

	require.Contains(t, defs, "basicAuth")
	assert.Equal(t, SecurityBasic, defs["basicAuth"].kind)

	require.Contains(t, defs, "oauth2Auth")
	assert.Equal(t, SecurityOAuth2CC, defs["oauth2Auth"].kind)
	assert.Equal(t, "https://auth.example.com/token", defs["oauth2Auth"].tokenURL)
}

func TestSecurityForOperationFallsBackToDocumentDefault(t *testing.T) {
	doc := loadSchemesDoc(t)
	defs := resolveSchemeDefs(doc)

	item := doc.Paths.Value("/default")
	refs := securityForOperation(item.Get, doc.Security, defs)
	require.Len(t, refs, 1)
	assert.Equal(t, "apiKeyAuth", refs[0].Name)
	assert.Equal(t, SecurityAPIKey, refs[0].Kind)
}

func TestSecurityForOperationOverridesDocumentDefault(t *testing.T) {
	doc := loadSchemesDoc(t)
	defs := resolveSchemeDefs(doc)

	item := doc.Paths.Value("/secure")
	refs := securityForOperation(item.Get, doc.Security, defs)
	require.Len(t, refs, 1)
	assert.Equal(t, "bearerAuth", refs[0].Name)
	assert.Equal(t, SecurityBearer, refs[0].Kind)
}

func TestSecurityForOperationEmptyWhenNoSecurityDeclared(t *testing.T) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData([]byte(`{
		"openapi": "3.0.0",
		"info": {"title": "t", "version": "1"},
		"servers": [{"url": "https://api.example.com"}],
		"paths": {"/open": {"get": {"operationId": "openOp", "responses": {"200": {"description": "ok"}}}}}
	}`))
	require.NoError(t, err)

	item := doc.Paths.Value("/open")
	refs := securityForOperation(item.Get, doc.Security, resolveSchemeDefs(doc))
	assert.Empty(t, refs)
}

func TestCompileFoldsSecurityIntoInputSchema(t *testing.T) {
	doc := loadSchemesDoc(t)
	ops, err := Compile("svc", doc, Filters{}, AuthSettings{}, "")
	require.NoError(t, err)

	var basicOp *Operation
	for _, op := range ops {
		if op.ToolName == "basicOp" {
			basicOp = op
		}
	}
	require.NotNil(t, basicOp)

	props, _ := basicOp.InputSchema["properties"].(map[string]any)
	assert.Contains(t, props, "username")
	assert.Contains(t, props, "password")

	required, _ := basicOp.InputSchema["required"].([]string)
	assert.Contains(t, required, "username")
	assert.Contains(t, required, "password")
}

func TestCompileOmitsRequiredCredentialsWhenHostSuppliesThem(t *testing.T) {
	doc := loadSchemesDoc(t)
	settings := AuthSettings{HasCredentialSource: func(string) bool { return true }}
	ops, err := Compile("svc", doc, Filters{}, settings, "")
	require.NoError(t, err)

	var basicOp *Operation
	for _, op := range ops {
		if op.ToolName == "basicOp" {
			basicOp = op
		}
	}
	require.NotNil(t, basicOp)

	required, _ := basicOp.InputSchema["required"].([]string)
	assert.NotContains(t, required, "username")
	assert.NotContains(t, required, "password")
}
