package compiler

import (
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSpec = `{
  "openapi": "3.0.0",
  "info": {"title": "t", "version": "1"},
  "servers": [{"url": "https://api.example.com"}],
  "paths": {
    "/users": {
      "get": {"operationId": "listUsers", "tags": ["users"], "responses": {"200": {"description": "ok"}}}
    },
    "/users/{id}": {
      "get": {
        "operationId": "getUser",
        "tags": ["users"],
        "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}],
        "responses": {"200": {"description": "ok"}}
      }
    },
    "/pets": {
      "delete": {"operationId": "deletePet", "tags": ["pets"], "responses": {"200": {"description": "ok"}}}
    }
  }
}`

func loadTestDoc(t *testing.T) *openapi3.T {
	t.Helper()
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData([]byte(testSpec))
	require.NoError(t, err)
	return doc
}

func TestCompileNameSynthesis(t *testing.T) {
	doc := loadTestDoc(t)
	ops, err := Compile("svc", doc, Filters{}, AuthSettings{}, "")
	require.NoError(t, err)
	require.Len(t, ops, 3)

	seen := map[string]bool{}
	for _, op := range ops {
		name := op.FullyQualifiedName()
		assert.False(t, seen[name], "duplicate name %s", name)
		seen[name] = true
		assert.Regexp(t, `^[A-Za-z0-9_-]+\.[A-Za-z0-9_.:-]+$`, name)
	}
	assert.True(t, seen["svc.listUsers"])
	assert.True(t, seen["svc.getUser"])
	assert.True(t, seen["svc.deletePet"])
}

func TestCompilePathParameterCoverage(t *testing.T) {
	doc := loadTestDoc(t)
	ops, err := Compile("svc", doc, Filters{}, AuthSettings{}, "")
	require.NoError(t, err)

	var getUser *Operation
	for _, op := range ops {
		if op.ToolName == "getUser" {
			getUser = op
		}
	}
	require.NotNil(t, getUser)

	required, _ := getUser.InputSchema["required"].([]string)
	assert.Contains(t, required, "id")
	props, _ := getUser.InputSchema["properties"].(map[string]any)
	assert.Contains(t, props, "id")
}

func TestCompileFilterMonotonicity(t *testing.T) {
	doc := loadTestDoc(t)

	all, err := Compile("svc", doc, Filters{}, AuthSettings{}, "")
	require.NoError(t, err)

	excluded, err := Compile("svc", doc, Filters{ExcludeTags: StringSet{Exact: []string{"pets"}}}, AuthSettings{}, "")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(excluded), len(all))

	included, err := Compile("svc", doc, Filters{IncludeTags: StringSet{Exact: []string{"users"}}}, AuthSettings{}, "")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(included), len(all))
}

func TestCompileBaseURLOverride(t *testing.T) {
	doc := loadTestDoc(t)
	ops, err := Compile("svc", doc, Filters{}, AuthSettings{}, "https://override.example.com/")
	require.NoError(t, err)
	require.NotEmpty(t, ops)
	assert.Equal(t, "https://override.example.com", ops[0].BaseURL)
}

func TestCompileNoServerFails(t *testing.T) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData([]byte(`{"openapi":"3.0.0","info":{"title":"t","version":"1"},"paths":{}}`))
	require.NoError(t, err)

	_, err = Compile("svc", doc, Filters{}, AuthSettings{}, "")
	require.Error(t, err)
}
