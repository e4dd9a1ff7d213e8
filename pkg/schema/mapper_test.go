package schema

import (
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mapperSpec = `{
  "openapi": "3.0.0",
  "info": {"title": "t", "version": "1"},
  "paths": {},
  "components": {
    "schemas": {
      "Pet": {
        "type": "object",
        "description": "a pet",
        "properties": {
          "id": {"type": "integer", "format": "int64"},
          "name": {"type": "string", "minLength": 1, "maxLength": 64},
          "tags": {"type": "array", "items": {"type": "string"}, "uniqueItems": true},
          "owner": {"$ref": "#/components/schemas/Pet"}
        },
        "required": ["id", "name"]
      },
      "Named": {"type": "object", "properties": {"name": {"type": "string"}}},
      "Aged": {"type": "object", "properties": {"age": {"type": "integer"}}},
      "Person": {"allOf": [{"$ref": "#/components/schemas/Named"}, {"$ref": "#/components/schemas/Aged"}]},
      "Shape": {"oneOf": [{"$ref": "#/components/schemas/Named"}, {"$ref": "#/components/schemas/Aged"}]},
      "Range": {
        "type": "number",
        "minimum": 0,
        "maximum": 100,
        "exclusiveMinimum": true,
        "exclusiveMaximum": true,
        "enum": [1, 2, 3],
        "default": 1,
        "example": 2,
        "pattern": "^[0-9]+$"
      }
    }
  }
}`

func loadMapperDoc(t *testing.T) *openapi3.T {
	t.Helper()
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData([]byte(mapperSpec))
	require.NoError(t, err)
	return doc
}

func TestMapNilAndEmptyRef(t *testing.T) {
	assert.Equal(t, map[string]any{"type": "object"}, Map(nil))
	assert.Equal(t, map[string]any{"type": "object"}, Map(&openapi3.SchemaRef{}))
}

func TestMapObjectWithPropertiesAndRequired(t *testing.T) {
	doc := loadMapperDoc(t)
	out := Map(doc.Components.Schemas["Pet"])

	assert.Equal(t, "object", out["type"])
	assert.Equal(t, "a pet", out["description"])
	assert.ElementsMatch(t, []string{"id", "name"}, out["required"])

	props, ok := out["properties"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, props, "id")
	require.Contains(t, props, "name")
	require.Contains(t, props, "tags")

	idSchema := props["id"].(map[string]any)
	assert.Equal(t, "integer", idSchema["type"])
	assert.Equal(t, "int64", idSchema["format"])

	nameSchema := props["name"].(map[string]any)
	assert.EqualValues(t, 1, nameSchema["minLength"])
	assert.EqualValues(t, 64, nameSchema["maxLength"])

	tagsSchema := props["tags"].(map[string]any)
	assert.Equal(t, "array", tagsSchema["type"])
	assert.Equal(t, true, tagsSchema["uniqueItems"])
	items := tagsSchema["items"].(map[string]any)
	assert.Equal(t, "string", items["type"])
}

func TestMapBreaksCyclesWithoutInfiniteRecursion(t *testing.T) {
	doc := loadMapperDoc(t)
	out := Map(doc.Components.Schemas["Pet"])

	props := out["properties"].(map[string]any)
	owner := props["owner"].(map[string]any)
	assert.Equal(t, "object", owner["type"])
	assert.NotContains(t, owner, "properties")
}

func TestMapCompositionAllOf(t *testing.T) {
	doc := loadMapperDoc(t)
	out := Map(doc.Components.Schemas["Person"])

	allOf, ok := out["allOf"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, allOf, 2)
	assert.Contains(t, allOf[0]["properties"].(map[string]any), "name")
	assert.Contains(t, allOf[1]["properties"].(map[string]any), "age")
}

func TestMapCompositionOneOf(t *testing.T) {
	doc := loadMapperDoc(t)
	out := Map(doc.Components.Schemas["Shape"])

	oneOf, ok := out["oneOf"].([]map[string]any)
	require.True(t, ok)
	assert.Len(t, oneOf, 2)
}

func TestMapNumericConstraintsAndScalarKeywords(t *testing.T) {
	doc := loadMapperDoc(t)
	out := Map(doc.Components.Schemas["Range"])

	assert.Equal(t, "number", out["type"])
	assert.EqualValues(t, 0, out["minimum"])
	assert.EqualValues(t, 100, out["maximum"])
	assert.Equal(t, true, out["exclusiveMinimum"])
	assert.Equal(t, true, out["exclusiveMaximum"])
	assert.Equal(t, "^[0-9]+$", out["pattern"])
	assert.EqualValues(t, 1, out["default"])
	assert.EqualValues(t, 2, out["example"])
	assert.Len(t, out["enum"], 3)
}
