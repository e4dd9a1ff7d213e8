// Package schema translates kin-openapi schema fragments into a neutral,
// JSON-Schema-shaped map[string]any tree (§5.2): no *openapi3.Schema
// pointers survive past this package, only primitive values, slices, and
// maps.
package schema

import "github.com/getkin/kin-openapi/openapi3"

// allowed keywords copied verbatim when present on the source schema.
var scalarKeywords = []string{
	"type", "format", "description", "enum", "default", "example", "pattern",
}

// Map copies the constrained keyword subset from ref into a plain map. A nil
// or empty ref yields an empty object schema. Reference cycles (possible via
// allOf/anyOf/oneOf composition) are broken by tracking visited schema
// pointers and falling back to a bare object schema on repeat.
func Map(ref *openapi3.SchemaRef) map[string]any {
	return mapSchema(ref, map[*openapi3.Schema]bool{})
}

func mapSchema(ref *openapi3.SchemaRef, visited map[*openapi3.Schema]bool) map[string]any {
	if ref == nil || ref.Value == nil {
		return map[string]any{"type": "object"}
	}
	s := ref.Value

	if visited[s] {
		return map[string]any{"type": "object"}
	}
	visited[s] = true
	defer delete(visited, s)

	out := map[string]any{}

	if s.Type != nil {
		if types := s.Type.Slice(); len(types) == 1 {
			out["type"] = types[0]
		} else if len(types) > 1 {
			out["type"] = types
		}
	}
	if s.Format != "" {
		out["format"] = s.Format
	}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if s.Default != nil {
		out["default"] = s.Default
	}
	if s.Example != nil {
		out["example"] = s.Example
	}
	if s.Pattern != "" {
		out["pattern"] = s.Pattern
	}

	if s.MinLength != 0 {
		out["minLength"] = s.MinLength
	}
	if s.MaxLength != nil {
		out["maxLength"] = *s.MaxLength
	}

	if s.Min != nil {
		out["minimum"] = *s.Min
	}
	if s.Max != nil {
		out["maximum"] = *s.Max
	}
	if s.ExclusiveMin {
		out["exclusiveMinimum"] = true
	}
	if s.ExclusiveMax {
		out["exclusiveMaximum"] = true
	}

	if s.MinItems != 0 {
		out["minItems"] = s.MinItems
	}
	if s.MaxItems != nil {
		out["maxItems"] = *s.MaxItems
	}
	if s.UniqueItems {
		out["uniqueItems"] = true
	}

	if s.Items != nil {
		out["items"] = mapSchema(s.Items, visited)
	}

	if len(s.Properties) > 0 {
		props := map[string]any{}
		for name, p := range s.Properties {
			props[name] = mapSchema(p, visited)
		}
		out["properties"] = props
	}

	if len(s.Required) > 0 {
		out["required"] = append([]string(nil), s.Required...)
	}

	if refs := mapComposition(s.AllOf, visited); refs != nil {
		out["allOf"] = refs
	}
	if refs := mapComposition(s.AnyOf, visited); refs != nil {
		out["anyOf"] = refs
	}
	if refs := mapComposition(s.OneOf, visited); refs != nil {
		out["oneOf"] = refs
	}

	if len(out) == 0 {
		out["type"] = "object"
	}

	return out
}

func mapComposition(refs openapi3.SchemaRefs, visited map[*openapi3.Schema]bool) []map[string]any {
	if len(refs) == 0 {
		return nil
	}
	out := make([]map[string]any, 0, len(refs))
	for _, r := range refs {
		out = append(out, mapSchema(r, visited))
	}
	return out
}
