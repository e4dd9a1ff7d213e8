package synth

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/oasbridge/bridge/pkg/bridgeerr"
)

// validateArgs checks args against the operation's inputSchema before
// anything else runs (§5.4 preflight step 0). A missing required property
// surfaces as MissingParameterError so transports can treat it identically
// to the path-parameter case in §8 property 3; any other violation is a
// generic validation error.
func validateArgs(schemaLoader gojsonschema.JSONLoader, args map[string]any) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(args))
	if err != nil {
		return fmt.Errorf("validate arguments: %w", err)
	}
	if result.Valid() {
		return nil
	}

	for _, e := range result.Errors() {
		if e.Type() != "required" {
			continue
		}
		if prop, ok := e.Details()["property"].(string); ok {
			return &bridgeerr.MissingParameterError{Parameter: prop}
		}
	}

	return fmt.Errorf("invalid arguments: %s", result.Errors()[0].String())
}
