package synth

import "github.com/oasbridge/bridge/pkg/compiler"

// SecuritySummary is the preserved shape of one security scheme reference,
// kept in SerializationInfo for external consumers that need the token
// endpoint or apiKey parameter name without re-parsing the source spec.
type SecuritySummary struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	TokenURL   string `json:"tokenUrl,omitempty"`
	APIKeyName string `json:"apiKeyName,omitempty"`
}

// SerializationInfo is the metadata attached to every tool (§5.4's
// "Metadata" contract): everything an external code emitter or offline tool
// catalogue needs to regenerate a client for this operation, without this
// core's handler closures.
type SerializationInfo struct {
	Service      string               `json:"service"`
	ToolName     string               `json:"toolName"`
	Method       string               `json:"method"`
	PathTemplate string               `json:"pathTemplate"`
	BaseURL      string               `json:"baseUrl"`
	Parameters   []compiler.Parameter `json:"parameters"`
	Security     []SecuritySummary    `json:"security"`
	InputSchema  map[string]any       `json:"inputSchema"`
}

// BuildSerializationInfo projects an operation record into its offline
// catalogue form.
func BuildSerializationInfo(op *compiler.Operation) SerializationInfo {
	security := make([]SecuritySummary, 0, len(op.Security))
	for _, s := range op.Security {
		security = append(security, SecuritySummary{
			Name:       s.Name,
			Kind:       string(s.Kind),
			TokenURL:   s.TokenURL,
			APIKeyName: s.APIKeyName,
		})
	}

	return SerializationInfo{
		Service:      op.Service,
		ToolName:     op.ToolName,
		Method:       op.Method,
		PathTemplate: op.PathTemplate,
		BaseURL:      op.BaseURL,
		Parameters:   op.Parameters,
		Security:     security,
		InputSchema:  op.InputSchema,
	}
}
