package specdoc

import (
	"encoding/json"
	"fmt"

	"github.com/goccy/go-yaml"
)

func yamlToJSON(body []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("re-encode yaml as json: %w", err)
	}
	return out, nil
}
