// Package specdoc loads an OpenAPI 3.x document from a file or URL, decoding
// JSON, YAML, or an embedded Swagger-UI "swaggerDoc" bootstrap script, and
// fully dereferences it with kin-openapi.
package specdoc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/oasbridge/bridge/pkg/bridgeerr"
)

const (
	fetchTimeout  = 10 * time.Second
	maxBodyBytes  = 10 * 1024 * 1024
	maxRedirects  = 5
	swaggerDocKey = `"swaggerDoc"`
)

// Load resolves source (a local file path or an http(s) URL) into a fully
// dereferenced OpenAPI document.
func Load(ctx context.Context, source string) (*openapi3.T, error) {
	body, base, err := fetch(ctx, source)
	if err != nil {
		return nil, err
	}

	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false

	doc, err := decode(loader, body, base)
	if err != nil {
		return nil, &bridgeerr.SpecFetchError{Source: source, Reason: err.Error()}
	}

	if err := doc.Validate(loader.Context); err != nil {
		// Validation failures are reported but not fatal: many real-world
		// specs are slightly non-conformant and still describe perfectly
		// callable operations.
		doc.Extensions = withWarning(doc.Extensions, err)
	}

	return doc, nil
}

func withWarning(ext map[string]any, err error) map[string]any {
	if ext == nil {
		ext = map[string]any{}
	}
	ext["x-bridge-validation-warning"] = err.Error()
	return ext
}

func decode(loader *openapi3.Loader, body []byte, base *url.URL) (*openapi3.T, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil, errors.New("empty spec body")
	}

	if js, ok := extractSwaggerDoc(body); ok {
		body = js
		trimmed = strings.TrimSpace(string(body))
	}

	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		if base != nil {
			return loader.LoadFromDataWithPath(body, base)
		}
		return loader.LoadFromData(body)
	}

	// Not JSON-looking: treat as YAML. kin-openapi's loader only accepts
	// JSON directly, so YAML is normalised to JSON first.
	jsonBody, err := yamlToJSON(body)
	if err != nil {
		return nil, fmt.Errorf("decode as YAML: %w", err)
	}

	if base != nil {
		return loader.LoadFromDataWithPath(jsonBody, base)
	}
	return loader.LoadFromData(jsonBody)
}

func fetch(ctx context.Context, source string) ([]byte, *url.URL, error) {
	if u, err := url.Parse(source); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return fetchURL(ctx, u)
	}
	return fetchFile(source)
}

func fetchFile(path string) ([]byte, *url.URL, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, &bridgeerr.SpecFetchError{Source: path, Reason: err.Error()}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return body, &url.URL{Scheme: "file", Path: abs}, nil
}

func fetchURL(parent context.Context, u *url.URL) ([]byte, *url.URL, error) {
	ctx, cancel := context.WithTimeout(parent, fetchTimeout)
	defer cancel()

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, nil, &bridgeerr.SpecFetchError{Source: u.String(), Reason: err.Error()}
	}
	req.Header.Set("Accept", "application/json, application/yaml, text/javascript")

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, &bridgeerr.SpecFetchError{Source: u.String(), Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, &bridgeerr.SpecFetchError{
			Source: u.String(),
			Reason: fmt.Sprintf("unexpected status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, nil, &bridgeerr.SpecFetchError{Source: u.String(), Reason: err.Error()}
	}

	return body, resp.Request.URL, nil
}

// extractSwaggerDoc locates the first "swaggerDoc" key in a JavaScript
// bootstrap body and extracts the balanced-brace JSON object that follows
// it, tracking string literals and escapes so braces inside strings don't
// confuse the scan.
func extractSwaggerDoc(body []byte) ([]byte, bool) {
	idx := strings.Index(string(body), swaggerDocKey)
	if idx < 0 {
		return nil, false
	}

	rest := body[idx+len(swaggerDocKey):]
	start := strings.IndexByte(string(rest), '{')
	if start < 0 {
		return nil, false
	}
	rest = rest[start:]

	depth := 0
	inString := false
	escaped := false

	for i, c := range rest {
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return rest[:i+1], true
			}
		}
	}

	return nil, false
}
