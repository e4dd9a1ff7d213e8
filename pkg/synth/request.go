package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/oasbridge/bridge/pkg/bridgeerr"
	"github.com/oasbridge/bridge/pkg/compiler"
)

// resolvePath substitutes every "{name}" placeholder in the operation's
// path template with the percent-encoded argument value (§5.4 preflight
// step 2).
func resolvePath(op *compiler.Operation, args map[string]any) (string, error) {
	path := op.PathTemplate

	for _, p := range op.Parameters {
		if p.In != compiler.InPath {
			continue
		}

		v, ok := args[p.Name]
		placeholder := "{" + p.Name + "}"
		if !ok || v == nil {
			if strings.Contains(path, placeholder) {
				return "", &bridgeerr.MissingParameterError{Parameter: p.Name}
			}
			continue
		}

		path = strings.ReplaceAll(path, placeholder, url.PathEscape(stringify(v)))
	}

	return path, nil
}

// buildQuery accumulates declared query parameters present in args, then
// layers the auth broker's own query mutations on top (§5.4 step 3).
func buildQuery(op *compiler.Operation, args map[string]any, extra map[string]string) url.Values {
	q := url.Values{}
	for _, p := range op.Parameters {
		if p.In != compiler.InQuery {
			continue
		}
		if v, ok := args[p.Name]; ok && v != nil {
			q.Set(p.Name, stringify(v))
		}
	}
	for k, v := range extra {
		q.Set(k, v)
	}
	return q
}

func buildHeaders(op *compiler.Operation, args map[string]any, extra map[string]string) http.Header {
	h := http.Header{}
	for _, p := range op.Parameters {
		if p.In != compiler.InHeader {
			continue
		}
		if v, ok := args[p.Name]; ok && v != nil {
			h.Set(p.Name, stringify(v))
		}
	}
	for k, v := range extra {
		h.Set(k, v)
	}
	return h
}

func buildCookies(op *compiler.Operation, args map[string]any, extra map[string]string) map[string]string {
	cookies := map[string]string{}
	for _, p := range op.Parameters {
		if p.In != compiler.InCookie {
			continue
		}
		if v, ok := args[p.Name]; ok && v != nil {
			cookies[p.Name] = stringify(v)
		}
	}
	for k, v := range extra {
		cookies[k] = v
	}
	return cookies
}

// collapseCookies folds the cookie bag into a single Cookie header value
// (§5.4 step 4), sorted for determinism.
func collapseCookies(cookies map[string]string) string {
	if len(cookies) == 0 {
		return ""
	}

	names := make([]string, 0, len(cookies))
	for k := range cookies {
		names = append(names, k)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, k := range names {
		parts = append(parts, k+"="+cookies[k])
	}
	return strings.Join(parts, "; ")
}

// resolveBody carries the body argument verbatim when declared (§5.4 step
// 5), failing MissingParameterError if a required body was never supplied.
func resolveBody(op *compiler.Operation, args map[string]any) (any, bool, error) {
	if op.RequestBody == nil {
		return nil, false, nil
	}

	raw, ok := args["body"]
	if !ok || raw == nil {
		if op.RequestBody.Required {
			return nil, false, &bridgeerr.MissingParameterError{Parameter: "body"}
		}
		return nil, false, nil
	}

	return raw, true, nil
}

func buildRequest(ctx context.Context, op *compiler.Operation, path string, query url.Values, headers http.Header, cookies map[string]string, body any, hasBody bool) (*http.Request, error) {
	reqURL := op.BaseURL + path
	if encoded := query.Encode(); encoded != "" {
		reqURL += "?" + encoded
	}

	var reader *bytes.Reader
	if hasBody {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	var req *http.Request
	var err error
	if reader != nil {
		req, err = http.NewRequestWithContext(ctx, op.Method, reqURL, reader)
	} else {
		req, err = http.NewRequestWithContext(ctx, op.Method, reqURL, http.NoBody)
	}
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	for k, vs := range headers {
		req.Header[k] = vs
	}
	if cookie := collapseCookies(cookies); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	if hasBody && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// stringify renders an argument value the way a query/path/header string
// needs it, matching the JSON scalar types gojsonschema validation allows
// through.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}
