package synth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/oasbridge/bridge/pkg/bridgeerr"
)

// decodeResponse implements §5.4's response contract: status >= 400 yields a
// structured UpstreamError; otherwise the body is returned decoded as JSON
// when it parses, or as a raw string when it doesn't (§8 scenario S7).
func decodeResponse(resp *http.Response) (any, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &bridgeerr.TransportError{Reason: err.Error()}
	}

	if resp.StatusCode >= 400 {
		return nil, &bridgeerr.UpstreamError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       parseBody(body),
			Headers:    resp.Header,
		}
	}

	if len(body) == 0 {
		return nil, nil
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err == nil {
		return decoded, nil
	}
	return string(body), nil
}

func parseBody(body []byte) any {
	var decoded any
	if err := json.Unmarshal(body, &decoded); err == nil {
		return decoded
	}
	return string(body)
}

// transportError classifies a client.Do failure: a cancelled/expired
// context surfaces as-is so callers can distinguish cancellation from a
// genuine connect failure, otherwise it's a TransportError (§8).
func transportError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return &bridgeerr.TransportError{Reason: err.Error()}
}
