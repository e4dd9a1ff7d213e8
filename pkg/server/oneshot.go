package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/oasbridge/bridge/pkg/protocol"
)

// RunOnce implements `--once METHOD PARAMS-JSON` (§5.8): builds a synthetic
// request, dispatches it once, and returns the marshalled response so the
// caller can print it and pick an exit code.
func RunOnce(ctx context.Context, d *protocol.Dispatcher, method, paramsJSON string) ([]byte, error) {
	params := []byte(paramsJSON)
	if paramsJSON == "" {
		params = []byte("{}")
	}
	if !json.Valid(params) {
		return nil, fmt.Errorf("params is not valid JSON: %s", paramsJSON)
	}

	id, err := json.Marshal(uuid.NewString())
	if err != nil {
		return nil, err
	}

	req := protocol.Request{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	}
	raw, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	out := d.Handle(ctx, raw)

	var resp protocol.Response
	if err := json.Unmarshal(out, &resp); err == nil && resp.Error != nil {
		return out, fmt.Errorf("%s", resp.Error.Message)
	}

	return out, nil
}
