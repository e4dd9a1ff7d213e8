package protocol

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/oasbridge/bridge/pkg/bridgeerr"
	"github.com/oasbridge/bridge/pkg/registry"
)

// coder is implemented by every pkg/bridgeerr type; it maps a Go error onto
// the JSON-RPC error code the transport puts on the wire.
type coder interface {
	RPCCode() int
}

// dataCoder is implemented by errors that also carry a structured data
// envelope (currently only UpstreamError).
type dataCoder interface {
	Data() map[string]any
}

// Dispatcher is the single shared RPC core every transport in §5.8 drives.
// It knows nothing about stdio, HTTP, WebSocket, or SSE framing.
type Dispatcher struct {
	Registry      *registry.Registry
	ServerName    string
	ServerVersion string
}

// New builds a dispatcher bound to a fully wired registry.
func New(reg *registry.Registry, serverName, serverVersion string) *Dispatcher {
	return &Dispatcher{Registry: reg, ServerName: serverName, ServerVersion: serverVersion}
}

// Handle parses one request, dispatches it, and marshals the response.
// It returns nil for a notification (no id), per §5.8's stdio contract.
// A JSON parse failure still produces a -32700 envelope; it carries no id,
// since none is read from input that fails to decode.
func (d *Dispatcher) Handle(ctx context.Context, raw []byte) []byte {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		resp := &Response{JSONRPC: "2.0", Error: &Error{Code: bridgeerr.CodeParseError, Message: "parse error: " + err.Error()}}
		out, _ := json.Marshal(resp)
		return out
	}

	if req.IsNotification() {
		d.dispatch(ctx, &req)
		return nil
	}

	result, err := d.dispatch(ctx, &req)
	resp := &Response{JSONRPC: "2.0", ID: req.ID}
	if err != nil {
		resp.Error = toRPCError(err)
	} else {
		resp.Result = result
	}

	out, marshalErr := json.Marshal(resp)
	if marshalErr != nil {
		fallback := &Response{JSONRPC: "2.0", ID: req.ID, Error: &Error{Code: bridgeerr.CodeHandlerFailure, Message: marshalErr.Error()}}
		out, _ = json.Marshal(fallback)
	}
	return out
}

func (d *Dispatcher) dispatch(ctx context.Context, req *Request) (any, error) {
	switch req.Method {
	case "initialize":
		return InitializeResult{
			ProtocolVersion: protocolVersion,
			ServerInfo:      ServerInfo{Name: d.ServerName, Version: d.ServerVersion},
			Capabilities:    map[string]any{"tools": map[string]any{}},
		}, nil

	case "tools/list":
		descriptors := d.Registry.List()
		tools := make([]any, 0, len(descriptors))
		for _, desc := range descriptors {
			tools = append(tools, desc)
		}
		return ListToolsResult{Tools: tools}, nil

	case "tools/call":
		return d.callTool(ctx, req.Params)

	default:
		return nil, &unknownMethodError{method: req.Method}
	}
}

func (d *Dispatcher) callTool(ctx context.Context, params json.RawMessage) (any, error) {
	var call ToolCallParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &call); err != nil {
			return nil, &malformedParamsError{reason: err.Error()}
		}
	}

	handler, err := d.Registry.Lookup(call.Name)
	if err != nil {
		return nil, err
	}

	result, err := handler(ctx, call.Arguments)
	if err != nil {
		return nil, err
	}

	return CallResult{Content: []ContentItem{{Type: "json", JSON: result}}}, nil
}

// unknownMethodError reports an RPC method outside {initialize, tools/list,
// tools/call}.
type unknownMethodError struct{ method string }

func (e *unknownMethodError) Error() string { return "unknown method " + e.method }
func (e *unknownMethodError) RPCCode() int  { return bridgeerr.CodeUnknownMethod }

// malformedParamsError reports a tools/call whose params didn't decode.
type malformedParamsError struct{ reason string }

func (e *malformedParamsError) Error() string { return "malformed params: " + e.reason }
func (e *malformedParamsError) RPCCode() int  { return bridgeerr.CodeParseError }

func toRPCError(err error) *Error {
	code := bridgeerr.CodeHandlerFailure
	var c coder
	if errors.As(err, &c) {
		code = c.RPCCode()
	}

	rpcErr := &Error{Code: code, Message: err.Error()}

	var dc dataCoder
	if errors.As(err, &dc) {
		rpcErr.Data = dc.Data()
	}

	return rpcErr
}
