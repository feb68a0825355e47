package jsonrpc

import (
	"encoding/json"
	"sort"

	"github.com/sirupsen/logrus"
)

// Handler processes one method call. It returns either a result payload or
// an *Error; returning both nil is a handler bug and is surfaced as an
// internal error.
type Handler func(params map[string]interface{}, id interface{}) (interface{}, *Error)

// Dispatcher routes validated requests to a method table.
type Dispatcher struct {
	methods map[string]Handler
	logger  *logrus.Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger *logrus.Logger) *Dispatcher {
	if logger == nil {
		logger = logrus.New()
	}
	return &Dispatcher{
		methods: make(map[string]Handler),
		logger:  logger,
	}
}

// Register adds a method to the table. Later registrations win.
func (d *Dispatcher) Register(method string, handler Handler) {
	d.methods[method] = handler
}

// Methods returns the method table keys in sorted order.
func (d *Dispatcher) Methods() []string {
	names := make([]string, 0, len(d.methods))
	for name := range d.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch validates the raw body and routes it to a handler. It never
// panics past this boundary: handler panics become -32603 responses.
func (d *Dispatcher) Dispatch(body []byte) *Response {
	// Decode in two stages: -32700 is reserved for bodies that are not JSON
	// at all. A parseable body with wrong field types is an invalid request
	// and the id is still recoverable for the error response.
	var raw struct {
		JSONRPC json.RawMessage `json:"jsonrpc"`
		Method  json.RawMessage `json:"method"`
		Params  json.RawMessage `json:"params"`
		ID      json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return errorResponse(nil, NewError(CodeParseError, "Parse error"))
	}

	var req Request
	if len(raw.ID) > 0 {
		// Any JSON value is a legal id once the envelope parsed.
		_ = json.Unmarshal(raw.ID, &req.ID)
	}
	if err := json.Unmarshal(raw.JSONRPC, &req.JSONRPC); err != nil || req.JSONRPC != Version {
		return errorResponse(req.ID, NewError(CodeInvalidRequest, "Invalid Request: jsonrpc must be \"2.0\""))
	}
	if err := json.Unmarshal(raw.Method, &req.Method); err != nil || req.Method == "" {
		return errorResponse(req.ID, NewError(CodeInvalidRequest, "Invalid Request: method must be a non-empty string"))
	}
	if len(raw.Params) > 0 {
		if err := json.Unmarshal(raw.Params, &req.Params); err != nil {
			return errorResponse(req.ID, NewError(CodeInvalidRequest, "Invalid Request: params must be an object"))
		}
	}

	handler, ok := d.methods[req.Method]
	if !ok {
		return errorResponse(req.ID, &Error{
			Code:    CodeMethodNotFound,
			Message: "Method not found: " + req.Method,
			Data:    map[string]interface{}{"available": d.Methods()},
		})
	}

	return d.invoke(handler, &req)
}

func (d *Dispatcher) invoke(handler Handler, req *Request) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Errorf("Handler for %s panicked: %v", req.Method, r)
			resp = errorResponse(req.ID, NewError(CodeInternalError, "Internal error"))
		}
	}()

	result, rpcErr := handler(req.Params, req.ID)
	if rpcErr != nil {
		return errorResponse(req.ID, rpcErr)
	}
	if result == nil {
		d.logger.Errorf("Handler for %s returned neither result nor error", req.Method)
		return errorResponse(req.ID, NewError(CodeInternalError, "Internal error"))
	}
	return resultResponse(req.ID, result)
}
