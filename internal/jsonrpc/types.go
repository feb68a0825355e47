// Package jsonrpc implements a minimal JSON-RPC 2.0 dispatch engine shared
// by the A2A and MCP protocol services. Each protocol is a method table; the
// engine owns envelope validation, method routing, and error shaping.
package jsonrpc

import "fmt"

// Version is the only accepted value of the jsonrpc envelope field.
const Version = "2.0"

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Request is the inbound JSON-RPC envelope. Params is an object or null.
type Request struct {
	JSONRPC string                 `json:"jsonrpc"`
	Method  string                 `json:"method"`
	Params  map[string]interface{} `json:"params"`
	ID      interface{}            `json:"id"`
}

// Response carries exactly one of Result or Error.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// NewError builds an error object without attached data.
func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// InvalidParams builds a -32602 error for a parameter contract violation.
func InvalidParams(message string) *Error {
	return &Error{Code: CodeInvalidParams, Message: message}
}

func resultResponse(id, result interface{}) *Response {
	return &Response{JSONRPC: Version, Result: result, ID: id}
}

func errorResponse(id interface{}, err *Error) *Response {
	return &Response{JSONRPC: Version, Error: err, ID: id}
}
