package service

import (
	"encoding/json"

	"github.com/vfscore/vfscore/pkg/vpath"
)

// Request is the {method, params} envelope every call arrives in.
type Request struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is the {data} | {error} envelope every call returns.
type Response struct {
	Data  interface{} `json:"data,omitempty"`
	Error *Error      `json:"error,omitempty"`
}

func ok(data interface{}) Response {
	return Response{Data: data}
}

func fail(err error) Response {
	return Response{Error: errorFrom(err)}
}

// errorFrom normalizes any error the dispatched methods return into the
// closed {code, message} shape. A *Error passes through unchanged; a
// filesystem error surfaces its vpath.Kind as the code, since the filesystem
// error taxonomy and the service error codes share one closed set; anything
// else is reported as invalid data rather than leaking an unstructured
// message with no code.
func errorFrom(err error) *Error {
	if err == nil {
		return nil
	}
	if svcErr, ok := err.(*Error); ok {
		return svcErr
	}
	if kind, ok := vpath.KindOf(err); ok {
		return newError(Code(kind.String()), err.Error())
	}
	return newError(InvalidData, err.Error())
}
