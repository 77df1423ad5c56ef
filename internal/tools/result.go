// Package tools exposes the pipeline operations behind a JSON-in, Result-out boundary.
// Nothing in here panics or reports failures as plain strings.
package tools

import (
	"encoding/json"
	"fmt"
)

type ErrorKind string

const (
	KindInvalidInput  ErrorKind = "invalid_input"
	KindNotFound      ErrorKind = "not_found"
	KindUnknownAction ErrorKind = "unknown_action"
	KindInternal      ErrorKind = "internal"
)

type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Result is either a success carrying Data or a failure carrying Error.
type Result struct {
	OK    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

func success(data any) Result {
	return Result{OK: true, Data: data}
}

func failure(kind ErrorKind, format string, args ...any) Result {
	return Result{Error: &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}}
}

// Err returns the failure as an error, or nil on success.
func (r Result) Err() error {
	if r.OK || r.Error == nil {
		return nil
	}
	return r.Error
}

func (r Result) JSON() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"ok":false,"error":{"kind":%q,"message":%q}}`, KindInternal, err.Error())
	}
	return string(data)
}
