package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed store call.
type Kind int

const (
	KindTransport Kind = iota + 1
	KindValidation
	KindNotFound
	KindAuth
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAuth:
		return "auth"
	}
	return "unknown"
}

var (
	ErrTransport    = errors.New("store unavailable")
	ErrValidation   = errors.New("store rejected the request")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// FieldError is a per-field validation failure, e.g. code
// "validation_not_unique" for a duplicate slug.
type FieldError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error is returned by every failed store call.
type Error struct {
	Kind      Kind
	Status    int
	Message   string
	Data      map[string]FieldError
	RequestID string
	Err       error
}

func (e *Error) Error() string {
	switch {
	case e.Status > 0:
		return fmt.Sprintf("store %s (%d): %s", e.Kind, e.Status, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("store %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("store %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the kind sentinels, so errors.Is(err, store.ErrNotFound) works
// on any wrapped *Error.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrUnauthorized:
		return e.Kind == KindAuth
	}
	return false
}

// FieldCode returns the validation code reported for field, or "".
func (e *Error) FieldCode(field string) string {
	return e.Data[field].Code
}

// KindOf reports the kind of err. Errors that did not come from the store
// client count as transport failures.
func KindOf(err error) Kind {
	if err == nil {
		return 0
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindTransport
}

// FieldCode extracts a validation code for field from any wrapped *Error.
func FieldCode(err error, field string) string {
	var se *Error
	if errors.As(err, &se) {
		return se.FieldCode(field)
	}
	return ""
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindAuth
	case status >= 500:
		return KindTransport
	case status >= 400:
		return KindValidation
	}
	return KindTransport
}

type errorBody struct {
	Status  int                        `json:"status"`
	Message string                     `json:"message"`
	Data    map[string]json.RawMessage `json:"data"`
}

func newStatusError(status int, body []byte, requestID string) *Error {
	e := &Error{
		Kind:      kindForStatus(status),
		Status:    status,
		Message:   http.StatusText(status),
		RequestID: requestID,
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return e
	}
	if eb.Message != "" {
		e.Message = eb.Message
	}
	for field, raw := range eb.Data {
		var fe FieldError
		if json.Unmarshal(raw, &fe) == nil && fe.Code != "" {
			if e.Data == nil {
				e.Data = make(map[string]FieldError, len(eb.Data))
			}
			e.Data[field] = fe
		}
	}
	return e
}

func newTransportError(err error, requestID string) *Error {
	return &Error{Kind: KindTransport, Message: err.Error(), RequestID: requestID, Err: err}
}
