// Package query is the graph navigator / query engine (spec §4.5): resolving
// bird:// URIs to stored Nodes, locating the innermost Ranges under a
// position, and walking LSIF edge chains to answer hover/definition/
// references queries.
package query

import (
	"github.com/cockroachdb/errors"
)

// Kind discriminates the error classes spec §7 routes differently at the HTTP
// boundary (4xx vs 5xx) and in ingesters (fatal vs logged-and-continue).
type Kind string

const (
	KindNotFound       Kind = "not_found"
	KindBadRequest     Kind = "bad_request"
	KindInternal       Kind = "internal"
	KindMethodNotFound Kind = "method_not_found"
)

type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func newError(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: errors.Newf(format, args...).Error()}
}

func wrapError(kind Kind, cause error, message string) error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// NotFound builds a KindNotFound error (spec: "Errors: FileNotFound{url, message?}").
func NotFound(format string, args ...any) error {
	return newError(KindNotFound, format, args...)
}

func BadRequest(format string, args ...any) error {
	return newError(KindBadRequest, format, args...)
}

func Internal(cause error, message string) error {
	return wrapError(KindInternal, cause, message)
}

func MethodNotFound(method string) error {
	return newError(KindMethodNotFound, "method not routed: %s", method)
}

// KindOf extracts the Kind from err, defaulting to KindInternal for anything
// the navigator did not itself classify (spec §7's HTTP-boundary mapping).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
