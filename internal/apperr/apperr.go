// Package apperr defines the error-kind taxonomy every component reports
// through, so the tool dispatch layer can map failures to the agent-facing
// {ok, error:{kind, message, suggestion?, path?}} shape uniformly.
package apperr

import "fmt"

// Kind names a category of failure, not a Go type. Components return
// *Error values tagged with one of these.
type Kind string

// Error kinds.
const (
	Validation Kind = "VALIDATION"
	Schema     Kind = "SCHEMA"
	Limit      Kind = "LIMIT"
	Session    Kind = "SESSION"
	Store      Kind = "STORE"
	Upstream   Kind = "UPSTREAM"
	Timeout    Kind = "TIMEOUT"
	Internal   Kind = "INTERNAL"
)

// Error is the structured failure every tool contract may return.
type Error struct {
	Kind       Kind
	Message    string
	Suggestion string
	Path       string
}

func (e *Error) Error() string {
	if e.Suggestion != "" {
		return e.Message + " " + e.Suggestion
	}
	return e.Message
}

// New builds an Error with no suggestion or path.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithSuggestion returns a copy of e carrying a "Did you mean" style
// suggestion string.
func (e *Error) WithSuggestion(suggestion string) *Error {
	cp := *e
	cp.Suggestion = suggestion
	return &cp
}

// WithPath returns a copy of e carrying the dotted selection-key path it
// occurred at.
func (e *Error) WithPath(path string) *Error {
	cp := *e
	cp.Path = path
	return &cp
}
