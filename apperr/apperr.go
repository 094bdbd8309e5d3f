// Package apperr defines the failure kinds shared by the generation and publish steps.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failure for callers and for the HTTP boundary.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindValidation
	KindUpstream
	KindPublish
	KindAccessDenied
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindValidation:
		return "validation"
	case KindUpstream:
		return "upstream"
	case KindPublish:
		return "publish"
	case KindAccessDenied:
		return "access_denied"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// ErrAccessDenied is returned when the shared access key does not match.
// It never says whether the key was absent or wrong.
var ErrAccessDenied = &Error{Kind: KindAccessDenied, Op: "access gate", Message: "Acceso no autorizado"}

// Error is the single error type produced by the pipeline packages.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	// StatusCode and Body carry the upstream response for Upstream and Publish kinds.
	StatusCode int
	Body       string
	// Missing lists absent configuration variables for Configuration kind.
	Missing []string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Message != "":
		b.WriteString(e.Message)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString(e.Kind.String())
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Body != "" {
		b.WriteString(": ")
		b.WriteString(e.Body)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Configuration reports required settings that are absent.
func Configuration(op string, missing ...string) *Error {
	return &Error{
		Kind:    KindConfiguration,
		Op:      op,
		Message: "missing configuration " + strings.Join(missing, ", "),
		Missing: missing,
	}
}

// Validation reports bad caller input.
func Validation(op, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

// Upstream reports a failed generation call. A context deadline in err turns
// the failure into KindTimeout.
func Upstream(op string, status int, body string, err error) *Error {
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return Timeout(op, err)
	}
	e := &Error{Kind: KindUpstream, Op: op, StatusCode: status, Body: body, Err: err}
	if status != 0 {
		e.Message = "upstream request failed"
	}
	return e
}

// Publish reports a non-success response from the CMS, or a transport
// failure when status is 0.
func Publish(op string, status int, body string, err error) *Error {
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return Timeout(op, err)
	}
	e := &Error{Kind: KindPublish, Op: op, StatusCode: status, Body: body, Err: err}
	if status != 0 {
		e.Message = "cms rejected request"
	}
	return e
}

// Timeout reports an outbound call that ran past its deadline.
func Timeout(op string, err error) *Error {
	return &Error{Kind: KindTimeout, Op: op, Message: "request timed out", Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindUnknown
}

// As is a shorthand for errors.As with *Error.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// HTTPStatus maps err to the status code the HTTP boundary answers with.
// Publish errors forward the CMS status when it is an error status.
func HTTPStatus(err error) int {
	e, ok := As(err)
	if !ok {
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAccessDenied:
		return http.StatusForbidden
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindPublish:
		if e.StatusCode >= 400 && e.StatusCode <= 599 {
			return e.StatusCode
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
