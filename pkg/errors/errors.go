// Package errors provides typed failure kinds for the download pipeline
package errors

import "errors"

// Kind classifies a failure into one of the categories the pipeline
// distinguishes when choosing a user-visible response.
type Kind int

const (
	KindInternal Kind = iota
	KindUnsupported
	KindNotFound
	KindAccessDenied
	KindNetwork
	KindRateLimited
	KindTooLarge
	KindEmptyResult
	KindUploadFailed
	KindTranscodeFailed
	KindStaleSelection
)

var kindNames = map[Kind]string{
	KindInternal:        "internal",
	KindUnsupported:     "unsupported",
	KindNotFound:        "not_found",
	KindAccessDenied:    "access_denied",
	KindNetwork:         "network",
	KindRateLimited:     "rate_limited",
	KindTooLarge:        "too_large",
	KindEmptyResult:     "empty_result",
	KindUploadFailed:    "upload_failed",
	KindTranscodeFailed: "transcode_failed",
	KindStaleSelection:  "stale_selection",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "internal"
}

// Error is a failure with a classified kind and an optional cause
type Error struct {
	kind  Kind
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Kind returns the failure kind
func (e *Error) Kind() Kind {
	return e.kind
}

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{kind: kind, msg: msg, cause: cause}
}

// NewUnsupported creates an unsupported-input error
func NewUnsupported(msg string) *Error {
	return newError(KindUnsupported, msg, nil)
}

// NewNotFound creates an identifier-not-found error
func NewNotFound(msg string) *Error {
	return newError(KindNotFound, msg, nil)
}

// NewAccessDenied creates a private/restricted-content error
func NewAccessDenied(msg string, cause error) *Error {
	return newError(KindAccessDenied, msg, cause)
}

// NewNetwork creates a transient network error
func NewNetwork(msg string, cause error) *Error {
	return newError(KindNetwork, msg, cause)
}

// NewRateLimited creates a throttling error
func NewRateLimited(msg string, cause error) *Error {
	return newError(KindRateLimited, msg, cause)
}

// NewTooLarge creates an upload-ceiling error
func NewTooLarge(msg string) *Error {
	return newError(KindTooLarge, msg, nil)
}

// NewEmptyResult creates an error for a technically successful call that
// produced zero usable media
func NewEmptyResult(msg string) *Error {
	return newError(KindEmptyResult, msg, nil)
}

// NewUploadFailed creates a gateway-upload error
func NewUploadFailed(msg string, cause error) *Error {
	return newError(KindUploadFailed, msg, cause)
}

// NewTranscodeFailed creates an audio-extraction error
func NewTranscodeFailed(msg string, cause error) *Error {
	return newError(KindTranscodeFailed, msg, cause)
}

// NewStaleSelection creates an error for a callback without a pending selection
func NewStaleSelection(msg string) *Error {
	return newError(KindStaleSelection, msg, nil)
}

// NewInternal creates a generic internal error
func NewInternal(msg string, cause error) *Error {
	return newError(KindInternal, msg, cause)
}

// KindOf extracts the failure kind from an error chain.
// Unclassified errors report KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindInternal
}

// IsAccessDenied checks if error is an access-denied failure
func IsAccessDenied(err error) bool {
	return KindOf(err) == KindAccessDenied
}

// IsNetwork checks if error is a transient network failure
func IsNetwork(err error) bool {
	return KindOf(err) == KindNetwork
}

// IsRateLimited checks if error is a throttling failure
func IsRateLimited(err error) bool {
	return KindOf(err) == KindRateLimited
}

// IsTooLarge checks if error is an upload-ceiling failure
func IsTooLarge(err error) bool {
	return KindOf(err) == KindTooLarge
}

// IsNotFound checks if error is an identifier-not-found failure
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsStaleSelection checks if error is a stale-selection failure
func IsStaleSelection(err error) bool {
	return KindOf(err) == KindStaleSelection
}
