package interfaces

import "errors"

// ErrorKind is a stable failure classification. Transport adapters map
// kinds to status codes without inspecting message text.
type ErrorKind string

const (
	// KindValidation marks missing or malformed request fields.
	KindValidation ErrorKind = "validation"
	// KindNotFound marks an address unknown to the keystore.
	KindNotFound ErrorKind = "not_found"
	// KindDecryption marks a MAC mismatch, wrong secret, or corrupt or
	// unsupported blob format.
	KindDecryption ErrorKind = "decryption"
	// KindPersistence marks an underlying storage failure.
	KindPersistence ErrorKind = "persistence"
)

// Error is a classified failure. The message never contains secret or
// private key material.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

// E constructs a classified error wrapping an optional cause.
func E(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Error returns the message, including the cause when present.
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the kind from an error chain. Returns the empty kind
// for unclassified errors.
func KindOf(err error) ErrorKind {
	var kerr *Error
	if errors.As(err, &kerr) {
		return kerr.Kind
	}
	return ""
}

// IsKind reports whether an error chain carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
