package qdrant

import (
	"errors"
	"fmt"
)

// Error categories returned by the codec, the query model and the transport.
// Every concrete error produced by this package unwraps to exactly one of them,
// so callers can branch with errors.Is.
var (
	// ErrMalformedValue is returned when a wire value does not match any
	// recognized vector or primitive encoding.
	ErrMalformedValue = errors.New("qdrant: malformed value")

	// ErrEmptyValue is returned when a dense, sparse, multi or named container
	// has no elements where at least one is required.
	ErrEmptyValue = errors.New("qdrant: empty value")

	// ErrTypeMismatch is returned when a variant-specific view is requested
	// on a value holding a different variant.
	ErrTypeMismatch = errors.New("qdrant: type mismatch")

	// ErrKeyNotFound is returned when a named vector or payload field lookup fails.
	ErrKeyNotFound = errors.New("qdrant: key not found")

	// ErrValidation is returned when a composed request violates a structural
	// invariant. It is raised before any request bytes are produced.
	ErrValidation = errors.New("qdrant: validation failed")

	// ErrUnsupportedVariant is returned when encoding a value shape the codec
	// does not support, such as a named collection nested in another one.
	ErrUnsupportedVariant = errors.New("qdrant: unsupported variant")

	// ErrRemote is returned when the remote service reports a failure.
	ErrRemote = errors.New("qdrant: remote error")
)

// CodecError describes a decode, encode or accessor failure.
//
// Kind is one of the sentinel errors above. Raw holds the offending wire
// fragment (if any) and Key the named-vector or payload key involved.
type CodecError struct {
	Kind error
	Raw  string
	Key  string
	Msg  string
}

func (e *CodecError) Error() string {
	msg := e.Kind.Error()
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Key != "" {
		msg += fmt.Sprintf(" (key %q)", e.Key)
	}
	if e.Raw != "" {
		msg += ": " + truncateRaw(e.Raw)
	}
	return msg
}

func (e *CodecError) Unwrap() error { return e.Kind }

// ValidationError reports a violated request invariant. Field is the JSON
// path of the offending element, e.g. "prefetch[1].query".
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Msg)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// APIError is a non-ok status reported by the remote service, either for a
// whole response or for a single batch slot.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", ErrRemote, e.Message)
	}
	return fmt.Sprintf("%s: http %d: %s", ErrRemote, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return ErrRemote }

// IsMalformedValue reports whether err is a malformed value error.
func IsMalformedValue(err error) bool { return errors.Is(err, ErrMalformedValue) }

// IsEmptyValue reports whether err is an empty value error.
func IsEmptyValue(err error) bool { return errors.Is(err, ErrEmptyValue) }

// IsTypeMismatch reports whether err is a type mismatch error.
func IsTypeMismatch(err error) bool { return errors.Is(err, ErrTypeMismatch) }

// IsKeyNotFound reports whether err is a key not found error.
func IsKeyNotFound(err error) bool { return errors.Is(err, ErrKeyNotFound) }

// IsValidationError reports whether err is a request validation error.
func IsValidationError(err error) bool { return errors.Is(err, ErrValidation) }

// IsUnsupportedVariant reports whether err is an unsupported variant error.
func IsUnsupportedVariant(err error) bool { return errors.Is(err, ErrUnsupportedVariant) }

func malformed(raw, format string, args ...any) error {
	return &CodecError{Kind: ErrMalformedValue, Raw: raw, Msg: fmt.Sprintf(format, args...)}
}

func malformedKey(key, raw, format string, args ...any) error {
	return &CodecError{Kind: ErrMalformedValue, Key: key, Raw: raw, Msg: fmt.Sprintf(format, args...)}
}

func empty(format string, args ...any) error {
	return &CodecError{Kind: ErrEmptyValue, Msg: fmt.Sprintf(format, args...)}
}

func mismatch(want string, got fmt.Stringer) error {
	return &CodecError{Kind: ErrTypeMismatch, Msg: fmt.Sprintf("want %s, got %s", want, got)}
}

func unsupported(format string, args ...any) error {
	return &CodecError{Kind: ErrUnsupportedVariant, Msg: fmt.Sprintf(format, args...)}
}

func unsupportedKey(key, format string, args ...any) error {
	return &CodecError{Kind: ErrUnsupportedVariant, Key: key, Msg: fmt.Sprintf(format, args...)}
}

// withKey attaches a named-vector key to a codec error that has none.
func withKey(err error, key string) error {
	var ce *CodecError
	if !errors.As(err, &ce) || ce.Key != "" {
		return err
	}
	cp := *ce
	cp.Key = key
	return &cp
}

// asUnsupported turns an invariant violation found while encoding into an
// unsupported variant error, keeping its message and key.
func asUnsupported(err error) error {
	var ce *CodecError
	if !errors.As(err, &ce) {
		return &CodecError{Kind: ErrUnsupportedVariant, Msg: err.Error()}
	}
	if ce.Kind == ErrUnsupportedVariant {
		return err
	}
	return &CodecError{Kind: ErrUnsupportedVariant, Key: ce.Key, Raw: ce.Raw, Msg: ce.Msg}
}

func keyNotFound(key, format string, args ...any) error {
	return &CodecError{Kind: ErrKeyNotFound, Key: key, Msg: fmt.Sprintf(format, args...)}
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

const maxRawInError = 128

// truncateRaw keeps error messages bounded for large vectors.
func truncateRaw(raw string) string {
	if len(raw) <= maxRawInError {
		return raw
	}
	return raw[:maxRawInError] + "..."
}
