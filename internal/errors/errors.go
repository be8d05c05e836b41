// Package errors provides stable error codes for otpdeck.
//
// Codes follow the format {domain}.{error}. The domain doubles as the error
// kind the UI uses to decide how a failure is surfaced:
//   - decode: image has no code or the payload failed validation (notice)
//   - transport: a fetch failed or returned an unknown shape (rows degrade)
//   - validation: rejected locally before any network call (notice)
//   - server: the server rejected a mutation (its message is shown)
//
// Messages are user-facing; codes are for programmatic handling.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// Decode domain
	CodeDecodeNoCode         = "decode.no_code"         // Image holds no scannable code
	CodeDecodeInvalidPayload = "decode.invalid_payload" // Decoded text failed validation

	// Transport domain
	CodeTransportFetchFailed = "transport.fetch_failed" // Request failed or non-2xx on a read
	CodeTransportBadShape    = "transport.bad_shape"    // Response body has an unrecognized shape

	// Validation domain
	CodeValidationEmptyLabel    = "validation.empty_label"     // Rename with blank text
	CodeValidationImageTooLarge = "validation.image_too_large" // Image over the size cap
	CodeValidationNotImage      = "validation.not_image"       // Non-image MIME type
	CodeValidationNoSelection   = "validation.no_selection"    // Bulk action with nothing selected
	CodeValidationThrottled     = "validation.throttled"       // Duplicate submit inside the guard window
	CodeValidationInvalidInput  = "validation.invalid_input"   // Form field failed a local rule

	// Server domain
	CodeServerRejected = "server.rejected" // Mutation rejected by the server

	// General
	CodeUnknown = "error.unknown"
)

// Kind is the error taxonomy used for surfacing decisions.
type Kind int

const (
	KindUnknown Kind = iota
	KindDecode
	KindTransport
	KindValidation
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindDecode:
		return "decode"
	case KindTransport:
		return "transport"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// CodedError wraps an error with a stable code and a human-readable message.
type CodedError struct {
	Code    string // Stable error code (e.g., "decode.no_code")
	Message string // Human-readable message
	Cause   error  // Underlying error (may be nil)
}

// Error implements the error interface.
func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CodedError) Unwrap() error {
	return e.Cause
}

// New creates a CodedError with the given code and message.
func New(code, message string) *CodedError {
	return &CodedError{Code: code, Message: message}
}

// Wrap creates a CodedError wrapping an existing error.
func Wrap(code, message string, cause error) *CodedError {
	return &CodedError{Code: code, Message: message, Cause: cause}
}

// GetCode extracts the error code, or CodeUnknown for uncoded errors.
func GetCode(err error) string {
	if err == nil {
		return ""
	}
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeUnknown
}

// GetMessage extracts the human-readable message.
func GetMessage(err error) string {
	if err == nil {
		return ""
	}
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Message
	}
	return err.Error()
}

// IsCode checks if an error has a specific code.
func IsCode(err error, code string) bool {
	return GetCode(err) == code
}

// KindOf classifies err by its code's domain.
func KindOf(err error) Kind {
	code := GetCode(err)
	domain, _, _ := strings.Cut(code, ".")
	switch domain {
	case "decode":
		return KindDecode
	case "transport":
		return KindTransport
	case "validation":
		return KindValidation
	case "server":
		return KindServer
	default:
		return KindUnknown
	}
}

// NoCodeFound is returned when an image contains no scannable QR code.
func NoCodeFound() *CodedError {
	return New(CodeDecodeNoCode, "No QR code found in the image.")
}

// InvalidPayload rejects a decoded string with a reason.
func InvalidPayload(reason string) *CodedError {
	return New(CodeDecodeInvalidPayload, reason)
}

// FetchFailed wraps a transport failure for the given endpoint.
func FetchFailed(path string, cause error) *CodedError {
	return Wrap(CodeTransportFetchFailed, fmt.Sprintf("failed to fetch %s", path), cause)
}

// ServerRejected carries a message the server supplied for a failed mutation.
func ServerRejected(message string, status int) *CodedError {
	if strings.TrimSpace(message) == "" {
		message = fmt.Sprintf("Request failed (HTTP %d)", status)
	}
	return New(CodeServerRejected, message)
}

// Invalid creates a local validation error.
func Invalid(code, message string) *CodedError {
	return New(code, message)
}
