// Package errs defines the stable error taxonomy surfaced across the
// download core and converted to a {type, message, suggested_action}
// envelope at the command facade boundary.
package errs

import "fmt"

// Kind is one of the stable, UI-facing error categories.
type Kind string

const (
	NetworkError          Kind = "NetworkError"
	VideoUnavailable      Kind = "VideoUnavailable"
	InsufficientSpace     Kind = "InsufficientSpace"
	InvalidURL            Kind = "InvalidUrl"
	MissingDependency     Kind = "MissingDependency"
	CorruptedInstallation Kind = "CorruptedInstallation"
	DownloadFailed        Kind = "DownloadFailed"
	PermissionDenied      Kind = "PermissionDenied"
	OperationCancelled    Kind = "OperationCancelled"
	Timeout               Kind = "Timeout"
	UnknownID             Kind = "UnknownId"
	IllegalTransition     Kind = "IllegalTransition"
	DuplicateID           Kind = "DuplicateId"
	OutOfRange            Kind = "OutOfRange"
	PersistenceError      Kind = "PersistenceError"
	Unsupported           Kind = "Unsupported"
	Unknown               Kind = "Unknown"
)

// unconditionallyRetryable holds kinds that are always retryable. DownloadFailed
// is handled separately — its retryability depends on the captured message.
var unconditionallyRetryable = map[Kind]bool{
	NetworkError: true,
	Timeout:      true,
}

// Error is the structured error value passed between providers, the
// manager, and the command facade.
type Error struct {
	Kind    Kind
	Message string
	// retryableOverride, when set by the caller via WithRetryable, overrides
	// the kind's default retryability (used for DownloadFailed's
	// substring-based classification).
	retryableOverride *bool
}

// New constructs an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf constructs an Error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// WithRetryable returns a copy of e with its retryability pinned to v,
// overriding the kind's default.
func (e *Error) WithRetryable(v bool) *Error {
	c := *e
	c.retryableOverride = &v
	return &c
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Retryable reports whether the manager should re-queue an item that
// failed with this error.
func (e *Error) Retryable() bool {
	if e.retryableOverride != nil {
		return *e.retryableOverride
	}
	return unconditionallyRetryable[e.Kind]
}

// SuggestedAction returns a short, human-readable remedy for this kind, or
// the empty string if none applies.
func (e *Error) SuggestedAction() string {
	switch e.Kind {
	case NetworkError:
		return "Check your internet connection and try again."
	case VideoUnavailable:
		return "The video may be private, deleted, or region-restricted."
	case InsufficientSpace:
		return "Free up disk space or choose a different save location."
	case InvalidURL:
		return "Enter a valid, supported platform URL."
	case MissingDependency:
		return "Install the missing required executable."
	case CorruptedInstallation:
		return "Reinstall the application to restore the bundled executables."
	case PermissionDenied:
		return "Choose a different save location with write permissions."
	case Timeout:
		return "The operation took too long. Try again later."
	case DownloadFailed:
		return "Check the error details and try again."
	default:
		return ""
	}
}

// Envelope is the stable shape returned to the UI host for every failed
// command.
type Envelope struct {
	Type            Kind   `json:"type"`
	Message         string `json:"message"`
	SuggestedAction string `json:"suggested_action,omitempty"`
}

// ToEnvelope converts err to the stable command-surface shape. Non-*Error
// values are classified Unknown.
func ToEnvelope(err error) Envelope {
	if e, ok := err.(*Error); ok {
		return Envelope{Type: e.Kind, Message: e.Message, SuggestedAction: e.SuggestedAction()}
	}
	return Envelope{Type: Unknown, Message: err.Error()}
}

// As extracts an *Error from err, if it is one.
func As(err error) (*Error, bool) {
	e, ok := err.(*Error)
	return e, ok
}
