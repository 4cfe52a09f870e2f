// Package common defines the error contract shared by every document
// operation: a small set of kinds, a typed *Error carrying the kind and a
// user-facing message, and sentinels usable with errors.Is.
package common

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so that callers can apply one messaging policy
// to every operation instead of inspecting call-site specific errors.
type Kind int

const (
	KindUnknown Kind = iota
	KindCapacityExceeded
	KindValidation
	KindStorageUpload
	KindMetadataWrite
	KindNotFound
	KindDownloadFailed
	KindStorageDeleteWarning
	KindAccessDenied
	KindCanceled
	KindBusy
)

var (
	// Kind sentinels. *Error unwraps to the sentinel of its kind.
	ErrCapacityExceeded     = errors.New("capacity exceeded")
	ErrValidation           = errors.New("validation error")
	ErrStorageUpload        = errors.New("storage upload error")
	ErrMetadataWrite        = errors.New("metadata write error")
	ErrNotFound             = errors.New("not found")
	ErrDownloadFailed       = errors.New("download failed")
	ErrStorageDeleteWarning = errors.New("storage delete warning")
	ErrAccessDenied         = errors.New("access denied")
	ErrCanceled             = errors.New("canceled")
	ErrBusy                 = errors.New("busy")

	// Repository-level errors.
	ErrRowNotFound = errors.New("row not found")
)

var sentinels = map[Kind]error{
	KindCapacityExceeded:     ErrCapacityExceeded,
	KindValidation:           ErrValidation,
	KindStorageUpload:        ErrStorageUpload,
	KindMetadataWrite:        ErrMetadataWrite,
	KindNotFound:             ErrNotFound,
	KindDownloadFailed:       ErrDownloadFailed,
	KindStorageDeleteWarning: ErrStorageDeleteWarning,
	KindAccessDenied:         ErrAccessDenied,
	KindCanceled:             ErrCanceled,
	KindBusy:                 ErrBusy,
}

// String returns the snake_case name used in logs and metric labels.
func (k Kind) String() string {
	switch k {
	case KindCapacityExceeded:
		return "capacity_exceeded"
	case KindValidation:
		return "validation"
	case KindStorageUpload:
		return "storage_upload"
	case KindMetadataWrite:
		return "metadata_write"
	case KindNotFound:
		return "not_found"
	case KindDownloadFailed:
		return "download_failed"
	case KindStorageDeleteWarning:
		return "storage_delete_warning"
	case KindAccessDenied:
		return "access_denied"
	case KindCanceled:
		return "canceled"
	case KindBusy:
		return "busy"
	default:
		return "unknown"
	}
}

// Error is the result error of every document operation.
//
// Op names the operation ("upload", "download", ...), Msg is a short
// human-readable message suitable for a transient notification, and Err is
// the underlying cause (may be nil).
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

// NewError builds an *Error.
func NewError(kind Kind, op, msg string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: cause}
}

func (e *Error) Error() string {
	s := e.Op + ": " + e.Msg
	if e.Err != nil {
		s = fmt.Sprintf("%s: %v", s, e.Err)
	}
	return s
}

// Unwrap exposes both the kind sentinel and the cause, so errors.Is works
// against either.
func (e *Error) Unwrap() []error {
	var out []error
	if s, ok := sentinels[e.Kind]; ok {
		out = append(out, s)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// KindOf reports the kind of the first *Error found in err's tree.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// UserMessage returns the message to show the user for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "something went wrong"
}
