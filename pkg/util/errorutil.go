package util

import (
	"errors"
	"fmt"
)

// ErrorClass partitions failures by how they should be reported to the user.
type ErrorClass string

const (
	ClassTransport ErrorClass = "TRANSPORT"
	ClassBackend   ErrorClass = "BACKEND"
	ClassPolicy    ErrorClass = "POLICY"
	ClassDuplicate ErrorClass = "DUPLICATE"
	ClassIdentity  ErrorClass = "IDENTITY"
	ClassCallback  ErrorClass = "CALLBACK"
	ClassInternal  ErrorClass = "INTERNAL"
)

// AppError standardizes application errors.
type AppError struct {
	Class   ErrorClass
	Message string // safe to show to the user
	Status  int    // backend HTTP status, set for ClassBackend only
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewTransportError wraps an unreachable-dependency failure.
func NewTransportError(err error) error {
	return &AppError{
		Class:   ClassTransport,
		Message: "service temporarily unavailable, please try again later",
		Err:     err,
	}
}

// NewBackendError carries the backend's structured failure envelope.
// The backend message is assumed user-appropriate and is shown verbatim.
func NewBackendError(status int, message string) error {
	if message == "" {
		message = "the storage service rejected the request"
	}
	return &AppError{Class: ClassBackend, Message: message, Status: status}
}

// NewPolicyRejection reports a pre-flight rejection made before any network call.
func NewPolicyRejection(message string) error {
	return &AppError{Class: ClassPolicy, Message: message}
}

// NewDuplicateEvent marks a replayed inbound event. Dropped silently, never
// surfaced to the user.
func NewDuplicateEvent(eventID int64) error {
	return &AppError{
		Class:   ClassDuplicate,
		Message: fmt.Sprintf("duplicate event %d", eventID),
	}
}

// NewIdentityError reports a missing or unusable sender identity.
func NewIdentityError() error {
	return &AppError{
		Class:   ClassIdentity,
		Message: "could not identify your account, please try again",
	}
}

// NewCallbackParseError reports an unparseable button token.
func NewCallbackParseError(data string) error {
	return &AppError{
		Class:   ClassCallback,
		Message: "this button is no longer valid",
		Err:     fmt.Errorf("unparseable callback data %q", data),
	}
}

func NewInternalError(err error) error {
	return &AppError{
		Class:   ClassInternal,
		Message: "something went wrong, please try again",
		Err:     err,
	}
}

// Classify converts generic errors to AppError, defaulting to ClassInternal.
func Classify(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Class:   ClassInternal,
		Message: "something went wrong, please try again",
		Err:     err,
	}
}

// IsClass reports whether err classifies into the given class.
func IsClass(err error, class ErrorClass) bool {
	appErr := Classify(err)
	return appErr != nil && appErr.Class == class
}
