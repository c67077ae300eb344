package domain

import "errors"

// Identity errors. The first three mirror the provider codes the signup flow
// knows how to explain to a user; everything else is treated as opaque.
var (
	ErrEmailInUse         = errors.New("email-already-in-use")
	ErrInvalidEmail       = errors.New("invalid-email")
	ErrWeakPassword       = errors.New("weak-password")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotFound    = errors.New("account not found")
	ErrNoSession          = errors.New("no active session")

	ErrInvalidVerificationToken = errors.New("invalid or expired verification token")
)

// Profile and onboarding errors.
var (
	ErrProfileNotFound   = errors.New("profile not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrStepMismatch      = errors.New("onboarding step mismatch")
	ErrSubmitRequired    = errors.New("profile completion must be submitted")
	ErrFlowComplete      = errors.New("onboarding already submitted")
	ErrMissingIDImages   = errors.New("both identity document images are required")
	ErrUnexpectedFile    = errors.New("document not accepted at this step")
	ErrUploadTooLarge    = errors.New("upload exceeds size limit")
	ErrSubmitInProgress  = errors.New("submission already in progress")
)

// Review errors.
var (
	ErrForbidden            = errors.New("access forbidden")
	ErrRejectNotImplemented = errors.New("reject is not implemented")
)

// ErrFlowNotFound is returned by flow stores when a user has no saved progress.
var ErrFlowNotFound = errors.New("onboarding flow not found")

// ValidationError carries per-field messages meant to be shown inline.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// Add records a message for field unless msg is empty.
func (e *ValidationError) Add(field, msg string) {
	if msg == "" {
		return
	}
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
}

// OrNil returns e when it holds at least one field error.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}
