package domain

import (
	"fmt"
	"time"
)

// Step is a position in the linear onboarding flow.
type Step int

const (
	StepWelcome Step = iota
	StepPersonalInfo
	StepIdentityVerification
	StepProfileCompletion
	StepUnderReview
)

var stepNames = [...]string{
	StepWelcome:              "welcome",
	StepPersonalInfo:         "personal_info",
	StepIdentityVerification: "identity_verification",
	StepProfileCompletion:    "profile_completion",
	StepUnderReview:          "under_review",
}

func (s Step) String() string {
	if s < StepWelcome || s > StepUnderReview {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// Valid reports whether s is one of the five known steps.
func (s Step) Valid() bool {
	return s >= StepWelcome && s <= StepUnderReview
}

// OnboardingForm accumulates the fields collected across steps.
type OnboardingForm struct {
	FirstName   string `json:"firstName,omitempty"`
	MiddleName  string `json:"middleName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Country     string `json:"country,omitempty"`
	NationalID  string `json:"nationalId,omitempty"`
	DialCode    string `json:"dialCode,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Bio         string `json:"bio,omitempty"`
}

// Merge returns f overlaid with the non-empty fields of patch. A field that
// is already set is replaced only by another non-empty value, never cleared.
func (f OnboardingForm) Merge(patch OnboardingForm) OnboardingForm {
	pick := func(cur, next string) string {
		if next != "" {
			return next
		}
		return cur
	}
	return OnboardingForm{
		FirstName:   pick(f.FirstName, patch.FirstName),
		MiddleName:  pick(f.MiddleName, patch.MiddleName),
		LastName:    pick(f.LastName, patch.LastName),
		DateOfBirth: pick(f.DateOfBirth, patch.DateOfBirth),
		Country:     pick(f.Country, patch.Country),
		NationalID:  pick(f.NationalID, patch.NationalID),
		DialCode:    pick(f.DialCode, patch.DialCode),
		PhoneNumber: pick(f.PhoneNumber, patch.PhoneNumber),
		Bio:         pick(f.Bio, patch.Bio),
	}
}

// StepPolicy holds the configurable gates of the flow.
type StepPolicy struct {
	// RequireIDImages blocks leaving IdentityVerification until both
	// id_front and id_back are staged.
	RequireIDImages bool
}

// Flow is the per-user onboarding progress.
type Flow struct {
	AccountID   string         `json:"uid"`
	Step        Step           `json:"step"`
	Form        OnboardingForm `json:"form"`
	Staged      []DocumentKind `json:"staged,omitempty"`
	SubmittedAt *time.Time     `json:"submitted_at,omitempty"`
}

// NewFlow starts a flow at Welcome.
func NewFlow(accountID string) *Flow {
	return &Flow{AccountID: accountID, Step: StepWelcome}
}

// Advance moves the flow from `from` to the next step, merging patch into
// the accumulated form. The submit transition is not handled here; see
// Complete.
func (f *Flow) Advance(from Step, patch OnboardingForm, policy StepPolicy) error {
	if f.Step == StepUnderReview {
		return ErrFlowComplete
	}
	if from != f.Step {
		return fmt.Errorf("%w: at %s, got %s", ErrStepMismatch, f.Step, from)
	}
	if f.Step == StepProfileCompletion {
		return ErrSubmitRequired
	}
	if f.Step == StepIdentityVerification && policy.RequireIDImages {
		if !f.HasStaged(DocumentIDFront) || !f.HasStaged(DocumentIDBack) {
			return ErrMissingIDImages
		}
	}

	f.Form = f.Form.Merge(patch)
	f.Step++
	return nil
}

// Stage records that a file of the given kind is attached. It only accepts
// kinds collected by the current step.
func (f *Flow) Stage(kind DocumentKind) error {
	if f.Step == StepUnderReview {
		return ErrFlowComplete
	}
	if kind.CollectedAt() != f.Step {
		return fmt.Errorf("%w: %s at %s", ErrUnexpectedFile, kind, f.Step)
	}
	if !f.HasStaged(kind) {
		f.Staged = append(f.Staged, kind)
	}
	return nil
}

// HasStaged reports whether a file of the given kind is attached.
func (f *Flow) HasStaged(kind DocumentKind) bool {
	for _, k := range f.Staged {
		if k == kind {
			return true
		}
	}
	return false
}

// Complete is the ProfileCompletion -> UnderReview transition. Callers run
// it only after the profile write succeeded.
func (f *Flow) Complete(patch OnboardingForm, now time.Time) error {
	if f.Step == StepUnderReview {
		return ErrFlowComplete
	}
	if f.Step != StepProfileCompletion {
		return fmt.Errorf("%w: at %s, got %s", ErrStepMismatch, f.Step, StepProfileCompletion)
	}
	f.Form = f.Form.Merge(patch)
	f.Step = StepUnderReview
	f.Staged = nil
	submitted := now.UTC()
	f.SubmittedAt = &submitted
	return nil
}

// DefaultReviewCountdown is the display budget shown while under review.
const DefaultReviewCountdown = 600 * time.Second

// ReviewCountdown returns the whole seconds left of the review budget. It is
// a display value only; reaching zero triggers nothing.
func ReviewCountdown(submittedAt time.Time, budget time.Duration, now time.Time) int {
	if submittedAt.IsZero() {
		return int(budget / time.Second)
	}
	left := budget - now.Sub(submittedAt)
	if left <= 0 {
		return 0
	}
	return int(left / time.Second)
}
