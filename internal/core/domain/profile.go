package domain

import "time"

// ProfileStatus represents the lifecycle state of a user profile.
type ProfileStatus string

const (
	StatusPending  ProfileStatus = "pending"
	StatusInReview ProfileStatus = "in_review"
	StatusActive   ProfileStatus = "active"

	// StatusRejected is reserved. No code path writes it yet; see
	// ReviewService.Reject.
	StatusRejected ProfileStatus = "rejected"
)

// validTransitions defines the allowed status changes. Resubmitting while
// in review is allowed so a retried submit stays an update.
var validTransitions = map[ProfileStatus][]ProfileStatus{
	StatusPending:  {StatusInReview},
	StatusInReview: {StatusInReview, StatusActive},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s ProfileStatus) CanTransitionTo(next ProfileStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// UserProfile is the profile store document, keyed by account id.
// Username and Email are written once at signup and only read afterwards.
type UserProfile struct {
	UID                   string        `json:"uid" bson:"_id"`
	Username              string        `json:"username" bson:"username"`
	Email                 string        `json:"email" bson:"email"`
	Status                ProfileStatus `json:"status" bson:"status"`
	Role                  string        `json:"role" bson:"role"`
	FirstName             string        `json:"firstName" bson:"firstName"`
	MiddleName            string        `json:"middleName" bson:"middleName"`
	LastName              string        `json:"lastName" bson:"lastName"`
	DateOfBirth           string        `json:"dateOfBirth" bson:"dateOfBirth"`
	Country               string        `json:"country" bson:"country"`
	NationalID            string        `json:"nationalId" bson:"nationalId"`
	PhoneNumber           string        `json:"phoneNumber" bson:"phoneNumber"`
	DialCode              string        `json:"dialCode" bson:"dialCode"`
	Bio                   string        `json:"bio" bson:"bio"`
	PhotoURL              *string       `json:"photoURL" bson:"photoURL"`
	CreatedAt             time.Time     `json:"createdAt" bson:"createdAt"`
	OnboardingCompletedAt *time.Time    `json:"onboardingCompletedAt,omitempty" bson:"onboardingCompletedAt,omitempty"`
	ApprovedAt            *time.Time    `json:"approvedAt,omitempty" bson:"approvedAt,omitempty"`
}

// DisplayName picks the friendliest name available for greeting the user.
func (p *UserProfile) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.FirstName != "" {
		return p.FirstName
	}
	return p.Username
}

// OnboardingSubmission is the partial update written by the submit
// transition. PhotoURL is nil when no avatar was attached.
type OnboardingSubmission struct {
	Form        OnboardingForm
	PhotoURL    *string
	CompletedAt time.Time
}
