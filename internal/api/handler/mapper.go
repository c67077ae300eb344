package handler

import (
	"github.com/mora-creators/onboarding/internal/core/domain"
	"github.com/mora-creators/onboarding/internal/core/ports"
)

func toSessionResponse(s *domain.Session, next string) sessionResponse {
	return sessionResponse{
		Token:         s.Token,
		UID:           s.AccountID,
		Email:         s.Email,
		Role:          s.Role,
		EmailVerified: s.EmailVerified,
		ExpiresAt:     s.ExpiresAt,
		Next:          next,
	}
}

func toFlowResponse(v *ports.FlowView) flowResponse {
	staged := v.Staged
	if staged == nil {
		staged = []domain.DocumentKind{}
	}
	return flowResponse{
		Authenticated:          v.Authenticated,
		DisplayName:            v.DisplayName,
		Step:                   int(v.Step),
		StepName:               v.Step.String(),
		Form:                   v.Form,
		Staged:                 staged,
		ReviewSecondsRemaining: v.ReviewSecondsRemaining,
		Next:                   v.Next,
	}
}

func toReviewDetailResponse(d *ports.ReviewDetail) reviewDetailResponse {
	return reviewDetailResponse{
		Profile:    d.Profile,
		IDFrontURL: d.IDFrontURL,
		IDBackURL:  d.IDBackURL,
	}
}
