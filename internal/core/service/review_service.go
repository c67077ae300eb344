package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mora-creators/onboarding/internal/core/domain"
	"github.com/mora-creators/onboarding/internal/core/ports"
)

// DefaultSignedURLTTL bounds how long a reviewer link to a document stays valid.
const DefaultSignedURLTTL = 3600 * time.Second

// ReviewService is the admin side of onboarding.
type ReviewService struct {
	profiles  ports.ProfileRepository
	documents ports.DocumentRepository
	blobs     ports.BlobStore
	bucket    string
	ttl       time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

func NewReviewService(profiles ports.ProfileRepository, documents ports.DocumentRepository, blobs ports.BlobStore, documentsBucket string, ttl time.Duration, log zerolog.Logger) *ReviewService {
	if ttl <= 0 {
		ttl = DefaultSignedURLTTL
	}
	return &ReviewService{
		profiles:  profiles,
		documents: documents,
		blobs:     blobs,
		bucket:    documentsBucket,
		ttl:       ttl,
		now:       time.Now,
		log:       log,
	}
}

func (s *ReviewService) ListPending(ctx context.Context) ([]*domain.UserProfile, error) {
	profiles, err := s.profiles.ListByStatus(ctx, domain.StatusInReview)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	return profiles, nil
}

// Detail returns the profile with signed links to both sides of the ID
// document. A side that was never uploaded yields an empty URL. Profiles
// outside review are reported as not found.
func (s *ReviewService) Detail(ctx context.Context, uid string) (*ports.ReviewDetail, error) {
	profile, err := s.profiles.FindByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if profile.Status != domain.StatusInReview {
		return nil, fmt.Errorf("review %s: %w", uid, domain.ErrProfileNotFound)
	}

	paths, err := s.identityDocuments(ctx, uid)
	if err != nil {
		return nil, err
	}

	detail := &ports.ReviewDetail{Profile: profile}
	if p, ok := paths[domain.DocumentIDFront]; ok {
		if detail.IDFrontURL, err = s.blobs.SignedURL(ctx, s.bucket, p, s.ttl); err != nil {
			return nil, fmt.Errorf("sign %s: %w", p, err)
		}
	}
	if p, ok := paths[domain.DocumentIDBack]; ok {
		if detail.IDBackURL, err = s.blobs.SignedURL(ctx, s.bucket, p, s.ttl); err != nil {
			return nil, fmt.Errorf("sign %s: %w", p, err)
		}
	}
	return detail, nil
}

// identityDocuments resolves the newest front and back documents. The
// manifest is authoritative; the folder listing covers uploads whose
// manifest entry was never written.
func (s *ReviewService) identityDocuments(ctx context.Context, uid string) (map[domain.DocumentKind]string, error) {
	out := make(map[domain.DocumentKind]string, 2)

	docs, err := s.documents.ListByOwner(ctx, uid)
	if err != nil {
		s.log.Warn().Err(err).Str("uid", uid).Msg("manifest lookup failed, listing folder")
	}
	for _, d := range docs {
		if !d.Kind.IsIdentity() || d.Bucket != s.bucket {
			continue
		}
		if _, seen := out[d.Kind]; !seen {
			out[d.Kind] = d.Path
		}
	}
	if len(out) == 2 {
		return out, nil
	}

	objects, err := s.blobs.List(ctx, s.bucket, uid)
	if err != nil {
		return nil, fmt.Errorf("list documents of %s: %w", uid, err)
	}
	// Paths embed a millisecond timestamp, so the last match is the newest.
	listed := make(map[domain.DocumentKind]string, 2)
	for _, obj := range objects {
		switch {
		case strings.Contains(obj.Name, "front"):
			listed[domain.DocumentIDFront] = obj.Path
		case strings.Contains(obj.Name, "back"):
			listed[domain.DocumentIDBack] = obj.Path
		}
	}
	for kind, path := range listed {
		if _, ok := out[kind]; !ok {
			out[kind] = path
		}
	}
	return out, nil
}

// Approve activates a profile that is in review.
func (s *ReviewService) Approve(ctx context.Context, uid string) (*domain.UserProfile, error) {
	profile, err := s.profiles.FindByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if !profile.Status.CanTransitionTo(domain.StatusActive) {
		return nil, fmt.Errorf("approve %s: %w (from %s to %s)", uid, domain.ErrInvalidTransition, profile.Status, domain.StatusActive)
	}

	now := s.now().UTC()
	if err := s.profiles.Activate(ctx, uid, now); err != nil {
		return nil, fmt.Errorf("approve %s: %w", uid, err)
	}

	profile.Status = domain.StatusActive
	profile.ApprovedAt = &now
	s.log.Info().Str("uid", uid).Msg("profile approved")
	return profile, nil
}

// Reject has no defined target status or notification yet.
func (s *ReviewService) Reject(_ context.Context, uid string) error {
	s.log.Warn().Str("uid", uid).Msg("reject requested but not implemented")
	return domain.ErrRejectNotImplemented
}
