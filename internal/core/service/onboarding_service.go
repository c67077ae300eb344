package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mora-creators/onboarding/internal/core/domain"
	"github.com/mora-creators/onboarding/internal/core/ports"
)

// FallbackDisplayName greets users whose session or profile could not be resolved.
const FallbackDisplayName = "Creator"

// OnboardingConfig holds the tunables of the onboarding flow.
type OnboardingConfig struct {
	Policy          domain.StepPolicy
	DocumentsBucket string
	AvatarsBucket   string
	MaxUploadBytes  int64
	ReviewCountdown time.Duration
}

// OnboardingService drives the per-user onboarding flow.
type OnboardingService struct {
	profiles  ports.ProfileRepository
	documents ports.DocumentRepository
	blobs     ports.BlobStore
	flows     ports.FlowStore
	staging   ports.StagingStore
	guard     ports.SubmitGuard
	cfg       OnboardingConfig
	forms     *formValidator
	now       func() time.Time
	log       zerolog.Logger
}

func NewOnboardingService(
	profiles ports.ProfileRepository,
	documents ports.DocumentRepository,
	blobs ports.BlobStore,
	flows ports.FlowStore,
	staging ports.StagingStore,
	guard ports.SubmitGuard,
	cfg OnboardingConfig,
	log zerolog.Logger,
) *OnboardingService {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 5 << 20
	}
	if cfg.ReviewCountdown <= 0 {
		cfg.ReviewCountdown = domain.DefaultReviewCountdown
	}
	s := &OnboardingService{
		profiles:  profiles,
		documents: documents,
		blobs:     blobs,
		flows:     flows,
		staging:   staging,
		guard:     guard,
		cfg:       cfg,
		now:       time.Now,
		log:       log,
	}
	s.forms = newFormValidator(func() time.Time { return s.now() })
	return s
}

// Mount resolves the flow for the current session. A missing session or
// profile is tolerated and rendered with the fallback display name.
func (s *OnboardingService) Mount(ctx context.Context, session *domain.Session) (*ports.FlowView, error) {
	if session == nil {
		return &ports.FlowView{DisplayName: FallbackDisplayName, Step: domain.StepWelcome}, nil
	}

	profile, err := s.profiles.FindByID(ctx, session.AccountID)
	if err != nil {
		s.log.Warn().Err(err).Str("uid", session.AccountID).Msg("profile lookup failed on mount")
		profile = nil
	}

	flow, err := s.loadFlow(ctx, session.AccountID, profile)
	if err != nil {
		return nil, err
	}
	return s.view(flow, profile), nil
}

// Advance applies one user-triggered transition for steps before the submit.
func (s *OnboardingService) Advance(ctx context.Context, session *domain.Session, in ports.AdvanceInput) (*ports.FlowView, error) {
	if session == nil {
		return nil, domain.ErrNoSession
	}
	flow, err := s.loadFlow(ctx, session.AccountID, nil)
	if err != nil {
		return nil, err
	}

	if err := s.forms.Validate(in.Form, flow.Form.Merge(in.Form)); err != nil {
		return nil, err
	}
	if err := flow.Advance(in.From, in.Form, s.cfg.Policy); err != nil {
		return nil, err
	}
	if err := s.flows.Save(ctx, flow); err != nil {
		return nil, fmt.Errorf("advance: save flow: %w", err)
	}

	s.log.Info().Str("uid", session.AccountID).Str("step", flow.Step.String()).Msg("onboarding advanced")
	return s.view(flow, nil), nil
}

// Stage attaches a file to the flow. It is uploaded by Submit.
func (s *OnboardingService) Stage(ctx context.Context, session *domain.Session, in ports.FileInput) (*ports.FlowView, error) {
	if session == nil {
		return nil, domain.ErrNoSession
	}
	flow, err := s.loadFlow(ctx, session.AccountID, nil)
	if err != nil {
		return nil, err
	}

	file, err := s.readFile(in)
	if err != nil {
		return nil, err
	}
	if err := flow.Stage(file.Kind); err != nil {
		return nil, err
	}
	if err := s.staging.Put(ctx, session.AccountID, file); err != nil {
		return nil, fmt.Errorf("stage %s: %w", file.Kind, err)
	}
	if err := s.flows.Save(ctx, flow); err != nil {
		return nil, fmt.Errorf("stage %s: save flow: %w", file.Kind, err)
	}

	s.log.Debug().Str("uid", session.AccountID).Str("kind", string(file.Kind)).Int("bytes", len(file.Data)).Msg("file staged")
	return s.view(flow, nil), nil
}

// Submit is the ProfileCompletion -> UnderReview transition. Files are
// uploaded first, then the profile is updated and set in_review; the flow
// only advances once that write succeeded. Uploads are not rolled back on
// failure: their paths are timestamped and orphans are harmless.
func (s *OnboardingService) Submit(ctx context.Context, session *domain.Session, in ports.SubmitInput) (*ports.FlowView, error) {
	if session == nil {
		return nil, domain.ErrNoSession
	}
	uid := session.AccountID

	token, acquired, err := s.guard.Acquire(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("submit: acquire guard: %w", err)
	}
	if !acquired {
		return nil, domain.ErrSubmitInProgress
	}
	defer func() {
		if err := s.guard.Release(context.WithoutCancel(ctx), uid, token); err != nil {
			s.log.Warn().Err(err).Str("uid", uid).Msg("failed to release submit guard")
		}
	}()

	flow, err := s.loadFlow(ctx, uid, nil)
	if err != nil {
		return nil, err
	}
	if flow.Step == domain.StepUnderReview {
		return nil, domain.ErrFlowComplete
	}
	if flow.Step != domain.StepProfileCompletion {
		return nil, fmt.Errorf("%w: at %s, got %s", domain.ErrStepMismatch, flow.Step, domain.StepProfileCompletion)
	}

	form := flow.Form.Merge(in.Form)
	if err := s.forms.Validate(in.Form, form); err != nil {
		return nil, err
	}

	profile, err := s.ensureProfile(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	if !profile.Status.CanTransitionTo(domain.StatusInReview) {
		return nil, fmt.Errorf("submit: %w (from %s to %s)", domain.ErrInvalidTransition, profile.Status, domain.StatusInReview)
	}

	avatar, err := s.avatarFile(ctx, uid, in.Avatar)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()

	var photoURL *string
	if avatar != nil {
		doc, err := s.upload(ctx, uid, s.cfg.AvatarsBucket, avatar, now)
		if err != nil {
			return nil, err
		}
		url := s.blobs.PublicURL(doc.Bucket, doc.Path)
		photoURL = &url
	}

	for _, kind := range []domain.DocumentKind{domain.DocumentIDFront, domain.DocumentIDBack} {
		staged, err := s.staging.Get(ctx, uid, kind)
		if err != nil {
			return nil, fmt.Errorf("submit: read staged %s: %w", kind, err)
		}
		if staged == nil {
			continue
		}
		if _, err := s.upload(ctx, uid, s.cfg.DocumentsBucket, staged, now); err != nil {
			return nil, err
		}
	}

	if err := s.profiles.SubmitOnboarding(ctx, uid, domain.OnboardingSubmission{
		Form:        form,
		PhotoURL:    photoURL,
		CompletedAt: now,
	}); err != nil {
		s.log.Error().Err(err).Str("uid", uid).Msg("onboarding submit failed")
		return nil, fmt.Errorf("submit: update profile: %w", err)
	}

	if err := flow.Complete(in.Form, now); err != nil {
		return nil, err
	}
	// The profile write is the commit point; a stale flow is reconciled
	// against the profile status on the next mount.
	if err := s.flows.Save(ctx, flow); err != nil {
		s.log.Error().Err(err).Str("uid", uid).Msg("failed to save submitted flow")
	}
	if err := s.staging.Clear(ctx, uid); err != nil {
		s.log.Warn().Err(err).Str("uid", uid).Msg("failed to clear staged files")
	}

	s.log.Info().Str("uid", uid).Bool("avatar", photoURL != nil).Msg("onboarding submitted for review")

	profile.Status = domain.StatusInReview
	return s.view(flow, profile), nil
}

// Dashboard reports the caller's lifecycle status and where to go next.
func (s *OnboardingService) Dashboard(ctx context.Context, session *domain.Session) (*ports.DashboardView, error) {
	if session == nil {
		return nil, domain.ErrNoSession
	}
	profile, err := s.profiles.FindByID(ctx, session.AccountID)
	if err != nil {
		return nil, err
	}
	return &ports.DashboardView{Profile: profile, Next: nextRoute(profile)}, nil
}

// ensureProfile returns the caller's profile, recreating a pending one when
// signup stopped between account and profile creation.
func (s *OnboardingService) ensureProfile(ctx context.Context, session *domain.Session) (*domain.UserProfile, error) {
	profile, err := s.profiles.FindByID(ctx, session.AccountID)
	if !errors.Is(err, domain.ErrProfileNotFound) {
		return profile, err
	}

	username, _, _ := strings.Cut(session.Email, "@")
	profile = &domain.UserProfile{
		UID:       session.AccountID,
		Username:  username,
		Email:     session.Email,
		Status:    domain.StatusPending,
		Role:      session.Role,
		CreatedAt: s.now().UTC(),
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("recreate profile: %w", err)
	}
	s.log.Warn().Str("uid", session.AccountID).Msg("profile was missing, recreated as pending")
	return profile, nil
}

// loadFlow returns saved progress or a new flow. When the profile is known
// and already past onboarding, the flow is reconciled to UnderReview.
func (s *OnboardingService) loadFlow(ctx context.Context, uid string, profile *domain.UserProfile) (*domain.Flow, error) {
	flow, err := s.flows.Get(ctx, uid)
	if errors.Is(err, domain.ErrFlowNotFound) {
		flow = domain.NewFlow(uid)
	} else if err != nil {
		return nil, fmt.Errorf("load flow: %w", err)
	}

	if profile != nil && profile.Status != domain.StatusPending && flow.Step != domain.StepUnderReview {
		flow.Step = domain.StepUnderReview
		flow.Staged = nil
		if flow.SubmittedAt == nil && profile.OnboardingCompletedAt != nil {
			at := *profile.OnboardingCompletedAt
			flow.SubmittedAt = &at
		}
	}
	return flow, nil
}

func (s *OnboardingService) avatarFile(ctx context.Context, uid string, in *ports.FileInput) (*domain.StagedFile, error) {
	if in != nil {
		in.Kind = domain.DocumentAvatar
		return s.readFile(*in)
	}
	staged, err := s.staging.Get(ctx, uid, domain.DocumentAvatar)
	if err != nil {
		return nil, fmt.Errorf("submit: read staged avatar: %w", err)
	}
	return staged, nil
}

func (s *OnboardingService) upload(ctx context.Context, uid, bucket string, f *domain.StagedFile, now time.Time) (*domain.UploadedDocument, error) {
	path := domain.DocumentPath(uid, f.Kind, now)
	if _, err := s.blobs.Upload(ctx, bucket, path, bytes.NewReader(f.Data), int64(len(f.Data)), f.ContentType); err != nil {
		s.log.Error().Err(err).Str("uid", uid).Str("kind", string(f.Kind)).Msg("upload failed")
		return nil, fmt.Errorf("submit: upload %s: %w", f.Kind, err)
	}

	doc := &domain.UploadedDocument{OwnerID: uid, Kind: f.Kind, Bucket: bucket, Path: path, UploadedAt: now}
	if err := s.documents.Record(ctx, doc); err != nil {
		// Review falls back to listing the owner folder.
		s.log.Warn().Err(err).Str("uid", uid).Str("path", path).Msg("failed to record document manifest")
	}
	return doc, nil
}

func (s *OnboardingService) readFile(in ports.FileInput) (*domain.StagedFile, error) {
	if in.Reader == nil {
		return nil, fmt.Errorf("%w: empty %s", domain.ErrUnexpectedFile, in.Kind)
	}
	limit := s.cfg.MaxUploadBytes
	if in.Size > limit {
		return nil, domain.ErrUploadTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(in.Reader, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", in.Kind, err)
	}
	if int64(len(data)) > limit {
		return nil, domain.ErrUploadTooLarge
	}
	return &domain.StagedFile{
		Kind:        in.Kind,
		Filename:    in.Filename,
		ContentType: in.ContentType,
		Data:        data,
	}, nil
}

func (s *OnboardingService) view(flow *domain.Flow, profile *domain.UserProfile) *ports.FlowView {
	v := &ports.FlowView{
		Authenticated: true,
		DisplayName:   FallbackDisplayName,
		Step:          flow.Step,
		Form:          flow.Form,
		Staged:        flow.Staged,
		Next:          domain.RouteOnboarding,
	}
	if name := profile.DisplayName(); name != "" {
		v.DisplayName = name
	} else if flow.Form.FirstName != "" {
		v.DisplayName = flow.Form.FirstName
	}
	if profile != nil {
		v.Next = nextRoute(profile)
	}
	if flow.Step == domain.StepUnderReview && flow.SubmittedAt != nil {
		v.ReviewSecondsRemaining = domain.ReviewCountdown(*flow.SubmittedAt, s.cfg.ReviewCountdown, s.now())
	}
	return v
}

// nextRoute sends active users to the dashboard. Activation is observed
// here, it is never a transition of the onboarding flow itself.
func nextRoute(p *domain.UserProfile) string {
	if p != nil && p.Status == domain.StatusActive {
		return domain.RouteDashboard
	}
	return domain.RouteOnboarding
}
