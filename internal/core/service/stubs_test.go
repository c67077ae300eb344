package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mora-creators/onboarding/internal/core/domain"
	"github.com/mora-creators/onboarding/internal/core/ports"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// Identity provider
// ---------------------------------------------------------------------------

type stubIdentity struct {
	mu          sync.Mutex
	accounts    map[string]*domain.Account // by email
	sessions    map[string]*domain.Session // by token
	createCalls int
	createErr   error
	linkErr     error
	sessionErr  error
	subscribers map[string][]*stubSubscription
}

func newStubIdentity() *stubIdentity {
	return &stubIdentity{
		accounts:    make(map[string]*domain.Account),
		sessions:    make(map[string]*domain.Session),
		subscribers: make(map[string][]*stubSubscription),
	}
}

func (s *stubIdentity) CreateAccount(_ context.Context, email, _ string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	if s.createErr != nil {
		return nil, s.createErr
	}
	if _, exists := s.accounts[email]; exists {
		return nil, domain.ErrEmailInUse
	}
	a := &domain.Account{ID: "uid-" + strings.Split(email, "@")[0], Email: email, Role: domain.RoleUser}
	s.accounts[email] = a
	clone := *a
	return &clone, nil
}

func (s *stubIdentity) SignIn(_ context.Context, email, _ string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[email]
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}
	return s.openSession(a.ID, a.Email, a.Role), nil
}

func (s *stubIdentity) openSession(uid, email, role string) *domain.Session {
	sess := &domain.Session{ID: "sid-" + uid, AccountID: uid, Email: email, Role: role, Token: "tok-" + uid}
	s.sessions[sess.Token] = sess
	return sess
}

func (s *stubIdentity) CurrentSession(_ context.Context, token string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessionErr != nil {
		return nil, s.sessionErr
	}
	sess, ok := s.sessions[token]
	if !ok {
		return nil, domain.ErrNoSession
	}
	return sess, nil
}

func (s *stubIdentity) SignOut(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *stubIdentity) IssueVerificationLink(_ context.Context, a *domain.Account) (string, error) {
	if s.linkErr != nil {
		return "", s.linkErr
	}
	return "https://mora.test/verify#access_token=vt-" + a.ID, nil
}

func (s *stubIdentity) ConsumeVerificationLink(_ context.Context, token string) (*domain.Session, error) {
	s.mu.Lock()
	uid, ok := strings.CutPrefix(token, "vt-")
	if !ok {
		s.mu.Unlock()
		return nil, domain.ErrInvalidVerificationToken
	}
	sess := s.openSession(uid, uid+"@example.com", domain.RoleUser)
	sess.EmailVerified = true
	subs := append([]*stubSubscription(nil), s.subscribers[uid]...)
	s.mu.Unlock()

	for _, sub := range subs {
		notified := *sess
		notified.Token = ""
		sub.push(&notified)
	}
	return sess, nil
}

func (s *stubIdentity) SubscribeSessionChanges(_ context.Context, accountID string) (ports.SessionSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub := &stubSubscription{ch: make(chan *domain.Session, 4)}
	s.subscribers[accountID] = append(s.subscribers[accountID], sub)
	return sub, nil
}

type stubSubscription struct {
	mu     sync.Mutex
	ch     chan *domain.Session
	closed bool
}

func (s *stubSubscription) Changes() <-chan *domain.Session { return s.ch }

func (s *stubSubscription) push(sess *domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.ch <- sess
	}
}

func (s *stubSubscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Profile store and manifest
// ---------------------------------------------------------------------------

type stubProfileRepo struct {
	mu          sync.Mutex
	profiles    map[string]*domain.UserProfile
	createCalls int
	submitCalls int
	submitErr   error
	findErr     error
}

func newStubProfileRepo() *stubProfileRepo {
	return &stubProfileRepo{profiles: make(map[string]*domain.UserProfile)}
}

func (r *stubProfileRepo) Create(_ context.Context, p *domain.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if _, exists := r.profiles[p.UID]; exists {
		return fmt.Errorf("duplicate profile %s", p.UID)
	}
	clone := *p
	r.profiles[p.UID] = &clone
	return nil
}

func (r *stubProfileRepo) FindByID(_ context.Context, uid string) (*domain.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	p, ok := r.profiles[uid]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *stubProfileRepo) SubmitOnboarding(_ context.Context, uid string, sub domain.OnboardingSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submitCalls++
	if r.submitErr != nil {
		return r.submitErr
	}
	p, ok := r.profiles[uid]
	if !ok {
		return domain.ErrProfileNotFound
	}
	f := sub.Form
	p.FirstName, p.MiddleName, p.LastName = f.FirstName, f.MiddleName, f.LastName
	p.DateOfBirth, p.Country, p.NationalID = f.DateOfBirth, f.Country, f.NationalID
	p.DialCode, p.PhoneNumber, p.Bio = f.DialCode, f.PhoneNumber, f.Bio
	p.PhotoURL = sub.PhotoURL
	completed := sub.CompletedAt
	p.OnboardingCompletedAt = &completed
	p.Status = domain.StatusInReview
	return nil
}

func (r *stubProfileRepo) Activate(_ context.Context, uid string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[uid]
	if !ok {
		return domain.ErrProfileNotFound
	}
	p.Status = domain.StatusActive
	p.ApprovedAt = &at
	return nil
}

func (r *stubProfileRepo) ListByStatus(_ context.Context, status domain.ProfileStatus) ([]*domain.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.UserProfile
	for _, p := range r.profiles {
		if p.Status == status {
			clone := *p
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out, nil
}

type stubDocumentRepo struct {
	mu   sync.Mutex
	docs []*domain.UploadedDocument
}

func (r *stubDocumentRepo) Record(_ context.Context, doc *domain.UploadedDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *doc
	r.docs = append(r.docs, &clone)
	return nil
}

func (r *stubDocumentRepo) ListByOwner(_ context.Context, uid string) ([]*domain.UploadedDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.UploadedDocument
	for i := len(r.docs) - 1; i >= 0; i-- {
		if r.docs[i].OwnerID == uid {
			clone := *r.docs[i]
			out = append(out, &clone)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Blob store
// ---------------------------------------------------------------------------

type stubBlobStore struct {
	mu        sync.Mutex
	objects   map[string][]byte // bucket/path
	uploadErr error
	signed    []string
}

func newStubBlobStore() *stubBlobStore {
	return &stubBlobStore{objects: make(map[string][]byte)}
}

func (b *stubBlobStore) Upload(_ context.Context, bucket, path string, r io.Reader, _ int64, _ string) (string, error) {
	if b.uploadErr != nil {
		return "", b.uploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[bucket+"/"+path] = data
	return path, nil
}

func (b *stubBlobStore) PublicURL(bucket, path string) string {
	return "https://blobs.test/" + bucket + "/" + path
}

func (b *stubBlobStore) List(_ context.Context, bucket, folder string) ([]ports.BlobObject, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	prefix := bucket + "/" + folder + "/"
	var out []ports.BlobObject
	for key := range b.objects {
		if rest, ok := strings.CutPrefix(key, prefix); ok {
			out = append(out, ports.BlobObject{Path: folder + "/" + rest, Name: rest})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (b *stubBlobStore) SignedURL(_ context.Context, bucket, path string, ttl time.Duration) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.signed = append(b.signed, path)
	return fmt.Sprintf("https://blobs.test/%s/%s?ttl=%d", bucket, path, int(ttl.Seconds())), nil
}

func (b *stubBlobStore) count(bucket string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for key := range b.objects {
		if strings.HasPrefix(key, bucket+"/") {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// Flow store, staging, guard, mail
// ---------------------------------------------------------------------------

type stubFlowStore struct {
	mu      sync.Mutex
	flows   map[string]domain.Flow
	saveErr error
}

func newStubFlowStore() *stubFlowStore {
	return &stubFlowStore{flows: make(map[string]domain.Flow)}
}

func (s *stubFlowStore) Get(_ context.Context, uid string) (*domain.Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flows[uid]
	if !ok {
		return nil, domain.ErrFlowNotFound
	}
	f.Staged = append([]domain.DocumentKind(nil), f.Staged...)
	return &f, nil
}

func (s *stubFlowStore) Save(_ context.Context, flow *domain.Flow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	clone := *flow
	clone.Staged = append([]domain.DocumentKind(nil), flow.Staged...)
	s.flows[flow.AccountID] = clone
	return nil
}

type stubStaging struct {
	mu    sync.Mutex
	files map[string]*domain.StagedFile // uid/kind
}

func newStubStaging() *stubStaging {
	return &stubStaging{files: make(map[string]*domain.StagedFile)}
}

func (s *stubStaging) Put(_ context.Context, uid string, f *domain.StagedFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *f
	clone.Data = bytes.Clone(f.Data)
	s.files[uid+"/"+string(f.Kind)] = &clone
	return nil
}

func (s *stubStaging) Get(_ context.Context, uid string, kind domain.DocumentKind) (*domain.StagedFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[uid+"/"+string(kind)]
	if !ok {
		return nil, nil
	}
	clone := *f
	return &clone, nil
}

func (s *stubStaging) Clear(_ context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.files {
		if strings.HasPrefix(key, uid+"/") {
			delete(s.files, key)
		}
	}
	return nil
}

type stubGuard struct {
	mu   sync.Mutex
	held map[string]string // uid -> token
	seq  int
	err  error
}

func newStubGuard() *stubGuard {
	return &stubGuard{held: make(map[string]string)}
}

func (g *stubGuard) Acquire(_ context.Context, uid string) (string, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", false, g.err
	}
	if _, ok := g.held[uid]; ok {
		return "", false, nil
	}
	g.seq++
	token := fmt.Sprintf("guard-%d", g.seq)
	g.held[uid] = token
	return token, true, nil
}

func (g *stubGuard) Release(_ context.Context, uid, token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held[uid] == token {
		delete(g.held, uid)
	}
	return nil
}

type stubMailQueue struct {
	mu   sync.Mutex
	sent []ports.VerificationEmail
}

func (q *stubMailQueue) Enqueue(msg ports.VerificationEmail) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sent = append(q.sent, msg)
}

var errBackend = errors.New("backend unavailable")
