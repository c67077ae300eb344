package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mora-creators/onboarding/internal/core/domain"
)

func newReviewFixture(t *testing.T) (*ReviewService, *stubProfileRepo, *stubDocumentRepo, *stubBlobStore) {
	t.Helper()
	profiles := newStubProfileRepo()
	docs := &stubDocumentRepo{}
	blobs := newStubBlobStore()
	svc := NewReviewService(profiles, docs, blobs, "documents", 0, discardLogger)
	svc.now = func() time.Time { return time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC) }

	for uid, status := range map[string]domain.ProfileStatus{
		"uid-a": domain.StatusInReview,
		"uid-b": domain.StatusInReview,
		"uid-c": domain.StatusPending,
		"uid-d": domain.StatusActive,
	} {
		if err := profiles.Create(context.Background(), &domain.UserProfile{UID: uid, Status: status}); err != nil {
			t.Fatalf("seed %s: %v", uid, err)
		}
	}
	return svc, profiles, docs, blobs
}

func putBlob(t *testing.T, blobs *stubBlobStore, path string) {
	t.Helper()
	if _, err := blobs.Upload(context.Background(), "documents", path, strings.NewReader("img"), 3, "image/jpeg"); err != nil {
		t.Fatalf("upload %s: %v", path, err)
	}
}

func TestReviewService_ListPending(t *testing.T) {
	svc, _, _, _ := newReviewFixture(t)

	got, err := svc.ListPending(context.Background())
	if err != nil {
		t.Fatalf("ListPending returned error: %v", err)
	}
	if len(got) != 2 || got[0].UID != "uid-a" || got[1].UID != "uid-b" {
		t.Fatalf("expected uid-a and uid-b, got %+v", got)
	}
}

func TestReviewService_Detail_FromManifest(t *testing.T) {
	svc, _, docs, blobs := newReviewFixture(t)
	ctx := context.Background()

	putBlob(t, blobs, "uid-a/id_front_1000")
	putBlob(t, blobs, "uid-a/id_back_1000")
	_ = docs.Record(ctx, &domain.UploadedDocument{OwnerID: "uid-a", Kind: domain.DocumentIDFront, Bucket: "documents", Path: "uid-a/id_front_1000"})
	_ = docs.Record(ctx, &domain.UploadedDocument{OwnerID: "uid-a", Kind: domain.DocumentIDBack, Bucket: "documents", Path: "uid-a/id_back_1000"})

	d, err := svc.Detail(ctx, "uid-a")
	if err != nil {
		t.Fatalf("Detail returned error: %v", err)
	}
	if d.IDFrontURL != "https://blobs.test/documents/uid-a/id_front_1000?ttl=3600" {
		t.Fatalf("unexpected front URL %q", d.IDFrontURL)
	}
	if d.IDBackURL != "https://blobs.test/documents/uid-a/id_back_1000?ttl=3600" {
		t.Fatalf("unexpected back URL %q", d.IDBackURL)
	}
}

func TestReviewService_Detail_FallsBackToFolderListing(t *testing.T) {
	svc, _, _, blobs := newReviewFixture(t)

	putBlob(t, blobs, "uid-b/id_front_1000")
	putBlob(t, blobs, "uid-b/id_front_2000")
	putBlob(t, blobs, "uid-b/id_back_1500")

	d, err := svc.Detail(context.Background(), "uid-b")
	if err != nil {
		t.Fatalf("Detail returned error: %v", err)
	}
	if !strings.Contains(d.IDFrontURL, "uid-b/id_front_2000") {
		t.Fatalf("expected newest front, got %q", d.IDFrontURL)
	}
	if !strings.Contains(d.IDBackURL, "uid-b/id_back_1500") {
		t.Fatalf("unexpected back URL %q", d.IDBackURL)
	}
}

func TestReviewService_Detail_NoDocuments(t *testing.T) {
	svc, _, _, _ := newReviewFixture(t)

	d, err := svc.Detail(context.Background(), "uid-a")
	if err != nil {
		t.Fatalf("Detail returned error: %v", err)
	}
	if d.IDFrontURL != "" || d.IDBackURL != "" {
		t.Fatalf("expected no URLs, got %+v", d)
	}
}

func TestReviewService_Detail_NotInReview(t *testing.T) {
	svc, _, docs, blobs := newReviewFixture(t)
	ctx := context.Background()

	for _, uid := range []string{"uid-c", "uid-d"} {
		putBlob(t, blobs, uid+"/id_front_1000")
		_ = docs.Record(ctx, &domain.UploadedDocument{OwnerID: uid, Kind: domain.DocumentIDFront, Bucket: "documents", Path: uid + "/id_front_1000"})

		if d, err := svc.Detail(ctx, uid); !errors.Is(err, domain.ErrProfileNotFound) {
			t.Fatalf("%s: expected ErrProfileNotFound, got %+v (%v)", uid, d, err)
		}
	}
	if len(blobs.signed) != 0 {
		t.Fatalf("no document links may be signed, got %v", blobs.signed)
	}
}

func TestReviewService_Approve(t *testing.T) {
	svc, profiles, _, _ := newReviewFixture(t)

	p, err := svc.Approve(context.Background(), "uid-a")
	if err != nil {
		t.Fatalf("Approve returned error: %v", err)
	}
	if p.Status != domain.StatusActive || p.ApprovedAt == nil {
		t.Fatalf("unexpected profile: %+v", p)
	}

	stored, _ := profiles.FindByID(context.Background(), "uid-a")
	if stored.Status != domain.StatusActive {
		t.Fatalf("expected stored status active, got %s", stored.Status)
	}

	pending, _ := svc.ListPending(context.Background())
	if len(pending) != 1 || pending[0].UID != "uid-b" {
		t.Fatalf("approved profile must leave the pending list, got %+v", pending)
	}
}

func TestReviewService_Approve_InvalidTransition(t *testing.T) {
	svc, _, _, _ := newReviewFixture(t)

	for _, uid := range []string{"uid-c", "uid-d"} {
		if _, err := svc.Approve(context.Background(), uid); !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("%s: expected ErrInvalidTransition, got %v", uid, err)
		}
	}
	if _, err := svc.Approve(context.Background(), "missing"); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestReviewService_Reject(t *testing.T) {
	svc, profiles, _, _ := newReviewFixture(t)

	if err := svc.Reject(context.Background(), "uid-a"); !errors.Is(err, domain.ErrRejectNotImplemented) {
		t.Fatalf("expected ErrRejectNotImplemented, got %v", err)
	}
	p, _ := profiles.FindByID(context.Background(), "uid-a")
	if p.Status != domain.StatusInReview {
		t.Fatalf("reject must not change status, got %s", p.Status)
	}
}
