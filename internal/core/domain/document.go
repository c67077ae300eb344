package domain

import (
	"fmt"
	"time"
)

// DocumentKind identifies what an uploaded file represents.
type DocumentKind string

const (
	DocumentIDFront DocumentKind = "id_front"
	DocumentIDBack  DocumentKind = "id_back"
	DocumentAvatar  DocumentKind = "avatar"
)

// ParseDocumentKind validates a kind received from a client.
func ParseDocumentKind(s string) (DocumentKind, error) {
	switch k := DocumentKind(s); k {
	case DocumentIDFront, DocumentIDBack, DocumentAvatar:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown kind %q", ErrUnexpectedFile, s)
}

// CollectedAt returns the step whose form carries this kind of file.
func (k DocumentKind) CollectedAt() Step {
	if k == DocumentAvatar {
		return StepProfileCompletion
	}
	return StepIdentityVerification
}

// IsIdentity reports whether k is one of the identity document sides.
func (k DocumentKind) IsIdentity() bool {
	return k == DocumentIDFront || k == DocumentIDBack
}

// UploadedDocument is a manifest entry for a stored file.
type UploadedDocument struct {
	OwnerID    string       `json:"uid" bson:"uid"`
	Kind       DocumentKind `json:"kind" bson:"kind"`
	Bucket     string       `json:"bucket" bson:"bucket"`
	Path       string       `json:"path" bson:"path"`
	UploadedAt time.Time    `json:"uploaded_at" bson:"uploaded_at"`
}

// DocumentPath builds the owner-scoped object path {uid}/{kind}_{unixMillis}.
func DocumentPath(uid string, kind DocumentKind, ts time.Time) string {
	return fmt.Sprintf("%s/%s_%d", uid, kind, ts.UnixMilli())
}

// StagedFile is a file attached to the flow but not yet uploaded.
type StagedFile struct {
	Kind        DocumentKind
	Filename    string
	ContentType string
	Data        []byte
}
