package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mora-creators/onboarding/internal/core/domain"
)

const collectionUsers = "users"

// ProfileRepository is the Profile Store. Documents are keyed by account id
// and use the camelCase field names of domain.UserProfile.
type ProfileRepository struct {
	col *mongo.Collection
}

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{col: db.Collection(collectionUsers)}
}

// Create inserts the profile written at signup.
func (r *ProfileRepository) Create(ctx context.Context, p *domain.UserProfile) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("profile %s already exists: %w", p.UID, err)
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (r *ProfileRepository) FindByID(ctx context.Context, uid string) (*domain.UserProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p domain.UserProfile
	if err := r.col.FindOne(ctx, bson.M{"_id": uid}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return &p, nil
}

// SubmitOnboarding is a partial update; it never upserts, so a retried
// submit cannot create a second document.
func (r *ProfileRepository) SubmitOnboarding(ctx context.Context, uid string, sub domain.OnboardingSubmission) error {
	f := sub.Form
	return r.update(ctx, uid, bson.M{
		"firstName":             f.FirstName,
		"middleName":            f.MiddleName,
		"lastName":              f.LastName,
		"dateOfBirth":           f.DateOfBirth,
		"country":               f.Country,
		"nationalId":            f.NationalID,
		"phoneNumber":           f.PhoneNumber,
		"dialCode":              f.DialCode,
		"bio":                   f.Bio,
		"photoURL":              sub.PhotoURL,
		"status":                domain.StatusInReview,
		"onboardingCompletedAt": sub.CompletedAt.UTC(),
	})
}

func (r *ProfileRepository) Activate(ctx context.Context, uid string, approvedAt time.Time) error {
	return r.update(ctx, uid, bson.M{
		"status":     domain.StatusActive,
		"approvedAt": approvedAt.UTC(),
	})
}

func (r *ProfileRepository) update(ctx context.Context, uid string, fields bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

// ListByStatus returns profiles with the given status, oldest submission first.
func (r *ProfileRepository) ListByStatus(ctx context.Context, status domain.ProfileStatus) ([]*domain.UserProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "onboardingCompletedAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"status": status}, opts)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]*domain.UserProfile, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	return out, nil
}

// EnsureIndexes creates necessary indexes on the users collection.
func (r *ProfileRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "onboardingCompletedAt", Value: 1}}},
		{Keys: bson.D{{Key: "email", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
