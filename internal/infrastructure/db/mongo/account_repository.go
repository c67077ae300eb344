package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mora-creators/onboarding/internal/core/domain"
)

const collectionAccounts = "accounts"

// AccountRepository stores identity-provider accounts. Emails are stored
// lowercased and are unique.
type AccountRepository struct {
	coll *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{coll: db.Collection(collectionAccounts)}
}

type mongoAccount struct {
	ID            string `bson:"_id"`
	Email         string `bson:"email"`
	PasswordHash  string `bson:"password_hash"`
	Role          string `bson:"role"`
	EmailVerified bool   `bson:"email_verified"`
	CreatedAt     int64  `bson:"created_at"`
	LastSignInAt  int64  `bson:"last_sign_in_at,omitempty"`
}

func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoAccount{
		ID:            a.ID,
		Email:         strings.ToLower(a.Email),
		PasswordHash:  a.PasswordHash,
		Role:          a.Role,
		EmailVerified: a.EmailVerified,
		CreatedAt:     a.CreatedAt.Unix(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrEmailInUse
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(email)})
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ma mongoAccount
	if err := r.coll.FindOne(ctx, filter).Decode(&ma); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return &domain.Account{
		ID:            ma.ID,
		Email:         ma.Email,
		PasswordHash:  ma.PasswordHash,
		Role:          ma.Role,
		EmailVerified: ma.EmailVerified,
		CreatedAt:     unixToTime(ma.CreatedAt),
		LastSignInAt:  unixToTime(ma.LastSignInAt),
	}, nil
}

func (r *AccountRepository) MarkEmailVerified(ctx context.Context, id string) error {
	return r.set(ctx, id, bson.M{"email_verified": true})
}

func (r *AccountRepository) TouchSignIn(ctx context.Context, id string, at time.Time) error {
	return r.set(ctx, id, bson.M{"last_sign_in_at": at.Unix()})
}

func (r *AccountRepository) set(ctx context.Context, id string, fields bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// EnsureIndexes creates the unique email index.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
