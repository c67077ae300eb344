package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mora-creators/onboarding/internal/core/domain"
	"github.com/mora-creators/onboarding/internal/core/ports"
)

const collectionDocuments = "documents"

// DocumentRepository implements ports.DocumentRepository using MongoDB.
type DocumentRepository struct {
	db *mongo.Database
}

func NewDocumentRepository(db *mongo.Database) ports.DocumentRepository {
	return &DocumentRepository{db: db}
}

// Record appends a manifest entry for an uploaded file.
func (r *DocumentRepository) Record(ctx context.Context, doc *domain.UploadedDocument) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	entry := bson.M{
		"uid":         doc.OwnerID,
		"kind":        string(doc.Kind),
		"bucket":      doc.Bucket,
		"path":        doc.Path,
		"uploaded_at": doc.UploadedAt.UTC(),
		"recorded_at": time.Now().UTC(),
	}
	_, err := r.db.Collection(collectionDocuments).InsertOne(ctx, entry)
	return err
}

func (r *DocumentRepository) ListByOwner(ctx context.Context, uid string) ([]*domain.UploadedDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "uploaded_at", Value: -1}})
	cur, err := r.db.Collection(collectionDocuments).Find(ctx, bson.M{"uid": uid}, opts)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.UploadedDocument
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	return out, nil
}

// EnsureDocumentIndexes indexes the manifest by owner and upload time.
func EnsureDocumentIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := db.Collection(collectionDocuments).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "uid", Value: 1}, {Key: "uploaded_at", Value: -1}},
	})
	return err
}
