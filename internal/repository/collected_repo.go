package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gazette-backend/internal/models"
)

// ErrDuplicate signals a second collection of the same (user, video).
var ErrDuplicate = errors.New("content already collected for this user")

// ErrNotModified signals that a conditional update matched nothing: another
// worker already advanced the document past the expected state.
var ErrNotModified = errors.New("document not in expected state")

// ContentFilter selects collected content for one stage worker.
type ContentFilter struct {
	UserID        string
	Status        models.ContentStatus
	SubStatus     models.ContentSubStatus
	ContentType   models.ContentType
	CreatedBefore float64
}

type CollectedContentRepo struct {
	coll *mongo.Collection
}

func NewCollectedContentRepo(db *mongo.Database, collection string) *CollectedContentRepo {
	return &CollectedContentRepo{coll: db.Collection(collection)}
}

// EnsureIndexes creates the unique (user_id, external_id) index that backs
// collector idempotency.
func (r *CollectedContentRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "external_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create collected content index: %w", err)
	}
	return nil
}

func (r *CollectedContentRepo) Create(ctx context.Context, c models.CollectedContent) error {
	if _, err := r.coll.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert collected content: %w", err)
	}
	return nil
}

func (r *CollectedContentRepo) Find(ctx context.Context, f ContentFilter) ([]models.CollectedContent, error) {
	filter := bson.M{}
	if f.UserID != "" {
		filter["user_id"] = f.UserID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.SubStatus != "" {
		filter["sub_status"] = f.SubStatus
	}
	if f.ContentType != "" {
		filter["content_type"] = f.ContentType
	}
	if f.CreatedBefore > 0 {
		filter["created_at"] = bson.M{"$lte": f.CreatedBefore}
	}

	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query collected content: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.CollectedContent
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode collected content: %w", err)
	}
	return out, nil
}

func (r *CollectedContentRepo) GetByID(ctx context.Context, id string) (*models.CollectedContent, error) {
	var c models.CollectedContent
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load collected content: %w", err)
	}
	return &c, nil
}

func (r *CollectedContentRepo) GetByExternalID(ctx context.Context, userID, externalID string) (*models.CollectedContent, error) {
	var c models.CollectedContent
	err := r.coll.FindOne(ctx, bson.M{"user_id": userID, "external_id": externalID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load collected content: %w", err)
	}
	return &c, nil
}

// Replace persists an already-transitioned document, guarded on the status
// the caller read it at. A concurrent advance makes this ErrNotModified.
func (r *CollectedContentRepo) Replace(ctx context.Context, c models.CollectedContent, expected models.ContentStatus) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": c.ID, "status": expected}, c)
	if err != nil {
		return fmt.Errorf("failed to update collected content: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotModified
	}
	return nil
}
