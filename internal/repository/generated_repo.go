package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"gazette-backend/internal/models"
)

type GeneratedContentRepo struct {
	coll *mongo.Collection
}

func NewGeneratedContentRepo(db *mongo.Database, collection string) *GeneratedContentRepo {
	return &GeneratedContentRepo{coll: db.Collection(collection)}
}

func (r *GeneratedContentRepo) Create(ctx context.Context, g models.GeneratedContent) error {
	if _, err := r.coll.InsertOne(ctx, g); err != nil {
		return fmt.Errorf("failed to insert generated content: %w", err)
	}
	return nil
}

func (r *GeneratedContentRepo) ListByStatus(ctx context.Context, status models.GeneratedStatus) ([]models.GeneratedContent, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"status": status})
	if err != nil {
		return nil, fmt.Errorf("failed to query generated content: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.GeneratedContent
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode generated content: %w", err)
	}
	return out, nil
}

func (r *GeneratedContentRepo) FindByExternalID(ctx context.Context, externalID string) (*models.GeneratedContent, error) {
	var g models.GeneratedContent
	err := r.coll.FindOne(ctx, bson.M{"external_id": externalID}).Decode(&g)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load generated content: %w", err)
	}
	return &g, nil
}

func (r *GeneratedContentRepo) FindByExternalIDs(ctx context.Context, externalIDs []string) ([]models.GeneratedContent, error) {
	if len(externalIDs) == 0 {
		return nil, nil
	}
	cursor, err := r.coll.Find(ctx, bson.M{"external_id": bson.M{"$in": externalIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to query generated content: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.GeneratedContent
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode generated content: %w", err)
	}
	return out, nil
}

// Replace persists an already-transitioned document, guarded on the status
// the caller read it at.
func (r *GeneratedContentRepo) Replace(ctx context.Context, g models.GeneratedContent, expected models.GeneratedStatus) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": g.ID, "status": expected}, g)
	if err != nil {
		return fmt.Errorf("failed to update generated content: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotModified
	}
	return nil
}
