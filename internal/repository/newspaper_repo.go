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

type NewspaperRepo struct {
	coll *mongo.Collection
}

func NewNewspaperRepo(db *mongo.Database, collection string) *NewspaperRepo {
	return &NewspaperRepo{coll: db.Collection(collection)}
}

func (r *NewspaperRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "day", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create newspaper index: %w", err)
	}
	return nil
}

func (r *NewspaperRepo) FindByUserDay(ctx context.Context, userID, day string) (*models.Newspaper, error) {
	var n models.Newspaper
	err := r.coll.FindOne(ctx, bson.M{"user_id": userID, "day": day}).Decode(&n)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load newspaper: %w", err)
	}
	return &n, nil
}

// Upsert writes the newspaper keyed on (user_id, day); creation and update
// share this path.
func (r *NewspaperRepo) Upsert(ctx context.Context, n models.Newspaper) error {
	filter := bson.M{"user_id": n.UserID, "day": n.Day}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.coll.ReplaceOne(ctx, filter, n, opts); err != nil {
		return fmt.Errorf("failed to upsert newspaper: %w", err)
	}
	return nil
}
