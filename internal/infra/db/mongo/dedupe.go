package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"stayhub/internal/app/notify"
)

// DedupeStore records side-effect keys in the notify_dedupe collection. The
// _id uniqueness of the key document makes SetIfAbsent atomic across
// processes.
type DedupeStore struct {
	col *mongo.Collection
}

func NewDedupeStore(db *mongo.Database) *DedupeStore {
	return &DedupeStore{col: db.Collection("notify_dedupe")}
}

func (s *DedupeStore) SetIfAbsent(ctx context.Context, key string) (bool, error) {
	doc := bson.M{"_id": key, "created_at": time.Now().UTC().UnixMilli()}
	_, err := s.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *DedupeStore) Release(ctx context.Context, key string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

var _ notify.DedupeStore = (*DedupeStore)(nil)
