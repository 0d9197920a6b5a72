package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stayhub/internal/infra/outbox"
)

// claimLease is how long a claimed record stays invisible before another
// worker may pick it up again after a crash.
const claimLease = time.Minute

// OutboxStore persists queued notification records in the notify_outbox
// collection.
type OutboxStore struct {
	col *mongo.Collection
}

func NewOutboxStore(db *mongo.Database) *OutboxStore {
	return &OutboxStore{col: db.Collection("notify_outbox")}
}

func (s *OutboxStore) Add(ctx context.Context, rec outbox.Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.col.InsertOne(ctx, newOutboxDocument(rec))
	return err
}

// Claim atomically marks the oldest eligible record as in flight. Records
// whose lease expired are eligible again, which is where the at-least-once
// guarantee comes from.
func (s *OutboxStore) Claim(ctx context.Context, workerID string) (*outbox.Record, error) {
	now := time.Now().UTC()
	filter := bson.M{
		"not_before": bson.M{"$lte": now.UnixMilli()},
		"claimed_at": bson.M{"$lte": now.Add(-claimLease).UnixMilli()},
	}
	update := bson.M{"$set": bson.M{
		"claimed_by": workerID,
		"claimed_at": now.UnixMilli(),
	}}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetReturnDocument(options.After)

	var doc outboxDocument
	err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec := doc.toRecord()
	return &rec, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id string, retryAt time.Time, reason string) error {
	update := bson.M{
		"$inc": bson.M{"attempts": 1},
		"$set": bson.M{
			"not_before": retryAt.UnixMilli(),
			"last_error": reason,
			"claimed_at": int64(0),
			"claimed_by": "",
		},
	}
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

type outboxDocument struct {
	ID        string `bson:"_id"`
	Kind      string `bson:"kind"`
	Key       string `bson:"key"`
	Payload   []byte `bson:"payload"`
	CreatedAt int64  `bson:"created_at"`
	Attempts  int    `bson:"attempts"`
	NotBefore int64  `bson:"not_before"`
	LastError string `bson:"last_error"`
	ClaimedBy string `bson:"claimed_by"`
	ClaimedAt int64  `bson:"claimed_at"`
}

func newOutboxDocument(rec outbox.Record) outboxDocument {
	notBefore := int64(0)
	if !rec.NotBefore.IsZero() {
		notBefore = rec.NotBefore.UnixMilli()
	}
	return outboxDocument{
		ID:        rec.ID,
		Kind:      rec.Kind,
		Key:       rec.Key,
		Payload:   rec.Payload,
		CreatedAt: rec.CreatedAt.UnixMilli(),
		Attempts:  rec.Attempts,
		NotBefore: notBefore,
		LastError: rec.LastError,
	}
}

func (d outboxDocument) toRecord() outbox.Record {
	rec := outbox.Record{
		ID:        d.ID,
		Kind:      d.Kind,
		Key:       d.Key,
		Payload:   d.Payload,
		CreatedAt: timestampToTime(d.CreatedAt),
		Attempts:  d.Attempts,
		LastError: d.LastError,
	}
	if d.NotBefore > 0 {
		rec.NotBefore = timestampToTime(d.NotBefore)
	}
	return rec
}

var _ outbox.Store = (*OutboxStore)(nil)
