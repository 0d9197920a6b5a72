package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainmessages "stayhub/internal/domain/messages"
	domainuser "stayhub/internal/domain/user"
)

type MessageRepository struct {
	col *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{col: db.Collection("messages")}
}

func (r *MessageRepository) Save(ctx context.Context, msg *domainmessages.Message) error {
	_, err := r.col.InsertOne(ctx, newMessageDocument(msg))
	return err
}

func (r *MessageRepository) ListByParticipant(ctx context.Context, userID domainuser.ID) ([]*domainmessages.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"sender_id": string(userID)},
		bson.M{"recipient_id": string(userID)},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "sent_at", Value: -1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	items := make([]*domainmessages.Message, 0)
	for cursor.Next(ctx) {
		var doc messageDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		items = append(items, doc.toAggregate())
	}
	return items, cursor.Err()
}

type messageDocument struct {
	ID          string `bson:"_id"`
	SenderID    string `bson:"sender_id"`
	RecipientID string `bson:"recipient_id"`
	Body        string `bson:"body"`
	SentAt      int64  `bson:"sent_at"`
}

func newMessageDocument(m *domainmessages.Message) messageDocument {
	return messageDocument{
		ID:          string(m.ID),
		SenderID:    string(m.SenderID),
		RecipientID: string(m.RecipientID),
		Body:        m.Body,
		SentAt:      m.SentAt.UnixMilli(),
	}
}

func (d messageDocument) toAggregate() *domainmessages.Message {
	return &domainmessages.Message{
		ID:          domainmessages.MessageID(d.ID),
		SenderID:    domainuser.ID(d.SenderID),
		RecipientID: domainuser.ID(d.RecipientID),
		Body:        d.Body,
		SentAt:      timestampToTime(d.SentAt),
	}
}

var _ domainmessages.Repository = (*MessageRepository)(nil)
