package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "stayhub/internal/domain/booking"
	domainpayments "stayhub/internal/domain/payments"
	"stayhub/internal/domain/shared/money"
	domainuser "stayhub/internal/domain/user"
)

type PaymentRepository struct {
	col *mongo.Collection
}

func NewPaymentRepository(db *mongo.Database) *PaymentRepository {
	return &PaymentRepository{col: db.Collection("payments")}
}

func (r *PaymentRepository) ByID(ctx context.Context, id domainpayments.PaymentID) (*domainpayments.Payment, error) {
	return r.findOne(ctx, bson.M{"_id": string(id)})
}

func (r *PaymentRepository) ByTxRef(ctx context.Context, txRef string) (*domainpayments.Payment, error) {
	return r.findOne(ctx, bson.M{"tx_ref": txRef})
}

func (r *PaymentRepository) findOne(ctx context.Context, filter bson.M) (*domainpayments.Payment, error) {
	var doc paymentDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainpayments.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save upserts with a compare-and-set filter on version. On first insert a
// duplicate key error comes from the unique tx_ref index; on an update it
// means the version filter missed and another writer got there first.
func (r *PaymentRepository) Save(ctx context.Context, p *domainpayments.Payment) error {
	doc := newPaymentDocument(p)
	filter := bson.M{"_id": doc.ID, "version": p.Version}
	doc.Version = p.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if p.Version == 0 {
				return domainpayments.ErrDuplicateTxRef
			}
			return domainpayments.ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domainpayments.ErrConcurrentUpdate
	}
	p.Version = doc.Version
	return nil
}

func (r *PaymentRepository) ListByUser(ctx context.Context, userID domainuser.ID) ([]*domainpayments.Payment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.col.Find(ctx, bson.M{"user_id": string(userID)}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	items := make([]*domainpayments.Payment, 0)
	for cursor.Next(ctx) {
		var doc paymentDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		items = append(items, doc.toAggregate())
	}
	return items, cursor.Err()
}

type paymentDocument struct {
	ID           string `bson:"_id"`
	BookingID    string `bson:"booking_id"`
	UserID       string `bson:"user_id"`
	Amount       int64  `bson:"amount"`
	Currency     string `bson:"currency"`
	Status       string `bson:"status"`
	TxRef        string `bson:"tx_ref"`
	ProviderTxID string `bson:"provider_tx_id"`
	Method       string `bson:"method"`
	CreatedAt    int64  `bson:"created_at"`
	UpdatedAt    int64  `bson:"updated_at"`
	Version      int64  `bson:"version"`
}

func newPaymentDocument(p *domainpayments.Payment) paymentDocument {
	return paymentDocument{
		ID:           string(p.ID),
		BookingID:    string(p.BookingID),
		UserID:       string(p.UserID),
		Amount:       p.Amount.Amount,
		Currency:     p.Amount.Currency,
		Status:       string(p.Status),
		TxRef:        p.TxRef,
		ProviderTxID: p.ProviderTxID,
		Method:       p.Method,
		CreatedAt:    p.CreatedAt.UnixMilli(),
		UpdatedAt:    p.UpdatedAt.UnixMilli(),
		Version:      p.Version,
	}
}

func (d paymentDocument) toAggregate() *domainpayments.Payment {
	return &domainpayments.Payment{
		ID:           domainpayments.PaymentID(d.ID),
		BookingID:    domainbooking.BookingID(d.BookingID),
		UserID:       domainuser.ID(d.UserID),
		Amount:       money.Money{Amount: d.Amount, Currency: d.Currency},
		Status:       domainpayments.Status(d.Status),
		TxRef:        d.TxRef,
		ProviderTxID: d.ProviderTxID,
		Method:       d.Method,
		CreatedAt:    timestampToTime(d.CreatedAt),
		UpdatedAt:    timestampToTime(d.UpdatedAt),
		Version:      d.Version,
	}
}

var _ domainpayments.Repository = (*PaymentRepository)(nil)
