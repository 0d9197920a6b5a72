package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stayhub/internal/app/uow"
	domainbooking "stayhub/internal/domain/booking"
	domainlistings "stayhub/internal/domain/listings"
	"stayhub/internal/domain/shared/daterange"
	"stayhub/internal/domain/shared/money"
	domainuser "stayhub/internal/domain/user"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type BookingRepository struct {
	col      *mongo.Collection
	listings *mongo.Collection
	locks    *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{
		col:      db.Collection("bookings"),
		listings: db.Collection("listings"),
		locks:    db.Collection("booking_locks"),
	}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

// LockListing upserts the listing's lock document inside the session. A
// snapshot read plus an insert of a fresh _id would let two transactions
// create overlapping bookings without ever touching a shared document; the
// lock write forces both onto one document so the second transaction aborts
// with a write conflict and the unit is retried by the caller.
func (r *BookingRepository) LockListing(ctx context.Context, listingID domainlistings.ListingID) error {
	update := bson.M{"$set": bson.M{"locked_at": time.Now().UnixMilli()}}
	opts := options.Update().SetUpsert(true)
	_, err := r.locks.UpdateOne(ctx, bson.M{"_id": string(listingID)}, update, opts)
	if err != nil {
		if txConflict(err) || mongo.IsDuplicateKeyError(err) {
			return uow.ErrTxConflict
		}
		return err
	}
	return nil
}

// HasOverlapping runs the half-open interval intersection against blocking
// statuses. Inside a session transaction this read participates in the same
// snapshot as the subsequent insert; LockListing must already have been
// called to fence off concurrent units.
func (r *BookingRepository) HasOverlapping(ctx context.Context, listingID domainlistings.ListingID, dr daterange.DateRange) (bool, error) {
	filter := bson.M{
		"listing_id": string(listingID),
		"status": bson.M{"$nin": bson.A{
			string(domainbooking.StatusCancelled),
			string(domainbooking.StatusRejected),
		}},
		"start_date": bson.M{"$lt": dr.End.UnixMilli()},
		"end_date":   bson.M{"$gt": dr.Start.UnixMilli()},
	}
	err := r.col.FindOne(ctx, filter).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID domainuser.ID) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"guest_id": string(guestID)})
}

func (r *BookingRepository) ListByListing(ctx context.Context, listingID domainlistings.ListingID) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"listing_id": string(listingID)})
}

// ListByHost resolves the host's listing ids first, then fetches bookings
// against them.
func (r *BookingRepository) ListByHost(ctx context.Context, hostID domainuser.ID) ([]*domainbooking.Booking, error) {
	cursor, err := r.listings.Find(ctx, bson.M{"host_id": string(hostID)},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	ids := make(bson.A, 0)
	for cursor.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*domainbooking.Booking{}, nil
	}
	return r.find(ctx, bson.M{"listing_id": bson.M{"$in": ids}})
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	items := make([]*domainbooking.Booking, 0)
	for cursor.Next(ctx) {
		var doc bookingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		items = append(items, doc.toAggregate())
	}
	return items, cursor.Err()
}

type bookingDocument struct {
	ID          string `bson:"_id"`
	ListingID   string `bson:"listing_id"`
	GuestID     string `bson:"guest_id"`
	StartDate   int64  `bson:"start_date"`
	EndDate     int64  `bson:"end_date"`
	TotalAmount int64  `bson:"total_amount"`
	Currency    string `bson:"currency"`
	Status      string `bson:"status"`
	CreatedAt   int64  `bson:"created_at"`
	UpdatedAt   int64  `bson:"updated_at"`
	Version     int64  `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:          string(b.ID),
		ListingID:   string(b.ListingID),
		GuestID:     string(b.GuestID),
		StartDate:   b.Range.Start.UnixMilli(),
		EndDate:     b.Range.End.UnixMilli(),
		TotalAmount: b.Total.Amount,
		Currency:    b.Total.Currency,
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt.UnixMilli(),
		UpdatedAt:   b.UpdatedAt.UnixMilli(),
		Version:     b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:        domainbooking.BookingID(d.ID),
		ListingID: domainlistings.ListingID(d.ListingID),
		GuestID:   domainuser.ID(d.GuestID),
		Range: daterange.DateRange{
			Start: timestampToTime(d.StartDate),
			End:   timestampToTime(d.EndDate),
		},
		Total:     money.Money{Amount: d.TotalAmount, Currency: d.Currency},
		Status:    domainbooking.Status(d.Status),
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
