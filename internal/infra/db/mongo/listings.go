package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "stayhub/internal/domain/listings"
	"stayhub/internal/domain/shared/money"
	domainuser "stayhub/internal/domain/user"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection("listings")}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlistings.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	doc := newListingDocument(listing)
	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

func (r *ListingRepository) Delete(ctx context.Context, id domainlistings.ListingID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainlistings.ErrNotFound
	}
	return nil
}

// Search builds a filter from the normalized params and pushes sorting and
// paging down to the server.
func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) ([]*domainlistings.Listing, error) {
	opts := params.Normalized()

	filter := bson.M{}
	if opts.Location != "" {
		filter["location"] = bson.M{"$regex": primitive.Regex{Pattern: regexEscape(opts.Location), Options: "i"}}
	}
	price := bson.M{}
	if opts.MinPrice > 0 {
		price["$gte"] = opts.MinPrice
	}
	if opts.MaxPrice > 0 {
		price["$lte"] = opts.MaxPrice
	}
	if len(price) > 0 {
		filter["nightly_amount"] = price
	}
	if opts.Query != "" {
		pattern := primitive.Regex{Pattern: regexEscape(opts.Query), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": bson.M{"$regex": pattern}},
			bson.M{"description": bson.M{"$regex": pattern}},
			bson.M{"location": bson.M{"$regex": pattern}},
		}
	}

	direction := 1
	if opts.SortDesc {
		direction = -1
	}
	sortKey := "created_at"
	switch opts.SortBy {
	case domainlistings.SortByPrice:
		sortKey = "nightly_amount"
	case domainlistings.SortByName:
		sortKey = "name"
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: sortKey, Value: direction}, {Key: "_id", Value: 1}}).
		SetSkip(int64(opts.Offset)).
		SetLimit(int64(opts.Limit))

	cursor, err := r.col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	return decodeListings(ctx, cursor)
}

func (r *ListingRepository) ByHost(ctx context.Context, hostID domainuser.ID) ([]*domainlistings.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.col.Find(ctx, bson.M{"host_id": string(hostID)}, opts)
	if err != nil {
		return nil, err
	}
	return decodeListings(ctx, cursor)
}

func decodeListings(ctx context.Context, cursor *mongo.Cursor) ([]*domainlistings.Listing, error) {
	defer cursor.Close(ctx)
	items := make([]*domainlistings.Listing, 0)
	for cursor.Next(ctx) {
		var doc listingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		items = append(items, doc.toAggregate())
	}
	return items, cursor.Err()
}

// regexEscape neutralizes regex metacharacters in user-supplied search text.
func regexEscape(s string) string {
	const meta = `\.+*?()|[]{}^$`
	out := make([]rune, 0, len(s))
	for _, r := range s {
		for _, m := range meta {
			if r == m {
				out = append(out, '\\')
				break
			}
		}
		out = append(out, r)
	}
	return string(out)
}

type listingDocument struct {
	ID            string `bson:"_id"`
	HostID        string `bson:"host_id"`
	Name          string `bson:"name"`
	Description   string `bson:"description"`
	Location      string `bson:"location"`
	NightlyAmount int64  `bson:"nightly_amount"`
	Currency      string `bson:"currency"`
	CreatedAt     int64  `bson:"created_at"`
	UpdatedAt     int64  `bson:"updated_at"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	return listingDocument{
		ID:            string(l.ID),
		HostID:        string(l.HostID),
		Name:          l.Name,
		Description:   l.Description,
		Location:      l.Location,
		NightlyAmount: l.Nightly.Amount,
		Currency:      l.Nightly.Currency,
		CreatedAt:     l.CreatedAt.UnixMilli(),
		UpdatedAt:     l.UpdatedAt.UnixMilli(),
	}
}

func (d listingDocument) toAggregate() *domainlistings.Listing {
	return &domainlistings.Listing{
		ID:          domainlistings.ListingID(d.ID),
		HostID:      domainuser.ID(d.HostID),
		Name:        d.Name,
		Description: d.Description,
		Location:    d.Location,
		Nightly:     money.Money{Amount: d.NightlyAmount, Currency: d.Currency},
		CreatedAt:   timestampToTime(d.CreatedAt),
		UpdatedAt:   timestampToTime(d.UpdatedAt),
	}
}

var _ domainlistings.Repository = (*ListingRepository)(nil)
