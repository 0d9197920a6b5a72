package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stayhub/internal/app/uow"
	domainbooking "stayhub/internal/domain/booking"
	domainlistings "stayhub/internal/domain/listings"
	domainmessages "stayhub/internal/domain/messages"
	domainpayments "stayhub/internal/domain/payments"
	domainreviews "stayhub/internal/domain/reviews"
	domainuser "stayhub/internal/domain/user"
)

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	UsersRepo    domainuser.Repository
	ListingsRepo domainlistings.Repository
	BookingsRepo domainbooking.Repository
	PaymentsRepo domainpayments.Repository
	ReviewsRepo  domainreviews.Repository
	MessagesRepo domainmessages.Repository
}

// NewFactory builds a factory with repositories bound to db's collections.
func NewFactory(db *mongo.Database) Factory {
	return Factory{
		DB:           db,
		UsersRepo:    NewUserRepository(db),
		ListingsRepo: NewListingRepository(db),
		BookingsRepo: NewBookingRepository(db),
		PaymentsRepo: NewPaymentRepository(db),
		ReviewsRepo:  NewReviewRepository(db),
		MessagesRepo: NewMessageRepository(db),
	}
}

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().
		SetReadConcern(f.DB.ReadConcern()).
		SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{session: session, factory: f}, nil
}

type Unit struct {
	session mongo.Session
	factory Factory
}

func (u *Unit) Users() domainuser.Repository        { return u.factory.UsersRepo }
func (u *Unit) Listings() domainlistings.Repository { return u.factory.ListingsRepo }
func (u *Unit) Bookings() domainbooking.Repository  { return u.factory.BookingsRepo }
func (u *Unit) Payments() domainpayments.Repository { return u.factory.PaymentsRepo }
func (u *Unit) Reviews() domainreviews.Repository   { return u.factory.ReviewsRepo }
func (u *Unit) Messages() domainmessages.Repository { return u.factory.MessagesRepo }

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if err := u.session.CommitTransaction(ctx); err != nil {
		if txConflict(err) {
			return uow.ErrTxConflict
		}
		return err
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext binds the Mongo session into the context so repository calls
// made through this unit run inside the transaction.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

// writeConflictCode is WiredTiger's WriteConflict server error code.
const writeConflictCode = 112

// txConflict reports whether err means the transaction lost a write conflict
// with a concurrent one and should be retried on a fresh snapshot.
func txConflict(err error) bool {
	var serverErr mongo.ServerError
	if !errors.As(err, &serverErr) {
		return false
	}
	return serverErr.HasErrorCode(writeConflictCode) ||
		serverErr.HasErrorLabel("TransientTransactionError")
}

var _ uow.Factory = Factory{}
var _ uow.UnitOfWork = (*Unit)(nil)
var _ uow.ContextInjector = (*Unit)(nil)
