package ginserver

import (
	"time"

	domainbooking "stayhub/internal/domain/booking"
	domainlistings "stayhub/internal/domain/listings"
	domainmessages "stayhub/internal/domain/messages"
	domainpayments "stayhub/internal/domain/payments"
	domainreviews "stayhub/internal/domain/reviews"
	domainuser "stayhub/internal/domain/user"
)

const dateLayout = "2006-01-02"

type userProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newUserProfile(u *domainuser.User) userProfile {
	return userProfile{
		ID:        string(u.ID),
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type authResponse struct {
	Token string      `json:"token"`
	User  userProfile `json:"user"`
}

type listingResponse struct {
	ID            string    `json:"id"`
	HostID        string    `json:"host_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Location      string    `json:"location"`
	PricePerNight string    `json:"price_per_night"`
	Currency      string    `json:"currency"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func newListingResponse(l *domainlistings.Listing) listingResponse {
	return listingResponse{
		ID:            string(l.ID),
		HostID:        string(l.HostID),
		Name:          l.Name,
		Description:   l.Description,
		Location:      l.Location,
		PricePerNight: l.Nightly.DecimalString(),
		Currency:      l.Nightly.Currency,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

func newListingResponses(items []*domainlistings.Listing) []listingResponse {
	out := make([]listingResponse, 0, len(items))
	for _, l := range items {
		out = append(out, newListingResponse(l))
	}
	return out
}

type bookingResponse struct {
	ID         string    `json:"id"`
	ListingID  string    `json:"listing_id"`
	GuestID    string    `json:"guest_id"`
	StartDate  string    `json:"start_date"`
	EndDate    string    `json:"end_date"`
	Nights     int       `json:"nights"`
	TotalPrice string    `json:"total_price"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func newBookingResponse(b *domainbooking.Booking) bookingResponse {
	return bookingResponse{
		ID:         string(b.ID),
		ListingID:  string(b.ListingID),
		GuestID:    string(b.GuestID),
		StartDate:  b.Range.Start.Format(dateLayout),
		EndDate:    b.Range.End.Format(dateLayout),
		Nights:     b.Nights(),
		TotalPrice: b.Total.DecimalString(),
		Currency:   b.Total.Currency,
		Status:     string(b.Status),
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func newBookingResponses(items []*domainbooking.Booking) []bookingResponse {
	out := make([]bookingResponse, 0, len(items))
	for _, b := range items {
		out = append(out, newBookingResponse(b))
	}
	return out
}

type paymentResponse struct {
	ID            string    `json:"id"`
	BookingID     string    `json:"booking_id"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	TxRef         string    `json:"tx_ref"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Method        string    `json:"method,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func newPaymentResponse(p *domainpayments.Payment) paymentResponse {
	return paymentResponse{
		ID:            string(p.ID),
		BookingID:     string(p.BookingID),
		Amount:        p.Amount.DecimalString(),
		Currency:      p.Amount.Currency,
		Status:        string(p.Status),
		TxRef:         p.TxRef,
		TransactionID: p.ProviderTxID,
		Method:        p.Method,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func newPaymentResponses(items []*domainpayments.Payment) []paymentResponse {
	out := make([]paymentResponse, 0, len(items))
	for _, p := range items {
		out = append(out, newPaymentResponse(p))
	}
	return out
}

type reviewResponse struct {
	ID        string    `json:"id"`
	ListingID string    `json:"listing_id"`
	AuthorID  string    `json:"author_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

func newReviewResponse(r *domainreviews.Review) reviewResponse {
	return reviewResponse{
		ID:        string(r.ID),
		ListingID: string(r.ListingID),
		AuthorID:  string(r.AuthorID),
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}

type messageResponse struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Body        string    `json:"body"`
	SentAt      time.Time `json:"sent_at"`
}

func newMessageResponse(m *domainmessages.Message) messageResponse {
	return messageResponse{
		ID:          string(m.ID),
		SenderID:    string(m.SenderID),
		RecipientID: string(m.RecipientID),
		Body:        m.Body,
		SentAt:      m.SentAt,
	}
}
