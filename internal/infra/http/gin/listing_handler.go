package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	listingsvc "stayhub/internal/app/services/listings"
	domainbooking "stayhub/internal/domain/booking"
	domainlistings "stayhub/internal/domain/listings"
	domainreviews "stayhub/internal/domain/reviews"
	"stayhub/internal/domain/shared/money"
	domainuser "stayhub/internal/domain/user"
)

type ListingHTTP interface {
	Search(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	Mine(c *gin.Context)
	Reviews(c *gin.Context)
	AddReview(c *gin.Context)
	Bookings(c *gin.Context)
}

type ListingHandler struct {
	Service  *listingsvc.Service
	Currency string
	Logger   *slog.Logger
}

type listingUpsertRequest struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	Location      *string `json:"location"`
	PricePerNight *string `json:"price_per_night"`
}

// Search handles the public catalog query with location, price range,
// free-text and sort parameters.
func (h ListingHandler) Search(c *gin.Context) {
	params := domainlistings.SearchParams{
		Location: c.Query("location"),
		Query:    c.Query("q"),
		SortBy:   domainlistings.SortField(c.Query("sort")),
		SortDesc: c.Query("order") == "desc",
	}
	if raw := c.Query("min_price"); raw != "" {
		m, err := money.ParseDecimal(raw, h.currency())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid min_price"})
			return
		}
		params.MinPrice = m.Amount
	}
	if raw := c.Query("max_price"); raw != "" {
		m, err := money.ParseDecimal(raw, h.currency())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid max_price"})
			return
		}
		params.MaxPrice = m.Amount
	}
	params.Limit = intQuery(c, "limit", 0)
	params.Offset = intQuery(c, "offset", 0)

	items, err := h.Service.Search(c.Request.Context(), params)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listings": newListingResponses(items), "count": len(items)})
}

func (h ListingHandler) Create(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	var req listingUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	nightly, err := h.parsePrice(req.PricePerNight)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price_per_night"})
		return
	}
	listing, err := h.Service.Create(c.Request.Context(), listingsvc.CreateParams{
		HostID:      domainuser.ID(p.ID),
		Name:        deref(req.Name),
		Description: deref(req.Description),
		Location:    deref(req.Location),
		Nightly:     nightly,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newListingResponse(listing))
}

func (h ListingHandler) Get(c *gin.Context) {
	listing, err := h.Service.Get(c.Request.Context(), domainlistings.ListingID(c.Param("id")))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newListingResponse(listing))
}

func (h ListingHandler) Update(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	var req listingUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	params := domainlistings.UpdateParams{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
	}
	if req.PricePerNight != nil {
		nightly, err := money.ParseDecimal(*req.PricePerNight, h.currency())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price_per_night"})
			return
		}
		params.Nightly = &nightly
	}
	listing, err := h.Service.Update(c.Request.Context(), domainuser.ID(p.ID), domainlistings.ListingID(c.Param("id")), params)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newListingResponse(listing))
}

func (h ListingHandler) Delete(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	if err := h.Service.Delete(c.Request.Context(), domainuser.ID(p.ID), domainlistings.ListingID(c.Param("id"))); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h ListingHandler) Mine(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	items, err := h.Service.ByHost(c.Request.Context(), domainuser.ID(p.ID))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listings": newListingResponses(items), "count": len(items)})
}

func (h ListingHandler) Reviews(c *gin.Context) {
	items, err := h.Service.Reviews(c.Request.Context(), domainlistings.ListingID(c.Param("id")))
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]reviewResponse, 0, len(items))
	for _, r := range items {
		out = append(out, newReviewResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{
		"reviews":        out,
		"count":          len(out),
		"average_rating": domainreviews.AverageRating(items),
	})
}

type addReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h ListingHandler) AddReview(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	var req addReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	review, err := h.Service.AddReview(c.Request.Context(), listingsvc.AddReviewParams{
		ListingID: domainlistings.ListingID(c.Param("id")),
		AuthorID:  domainuser.ID(p.ID),
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newReviewResponse(review))
}

// Bookings lists the bookings made against one of the caller's listings.
func (h ListingHandler) Bookings(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	items, err := h.Service.ListingBookings(c.Request.Context(), domainuser.ID(p.ID), domainlistings.ListingID(c.Param("id")))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": newBookingResponses(items), "count": len(items)})
}

func (h ListingHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainlistings.ErrNotFound),
		errors.Is(err, domainreviews.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domainbooking.ErrOnlyHost):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domainreviews.ErrAlreadyReviewed):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domainlistings.ErrNameRequired),
		errors.Is(err, domainlistings.ErrLocationRequired),
		errors.Is(err, domainlistings.ErrInvalidPrice),
		errors.Is(err, domainreviews.ErrInvalidRating),
		errors.Is(err, domainreviews.ErrCommentRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		if h.Logger != nil {
			h.Logger.Error("listing operation failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h ListingHandler) parsePrice(raw *string) (money.Money, error) {
	if raw == nil {
		return money.Money{}, money.ErrInvalidDecimal
	}
	return money.ParseDecimal(*raw, h.currency())
}

func (h ListingHandler) currency() string {
	if h.Currency == "" {
		return "ETB"
	}
	return h.Currency
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

var _ ListingHTTP = (*ListingHandler)(nil)
