package listings

import "strings"

// SortField enumerates the orderings the catalog supports.
type SortField string

const (
	SortByCreatedAt SortField = "created_at"
	SortByPrice     SortField = "price_per_night"
	SortByName      SortField = "name"
)

type SearchParams struct {
	Location string
	MinPrice int64
	MaxPrice int64
	Query    string
	SortBy   SortField
	SortDesc bool
	Limit    int
	Offset   int
}

const defaultSearchLimit = 50

// Normalized fills defaults: newest-first ordering and a bounded page size.
func (p SearchParams) Normalized() SearchParams {
	p.Location = strings.TrimSpace(p.Location)
	p.Query = strings.TrimSpace(p.Query)
	switch p.SortBy {
	case SortByPrice, SortByName, SortByCreatedAt:
	default:
		p.SortBy = SortByCreatedAt
		p.SortDesc = true
	}
	if p.Limit <= 0 || p.Limit > defaultSearchLimit {
		p.Limit = defaultSearchLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// MatchesQuery reports whether the listing satisfies a free-text search over
// name, description and location.
func (l *Listing) MatchesQuery(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(l.Name), q) ||
		strings.Contains(strings.ToLower(l.Description), q) ||
		strings.Contains(strings.ToLower(l.Location), q)
}
