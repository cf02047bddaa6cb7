package repository

import (
	"fmt"
)

const (
	IDField        QueryField = "id"
	NameField      QueryField = "name"
	PriceField     QueryField = "price"
	RatingField    QueryField = "rating"
	UsernameField  QueryField = "username"
	UserIDField    QueryField = "user_id"
	ProductIDField QueryField = "product_id"
	CreatedAtField QueryField = "created_at"
	UpdatedAtField QueryField = "updated_at"

	// DefaultPerPage is the default number of items per page.
	DefaultPerPage = 10
	maxPerPage     = 100

	// OrderDescending is the query-string flag selecting descending order.
	OrderDescending = "dsc"
)

type QueryField string

// sortableFields is the allow-list of fields accepted for ordering. Anything
// outside it is rejected up front instead of surfacing as a database error.
var sortableFields = map[QueryField]struct{}{
	IDField:        {},
	NameField:      {},
	PriceField:     {},
	RatingField:    {},
	CreatedAtField: {},
	UpdatedAtField: {},
}

// Query describes filtering, ordering and pagination for a List call.
type Query struct {
	Values map[QueryField]string

	// Search is a case-insensitive substring filter applied by the storage layer.
	Search string

	OrderBy    QueryField
	Descending bool

	Limit  int
	Offset int
}

func NewQuery() *Query {
	return &Query{
		Values:  map[QueryField]string{},
		OrderBy: NameField,
		Limit:   DefaultPerPage,
	}
}

func (q *Query) With(field QueryField, val string) *Query {
	q.Values[field] = val
	return q
}

// ApplyPagination sets limit and offset from per-page/page numbers,
// falling back to the defaults for missing or non-positive values.
func (q *Query) ApplyPagination(perPage, page int32) {
	limit := DefaultPerPage
	if perPage > 0 {
		limit = min(maxPerPage, int(perPage))
	}
	q.Limit = limit

	if page > 1 {
		q.Offset = (int(page) - 1) * limit
	}
}

// ApplySort sets the ordering field and direction. An empty field keeps the
// default name ordering; unknown fields are rejected.
func (q *Query) ApplySort(field, order string) error {
	if field != "" {
		f := QueryField(field)
		if _, ok := sortableFields[f]; !ok {
			return fmt.Errorf("unsupported order_by field: %q", field)
		}
		q.OrderBy = f
	}
	q.Descending = order == OrderDescending
	return nil
}
