package paginate

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/jkovarik/dispecink-backend/pkg/errors"
)

// Find carries the listing parameters parsed from query strings. Limit is
// always the configured page size; the cursor is a plain row offset.
type Find struct {
	Search    string
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
	Filter    json.RawMessage
}

// Page is the listing envelope. Next is present only when the page came
// back full, meaning another page may exist.
type Page[T any] struct {
	Items []T     `json:"items"`
	Next  *string `json:"next,omitempty"`
}

// FromRequest builds a Find from the request query. Malformed cursors fall
// back to offset zero, malformed sort directions are dropped. The filter
// payload stays raw here; modules decode it strictly themselves.
func FromRequest(r *http.Request, pageRows int) Find {
	q := r.URL.Query()

	find := Find{
		Search: q.Get("search"),
		Limit:  pageRows,
		Offset: parseCursor(q.Get("cursor")),
	}

	if sort := q.Get("sort"); sort != "" {
		parts := strings.SplitN(sort, ";", 2)
		find.SortBy = parts[0]
		if len(parts) == 2 && (parts[1] == "asc" || parts[1] == "desc") {
			find.SortOrder = parts[1]
		}
	}

	if filter := q.Get("filter"); filter != "" {
		find.Filter = json.RawMessage(filter)
	}

	return find
}

func parseCursor(cursor string) int {
	offset, err := strconv.Atoi(cursor)
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}

// NewPage wraps items, deriving the next cursor from the page fill.
func NewPage[T any](items []T, find Find) Page[T] {
	if items == nil {
		items = []T{}
	}

	page := Page[T]{Items: items}
	if find.Limit > 0 && len(items) == find.Limit {
		next := strconv.Itoa(find.Offset + find.Limit)
		page.Next = &next
	}
	return page
}

// DecodeFilter decodes the raw filter into the module's filter struct.
// Unknown fields and malformed payloads are validation errors, never
// silently ignored.
func DecodeFilter[T any](find Find) (*T, error) {
	if len(find.Filter) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(find.Filter))
	dec.DisallowUnknownFields()

	var filter T
	if err := dec.Decode(&filter); err != nil {
		return nil, errors.Wrap(errors.CodeValidation, err, "malformed filter")
	}
	return &filter, nil
}
