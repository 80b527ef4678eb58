package paginate

import (
	"net/http/httptest"
	"testing"
)

func TestFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/?search=brno&cursor=100&sort=createdAt;desc&filter={\"network\":[\"hps\"]}", nil)

	find := FromRequest(r, 50)

	if find.Search != "brno" {
		t.Fatalf("unexpected search %q", find.Search)
	}
	if find.Offset != 100 {
		t.Fatalf("unexpected offset %d", find.Offset)
	}
	if find.Limit != 50 {
		t.Fatalf("limit must be the configured page size, got %d", find.Limit)
	}
	if find.SortBy != "createdAt" || find.SortOrder != "desc" {
		t.Fatalf("unexpected sort %q %q", find.SortBy, find.SortOrder)
	}
	if len(find.Filter) == 0 {
		t.Fatalf("expected raw filter to be kept")
	}
}

func TestFromRequestMalformedCursorAndSort(t *testing.T) {
	r := httptest.NewRequest("GET", "/?cursor=abc&sort=createdAt;sideways", nil)

	find := FromRequest(r, 50)

	if find.Offset != 0 {
		t.Fatalf("malformed cursor should fall back to zero, got %d", find.Offset)
	}
	if find.SortOrder != "" {
		t.Fatalf("invalid sort order should be dropped, got %q", find.SortOrder)
	}
}

func TestNewPageNextCursor(t *testing.T) {
	find := Find{Limit: 2, Offset: 4}

	full := NewPage([]int{1, 2}, find)
	if full.Next == nil || *full.Next != "6" {
		t.Fatalf("expected next cursor 6, got %v", full.Next)
	}

	short := NewPage([]int{1}, find)
	if short.Next != nil {
		t.Fatalf("short page must not produce a next cursor")
	}

	empty := NewPage[int](nil, find)
	if empty.Items == nil {
		t.Fatalf("items must serialize as an empty array, not null")
	}
}

func TestDecodeFilter(t *testing.T) {
	type filter struct {
		Network []string `json:"network"`
	}

	got, err := DecodeFilter[filter](Find{Filter: []byte(`{"network":["hps","obps"]}`)})
	if err != nil {
		t.Fatalf("decode filter: %v", err)
	}
	if len(got.Network) != 2 {
		t.Fatalf("unexpected filter %+v", got)
	}

	if _, err := DecodeFilter[filter](Find{Filter: []byte(`{"bogus":true}`)}); err == nil {
		t.Fatalf("unknown filter fields must fail")
	}

	if _, err := DecodeFilter[filter](Find{Filter: []byte(`{`)}); err == nil {
		t.Fatalf("malformed filter must fail")
	}

	none, err := DecodeFilter[filter](Find{})
	if err != nil || none != nil {
		t.Fatalf("absent filter should decode to nil, got %v err %v", none, err)
	}
}
