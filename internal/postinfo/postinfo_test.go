package postinfo

import (
	"context"
	"net/http"
	"testing"

	"github.com/jkovarik/dispecink-backend/internal/esb"
)

type stubBus struct {
	status int
	body   string
}

func (s stubBus) Get(context.Context, string, map[string]string) (*esb.Response, error) {
	return &esb.Response{StatusCode: s.status, Body: []byte(s.body)}, nil
}

func TestGetDetailFiltersOfficeTypes(t *testing.T) {
	bus := stubBus{
		status: http.StatusOK,
		body: `[
			{"attributes": {"postId": "1", "name": "Depo Brno", "postOfficeType": "9", "postOfficeTypeName": "DEPO"}},
			{"attributes": {"postId": "2", "name": "SPU Praha", "postOfficeType": "15", "postOfficeTypeName": "SPU"}},
			{"attributes": {"postId": "3", "name": "Pobočka", "postOfficeType": "1", "postOfficeTypeName": "POSTA"}}
		]`,
	}

	details, err := NewService(bus).GetDetail(context.Background())
	if err != nil {
		t.Fatalf("get detail: %v", err)
	}

	if len(details) != 2 {
		t.Fatalf("expected 2 filtered entries, got %d", len(details))
	}
	if details[0].PostID != "1" || details[1].PostID != "2" {
		t.Fatalf("unexpected entries %+v", details)
	}
}

func TestGetDetailNonOKStatus(t *testing.T) {
	bus := stubBus{status: http.StatusBadGateway, body: "upstream down"}

	if _, err := NewService(bus).GetDetail(context.Background()); err == nil {
		t.Fatalf("expected non-OK status to fail")
	}
}
