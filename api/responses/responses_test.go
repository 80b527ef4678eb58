package responses

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/jkovarik/dispecink-backend/pkg/errors"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusCreated, map[string]string{"hello": "world"})

	if got := w.Code; got != http.StatusCreated {
		t.Fatalf("expected status 201 but got %d", got)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if body["hello"] != "world" {
		t.Fatalf("unexpected payload %v", body)
	}
}

func TestWriteErrorMapsTypedError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	err := pkgerrors.New(pkgerrors.CodeValidation, "bad input").
		WithDetails(map[string]string{"field": "demo"})
	WriteError(r, nil, w, err)

	if got := w.Code; got != http.StatusBadRequest {
		t.Fatalf("expected status 400 but got %d", got)
	}

	var body struct {
		Message string `json:"message"`
		Detail  any    `json:"detail"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if body.Message != "bad input" {
		t.Fatalf("unexpected message %q", body.Message)
	}
	if body.Detail == nil {
		t.Fatalf("expected detail in public payload")
	}
}

func TestWriteErrorHidesInternalMessages(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	WriteError(r, nil, w, errors.New("connection string with secrets"))

	if got := w.Code; got != http.StatusInternalServerError {
		t.Fatalf("expected status 500 but got %d", got)
	}

	var body struct {
		Message string `json:"message"`
		Detail  any    `json:"detail"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if body.Message == "connection string with secrets" {
		t.Fatalf("internal message leaked to the client")
	}
	if body.Detail != nil {
		t.Fatalf("detail should be omitted for internal errors")
	}
}

func TestWriteErrorKeepsForbiddenGeneric(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	WriteError(r, nil, w, pkgerrors.New(pkgerrors.CodeForbidden, "user u1 lacks grant for PO02"))

	if got := w.Code; got != http.StatusForbidden {
		t.Fatalf("expected status 403 but got %d", got)
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if body.Message == "user u1 lacks grant for PO02" {
		t.Fatalf("forbidden reason leaked to the client")
	}
}

func TestWriteCSVSetsAttachmentHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	WriteCSV(w, "kurzy_2026_01_02.csv", []byte("a;b\n"))

	if got := w.Header().Get("Content-Type"); got != "text/csv; charset=utf-8" {
		t.Fatalf("unexpected content type %q", got)
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="kurzy_2026_01_02.csv"` {
		t.Fatalf("unexpected disposition %q", got)
	}
	if w.Body.String() != "a;b\n" {
		t.Fatalf("unexpected body %q", w.Body.String())
	}
}
