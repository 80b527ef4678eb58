package csvutil

import (
	"strings"
	"testing"
	"time"
)

func TestRenderQuotesAndOrder(t *testing.T) {
	rows := []map[string]any{
		{"name": `He said "go"`, "count": float64(3)},
		{"name": "Plain", "count": float64(1.5)},
	}
	columns := []Column{
		{Key: "name", Header: "Název"},
		{Key: "count", Header: "Počet"},
		{Key: "missing", Header: "Chybí"},
	}

	out, err := Render(rows, columns)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus two rows, got %d lines", len(lines))
	}
	if lines[0] != "Název,Počet,Chybí" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.Contains(lines[1], `"He said ""go"""`) {
		t.Fatalf("quotes not escaped: %q", lines[1])
	}
	if !strings.HasSuffix(lines[1], ",3,") {
		t.Fatalf("missing key must render empty cell: %q", lines[1])
	}
	if !strings.Contains(lines[2], "1.5") {
		t.Fatalf("unexpected float rendering: %q", lines[2])
	}
}

func TestRenderEmpty(t *testing.T) {
	out, err := Render(nil, []Column{{Key: "a", Header: "A"}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != nil {
		t.Fatalf("empty export should produce no payload")
	}
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2024, 3, 7, 14, 5, 9, 0, time.UTC)

	got := ExportFilename("kurzy", now)
	want := "kurzy_2024_03_07T14:05:09.csv"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSignedMinutes(t *testing.T) {
	pos, neg, zero := 12, -4, 0

	if got := SignedMinutes(&pos); got != "+12" {
		t.Fatalf("positive diff must carry a plus, got %q", got)
	}
	if got := SignedMinutes(&neg); got != "-4" {
		t.Fatalf("unexpected negative rendering %q", got)
	}
	if got := SignedMinutes(&zero); got != "0" {
		t.Fatalf("unexpected zero rendering %q", got)
	}
	if got := SignedMinutes(nil); got != "" {
		t.Fatalf("nil diff must render empty, got %q", got)
	}
}
