package dispatch

import (
	"context"
	"time"

	"github.com/jkovarik/dispecink-backend/internal/records"
	"github.com/jkovarik/dispecink-backend/pkg/csvutil"
	"github.com/jkovarik/dispecink-backend/pkg/errors"
)

var exportColumns = []csvutil.Column{
	{Key: "createdAt", Header: "Vytvořeno"},
	{Key: "createdByFullName", Header: "Vytvořil"},
	{Key: "locationName", Header: "DSPU"},
	{Key: "userTime", Header: "Datum ku"},
	{Key: "typeEnumName", Header: "Typ"},
	{Key: "keyEnumName", Header: "Klíč"},
	{Key: "description", Header: "Popis"},
}

// Export renders entries created within [from, to] as CSV.
func (s *Service) Export(ctx context.Context, from, to string) ([]byte, string, error) {
	if _, err := time.Parse(time.RFC3339, from); err != nil {
		return nil, "", errors.New(errors.CodeValidation, "invalid export range").WithDetails("from")
	}
	if _, err := time.Parse(time.RFC3339, to); err != nil {
		return nil, "", errors.New(errors.CodeValidation, "invalid export range").WithDetails("to")
	}

	q := s.base(ctx).Order("dispatch.created_at desc, dispatch.id desc")
	q, err := records.ApplyTimeRange(q, "dispatch.created_at", &records.TimeRange{&from, &to})
	if err != nil {
		return nil, "", err
	}

	var items []Row
	if err := q.Scan(&items).Error; err != nil {
		return nil, "", err
	}

	rows := make([]map[string]any, 0, len(items))
	for _, item := range items {
		rows = append(rows, map[string]any{
			"createdAt":         item.CreatedAt.Format(time.RFC3339),
			"createdByFullName": item.CreatedByFullName,
			"locationName":      item.LocationName,
			"userTime":          item.UserTime.Format(time.RFC3339),
			"typeEnumName":      item.TypeEnumName,
			"keyEnumName":       item.KeyEnumName,
			"description":       item.Description,
		})
	}

	data, err := csvutil.Render(rows, exportColumns)
	if err != nil {
		return nil, "", err
	}
	return data, csvutil.ExportFilename("dispecerska_sluzba", time.Now()), nil
}
