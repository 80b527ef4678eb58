package remainders

import (
	"context"
	"fmt"
	"time"

	"github.com/jkovarik/dispecink-backend/internal/records"
	"github.com/jkovarik/dispecink-backend/pkg/csvutil"
	"github.com/jkovarik/dispecink-backend/pkg/errors"
)

var exportColumns = []csvutil.Column{
	{Key: "createdAt", Header: "Vytvořeno"},
	{Key: "createdByFullName", Header: "Vytvořil"},
	{Key: "locationName", Header: "DSPU"},
	{Key: "dateFor", Header: "Datum ku"},
	{Key: "network", Header: "Síť"},
	{Key: "kind", Header: "Druh"},
	{Key: "technologicalGroup", Header: "Technologická skupina"},
	{Key: "amount", Header: "Počet"},
	{Key: "euro-pallet", Header: "EURO paleta"},
	{Key: "cage", Header: "Klec"},
	{Key: "container", Header: "Kontejner"},
	{Key: "other-pallet", Header: "Ostatní palety"},
	{Key: "shipping-container", Header: "Přepravka"},
	{Key: "flatbed", Header: "Valník"},
	{Key: "note", Header: "Poznámka"},
}

// Export renders remainders created within [from, to] as CSV. The
// amount column carries the technological group's unit, crate counts
// spread into per-kind columns.
func (s *Service) Export(ctx context.Context, from, to string) ([]byte, string, error) {
	if _, err := time.Parse(time.RFC3339, from); err != nil {
		return nil, "", errors.New(errors.CodeValidation, "invalid export range").WithDetails("from")
	}
	if _, err := time.Parse(time.RFC3339, to); err != nil {
		return nil, "", errors.New(errors.CodeValidation, "invalid export range").WithDetails("to")
	}

	q := s.base(ctx).Order("remainder.created_at desc, remainder.id desc")
	q, err := records.ApplyTimeRange(q, "remainder.created_at", &records.TimeRange{&from, &to})
	if err != nil {
		return nil, "", err
	}

	var scans []headerScan
	if err := q.Scan(&scans).Error; err != nil {
		return nil, "", err
	}
	items, err := s.assemble(ctx, scans)
	if err != nil {
		return nil, "", err
	}

	rows := make([]map[string]any, 0, len(items))
	for _, item := range items {
		unit := ""
		if item.TechnologicalGroupUnit != nil {
			unit = *item.TechnologicalGroupUnit
		}
		row := map[string]any{
			"createdAt":          item.CreatedAt.Format(time.RFC3339),
			"createdByFullName":  item.CreatedByFullName,
			"locationName":       item.LocationName,
			"dateFor":            item.DateFor,
			"network":            item.Network,
			"kind":               item.Kind,
			"technologicalGroup": item.TechnologicalGroup,
			"amount":             fmt.Sprintf("%v %s", item.Amount, unit),
			"note":               item.Note,
		}
		for _, crate := range item.Crates {
			if crate.Amount != 0 {
				row[crate.Crate] = crate.Amount
			}
		}
		rows = append(rows, row)
	}

	data, err := csvutil.Render(rows, exportColumns)
	if err != nil {
		return nil, "", err
	}
	return data, csvutil.ExportFilename("zbytky", time.Now()), nil
}
