package machinings

import (
	"context"
	"time"

	"github.com/jkovarik/dispecink-backend/internal/records"
	"github.com/jkovarik/dispecink-backend/pkg/csvutil"
	"github.com/jkovarik/dispecink-backend/pkg/errors"
)

// One CSV column per known machine code; sheets without a value leave
// the cell empty.
var exportColumns = []csvutil.Column{
	{Key: "dateFor", Header: "Datum"},
	{Key: "locationName", Header: "DSPU"},
	{Key: "bez-kodu", Header: "Bez kódu"},
	{Key: "cfc", Header: "CFC"},
	{Key: "n4l", Header: "N4L"},
	{Key: "pro-bm02", Header: "Pro BM02"},
	{Key: "pro-ol02", Header: "Pro OL02"},
	{Key: "pro-p022", Header: "Pro P022"},
	{Key: "pro-pm02", Header: "Pro PM02"},
	{Key: "sz-d-1", Header: "SZ D+1"},
	{Key: "sz-tech", Header: "SZ Tech"},
	{Key: "tb", Header: "TB"},
	{Key: "vcd-do", Header: "VCD DO"},
	{Key: "vcd-psc", Header: "VCD PSC"},
}

// Export renders sheets dated within [from, to] as CSV, machine values
// spread into per-code columns.
func (s *Service) Export(ctx context.Context, from, to string) ([]byte, string, error) {
	if _, err := time.Parse(time.RFC3339, from); err != nil {
		return nil, "", errors.New(errors.CodeValidation, "invalid export range").WithDetails("from")
	}
	if _, err := time.Parse(time.RFC3339, to); err != nil {
		return nil, "", errors.New(errors.CodeValidation, "invalid export range").WithDetails("to")
	}

	q := s.base(ctx).Order("machining.date_for desc, machining.id desc")
	q, err := records.ApplyDateRange(q, "machining.date_for", &records.TimeRange{&from, &to})
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
		row := map[string]any{
			"dateFor":      item.DateFor,
			"locationName": item.LocationName,
		}
		for _, machine := range item.Machines {
			if machine.Value != nil {
				row[machine.Machine] = *machine.Value
			}
		}
		rows = append(rows, row)
	}

	data, err := csvutil.Render(rows, exportColumns)
	if err != nil {
		return nil, "", err
	}
	return data, csvutil.ExportFilename("vykony_mechanizace", time.Now()), nil
}
