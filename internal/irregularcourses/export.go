package irregularcourses

import (
	"context"
	"strings"
	"time"

	"github.com/jkovarik/dispecink-backend/internal/records"
	"github.com/jkovarik/dispecink-backend/pkg/csvutil"
	"github.com/jkovarik/dispecink-backend/pkg/errors"
)

var exportColumns = []csvutil.Column{
	{Key: "createdAt", Header: "Vytvořeno"},
	{Key: "createdByFullName", Header: "Vytvořil"},
	{Key: "locationName", Header: "DSPU"},
	{Key: "network", Header: "Síť"},
	{Key: "load", Header: "Vytížení"},
	{Key: "initialStopName", Header: "Počáteční zastávka"},
	{Key: "initialStopDate", Header: "Odjezd"},
	{Key: "stops", Header: "Zastávky"},
	{Key: "finalStopName", Header: "Koneční zastávka"},
	{Key: "finalStopDate", Header: "Příjezd"},
	{Key: "transporter", Header: "Dopravce"},
	{Key: "vehiclePlate", Header: "Vozidlo"},
	{Key: "trailerPlate", Header: "Příp. vp"},
	{Key: "distance", Header: "Vzdálenost"},
}

// Export renders irregular courses created within [from, to] as CSV.
// Intermediate stops render as a comma separated list of resolved
// names, plates as their registry names.
func (s *Service) Export(ctx context.Context, from, to string) ([]byte, string, error) {
	if _, err := time.Parse(time.RFC3339, from); err != nil {
		return nil, "", errors.New(errors.CodeValidation, "invalid export range").WithDetails("from")
	}
	if _, err := time.Parse(time.RFC3339, to); err != nil {
		return nil, "", errors.New(errors.CodeValidation, "invalid export range").WithDetails("to")
	}

	q := s.base(ctx).Order("irregular_course.created_at desc, irregular_course.id desc")
	q, err := records.ApplyTimeRange(q, "irregular_course.created_at", &records.TimeRange{&from, &to})
	if err != nil {
		return nil, "", err
	}

	var scans []listScan
	if err := q.Scan(&scans).Error; err != nil {
		return nil, "", err
	}

	ids := make([]int64, 0, len(scans))
	plateIDs := make([]int64, 0, len(scans)*2)
	for _, sc := range scans {
		ids = append(ids, sc.ID)
		plateIDs = append(plateIDs, sc.VehiclePlate)
		if sc.TrailerPlate != nil {
			plateIDs = append(plateIDs, *sc.TrailerPlate)
		}
	}

	var stops map[int64][]StopRow
	if len(ids) > 0 {
		stops, err = s.stopRows(ctx, ids)
		if err != nil {
			return nil, "", err
		}
	}
	plateNames, err := s.enumNames(ctx, plateIDs)
	if err != nil {
		return nil, "", err
	}

	rows := make([]map[string]any, 0, len(scans))
	for _, sc := range scans {
		stopNames := make([]string, 0, len(stops[sc.ID]))
		for _, stop := range stops[sc.ID] {
			stopNames = append(stopNames, stop.Name)
		}
		row := map[string]any{
			"createdAt":         sc.CreatedAt.Format(time.RFC3339),
			"createdByFullName": sc.CreatedByFullName,
			"locationName":      sc.LocationName,
			"network":           sc.Network,
			"load":              sc.Load,
			"initialStopName":   sc.InitialStopName,
			"initialStopDate":   sc.InitialStopDate,
			"stops":             strings.Join(stopNames, ", "),
			"finalStopName":     sc.FinalStopName,
			"finalStopDate":     sc.FinalStopDate,
			"transporter":       sc.Transporter,
			"vehiclePlate":      plateNames[sc.VehiclePlate],
			"distance":          sc.Distance,
		}
		if sc.TrailerPlate != nil {
			row["trailerPlate"] = plateNames[*sc.TrailerPlate]
		}
		rows = append(rows, row)
	}

	data, err := csvutil.Render(rows, exportColumns)
	if err != nil {
		return nil, "", err
	}
	return data, csvutil.ExportFilename("mimoradne_kurzy", time.Now()), nil
}
