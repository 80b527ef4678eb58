package reports

import (
	"context"
	"time"

	"github.com/jkovarik/dispecink-backend/internal/identity"
	"github.com/jkovarik/dispecink-backend/internal/records"
	"github.com/jkovarik/dispecink-backend/pkg/csvutil"
	"github.com/jkovarik/dispecink-backend/pkg/errors"
)

var exportColumns = []csvutil.Column{
	{Key: "createdAt", Header: "Vytvořeno"},
	{Key: "createdByFullName", Header: "Vytvořil"},
	{Key: "category", Header: "Kategorie"},
	{Key: "network", Header: "Typ sítě"},
	{Key: "locationName", Header: "Provozovna"},
	{Key: "dateFor", Header: "Datum nepravidelnosti"},
	{Key: "description", Header: "Popis"},
	{Key: "actionTaken", Header: "Přijatá opatření"},
	{Key: "courseCode", Header: "Číslo kurzu"},
	{Key: "coursePlannedArrival", Header: "Plánovaný příjezd"},
	{Key: "courseRealArrival", Header: "Skutečný příjezd"},
	{Key: "courseDelayName", Header: "Příčina zpoždění"},
	{Key: "note", Header: "Poznámka"},
}

// Export renders the caller's visible reports created within [from, to]
// as CSV.
func (s *Service) Export(ctx context.Context, p *identity.Principal, from, to string) ([]byte, string, error) {
	if _, err := time.Parse(time.RFC3339, from); err != nil {
		return nil, "", errors.New(errors.CodeValidation, "invalid export range").WithDetails("from")
	}
	if _, err := time.Parse(time.RFC3339, to); err != nil {
		return nil, "", errors.New(errors.CodeValidation, "invalid export range").WithDetails("to")
	}

	scope := records.ScopeFor(p, identity.RoleRegLogistika)
	q := s.base(ctx, scope).Order("regional_report.created_at desc, regional_report.id desc")
	q, err := records.ApplyTimeRange(q, "regional_report.created_at", &records.TimeRange{&from, &to})
	if err != nil {
		return nil, "", err
	}

	var items []ListRow
	if err := q.Scan(&items).Error; err != nil {
		return nil, "", err
	}

	rows := make([]map[string]any, 0, len(items))
	for _, item := range items {
		rows = append(rows, map[string]any{
			"createdAt":            item.CreatedAt.Format(time.RFC3339),
			"createdByFullName":    item.CreatedByFullName,
			"category":             item.Category,
			"network":              item.Network,
			"locationName":         item.LocationName,
			"dateFor":              item.DateFor,
			"description":          item.Description,
			"actionTaken":          item.ActionTaken,
			"courseCode":           item.CourseCode,
			"coursePlannedArrival": item.CoursePlannedArrival,
			"courseRealArrival":    item.CourseRealArrival,
			"courseDelayName":      item.CourseDelayName,
			"note":                 item.Note,
		})
	}

	data, err := csvutil.Render(rows, exportColumns)
	if err != nil {
		return nil, "", err
	}
	return data, csvutil.ExportFilename("hlaseni_rl", time.Now()), nil
}
