package courses

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
	{Key: "network", Header: "Síť"},
	{Key: "transporterName", Header: "Dopravce"},
	{Key: "courseCode", Header: "Kurz"},
	{Key: "departureDate", Header: "Datum odjezdu"},
	{Key: "departurePlannedTime", Header: "Odjezd plánovaný"},
	{Key: "departureRealTime", Header: "Odjezd skutečný"},
	{Key: "departureDiff", Header: "Odjezd rozdíl"},
	{Key: "departureDelayName", Header: "Odjezd příčina meškání"},
	{Key: "departureLoad", Header: "Vytížení na odjezdu"},
	{Key: "departureNote", Header: "Poznámka na odjezdu"},
	{Key: "arrivalPlannedTime", Header: "Příjezd plánovaný"},
	{Key: "arrivalRealTime", Header: "Příjezd skutečný"},
	{Key: "arrivalDiff", Header: "Příjezd rozdíl"},
	{Key: "arrivalDelayName", Header: "Příjezd příčina meškání"},
	{Key: "arrivalLoad", Header: "Vytížení na příjezdu"},
	{Key: "arrivalNote", Header: "Poznámka na příjezdu"},
	{Key: "seals", Header: "Plomby"},
}

type exportScan struct {
	CreatedAt            time.Time `gorm:"column:created_at"`
	CreatedByFullName    *string   `gorm:"column:created_by_full_name"`
	LocationName         *string   `gorm:"column:location_name"`
	Network              string    `gorm:"column:network"`
	TransporterName      *string   `gorm:"column:transporter_name"`
	CourseCode           string    `gorm:"column:course_code"`
	DepartureDate        string    `gorm:"column:departure_date"`
	DeparturePlannedTime *string   `gorm:"column:departure_planned_time"`
	DepartureRealTime    *string   `gorm:"column:departure_real_time"`
	DepartureDelayName   *string   `gorm:"column:departure_delay_name"`
	DepartureLoad        *float64  `gorm:"column:departure_load"`
	DepartureNote        *string   `gorm:"column:departure_note"`
	ArrivalPlannedTime   *string   `gorm:"column:arrival_planned_time"`
	ArrivalRealTime      *string   `gorm:"column:arrival_real_time"`
	ArrivalDelayName     *string   `gorm:"column:arrival_delay_name"`
	ArrivalLoad          *float64  `gorm:"column:arrival_load"`
	ArrivalNote          *string   `gorm:"column:arrival_note"`
	Seals                *string   `gorm:"column:seals"`
}

// Export renders courses created within [from, to] as CSV.
func (s *Service) Export(ctx context.Context, from, to string) ([]byte, string, error) {
	fromAt, err := time.Parse(time.RFC3339, from)
	if err != nil {
		return nil, "", errors.New(errors.CodeValidation, "invalid export range").WithDetails("from")
	}
	toAt, err := time.Parse(time.RFC3339, to)
	if err != nil {
		return nil, "", errors.New(errors.CodeValidation, "invalid export range").WithDetails("to")
	}

	var scans []exportScan
	err = s.db.DB().WithContext(ctx).
		Table("course").
		Select(`course.created_at, creator.full_name AS created_by_full_name,
			location.name AS location_name, course.network,
			transporter.name AS transporter_name, course.course_code, course.departure_date,
			course.departure_planned_time, course.departure_real_time,
			departure_delay.name AS departure_delay_name, course.departure_load, course.departure_note,
			course.arrival_planned_time, course.arrival_real_time,
			arrival_delay.name AS arrival_delay_name, course.arrival_load, course.arrival_note,
			course.seals`).
		Joins(`LEFT JOIN "user" AS creator ON creator.id = course.created_by`).
		Joins("LEFT JOIN location ON location.id = course.location_id").
		Joins("LEFT JOIN enum_value AS transporter ON transporter.id = course.transporter_enum_id").
		Joins("LEFT JOIN enum_value AS departure_delay ON departure_delay.id = course.departure_delay_reason_enum_id").
		Joins("LEFT JOIN enum_value AS arrival_delay ON arrival_delay.id = course.arrival_delay_reason_enum_id").
		Where("course.created_at >= ? AND course.created_at <= ?", fromAt, toAt).
		Order("course.created_at desc, course.id desc").
		Scan(&scans).Error
	if err != nil {
		return nil, "", err
	}

	rows := make([]map[string]any, 0, len(scans))
	for _, sc := range scans {
		rows = append(rows, map[string]any{
			"createdAt":            sc.CreatedAt.Format(time.RFC3339),
			"createdByFullName":    sc.CreatedByFullName,
			"locationName":         sc.LocationName,
			"network":              sc.Network,
			"transporterName":      sc.TransporterName,
			"courseCode":           sc.CourseCode,
			"departureDate":        sc.DepartureDate,
			"departurePlannedTime": sc.DeparturePlannedTime,
			"departureRealTime":    sc.DepartureRealTime,
			"departureDiff":        csvutil.SignedMinutes(records.MinuteDiff(sc.DeparturePlannedTime, sc.DepartureRealTime)),
			"departureDelayName":   sc.DepartureDelayName,
			"departureLoad":        sc.DepartureLoad,
			"departureNote":        sc.DepartureNote,
			"arrivalPlannedTime":   sc.ArrivalPlannedTime,
			"arrivalRealTime":      sc.ArrivalRealTime,
			"arrivalDiff":          csvutil.SignedMinutes(records.MinuteDiff(sc.ArrivalPlannedTime, sc.ArrivalRealTime)),
			"arrivalDelayName":     sc.ArrivalDelayName,
			"arrivalLoad":          sc.ArrivalLoad,
			"arrivalNote":          sc.ArrivalNote,
			"seals":                sc.Seals,
		})
	}

	data, err := csvutil.Render(rows, exportColumns)
	if err != nil {
		return nil, "", err
	}
	return data, csvutil.ExportFilename("kurzy", time.Now()), nil
}
