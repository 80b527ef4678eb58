package records

import (
	"strings"
	"time"

	"github.com/jkovarik/dispecink-backend/pkg/errors"
	"github.com/jkovarik/dispecink-backend/pkg/paginate"
	"gorm.io/gorm"
)

// TimeRange is the two-element [from, to] filter tuple used across modules.
// Either bound may be absent.
type TimeRange [2]*string

// ApplyTimeRange conjoins inclusive bounds onto a timestamp column.
// Malformed bounds are validation errors.
func ApplyTimeRange(q *gorm.DB, column string, rng *TimeRange) (*gorm.DB, error) {
	if rng == nil {
		return q, nil
	}

	if from := rng[0]; from != nil && *from != "" {
		t, err := time.Parse(time.RFC3339, *from)
		if err != nil {
			return nil, errors.Wrap(errors.CodeValidation, err, "malformed range start")
		}
		q = q.Where(column+" >= ?", t)
	}
	if to := rng[1]; to != nil && *to != "" {
		t, err := time.Parse(time.RFC3339, *to)
		if err != nil {
			return nil, errors.Wrap(errors.CodeValidation, err, "malformed range end")
		}
		q = q.Where(column+" <= ?", t)
	}
	return q, nil
}

// ApplyDateRange conjoins inclusive bounds onto a textual ISO date column.
// Datetime bounds are truncated to their date part; ISO dates compare
// correctly as strings.
func ApplyDateRange(q *gorm.DB, column string, rng *TimeRange) (*gorm.DB, error) {
	if rng == nil {
		return q, nil
	}

	if from := rng[0]; from != nil && *from != "" {
		d, err := toISODate(*from)
		if err != nil {
			return nil, err
		}
		q = q.Where(column+" >= ?", d)
	}
	if to := rng[1]; to != nil && *to != "" {
		d, err := toISODate(*to)
		if err != nil {
			return nil, err
		}
		q = q.Where(column+" <= ?", d)
	}
	return q, nil
}

func toISODate(value string) (string, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.Format("2006-01-02"), nil
	}
	if _, err := time.Parse("2006-01-02", value); err == nil {
		return value, nil
	}
	return "", errors.New(errors.CodeValidation, "malformed date bound")
}

// ApplyIn conjoins an IN predicate when values are present.
func ApplyIn[T any](q *gorm.DB, column string, values []T) *gorm.DB {
	if len(values) == 0 {
		return q
	}
	return q.Where(column+" IN ?", values)
}

// ApplySearch conjoins an accent-insensitive substring match over the given
// columns. Postgres folds accents through the unaccent extension; other
// dialects get a case-insensitive LIKE without accent folding.
func ApplySearch(q *gorm.DB, search string, columns ...string) *gorm.DB {
	if search == "" || len(columns) == 0 {
		return q
	}

	unaccented := q.Dialector.Name() == "postgres"
	pattern := "%" + search + "%"
	parts := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		if unaccented {
			parts[i] = "unaccent(" + col + ") ILIKE unaccent(?)"
		} else {
			parts[i] = "LOWER(" + col + ") LIKE LOWER(?)"
		}
		args[i] = pattern
	}
	return q.Where(strings.Join(parts, " OR "), args...)
}

// ApplyPage applies limit and offset from the find parameters.
func ApplyPage(q *gorm.DB, find paginate.Find) *gorm.DB {
	if find.Limit > 0 {
		q = q.Limit(find.Limit)
	}
	if find.Offset > 0 {
		q = q.Offset(find.Offset)
	}
	return q
}
