package records

import (
	"time"

	"gorm.io/gorm"
)

var timeOfDayLayouts = []string{"15:04:05", "15:04"}

func parseTimeOfDay(value string) (time.Time, bool) {
	for _, layout := range timeOfDayLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// MinuteDiff returns real minus planned in whole minutes, nil when either
// side is absent or unparseable.
func MinuteDiff(planned, real *string) *int {
	if planned == nil || real == nil {
		return nil
	}

	p, ok := parseTimeOfDay(*planned)
	if !ok {
		return nil
	}
	r, ok := parseTimeOfDay(*real)
	if !ok {
		return nil
	}

	diff := int(r.Sub(p).Minutes())
	return &diff
}

// ApplyDelay conjoins the delayed/on-time predicate for a planned/real time
// pair. Zero-padded HH:MM strings order lexicographically, so a plain
// comparison decides delay; missing values count as on time.
func ApplyDelay(q *gorm.DB, plannedCol, realCol string, delayed bool) *gorm.DB {
	if delayed {
		return q.Where(plannedCol + " IS NOT NULL AND " + realCol + " IS NOT NULL AND " + realCol + " > " + plannedCol)
	}
	return q.Where(plannedCol + " IS NULL OR " + realCol + " IS NULL OR " + realCol + " <= " + plannedCol)
}
