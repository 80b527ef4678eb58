package records

import (
	"github.com/jkovarik/dispecink-backend/internal/identity"
	"gorm.io/gorm"
)

// Scope is the ownership predicate of one principal under one role. Admins
// see everything; everyone else is restricted to their granted locations.
// The location list always carries the unmatchable sentinel when empty.
type Scope struct {
	Admin     bool
	Locations []string
}

func ScopeFor(p *identity.Principal, role string) Scope {
	return Scope{
		Admin:     p.IsAdminOf(role),
		Locations: p.GrantedLocations(role),
	}
}

// Where conjoins the ownership predicate onto a query for the given
// location column.
func (s Scope) Where(q *gorm.DB, column string) *gorm.DB {
	if s.Admin {
		return q
	}
	return q.Where(column+" IN ?", s.Locations)
}
