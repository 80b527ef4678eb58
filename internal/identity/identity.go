package identity

import "strings"

const adminRoleSuffix = "_admin"

// Application roles. Holding "<role>_admin" grants admin powers over the
// base role.
const (
	RoleDispecink    = "dispecink"
	RoleRegLogistika = "reglogistika"
)

// Principal is the authenticated caller reconstructed from token claims.
// Locations maps a role to the location ids granted under it.
type Principal struct {
	ID        string
	GivenName string
	Surname   string
	FullName  string
	Roles     []string
	Locations map[string][]string
	AdminOf   []string
	IsAdmin   bool
}

// New derives the admin projection from the raw role list.
func New(id, givenName, surname, fullName string, roles []string, locations map[string][]string) *Principal {
	if fullName == "" {
		fullName = givenName + " " + surname
	}
	if locations == nil {
		locations = map[string][]string{}
	}

	var adminOf []string
	for _, role := range roles {
		if IsAdminRole(role) {
			adminOf = append(adminOf, ToNormalRole(role))
		}
	}

	return &Principal{
		ID:        id,
		GivenName: givenName,
		Surname:   surname,
		FullName:  fullName,
		Roles:     roles,
		Locations: locations,
		AdminOf:   adminOf,
		IsAdmin:   len(adminOf) > 0,
	}
}

func IsAdminRole(role string) bool {
	return strings.HasSuffix(role, adminRoleSuffix)
}

func ToNormalRole(role string) string {
	return strings.ReplaceAll(role, adminRoleSuffix, "")
}

// CanUseLocation reports whether the principal may write records owned by
// the location under the given role. Admins of the role bypass grants.
func (p *Principal) CanUseLocation(role, locationID string) bool {
	if p.IsAdminOf(role) {
		return true
	}
	return p.hasPlainRole(role) && contains(p.Locations[role], locationID)
}

// CanUseAnyLocation reports whether the principal holds the role with at
// least one location grant.
func (p *Principal) CanUseAnyLocation(role string) bool {
	if p.IsAdminOf(role) {
		return true
	}
	return p.hasPlainRole(role) && len(p.Locations[role]) > 0
}

func (p *Principal) IsAdminOf(role string) bool {
	return contains(p.AdminOf, role)
}

// HasRole matches by prefix so both "dispecink" and "dispecink_admin"
// satisfy HasRole("dispecink").
func (p *Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if strings.HasPrefix(r, role) {
			return true
		}
	}
	return false
}

func (p *Principal) HasLocation(role, locationID string) bool {
	return contains(p.Locations[role], locationID)
}

func (p *Principal) hasPlainRole(role string) bool {
	return contains(p.Roles, role)
}

// GrantedLocations returns the grants for a role with a single empty-string
// sentinel when none exist, keeping IN predicates well formed and
// unmatchable.
func (p *Principal) GrantedLocations(role string) []string {
	granted := p.Locations[role]
	if len(granted) == 0 {
		return []string{""}
	}
	return granted
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
