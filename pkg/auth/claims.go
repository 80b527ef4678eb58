package auth

import "github.com/golang-jwt/jwt/v5"

// AccessTokenClaims is the typed JWT issued to web clients. The location map
// carries per-role grants so handlers never hit the database for
// authorization.
type AccessTokenClaims struct {
	GivenName string              `json:"givenName"`
	Surname   string              `json:"surname"`
	FullName  string              `json:"fullName"`
	Roles     []string            `json:"roles"`
	Locations map[string][]string `json:"locations"`
	jwt.RegisteredClaims
}
