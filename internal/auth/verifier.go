package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jkovarik/dispecink-backend/pkg/errors"
)

// IDClaims is the directory identity carried in the upstream id token.
type IDClaims struct {
	UID       string   `json:"uid"`
	GivenName string   `json:"givenName"`
	Surname   string   `json:"sn"`
	NSRoles   []string `json:"nsRole"`
	jwt.RegisteredClaims
}

// Verifier validates upstream id tokens.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (*IDClaims, error)
}

// JWKSVerifier checks id token signatures against a local JWKS file.
type JWKSVerifier struct {
	keys     map[string]*rsa.PublicKey
	audience string
}

type jwksDocument struct {
	Keys []jwksKey `json:"keys"`
}

type jwksKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// NewJWKSVerifier loads RSA keys from the JWKS file at path. The token
// audience must match the registered client id.
func NewJWKSVerifier(path, audience string) (*JWKSVerifier, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading jwks file: %w", err)
	}

	var doc jwksDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing jwks file: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" {
			continue
		}
		pub, err := k.publicKey()
		if err != nil {
			return nil, fmt.Errorf("jwks key %q: %w", k.Kid, err)
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("jwks file %s holds no usable RSA keys", path)
	}

	return &JWKSVerifier{keys: keys, audience: audience}, nil
}

func (k jwksKey) publicKey() (*rsa.PublicKey, error) {
	n, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decoding modulus: %w", err)
	}
	e, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decoding exponent: %w", err)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(n),
		E: int(new(big.Int).SetBytes(e).Int64()),
	}, nil
}

func (v *JWKSVerifier) Verify(_ context.Context, idToken string) (*IDClaims, error) {
	claims := &IDClaims{}
	_, err := jwt.ParseWithClaims(
		idToken,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			kid, _ := token.Header["kid"].(string)
			key, ok := v.keys[kid]
			if !ok {
				return nil, fmt.Errorf("unknown key id %q", kid)
			}
			return key, nil
		},
		jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}),
		jwt.WithAudience(v.audience),
	)
	if err != nil {
		return nil, errors.Wrap(errors.CodeUnauthorized, err, "invalid id token")
	}
	if claims.UID == "" {
		return nil, errors.New(errors.CodeUnauthorized, "id token carries no uid")
	}
	return claims, nil
}

// MapRoleName extracts the application role from a directory DN, e.g.
// "cn=dhl_dispecink,ou=groups,o=cp" becomes "dispecink". Unparseable DNs
// map to the empty string and are dropped by the caller.
func MapRoleName(dn string) string {
	first := strings.SplitN(dn, ",", 2)[0]
	parts := strings.SplitN(first, "=", 2)
	if len(parts) != 2 {
		return ""
	}
	return strings.Replace(parts[1], "dhl_", "", 1)
}
