package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jkovarik/dispecink-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapRoleName(t *testing.T) {
	tests := []struct {
		dn   string
		want string
	}{
		{"cn=dhl_dispecink,ou=groups,o=cp", "dispecink"},
		{"cn=dhl_dispecink_admin,ou=groups,o=cp", "dispecink_admin"},
		{"cn=dhl_reglogistika", "reglogistika"},
		{"cn=other_group,ou=groups", "other_group"},
		{"garbage", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MapRoleName(tt.dn), "dn %q", tt.dn)
	}
}

func writeTestJWKS(t *testing.T, key *rsa.PrivateKey, kid string) string {
	t.Helper()

	doc := map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": kid,
			"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
		}},
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "jwks.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))
	return path
}

func signIDToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestJWKSVerifier(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	path := writeTestJWKS(t, key, "k1")
	verifier, err := NewJWKSVerifier(path, "dispecink-web")
	require.NoError(t, err)

	idToken := signIDToken(t, key, "k1", jwt.MapClaims{
		"uid":       "u1",
		"givenName": "Jan",
		"sn":        "Dvořák",
		"nsRole":    []string{"cn=dhl_dispecink,ou=groups,o=cp"},
		"aud":       "dispecink-web",
		"exp":       time.Now().Add(time.Minute).Unix(),
	})

	claims, err := verifier.Verify(context.Background(), idToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UID)
	assert.Equal(t, "Jan", claims.GivenName)
	assert.Equal(t, "Dvořák", claims.Surname)
	assert.Equal(t, []string{"cn=dhl_dispecink,ou=groups,o=cp"}, claims.NSRoles)
}

func TestJWKSVerifierRejections(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	path := writeTestJWKS(t, key, "k1")
	verifier, err := NewJWKSVerifier(path, "dispecink-web")
	require.NoError(t, err)

	t.Run("wrong audience", func(t *testing.T) {
		idToken := signIDToken(t, key, "k1", jwt.MapClaims{
			"uid": "u1",
			"aud": "someone-else",
			"exp": time.Now().Add(time.Minute).Unix(),
		})
		_, err := verifier.Verify(context.Background(), idToken)
		require.Error(t, err)
		assert.Equal(t, errors.CodeUnauthorized, errors.As(err).Code())
	})

	t.Run("unknown kid", func(t *testing.T) {
		idToken := signIDToken(t, key, "k2", jwt.MapClaims{
			"uid": "u1",
			"aud": "dispecink-web",
			"exp": time.Now().Add(time.Minute).Unix(),
		})
		_, err := verifier.Verify(context.Background(), idToken)
		require.Error(t, err)
	})

	t.Run("foreign key", func(t *testing.T) {
		otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		idToken := signIDToken(t, otherKey, "k1", jwt.MapClaims{
			"uid": "u1",
			"aud": "dispecink-web",
			"exp": time.Now().Add(time.Minute).Unix(),
		})
		_, err = verifier.Verify(context.Background(), idToken)
		require.Error(t, err)
	})

	t.Run("missing uid", func(t *testing.T) {
		idToken := signIDToken(t, key, "k1", jwt.MapClaims{
			"aud": "dispecink-web",
			"exp": time.Now().Add(time.Minute).Unix(),
		})
		_, err := verifier.Verify(context.Background(), idToken)
		require.Error(t, err)
	})
}
