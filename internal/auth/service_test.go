package auth

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	pkgauth "github.com/jkovarik/dispecink-backend/pkg/auth"
	"github.com/jkovarik/dispecink-backend/pkg/config"
	"github.com/jkovarik/dispecink-backend/pkg/db"
	"github.com/jkovarik/dispecink-backend/pkg/db/models"
	"github.com/jkovarik/dispecink-backend/pkg/errors"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDBSeq atomic.Int64

type stubExchanger struct {
	tokens   *TokenSet
	err      error
	lastCode string
	refresh  string
}

func (e *stubExchanger) ExchangeCode(ctx context.Context, code string) (*TokenSet, error) {
	e.lastCode = code
	return e.tokens, e.err
}

func (e *stubExchanger) ExchangeRefresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	e.refresh = refreshToken
	return e.tokens, e.err
}

type stubVerifier struct {
	claims *IDClaims
	err    error
}

func (v *stubVerifier) Verify(ctx context.Context, idToken string) (*IDClaims, error) {
	return v.claims, v.err
}

type stubSessions struct {
	registered []string
	revoked    []string
}

func (s *stubSessions) Register(ctx context.Context, jti string) error {
	s.registered = append(s.registered, jti)
	return nil
}

func (s *stubSessions) Revoke(ctx context.Context, jti string) error {
	s.revoked = append(s.revoked, jti)
	return nil
}

func testAuthConfig() config.Auth {
	return config.Auth{
		JWTSecret:      "test-secret",
		JWTIssuer:      "dispecink",
		AccessTokenTTL: 15 * time.Minute,
	}
}

func newAuthTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:auth_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}, &models.UserLocation{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return conn
}

func newAuthService(t *testing.T, ex *stubExchanger, ver *stubVerifier, cfg config.Auth) (*Service, *gorm.DB, *stubSessions) {
	t.Helper()

	conn := newAuthTestDB(t)
	sessions := &stubSessions{}
	svc := NewService(db.FromConn(conn), ex, ver, sessions, cfg, config.ESB{
		LoginURL:    "https://login.example.test/oauth/authorize",
		ClientID:    "dispecink-web",
		RedirectURI: "https://app.example.test/callback",
	})
	return svc, conn, sessions
}

func validTokenSet() *TokenSet {
	return &TokenSet{
		IDToken:      "id-token",
		RefreshToken: "refresh-token",
		ExpiresIn:    600,
	}
}

func directorClaims() *IDClaims {
	return &IDClaims{
		UID:       "u1",
		GivenName: "Jan",
		Surname:   "Dvořák",
		NSRoles: []string{
			"cn=dhl_dispecink,ou=groups,o=cp",
			"cn=unrelated",
		},
	}
}

func TestLoginURL(t *testing.T) {
	svc, _, _ := newAuthService(t, &stubExchanger{}, &stubVerifier{}, testAuthConfig())

	url := svc.LoginURL()
	assert.Contains(t, url, "client_id=dispecink-web")
	assert.Contains(t, url, "response_type=code")
	assert.Contains(t, url, "redirect_uri=https%3A%2F%2Fapp.example.test%2Fcallback")
}

func TestLoginWithCodeUpsertsAndMints(t *testing.T) {
	ex := &stubExchanger{tokens: validTokenSet()}
	ver := &stubVerifier{claims: directorClaims()}
	cfg := testAuthConfig()
	svc, conn, sessions := newAuthService(t, ex, ver, cfg)
	ctx := context.Background()

	// grant under a role the user no longer holds must not surface
	require.NoError(t, conn.Create(&models.User{ID: "u1", GivenName: "Old", Surname: "Name", FullName: "Old Name", Roles: pq.StringArray{"reglogistika"}}).Error)
	require.NoError(t, conn.Create(&models.UserLocation{UserID: "u1", LocationID: "L1", Role: "dispecink"}).Error)
	require.NoError(t, conn.Create(&models.UserLocation{UserID: "u1", LocationID: "L2", Role: "reglogistika"}).Error)

	sess, err := svc.Login(ctx, "abc", "")
	require.NoError(t, err)
	assert.Equal(t, "abc", ex.lastCode)

	assert.Equal(t, "u1", sess.User.ID)
	assert.Equal(t, "Jan Dvořák", sess.User.FullName)
	assert.Equal(t, []string{"dispecink"}, sess.User.Roles)
	assert.Equal(t, map[string][]string{"dispecink": {"L1"}}, sess.User.Locations)
	assert.Equal(t, "refresh-token", sess.RefreshToken)
	assert.Equal(t, 10*time.Minute, sess.ExpiresIn)

	var stored models.User
	require.NoError(t, conn.Where("id = ?", "u1").Take(&stored).Error)
	assert.Equal(t, "Jan", stored.GivenName)
	assert.Equal(t, []string{"dispecink"}, []string(stored.Roles))

	claims, err := pkgauth.ParseAccessToken(cfg, sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, []string{"dispecink"}, claims.Roles)
	require.Len(t, sessions.registered, 1)
	assert.Equal(t, sess.JTI, sessions.registered[0])
}

func TestLoginFallsBackToRefreshToken(t *testing.T) {
	ex := &stubExchanger{tokens: validTokenSet()}
	ver := &stubVerifier{claims: directorClaims()}
	svc, _, _ := newAuthService(t, ex, ver, testAuthConfig())

	_, err := svc.Login(context.Background(), "", "stored-rt")
	require.NoError(t, err)
	assert.Equal(t, "stored-rt", ex.refresh)
}

func TestLoginRejections(t *testing.T) {
	t.Run("no credentials", func(t *testing.T) {
		svc, _, _ := newAuthService(t, &stubExchanger{}, &stubVerifier{}, testAuthConfig())
		_, err := svc.Login(context.Background(), "", "")
		require.Error(t, err)
		assert.Equal(t, errors.CodeUnauthorized, errors.As(err).Code())
	})

	t.Run("exchange failure", func(t *testing.T) {
		ex := &stubExchanger{err: errors.New(errors.CodeDependency, "upstream down")}
		svc, _, _ := newAuthService(t, ex, &stubVerifier{}, testAuthConfig())
		_, err := svc.Login(context.Background(), "abc", "")
		require.Error(t, err)
		assert.Equal(t, errors.CodeUnauthorized, errors.As(err).Code())
	})

	t.Run("incomplete token set", func(t *testing.T) {
		ex := &stubExchanger{tokens: &TokenSet{IDToken: "id-token"}}
		svc, _, _ := newAuthService(t, ex, &stubVerifier{}, testAuthConfig())
		_, err := svc.Login(context.Background(), "abc", "")
		require.Error(t, err)
		assert.Equal(t, errors.CodeUnauthorized, errors.As(err).Code())
	})
}

func TestLocalLogin(t *testing.T) {
	cfg := testAuthConfig()
	cfg.LocalLogin = true
	svc, conn, _ := newAuthService(t, &stubExchanger{}, &stubVerifier{}, cfg)
	ctx := context.Background()

	require.NoError(t, conn.Create(&models.User{ID: "u9", GivenName: "Eva", Surname: "Malá", FullName: "Eva Malá", Roles: pq.StringArray{"dispecink"}}).Error)

	sess, err := svc.Login(ctx, "local-u9", "")
	require.NoError(t, err)
	assert.Equal(t, "u9", sess.User.ID)
	assert.Equal(t, "local", sess.RefreshToken)

	_, err = svc.Login(ctx, "local-missing", "")
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.As(err).Code())
}

func TestLocalLoginDisabledGoesUpstream(t *testing.T) {
	ex := &stubExchanger{err: errors.New(errors.CodeDependency, "upstream down")}
	svc, _, _ := newAuthService(t, ex, &stubVerifier{}, testAuthConfig())

	_, err := svc.Login(context.Background(), "local-u9", "")
	require.Error(t, err)
	assert.Equal(t, "local-u9", ex.lastCode)
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, _, sessions := newAuthService(t, &stubExchanger{}, &stubVerifier{}, testAuthConfig())

	require.NoError(t, svc.Logout(context.Background(), "jti-1"))
	assert.Equal(t, []string{"jti-1"}, sessions.revoked)
}
