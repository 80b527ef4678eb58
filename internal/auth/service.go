package auth

import (
	"context"
	stdErrors "errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	pkgauth "github.com/jkovarik/dispecink-backend/pkg/auth"
	"github.com/jkovarik/dispecink-backend/pkg/config"
	"github.com/jkovarik/dispecink-backend/pkg/db"
	"github.com/jkovarik/dispecink-backend/pkg/db/models"
	"github.com/jkovarik/dispecink-backend/pkg/errors"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const localCodePrefix = "local-"

const localSessionTTL = 365 * 24 * time.Hour

type tokenExchanger interface {
	ExchangeCode(ctx context.Context, code string) (*TokenSet, error)
	ExchangeRefresh(ctx context.Context, refreshToken string) (*TokenSet, error)
}

type sessionRegistry interface {
	Register(ctx context.Context, jti string) error
	Revoke(ctx context.Context, jti string) error
}

// UserInfo is the authenticated identity returned to the client.
type UserInfo struct {
	ID        string              `json:"id"`
	GivenName string              `json:"givenName"`
	Surname   string              `json:"surname"`
	FullName  string              `json:"fullName"`
	Roles     []string            `json:"roles"`
	Locations map[string][]string `json:"locations"`
}

// Session is a freshly established login.
type Session struct {
	User         UserInfo
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
	JTI          string
}

// Service drives the web login flow: code or refresh exchange against
// the upstream, user upsert, grant projection and token minting.
type Service struct {
	db        *db.Client
	exchanger tokenExchanger
	verifier  Verifier
	sessions  sessionRegistry
	cfg       config.Auth
	loginURL  string
	clientID  string
	redirect  string
	now       func() time.Time
}

func NewService(client *db.Client, ex tokenExchanger, ver Verifier, sessions sessionRegistry, authCfg config.Auth, esbCfg config.ESB) *Service {
	return &Service{
		db:        client,
		exchanger: ex,
		verifier:  ver,
		sessions:  sessions,
		cfg:       authCfg,
		loginURL:  esbCfg.LoginURL,
		clientID:  esbCfg.ClientID,
		redirect:  esbCfg.RedirectURI,
		now:       time.Now,
	}
}

// LoginURL builds the upstream authorization endpoint the browser is
// redirected to.
func (s *Service) LoginURL() string {
	u, err := url.Parse(s.loginURL)
	if err != nil {
		return s.loginURL
	}

	q := u.Query()
	q.Set("client_id", s.clientID)
	q.Set("redirect_uri", s.redirect)
	q.Set("response_type", "code")
	u.RawQuery = q.Encode()
	return u.String()
}

// Login establishes a session from an authorization code or, when the
// code is absent, from the stored refresh token. Any upstream rejection
// reads as Unauthorized.
func (s *Service) Login(ctx context.Context, code, refreshToken string) (*Session, error) {
	if s.cfg.LocalLogin && strings.HasPrefix(code, localCodePrefix) {
		return s.localLogin(ctx, strings.TrimPrefix(code, localCodePrefix))
	}

	var (
		tokens *TokenSet
		err    error
	)
	switch {
	case code != "":
		tokens, err = s.exchanger.ExchangeCode(ctx, code)
	case refreshToken != "":
		tokens, err = s.exchanger.ExchangeRefresh(ctx, refreshToken)
	default:
		return nil, errors.New(errors.CodeUnauthorized, "no credentials presented")
	}
	if err != nil {
		return nil, errors.Wrap(errors.CodeUnauthorized, err, "token exchange rejected")
	}
	if tokens.IDToken == "" || tokens.RefreshToken == "" {
		return nil, errors.New(errors.CodeUnauthorized, "incomplete token set")
	}

	claims, err := s.verifier.Verify(ctx, tokens.IDToken)
	if err != nil {
		return nil, err
	}

	roles := make([]string, 0, len(claims.NSRoles))
	for _, dn := range claims.NSRoles {
		if role := MapRoleName(dn); role != "" {
			roles = append(roles, role)
		}
	}

	user, err := s.upsertUser(ctx, claims.UID, claims.GivenName, claims.Surname, roles)
	if err != nil {
		return nil, err
	}

	ttl := s.cfg.AccessTokenTTL
	if tokens.ExpiresIn > 0 {
		ttl = time.Duration(tokens.ExpiresIn) * time.Second
	}
	return s.establish(ctx, user, tokens.RefreshToken, ttl)
}

// localLogin loads an existing user directly, without the upstream. Only
// reachable behind the development flag.
func (s *Service) localLogin(ctx context.Context, userID string) (*Session, error) {
	var user models.User
	err := s.db.DB().WithContext(ctx).
		Where("id = ?", userID).
		Take(&user).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "user not found")
		}
		return nil, err
	}
	return s.establish(ctx, &user, "local", localSessionTTL)
}

// Logout revokes the session behind the presented token.
func (s *Service) Logout(ctx context.Context, jti string) error {
	return s.sessions.Revoke(ctx, jti)
}

func (s *Service) upsertUser(ctx context.Context, id, givenName, surname string, roles []string) (*models.User, error) {
	if id == "" {
		return nil, errors.New(errors.CodeUnauthorized, "identity carries no user id")
	}

	user := models.User{
		ID:        id,
		GivenName: givenName,
		Surname:   surname,
		FullName:  strings.TrimSpace(givenName + " " + surname),
		Roles:     pq.StringArray(roles),
	}
	if user.Roles == nil {
		user.Roles = pq.StringArray{}
	}

	err := s.db.DB().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"given_name", "surname", "full_name", "roles", "updated_at"}),
		}).
		Create(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// grantsFor projects the user's location grants, keeping only roles the
// user currently holds.
func (s *Service) grantsFor(ctx context.Context, user *models.User) (map[string][]string, error) {
	var grants []models.UserLocation
	err := s.db.DB().WithContext(ctx).
		Where("user_id = ?", user.ID).
		Order("role asc, location_id asc").
		Find(&grants).Error
	if err != nil {
		return nil, err
	}

	held := make(map[string]bool, len(user.Roles))
	for _, role := range user.Roles {
		held[role] = true
	}

	locations := map[string][]string{}
	for _, g := range grants {
		if held[g.Role] {
			locations[g.Role] = append(locations[g.Role], g.LocationID)
		}
	}
	return locations, nil
}

func (s *Service) establish(ctx context.Context, user *models.User, refreshToken string, ttl time.Duration) (*Session, error) {
	locations, err := s.grantsFor(ctx, user)
	if err != nil {
		return nil, err
	}

	roles := []string(user.Roles)
	jti := uuid.NewString()
	accessToken, err := pkgauth.MintAccessToken(s.cfg, s.now(), ttl, pkgauth.TokenPayload{
		UserID:    user.ID,
		GivenName: user.GivenName,
		Surname:   user.Surname,
		FullName:  user.FullName,
		Roles:     roles,
		Locations: locations,
		JTI:       jti,
	})
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Register(ctx, jti); err != nil {
		return nil, err
	}

	return &Session{
		User: UserInfo{
			ID:        user.ID,
			GivenName: user.GivenName,
			Surname:   user.Surname,
			FullName:  user.FullName,
			Roles:     roles,
			Locations: locations,
		},
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    ttl,
		JTI:          jti,
	}, nil
}
