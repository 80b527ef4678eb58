package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jkovarik/dispecink-backend/internal/esb"
	"github.com/jkovarik/dispecink-backend/pkg/config"
	"github.com/jkovarik/dispecink-backend/pkg/errors"
)

const (
	accessTokenPath  = "/authservice/api/v1/oauth/accessToken"
	refreshTokenPath = "/authservice/api/v1/oauth/refreshToken"
)

// TokenSet is the upstream auth service reply.
type TokenSet struct {
	AccessToken  string `json:"accessToken"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
	Scope        string `json:"scope"`
}

type busClient interface {
	Get(ctx context.Context, path string, headers map[string]string) (*esb.Response, error)
}

// Exchanger trades authorization codes and refresh tokens for token sets
// at the bus auth service. Credentials ride in headers, as the upstream
// expects.
type Exchanger struct {
	bus       busClient
	clientID  string
	secret    string
	redirect  string
	sourceSys string
}

func NewExchanger(bus busClient, cfg config.ESB, sourceSys string) *Exchanger {
	return &Exchanger{
		bus:       bus,
		clientID:  cfg.ClientID,
		secret:    cfg.ClientSecret,
		redirect:  cfg.RedirectURI,
		sourceSys: sourceSys,
	}
}

// ExchangeCode trades an authorization code for a token set.
func (e *Exchanger) ExchangeCode(ctx context.Context, code string) (*TokenSet, error) {
	return e.exchange(ctx, accessTokenPath, "code", code)
}

// ExchangeRefresh trades a refresh token for a fresh token set.
func (e *Exchanger) ExchangeRefresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	return e.exchange(ctx, refreshTokenPath, "refreshToken", refreshToken)
}

func (e *Exchanger) exchange(ctx context.Context, path, grantHeader, grantValue string) (*TokenSet, error) {
	headers := map[string]string{
		"x-request-id": uuid.NewString(),
		"clientId":     e.clientID,
		"clientSecret": e.secret,
		"sourceSys":    e.sourceSys,
		"redirectUrl":  e.redirect,
		grantHeader:    grantValue,
	}

	res, err := e.bus.Get(ctx, path, headers)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, errors.New(errors.CodeDependency, fmt.Sprintf("token exchange returned status %d", res.StatusCode))
	}

	var tokens TokenSet
	if err := json.Unmarshal(res.Body, &tokens); err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "decoding token exchange response")
	}
	return &tokens, nil
}
