// Package token signs and verifies the two JWT kinds the platform issues:
// short-lived access tokens and long-lived refresh tokens. The codec is a
// stateless cryptographic primitive; session state lives elsewhere.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/skillsync/skillsync-server/internal/config"
)

// Kind discriminates the two token types carried in the "type" claim.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Payload is the structured claim set carried by both token kinds.
// TokenID (jti) is unique per token; SessionID and Family persist across
// rotations within one login.
type Payload struct {
	UserID    string
	Email     string
	SessionID string
	Family    string
	TokenID   string
	Kind      Kind
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type sessionClaims struct {
	Email     string `json:"email"`
	SessionID string `json:"sid"`
	Family    string `json:"family"`
	Type      string `json:"type"`
	jwt.RegisteredClaims
}

// Codec signs and verifies tokens with HS256. Access and refresh tokens
// use separate secrets so one kind can never pass as the other.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	nowFunc       func() time.Time
}

type CodecOption func(*Codec)

// WithNowFunc overrides the codec clock (primarily for testing).
func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

func NewCodec(cfg config.AuthConfig, options ...CodecOption) (*Codec, error) {
	if cfg.GetAccessTokenSecret() == "" || cfg.GetRefreshTokenSecret() == "" {
		return nil, errors.New("[NewCodec] access and refresh secrets are required")
	}

	c := &Codec{
		accessSecret:  []byte(cfg.GetAccessTokenSecret()),
		refreshSecret: []byte(cfg.GetRefreshTokenSecret()),
		issuer:        cfg.GetIssuer(),
		accessExpiry:  cfg.GetAccessTokenExpiry(),
		refreshExpiry: cfg.GetRefreshTokenExpiry(),
		nowFunc:       time.Now,
	}

	for _, opt := range options {
		opt(c)
	}

	return c, nil
}

// AccessExpiry reports how long freshly signed access tokens live.
func (c *Codec) AccessExpiry() time.Duration {
	return c.accessExpiry
}

// RefreshExpiry reports how long freshly signed refresh tokens live.
func (c *Codec) RefreshExpiry() time.Duration {
	return c.refreshExpiry
}

// SignAccess signs an access token for the payload identity. The payload's
// Kind, IssuedAt and ExpiresAt fields are ignored and derived here.
func (c *Codec) SignAccess(p Payload) (string, error) {
	return c.sign(p, KindAccess, c.accessSecret, c.accessExpiry)
}

// SignRefresh signs a refresh token for the payload identity.
func (c *Codec) SignRefresh(p Payload) (string, error) {
	return c.sign(p, KindRefresh, c.refreshSecret, c.refreshExpiry)
}

func (c *Codec) sign(p Payload, kind Kind, secret []byte, expiry time.Duration) (string, error) {
	now := c.nowFunc()
	claims := sessionClaims{
		Email:     p.Email,
		SessionID: p.SessionID,
		Family:    p.Family,
		Type:      string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   p.UserID,
			ID:        p.TokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", errors.Wrap(err, "[Codec.sign] SignedString")
	}
	return signed, nil
}

// VerifyAccess verifies the signature and expiry of an access token and
// returns its payload.
func (c *Codec) VerifyAccess(raw string) (*Payload, error) {
	return c.verify(raw, c.accessSecret)
}

// VerifyRefresh verifies the signature and expiry of a refresh token and
// returns its payload. Callers are expected to check Kind, as a payload of
// the wrong type is still reported rather than rejected here.
func (c *Codec) VerifyRefresh(raw string) (*Payload, error) {
	return c.verify(raw, c.refreshSecret)
}

func (c *Codec) verify(raw string, secret []byte) (*Payload, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.nowFunc),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[Codec.verify] ParseWithClaims")
	}
	if !parsed.Valid {
		return nil, errors.New("[Codec.verify] token is not valid")
	}

	p := &Payload{
		UserID:    claims.Subject,
		Email:     claims.Email,
		SessionID: claims.SessionID,
		Family:    claims.Family,
		TokenID:   claims.ID,
		Kind:      Kind(claims.Type),
	}
	if claims.IssuedAt != nil {
		p.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}
