package auth

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"shopkart_back_end/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

type AccessClaims struct {
	UserID   string      `json:"_id"`
	Email    string      `json:"email"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	UserID string `json:"_id"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessID     string
}

// Issuer signs and parses HS256 access and refresh tokens.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	now           func() time.Time
}

func NewIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

func (i *Issuer) registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := i.now()
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (i *Issuer) Issue(u *models.User) (TokenPair, error) {
	id := u.ID.Hex()
	access := AccessClaims{
		UserID:           id,
		Email:            u.Email,
		Username:         u.Username,
		Role:             u.Role,
		RegisteredClaims: i.registered(id, i.AccessTTL),
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, access).SignedString(i.accessSecret)
	if err != nil {
		return TokenPair{}, errors.Wrap(err, "sign access token")
	}

	refresh := RefreshClaims{UserID: id, RegisteredClaims: i.registered(id, i.RefreshTTL)}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refresh).SignedString(i.refreshSecret)
	if err != nil {
		return TokenPair{}, errors.Wrap(err, "sign refresh token")
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken, AccessID: access.ID}, nil
}

func (i *Issuer) ParseAccess(token string) (*AccessClaims, error) {
	var claims AccessClaims
	if err := i.parse(token, i.accessSecret, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

func (i *Issuer) ParseRefresh(token string) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := i.parse(token, i.refreshSecret, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

func (i *Issuer) parse(token string, secret []byte, claims jwt.Claims) error {
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		return errors.Wrap(ErrInvalidToken, err.Error())
	}
	return nil
}
