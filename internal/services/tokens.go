package services

import (
	"errors"
	"time"

	"adventurebuddha/internal/domain"
	"adventurebuddha/internal/domain/models"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// Claims is the payload of access and refresh tokens.
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

// Tokens issues and parses HS256 tokens.
type Tokens struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        clock
}

func (t Tokens) sign(u models.User, typ string, ttl time.Duration) (string, error) {
	now := t.Now.now()
	claims := Claims{
		UserID: u.ID,
		Role:   u.Role,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.Secret)
}

func (t Tokens) Access(u models.User) (string, error) {
	ttl := t.AccessTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return t.sign(u, TokenAccess, ttl)
}

func (t Tokens) Issue(u models.User) (models.TokenPair, error) {
	access, err := t.Access(u)
	if err != nil {
		return models.TokenPair{}, err
	}
	ttl := t.RefreshTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	refresh, err := t.sign(u, TokenRefresh, ttl)
	if err != nil {
		return models.TokenPair{}, err
	}
	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

// Parse validates raw and requires its type claim to equal want.
func (t Tokens) Parse(raw, want string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return t.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.Now.now))
	if err != nil {
		msg := "invalid token"
		if errors.Is(err, jwt.ErrTokenExpired) {
			msg = "token expired"
		}
		return claims, domain.UnauthorizedError{Msg: msg, Err: err}
	}
	if claims.Type != want {
		return claims, domain.UnauthorizedError{Msg: "wrong token type"}
	}
	if claims.UserID <= 0 {
		return claims, domain.UnauthorizedError{Msg: "invalid token"}
	}
	return claims, nil
}
