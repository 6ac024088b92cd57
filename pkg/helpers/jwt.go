package helpers

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token type claims. Refresh and password-reset tokens carry a "type" claim
// so one kind can never be used where another is expected.
const (
	tokenTypeRefresh       = "refresh"
	tokenTypePasswordReset = "password-reset"
)

const passwordResetTTL = time.Hour

var ErrInvalidToken = errors.New("invalid token")

// JWTManager issues and verifies the access/refresh token pair plus
// single-purpose password-reset tokens. Access and refresh tokens are signed
// with distinct secrets so the long-lived secret can rotate independently;
// when no refresh secret is configured the access secret is used for both.
type JWTManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewJWTManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTManager {
	if refreshSecret == "" {
		refreshSecret = accessSecret
	}
	return &JWTManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// AccessClaims is the full-identity payload of an access token.
// Subject is the user id, ID the per-pair jti.
type AccessClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// typedClaims is the minimized payload of refresh and password-reset tokens.
type typedClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// GeneratePair issues an access/refresh pair sharing a single jti.
func (m *JWTManager) GeneratePair(userID, email, name string) (TokenPair, error) {
	now := time.Now()
	jti := uuid.NewString()

	aexp := now.Add(m.accessTTL)
	access := jwt.NewWithClaims(jwt.SigningMethodHS256, &AccessClaims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(aexp),
		},
	})
	accessStr, err := access.SignedString(m.accessSecret)
	if err != nil {
		return TokenPair{}, err
	}

	rexp := now.Add(m.refreshTTL)
	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, &typedClaims{
		Type: tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(rexp),
		},
	})
	refreshStr, err := refresh.SignedString(m.refreshSecret)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:        accessStr,
		AccessTokenExpiry:  aexp,
		RefreshToken:       refreshStr,
		RefreshTokenExpiry: rexp,
	}, nil
}

// ParseAccessToken verifies signature and expiry and returns the claims.
func (m *JWTManager) ParseAccessToken(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := m.parse(tokenStr, m.accessSecret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseRefreshToken verifies a refresh token and returns its sub and jti.
// A token whose type claim is not "refresh" (e.g. an access token) fails.
func (m *JWTManager) ParseRefreshToken(tokenStr string) (sub, jti string, err error) {
	claims := &typedClaims{}
	if err := m.parse(tokenStr, m.refreshSecret, claims); err != nil {
		return "", "", err
	}
	if claims.Type != tokenTypeRefresh {
		return "", "", ErrInvalidToken
	}
	return claims.Subject, claims.ID, nil
}

// GeneratePasswordResetToken issues a short-lived single-purpose token.
// Reset tokens are signed with the access secret.
func (m *JWTManager) GeneratePasswordResetToken(userID string) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &typedClaims{
		Type: tokenTypePasswordReset,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(passwordResetTTL)),
		},
	})
	return t.SignedString(m.accessSecret)
}

// ParsePasswordResetToken verifies a password-reset token and returns its sub.
func (m *JWTManager) ParsePasswordResetToken(tokenStr string) (string, error) {
	claims := &typedClaims{}
	if err := m.parse(tokenStr, m.accessSecret, claims); err != nil {
		return "", err
	}
	if claims.Type != tokenTypePasswordReset {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (m *JWTManager) parse(tokenStr string, secret []byte, claims jwt.Claims) error {
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return ErrInvalidToken
	}
	if !tkn.Valid {
		return ErrInvalidToken
	}
	return nil
}

// ExtractBearerToken parses an Authorization header value. A missing header
// or any scheme other than Bearer yields ""; callers decide whether absence
// is fatal.
func ExtractBearerToken(header string) string {
	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != "Bearer" {
		return ""
	}
	return token
}
