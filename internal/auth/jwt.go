package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// Token types carried in the token_type claim
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrInvalidToken   = errors.New("token is invalid or expired")
	ErrWrongTokenType = errors.New("token has wrong type")
)

// Subject is the identity a token is issued for
type Subject struct {
	UserID   string
	Username string
	Email    string
	Role     string // backend slug, e.g. head_cook
}

// JWTClaims represents the JWT token claims
type JWTClaims struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// IssuedToken is a signed token with its id and expiry
type IssuedToken struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
}

// Issuer signs and validates HS256 access and refresh tokens
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewIssuer creates a token issuer
func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret not initialized")
	}
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// SetClock overrides the time source
func (i *Issuer) SetClock(now func() time.Time) {
	i.now = now
}

// IssueAccess creates a short-lived access token
func (i *Issuer) IssueAccess(sub Subject) (*IssuedToken, error) {
	return i.issue(sub, TokenTypeAccess, i.accessTTL)
}

// IssueRefresh creates a refresh token. Its JTI is tracked so it can be revoked.
func (i *Issuer) IssueRefresh(sub Subject) (*IssuedToken, error) {
	return i.issue(sub, TokenTypeRefresh, i.refreshTTL)
}

func (i *Issuer) issue(sub Subject, tokenType string, ttl time.Duration) (*IssuedToken, error) {
	now := i.now()
	jti := ulid.Make().String()
	expiresAt := now.Add(ttl)

	claims := JWTClaims{
		UserID:    sub.UserID,
		Username:  sub.Username,
		Email:     sub.Email,
		Role:      sub.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   sub.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &IssuedToken{Token: token, JTI: jti, ExpiresAt: expiresAt}, nil
}

// ValidateAccess validates an access token and returns its claims
func (i *Issuer) ValidateAccess(tokenString string) (*JWTClaims, error) {
	return i.validate(tokenString, TokenTypeAccess)
}

// ValidateRefresh validates a refresh token's signature and expiry.
// Revocation is checked by the caller against the refresh_tokens table.
func (i *Issuer) ValidateRefresh(tokenString string) (*JWTClaims, error) {
	return i.validate(tokenString, TokenTypeRefresh)
}

func (i *Issuer) validate(tokenString, tokenType string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != tokenType {
		return nil, ErrWrongTokenType
	}

	return claims, nil
}
