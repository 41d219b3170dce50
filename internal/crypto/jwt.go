package crypto

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer   = "socio"
	tokenAudience = "socio-api"

	expiryLeeway = time.Second
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims represents the JWT claims carried by an access token.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

// Identity is the subject asserted by a verified token.
type Identity struct {
	UserID int64
	Email  string
}

// TokenService issues and verifies HS256 access tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService signing with secret; issued tokens live for ttl.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns the lifetime of tokens produced by Issue.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue creates a signed token for the subject using the configured ttl.
func (s *TokenService) Issue(userID int64, email string) (string, time.Time, error) {
	return s.IssueWithTTL(userID, email, s.ttl)
}

// IssueWithTTL creates a signed token expiring ttl from now and returns it with its expiry.
// JWT dates carry whole seconds, so the issue time is truncated before ttl is added
// and the returned expiry is exactly the one encoded in the token.
func (s *TokenService) IssueWithTTL(userID int64, email string, ttl time.Duration) (string, time.Time, error) {
	now := s.now().Truncate(time.Second)
	expiresAt := jwt.NewNumericDate(now.Add(ttl))
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: expiresAt,
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID,
		Email:  email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt.Time, nil
}

// Verify checks the signature and then the expiry of a token.
// A bad signature or malformed token yields ErrInvalidToken; a well-signed token past its expiry yields ErrExpiredToken.
// The expiry instant itself is still valid: a token expires only once now > exp.
// jwt treats exp as exclusive, so parsing runs with one second of leeway and the
// inclusive bound is enforced here.
func (s *TokenService) Verify(tokenString string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(expiryLeeway),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrExpiredToken
		}
		return Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID <= 0 || claims.ExpiresAt == nil {
		return Identity{}, ErrInvalidToken
	}
	if s.now().After(claims.ExpiresAt.Time) {
		return Identity{}, ErrExpiredToken
	}

	return Identity{UserID: claims.UserID, Email: claims.Email}, nil
}
