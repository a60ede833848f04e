package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

const (
	signingAlg  = "HS256"
	userIDClaim = "user_id"
)

var (
	ErrTokenMalformed        = errors.New("token is malformed")
	ErrTokenInvalidSignature = errors.New("token signature is invalid")
	ErrTokenExpired          = errors.New("token has expired")
)

// TokenConfig is read once at startup and never mutated.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
}

// TokenIssuer mints and verifies HS256 session tokens bound to a user id.
type TokenIssuer struct {
	auth   *jwtauth.JWTAuth
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(cfg TokenConfig) *TokenIssuer {
	return NewTokenIssuerWithClock(cfg, time.Now)
}

func NewTokenIssuerWithClock(cfg TokenConfig, now func() time.Time) *TokenIssuer {
	secret := append([]byte(nil), cfg.Secret...)
	return &TokenIssuer{
		auth:   jwtauth.New(signingAlg, secret, nil),
		secret: secret,
		ttl:    cfg.TTL,
		now:    now,
	}
}

// Issue returns a signed token for userID expiring TTL from now.
func (ti *TokenIssuer) Issue(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("security: empty user id")
	}
	now := ti.now()
	claims := map[string]interface{}{userIDClaim: userID}
	jwtauth.SetIssuedAt(claims, now)
	jwtauth.SetExpiry(claims, now.Add(ti.ttl))

	_, tokenString, err := ti.auth.Encode(claims)
	if err != nil {
		return "", fmt.Errorf("encode token: %w", err)
	}
	return tokenString, nil
}

type sessionClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Verify checks signature and expiry and returns the embedded user id.
// Expiry is strict: a token is rejected once now >= exp.
func (ti *TokenIssuer) Verify(tokenString string) (string, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return ti.secret, nil },
		jwt.WithValidMethods([]string{signingAlg}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ti.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return "", ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", ErrTokenInvalidSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrTokenExpired
		default:
			return "", fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	}
	if claims.UserID == "" {
		return "", fmt.Errorf("%w: %s claim is missing", ErrTokenMalformed, userIDClaim)
	}
	return claims.UserID, nil
}
