package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// DefaultTTL is how long a minted token stays valid.
const DefaultTTL = 5 * time.Minute

// Claims carried by chainview bearer tokens.
type Claims struct {
	Client string `json:"client"`
	jwt.RegisteredClaims
}

// TokenSource mints HS256 bearer tokens from a shared secret.
type TokenSource struct {
	secret  []byte
	subject string
	ttl     time.Duration
	now     func() time.Time
}

// NewTokenSource returns nil when secret is empty, so callers can skip auth.
func NewTokenSource(secret, subject string) *TokenSource {
	if secret == "" {
		return nil
	}
	return &TokenSource{secret: []byte(secret), subject: subject, ttl: DefaultTTL, now: time.Now}
}

// WithTTL returns a copy of s whose tokens live for ttl.
func (s *TokenSource) WithTTL(ttl time.Duration) *TokenSource {
	c := *s
	c.ttl = ttl
	return &c
}

// Token mints a fresh token.
func (s *TokenSource) Token() (string, error) {
	now := s.now()
	claims := Claims{
		Client: "chainview",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "signing bearer token")
	}
	return signed, nil
}

// Verify parses a token minted with the same secret.
func Verify(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, errors.Wrap(err, "invalid bearer token")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid bearer token claims")
	}
	return claims, nil
}
