package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const DefaultTokenTTL = 30 * 24 * time.Hour

var (
	ErrMissingToken = errors.New("missing authorization header")
	ErrInvalidToken = errors.New("invalid token")
)

type Config struct {
	Secret   string
	TokenTTL time.Duration
}

// Claims carried by issued tokens.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 bearer tokens bound to a user email.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func New(config Config) *Tokens {
	ttl := config.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Tokens{secret: []byte(config.Secret), ttl: ttl, now: time.Now}
}

func (t *Tokens) Issue(email string) (string, error) {
	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	})
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify returns the email the token was issued for.
func (t *Tokens) Verify(raw string) (string, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	var claims Claims
	_, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Email == "" {
		return "", fmt.Errorf("%w: missing email", ErrInvalidToken)
	}
	return claims.Email, nil
}

// FromRequest verifies the bearer token of r.
func (t *Tokens) FromRequest(r *http.Request) (string, error) {
	raw, err := BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		return "", err
	}
	return t.Verify(raw)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("%w: bad auth header", ErrInvalidToken)
	}
	token := strings.TrimSpace(parts[1])
	if strings.Count(token, ".") != 2 {
		return "", fmt.Errorf("%w: bad auth header", ErrInvalidToken)
	}
	return token, nil
}
