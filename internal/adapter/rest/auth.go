package rest

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = time.Hour

// ErrInvalidCredentials is returned when a token request carries an unknown
// username or a wrong password.
var ErrInvalidCredentials = errors.New("invalid username or password")

// TokenService issues and verifies the HS256 bearer tokens that protect the
// write endpoints. A single username/password pair is configured; the stored
// password is a bcrypt hash, never plaintext.
type TokenService struct {
	signingKey   []byte
	username     string
	passwordHash string
	clock        clockwork.Clock
}

func NewTokenService(signingKey, username, passwordHash string, clock clockwork.Clock) *TokenService {
	return &TokenService{
		signingKey:   []byte(signingKey),
		username:     username,
		passwordHash: passwordHash,
		clock:        clock,
	}
}

// Issue returns a signed token valid for one hour, or ErrInvalidCredentials.
func (s *TokenService) Issue(username, password string) (string, error) {
	if username != s.username {
		return "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	now := s.clock.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": username,
		"iat":      now.Unix(),
		"exp":      now.Add(tokenTTL).Unix(),
	})
	return token.SignedString(s.signingKey)
}

// Verify parses and validates a token string, returning the username claim.
func (s *TokenService) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString,
		func(*jwt.Token) (any, error) { return s.signingKey, nil },
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token claims")
	}
	username, _ := claims["username"].(string)
	if username == "" {
		return "", errors.New("token has no username claim")
	}
	return username, nil
}
