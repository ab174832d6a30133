package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// RoleAnon is the only role an API key can carry.
	RoleAnon = "anon"
	// DefaultIssuer is stamped into keys when the config leaves it empty.
	DefaultIssuer = "anonchat"
)

// ErrInvalidKey is returned for any key that fails validation.
var ErrInvalidKey = errors.New("invalid api key")

// Claims represents the claims of an anonymous API key.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// KeyConfig holds API key signing configuration.
type KeyConfig struct {
	Secret []byte
	Issuer string
	// TTL of zero issues keys without expiry.
	TTL time.Duration
}

func (cfg *KeyConfig) issuer() string {
	if cfg.Issuer == "" {
		return DefaultIssuer
	}
	return cfg.Issuer
}

// GenerateAPIKey creates a new signed anon key.
func GenerateAPIKey(cfg *KeyConfig) (string, error) {
	if len(cfg.Secret) == 0 {
		return "", fmt.Errorf("api key secret is empty")
	}

	now := time.Now()
	claims := Claims{
		Role: RoleAnon,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			Issuer:   cfg.issuer(),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if cfg.TTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(cfg.TTL))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(cfg.Secret)
}

// ValidateAPIKey parses and validates an anon key.
func ValidateAPIKey(cfg *KeyConfig, key string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(key, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return cfg.Secret, nil
	}, jwt.WithIssuer(cfg.issuer()))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidKey
	}
	if claims.Role != RoleAnon {
		return nil, fmt.Errorf("%w: unexpected role %q", ErrInvalidKey, claims.Role)
	}

	return claims, nil
}
