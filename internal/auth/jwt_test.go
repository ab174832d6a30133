package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAPIKeyRoundTrip(t *testing.T) {
	cfg := &KeyConfig{Secret: []byte("secret")}

	key, err := GenerateAPIKey(cfg)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ValidateAPIKey(cfg, key)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Role != RoleAnon || claims.Issuer != DefaultIssuer || claims.ID == "" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ExpiresAt != nil {
		t.Fatal("zero ttl must not set an expiry")
	}
}

func TestGenerateRequiresSecret(t *testing.T) {
	if _, err := GenerateAPIKey(&KeyConfig{}); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestValidateAPIKeyRejects(t *testing.T) {
	cfg := &KeyConfig{Secret: []byte("secret"), Issuer: "anonchat-test"}

	sign := func(secret string, claims jwt.Claims, method jwt.SigningMethod) string {
		t.Helper()
		var key any = []byte(secret)
		if method == jwt.SigningMethodNone {
			key = jwt.UnsafeAllowNoneSignatureType
		}
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}
	base := func() Claims {
		return Claims{Role: RoleAnon, RegisteredClaims: jwt.RegisteredClaims{Issuer: "anonchat-test"}}
	}

	expired := base()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	wrongRole := base()
	wrongRole.Role = "service_role"
	wrongIssuer := base()
	wrongIssuer.Issuer = "someone-else"

	cases := []struct {
		name string
		key  string
	}{
		{"garbage", "not-a-jwt"},
		{"wrong secret", sign("other", base(), jwt.SigningMethodHS256)},
		{"expired", sign("secret", expired, jwt.SigningMethodHS256)},
		{"wrong role", sign("secret", wrongRole, jwt.SigningMethodHS256)},
		{"wrong issuer", sign("secret", wrongIssuer, jwt.SigningMethodHS256)},
		{"none alg", sign("secret", base(), jwt.SigningMethodNone)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ValidateAPIKey(cfg, tc.key); !errors.Is(err, ErrInvalidKey) {
				t.Fatalf("expected invalid key, got %v", err)
			}
		})
	}
}
