package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"docvault/internal/domain"
	"docvault/internal/domain/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func claimsFor(sub string, exp time.Time) *models.Claims {
	return &models.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Username: "ada",
		Role:     "editor",
	}
}

func signHS256(t *testing.T, claims jwt.Claims, secret string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestJWTVerifier_Secret(t *testing.T) {
	v := newSecretVerifier([]byte("s3cret"), discardLogger())
	sub := uuid.NewString()

	noExp := &models.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: sub}}

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{name: "valid", token: signHS256(t, claimsFor(sub, time.Now().Add(time.Hour)), "s3cret")},
		{name: "expired", token: signHS256(t, claimsFor(sub, time.Now().Add(-time.Hour)), "s3cret"), wantErr: true},
		{name: "wrong secret", token: signHS256(t, claimsFor(sub, time.Now().Add(time.Hour)), "other"), wantErr: true},
		{name: "subject not a uuid", token: signHS256(t, claimsFor("ada", time.Now().Add(time.Hour)), "s3cret"), wantErr: true},
		{name: "no expiry", token: signHS256(t, noExp, "s3cret"), wantErr: true},
		{name: "garbage", token: "not.a.token", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := v.VerifyToken(tt.token)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrUnauthorized) {
					t.Errorf("error = %v, want ErrUnauthorized", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if claims.GetUserID() != sub || claims.Username != "ada" {
				t.Errorf("unexpected claims: %+v", claims)
			}
		})
	}
}

func TestNewJWTVerifier_RequiresAKeySource(t *testing.T) {
	if _, err := NewJWTVerifier(VerifierConfig{}, discardLogger()); err == nil {
		t.Error("expected error without secret or JWKS URL")
	}
	if _, err := NewJWTVerifier(VerifierConfig{Secret: "x"}, discardLogger()); err != nil {
		t.Errorf("secret config: %v", err)
	}
}

func TestJWTVerifier_JWKS(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}

	jwks, err := json.Marshal(map[string]interface{}{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": "test-key",
			"alg": "RS256",
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}},
	})
	if err != nil {
		t.Fatal(err)
	}

	kf, err := keyfunc.NewJWKSetJSON(jwks)
	if err != nil {
		t.Fatalf("NewJWKSetJSON: %v", err)
	}
	v := newJWKSVerifier(kf, discardLogger())
	sub := uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claimsFor(sub, time.Now().Add(time.Hour)))
	token.Header["kid"] = "test-key"
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatal(err)
	}

	claims, err := v.VerifyToken(signed)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.Subject != sub {
		t.Errorf("Subject = %s, want %s", claims.Subject, sub)
	}

	// An HS256 token must not be accepted by an asymmetric verifier
	if _, err := v.VerifyToken(signHS256(t, claimsFor(sub, time.Now().Add(time.Hour)), "s3cret")); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("HS256 against JWKS: error = %v, want ErrUnauthorized", err)
	}
}
