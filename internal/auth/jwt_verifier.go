package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"docvault/internal/domain"
	"docvault/internal/domain/models"
)

// VerifierConfig selects how tokens are checked. A JWKS URL takes
// precedence over a shared secret.
type VerifierConfig struct {
	Secret  string
	JWKSURL string
}

// JWTVerifier implements TokenVerifier for HS256 shared-secret tokens or
// RS256/ES256 tokens signed by keys published at a JWKS endpoint.
type JWTVerifier struct {
	keyfunc jwt.Keyfunc
	methods []string
	logger  *slog.Logger
}

// NewJWTVerifier creates a verifier from config
func NewJWTVerifier(cfg VerifierConfig, logger *slog.Logger) (*JWTVerifier, error) {
	if cfg.JWKSURL != "" {
		// keyfunc v3 caches keys and refreshes them in the background
		jwks, err := keyfunc.NewDefaultCtx(context.Background(), []string{cfg.JWKSURL})
		if err != nil {
			return nil, fmt.Errorf("failed to create JWKS client: %w", err)
		}
		logger.Info("JWT verifier initialized", "mode", "jwks", "jwks_url", cfg.JWKSURL)
		return newJWKSVerifier(jwks, logger), nil
	}

	if cfg.Secret == "" {
		return nil, errors.New("either JWT_SECRET or JWT_JWKS_URL must be set")
	}
	logger.Info("JWT verifier initialized", "mode", "hs256")
	return newSecretVerifier([]byte(cfg.Secret), logger), nil
}

func newSecretVerifier(secret []byte, logger *slog.Logger) *JWTVerifier {
	return &JWTVerifier{
		keyfunc: func(*jwt.Token) (interface{}, error) { return secret, nil },
		methods: []string{jwt.SigningMethodHS256.Alg()},
		logger:  logger,
	}
}

func newJWKSVerifier(jwks keyfunc.Keyfunc, logger *slog.Logger) *JWTVerifier {
	return &JWTVerifier{
		keyfunc: jwks.Keyfunc,
		// Prevent algorithm confusion: asymmetric keys only
		methods: []string{jwt.SigningMethodRS256.Alg(), jwt.SigningMethodES256.Alg()},
		logger:  logger,
	}
}

// VerifyToken validates signature, expiry and subject
func (v *JWTVerifier) VerifyToken(tokenString string) (*models.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.Claims{}, v.keyfunc,
		jwt.WithValidMethods(v.methods),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		v.logger.Debug("token rejected", "error", err)
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*models.Claims)
	if !ok || !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	if _, err := uuid.Parse(claims.Subject); err != nil {
		v.logger.Debug("token subject is not a uuid", "sub", claims.Subject)
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}

// Close is a no-op; keyfunc v3 stops its refresh goroutine with its context
func (v *JWTVerifier) Close() error {
	return nil
}

var _ TokenVerifier = (*JWTVerifier)(nil)
