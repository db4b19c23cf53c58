package auth

import "docvault/internal/domain/models"

// TokenVerifier validates bearer tokens issued by the identity provider.
// The middleware only depends on this interface.
type TokenVerifier interface {
	// VerifyToken validates a token string and returns its claims.
	// Any failure is reported as domain.ErrUnauthorized.
	VerifyToken(tokenString string) (*models.Claims, error)

	// Close releases resources held by the verifier
	Close() error
}
