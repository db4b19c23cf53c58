package editor

import (
	"encoding/json"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"docvault/internal/domain"
	"docvault/internal/domain/models/editor"
)

// sign returns the config itself as an HS256 token, which is what the
// document server expects in the "token" field
func (s *editorService) sign(cfg *editor.Config) (string, error) {
	claims, err := toClaims(cfg)
	if err != nil {
		return "", err
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign editor config: %w", err)
	}
	return token, nil
}

// verifyCallback checks the token from the body (or the Authorization
// header) and returns the callback it carries. Header tokens wrap the
// callback in a "payload" claim.
func (s *editorService) verifyCallback(cb *editor.Callback, bearer string) (*editor.Callback, error) {
	raw := cb.Token
	if raw == "" {
		raw = bearer
	}
	if raw == "" {
		return nil, &domain.UnauthorizedError{Message: "editor callback token required"}
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		s.logger.Warn("rejected editor callback token", "error", err)
		return nil, &domain.UnauthorizedError{Message: "invalid editor callback token"}
	}

	var payload interface{} = map[string]interface{}(claims)
	if inner, ok := claims["payload"].(map[string]interface{}); ok {
		payload = inner
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("decode editor token payload: %w", err)
	}
	var verified editor.Callback
	if err := json.Unmarshal(data, &verified); err != nil {
		return nil, fmt.Errorf("%w: malformed editor token payload", domain.ErrValidation)
	}
	verified.Token = ""
	return &verified, nil
}

func toClaims(v interface{}) (jwt.MapClaims, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode editor claims: %w", err)
	}
	claims := jwt.MapClaims{}
	if err := json.Unmarshal(data, &claims); err != nil {
		return nil, fmt.Errorf("encode editor claims: %w", err)
	}
	return claims, nil
}
