package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/marcos-nsantos/focusdeck-sync/internal/domain"
)

const (
	refreshBodyLen = 32
	refreshTagLen  = 16
)

// GenerateRefreshToken returns body || tag, base64url encoded. The body is
// random, mixed with the key agreed during the password exchange when seed is
// present. The tag is a MAC under the server secret, so forged tokens are
// turned away without a database lookup.
func (s *JWTService) GenerateRefreshToken(seed []byte) (string, error) {
	body := make([]byte, refreshBodyLen)
	if _, err := rand.Read(body); err != nil {
		return "", fmt.Errorf("generating random bytes: %w", err)
	}
	if len(seed) > 0 {
		mac := hmac.New(sha256.New, seed)
		mac.Write(body)
		body = mac.Sum(nil)
	}
	return base64.RawURLEncoding.EncodeToString(append(body, s.refreshTag(body)...)), nil
}

// VerifyRefreshToken checks the shape and tag only. Whether the token is still
// live is decided by the store.
func (s *JWTService) VerifyRefreshToken(token string) error {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) != refreshBodyLen+refreshTagLen {
		return domain.ErrTokenInvalid
	}
	body, tag := raw[:refreshBodyLen], raw[refreshBodyLen:]
	if !hmac.Equal(tag, s.refreshTag(body)) {
		return domain.ErrTokenInvalid
	}
	return nil
}

func (s *JWTService) refreshTag(body []byte) []byte {
	mac := hmac.New(sha256.New, s.refreshKey)
	mac.Write(body)
	return mac.Sum(nil)[:refreshTagLen]
}

// HashRefreshToken is the only form of a refresh token that is persisted.
func HashRefreshToken(token string) []byte {
	h := sha256.Sum256([]byte(token))
	return h[:]
}
