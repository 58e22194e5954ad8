package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/marcos-nsantos/focusdeck-sync/internal/domain"
)

type JWTService struct {
	secretKey      []byte
	refreshKey     []byte
	accessTokenTTL time.Duration
	issuer         string
}

// Claims binds an access token to one device record. sub carries the user id.
type Claims struct {
	DeviceID string `json:"did"`
	jwt.RegisteredClaims
}

func NewJWTService(secretKey string, accessTokenTTL time.Duration, issuer string) *JWTService {
	// Refresh tags use a key derived from the secret, never the secret itself.
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte("refresh-token"))

	return &JWTService{
		secretKey:      []byte(secretKey),
		refreshKey:     mac.Sum(nil),
		accessTokenTTL: accessTokenTTL,
		issuer:         issuer,
	}
}

func (s *JWTService) GenerateAccessToken(userID, deviceID uuid.UUID) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(s.accessTokenTTL)

	claims := Claims{
		DeviceID: deviceID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}

	return tokenStr, expiresAt, nil
}

// ValidateAccessToken checks signature, expiry and issuer only. Whether the
// device is still active is decided by the caller.
func (s *JWTService) ValidateAccessToken(tokenStr string) (userID, deviceID uuid.UUID, err error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, uuid.Nil, domain.ErrTokenExpired
		}
		return uuid.Nil, uuid.Nil, domain.ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return uuid.Nil, uuid.Nil, domain.ErrTokenInvalid
	}

	userID, err = uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, uuid.Nil, domain.ErrTokenInvalid
	}
	deviceID, err = uuid.Parse(claims.DeviceID)
	if err != nil {
		return uuid.Nil, uuid.Nil, domain.ErrTokenInvalid
	}

	return userID, deviceID, nil
}
