package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marcos-nsantos/focusdeck-sync/internal/pkg/srp"
)

// Credential is the SRP envelope stored for an account. UserID doubles as the
// account id everywhere else.
type Credential struct {
	ID        uuid.UUID
	Username  string
	Algorithm string
	KDF       srp.KDFParams
	Verifier  []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewCredential(username string, kdf srp.KDFParams, verifier []byte) *Credential {
	now := time.Now().UTC()
	return &Credential{
		ID:        uuid.New(),
		Username:  NormalizeUsername(username),
		Algorithm: srp.Algorithm,
		KDF:       kdf,
		Verifier:  verifier,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NormalizeUsername is applied before the username enters the SRP digest.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
