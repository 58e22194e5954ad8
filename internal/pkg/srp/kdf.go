package srp

import (
	"crypto/rand"
	"fmt"
)

const (
	KDFArgon2id = "argon2id"

	saltLength = 16
	keyLength  = 32

	minMemoryKiB = 8
)

// KDFParams describe how the client stretches its password into x.
type KDFParams struct {
	Algorithm   string `json:"alg"`
	Salt        []byte `json:"salt"`
	Time        uint32 `json:"t"`
	MemoryKiB   uint32 `json:"m"`
	Parallelism uint8  `json:"p"`
	KeyLen      uint32 `json:"len"`
}

// NewKDFParams returns Argon2id parameters with a fresh random salt.
func NewKDFParams(time, memoryKiB uint32, parallelism uint8) (KDFParams, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return KDFParams{}, fmt.Errorf("generating salt: %w", err)
	}
	p := KDFParams{
		Algorithm:   KDFArgon2id,
		Salt:        salt,
		Time:        time,
		MemoryKiB:   memoryKiB,
		Parallelism: parallelism,
		KeyLen:      keyLength,
	}
	if err := p.Validate(); err != nil {
		return KDFParams{}, err
	}
	return p, nil
}

func (p KDFParams) Validate() error {
	switch {
	case p.Algorithm != KDFArgon2id:
		return fmt.Errorf("%w: unsupported algorithm %q", ErrInvalidKDF, p.Algorithm)
	case len(p.Salt) < saltLength:
		return fmt.Errorf("%w: salt too short", ErrInvalidKDF)
	case p.Time == 0 || p.Parallelism == 0 || p.KeyLen == 0:
		return fmt.Errorf("%w: zero cost parameter", ErrInvalidKDF)
	case p.MemoryKiB < minMemoryKiB*uint32(p.Parallelism):
		return fmt.Errorf("%w: memory below 8 KiB per lane", ErrInvalidKDF)
	}
	return nil
}
