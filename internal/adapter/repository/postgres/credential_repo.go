package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/marcos-nsantos/focusdeck-sync/internal/domain"
	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
)

type CredentialRepo struct {
	pool PgxPool
}

func NewCredentialRepo(pool PgxPool) *CredentialRepo {
	return &CredentialRepo{pool: pool}
}

func (r *CredentialRepo) Create(ctx context.Context, cred *entity.Credential) error {
	kdf, err := json.Marshal(cred.KDF)
	if err != nil {
		return fmt.Errorf("encoding kdf params: %w", err)
	}

	query := `
		INSERT INTO credentials (id, username, algorithm, kdf, verifier, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.pool.Exec(ctx, query,
		cred.ID, cred.Username, cred.Algorithm, kdf, cred.Verifier, cred.CreatedAt, cred.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserAlreadyExists
		}
		return fmt.Errorf("inserting credential: %w", err)
	}
	return nil
}

func (r *CredentialRepo) GetByUsername(ctx context.Context, username string) (*entity.Credential, error) {
	query := `
		SELECT id, username, algorithm, kdf, verifier, created_at, updated_at
		FROM credentials
		WHERE username = $1
	`
	return r.scan(r.pool.QueryRow(ctx, query, username))
}

func (r *CredentialRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Credential, error) {
	query := `
		SELECT id, username, algorithm, kdf, verifier, created_at, updated_at
		FROM credentials
		WHERE id = $1
	`
	return r.scan(r.pool.QueryRow(ctx, query, id))
}

func (r *CredentialRepo) scan(row pgx.Row) (*entity.Credential, error) {
	var (
		cred entity.Credential
		kdf  []byte
	)
	err := row.Scan(&cred.ID, &cred.Username, &cred.Algorithm, &kdf, &cred.Verifier, &cred.CreatedAt, &cred.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("querying credential: %w", err)
	}
	if err := json.Unmarshal(kdf, &cred.KDF); err != nil {
		return nil, fmt.Errorf("decoding kdf params: %w", err)
	}
	return &cred, nil
}
