package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/entity"
	"github.com/marcos-nsantos/focusdeck-sync/internal/infrastructure/config"
)

// S3ConflictArchive writes resolved conflicts as JSON documents under
// {prefix}/{user_id}/{conflict_id}.json.
type S3ConflictArchive struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3ConflictArchive uses the static keys from cfg when set, otherwise the
// SDK default chain (environment, shared config, instance role).
func NewS3ConflictArchive(ctx context.Context, cfg config.S3Config) (*S3ConflictArchive, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("creating conflict archive: bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.UsePathStyle
		}
	})

	return &S3ConflictArchive{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.ArchivePrefix,
	}, nil
}

type archivedConflict struct {
	ID            uuid.UUID          `json:"id"`
	UserID        uuid.UUID          `json:"user_id"`
	EntityType    entity.EntityType  `json:"entity_type"`
	EntityID      string             `json:"entity_id"`
	Resolution    *entity.Resolution `json:"resolution,omitempty"`
	ResultVersion *int64             `json:"result_version,omitempty"`
	ResolvedAt    *time.Time         `json:"resolved_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	LocalChange   archivedChange     `json:"local_change"`
	ServerChange  archivedChange     `json:"server_change"`
}

type archivedChange struct {
	ID             uuid.UUID        `json:"id"`
	Operation      entity.Operation `json:"operation"`
	OriginDeviceID uuid.UUID        `json:"origin_device_id"`
	BaseVersion    int64            `json:"base_version"`
	Version        int64            `json:"version,omitempty"`
	Seq            int64            `json:"seq,omitempty"`
	Payload        json.RawMessage  `json:"payload,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

func toArchivedChange(c entity.ChangeRecord) archivedChange {
	return archivedChange{
		ID:             c.ID,
		Operation:      c.Operation,
		OriginDeviceID: c.OriginDeviceID,
		BaseVersion:    c.BaseVersion,
		Version:        c.Version,
		Seq:            c.Seq,
		Payload:        c.Payload,
		CreatedAt:      c.CreatedAt,
	}
}

func (a *S3ConflictArchive) Key(c *entity.Conflict) string {
	return path.Join(a.prefix, c.UserID.String(), c.ID.String()+".json")
}

func (a *S3ConflictArchive) Archive(ctx context.Context, c *entity.Conflict) error {
	doc := archivedConflict{
		ID:            c.ID,
		UserID:        c.UserID,
		EntityType:    c.EntityType,
		EntityID:      c.EntityID,
		Resolution:    c.Resolution,
		ResultVersion: c.ResultVersion,
		ResolvedAt:    c.ResolvedAt,
		CreatedAt:     c.CreatedAt,
		LocalChange:   toArchivedChange(c.LocalChange),
		ServerChange:  toArchivedChange(c.ServerChange),
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding conflict: %w", err)
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(a.Key(c)),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return fmt.Errorf("uploading to s3: %w", err)
	}
	return nil
}
