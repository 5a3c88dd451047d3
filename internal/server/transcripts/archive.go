// Package transcripts archives the raw record of every recognition attempt
// to S3-compatible object storage for later audit.
package transcripts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/facevote/internal/server/recognition"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// Record is what gets stored for one attempt.
type Record struct {
	ID         string                 `json:"id"`
	Kind       string                 `json:"kind"`
	Identity   string                 `json:"identity,omitempty"`
	Detail     string                 `json:"detail,omitempty"`
	RemoteAddr string                 `json:"remote_addr,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	Transcript recognition.Transcript `json:"transcript"`
}

// NewRecord builds a Record from a finished invocation.
func NewRecord(res recognition.Result, remoteAddr string, now time.Time) Record {
	return Record{
		ID:         uuid.NewString(),
		Kind:       res.Kind.String(),
		Identity:   res.Identity,
		Detail:     res.Detail,
		RemoteAddr: remoteAddr,
		CreatedAt:  now.UTC(),
		Transcript: res.Transcript,
	}
}

// Archive stores records and returns the key they were stored under.
type Archive interface {
	Store(ctx context.Context, r Record) (string, error)
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Archive struct {
	client objectPutter
	bucket string
}

// S3Settings mirrors the storage fields of the server configuration.
type S3Settings struct {
	User         string
	Password     string
	Bucket       string
	Region       string
	BaseEndpoint string
}

// NewS3Archive builds an archive backed by an S3-compatible endpoint
// (MinIO in development) using static credentials.
func NewS3Archive(ctx context.Context, st S3Settings) (*S3Archive, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(st.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			st.User,
			st.Password,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(st.BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3Archive{client: client, bucket: st.Bucket}, nil
}

func StorageKey(r Record) string {
	d := r.CreatedAt
	return fmt.Sprintf("transcripts/%d/%d/%d/%s.json", d.Year(), d.Month(), d.Day(), r.ID)
}

func (a *S3Archive) Store(ctx context.Context, r Record) (string, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshal transcript: %w", err)
	}

	key := StorageKey(r)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("put transcript %s: %w", key, err)
	}
	return key, nil
}

// Nop discards records. It is used when archiving is disabled.
type Nop struct{}

func (Nop) Store(context.Context, Record) (string, error) { return "", nil }
