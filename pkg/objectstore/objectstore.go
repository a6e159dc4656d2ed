package objectstore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var (
	ErrInvalidConfig = errors.New("objectstore: incomplete configuration")
	ErrEmptyKey      = errors.New("objectstore: object key is required")
	ErrPresignFailed = errors.New("objectstore: presign request failed")
	ErrEmptyIdentity = errors.New("objectstore: identity id is required")
	ErrEmptyFileName = errors.New("objectstore: file name is required")
)

// Config carries the Cloudflare R2 settings, sourced from the environment.
// R2 speaks the S3 API; the endpoint is derived from the account id.
type Config struct {
	AccountID       string        `env:"R2_ACCOUNT_ID,required"`
	AccessKeyID     string        `env:"R2_ACCESS_KEY_ID,required"`
	SecretAccessKey string        `env:"R2_SECRET_ACCESS_KEY,required"`
	Bucket          string        `env:"R2_BUCKET,required"`
	PublicBaseURL   string        `env:"R2_PUBLIC_BASE_URL"`
	PresignTTL      time.Duration `env:"R2_PRESIGN_TTL" envDefault:"15m"`
}

// presignAPI is the slice of the S3 presign client the store calls,
// injectable for tests.
type presignAPI interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Store issues presigned upload and download URLs against an R2 bucket so
// image bytes never pass through the application server.
type Store struct {
	cfg     Config
	presign presignAPI
}

// New builds the S3-compatible client for the configured R2 account.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.AccountID == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.Bucket == "" {
		return nil, ErrInvalidConfig
	}
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = 15 * time.Minute
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	return &Store{
		cfg:     cfg,
		presign: s3.NewPresignClient(client),
	}, nil
}

// PresignedURL is one signed request the browser performs directly against
// the bucket.
type PresignedURL struct {
	URL       string
	Method    string
	Key       string
	ExpiresAt time.Time
}

// UploadURL returns a signed PUT for the given key. The content type is
// part of the signature, so the browser must send it unchanged.
func (s *Store) UploadURL(ctx context.Context, key, contentType string) (*PresignedURL, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	req, err := s.presign.PresignPutObject(ctx, input, func(o *s3.PresignOptions) {
		o.Expires = s.cfg.PresignTTL
	})
	if err != nil {
		return nil, errors.Join(ErrPresignFailed, err)
	}

	return &PresignedURL{
		URL:       req.URL,
		Method:    req.Method,
		Key:       key,
		ExpiresAt: time.Now().UTC().Add(s.cfg.PresignTTL),
	}, nil
}

// DownloadURL returns a signed GET for the given key.
func (s *Store) DownloadURL(ctx context.Context, key string) (*PresignedURL, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, func(o *s3.PresignOptions) {
		o.Expires = s.cfg.PresignTTL
	})
	if err != nil {
		return nil, errors.Join(ErrPresignFailed, err)
	}

	return &PresignedURL{
		URL:       req.URL,
		Method:    req.Method,
		Key:       key,
		ExpiresAt: time.Now().UTC().Add(s.cfg.PresignTTL),
	}, nil
}

// PublicURL resolves a key against the public base URL when the bucket is
// fronted by a CDN domain. Falls back to a signed GET being required when
// no public base is configured, reported by the empty string.
func (s *Store) PublicURL(key string) string {
	if s.cfg.PublicBaseURL == "" || key == "" {
		return ""
	}
	return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + key
}

// ObjectKey builds a collision-free key for a user upload, namespaced by
// identity and keeping the original extension for content-type sniffing.
func ObjectKey(identityID, fileName string) (string, error) {
	if identityID == "" {
		return "", ErrEmptyIdentity
	}
	if fileName == "" {
		return "", ErrEmptyFileName
	}
	ext := strings.ToLower(path.Ext(fileName))
	return fmt.Sprintf("uploads/%s/%s%s", identityID, uuid.NewString(), ext), nil
}
