package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Bucket names.
const (
	BucketAvatars     = "avatars"
	BucketAttachments = "attachments"
)

// Config is what MinioStore needs to reach the object store.
type Config struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	PublicBaseURL string
}

// MinioStore stores avatars and attachments in public read buckets.
type MinioStore struct {
	client  *minio.Client
	baseURL string
	logger  *zap.Logger
}

func NewMinioStore(cfg Config, logger *zap.Logger) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + cfg.Endpoint
	}
	return &MinioStore{client: client, baseURL: base, logger: logger.Named("storage")}, nil
}

// Upload writes r to bucket/path and returns the stored path.
func (s *MinioStore) Upload(ctx context.Context, bucket, path string, r io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	info, err := s.client.PutObject(ctx, bucket, path, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", bucket, path, err)
	}
	s.logger.Debug("Object stored",
		zap.String("bucket", bucket),
		zap.String("path", info.Key),
		zap.Int64("size", info.Size),
	)
	return info.Key, nil
}

// PublicURL returns the anonymous read URL of an object.
func (s *MinioStore) PublicURL(bucket, path string) string {
	return PublicURL(s.baseURL, bucket, path)
}

// EnsureBuckets creates missing buckets and opens them for anonymous reads.
func (s *MinioStore) EnsureBuckets(ctx context.Context, buckets ...string) error {
	for _, bucket := range buckets {
		exists, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("check bucket %s: %w", bucket, err)
		}
		if !exists {
			if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
				return fmt.Errorf("create bucket %s: %w", bucket, err)
			}
			s.logger.Info("Bucket created", zap.String("bucket", bucket))
		}
		if err := s.client.SetBucketPolicy(ctx, bucket, publicReadPolicy(bucket)); err != nil {
			return fmt.Errorf("set policy on %s: %w", bucket, err)
		}
	}
	return nil
}

func publicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, bucket)
}

// PublicURL joins base, bucket and an object path, escaping each segment.
func PublicURL(base, bucket, path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.TrimRight(base, "/") + "/" + bucket + "/" + strings.Join(segments, "/")
}

// AvatarPath is the object path of an avatar uploaded at t.
func AvatarPath(t time.Time, filename string) string {
	return fmt.Sprintf("%d-%s", t.UnixMilli(), SanitizeName(filename))
}

// AttachmentPath is the object path of a work item attachment uploaded at t.
func AttachmentPath(itemID string, t time.Time, filename string) string {
	return fmt.Sprintf("attachments/%s/%d-%s", itemID, t.UnixMilli(), SanitizeName(filename))
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SanitizeName turns a user supplied file name into a safe object key
// segment. Accents are folded ("relatório.pdf" -> "relatorio.pdf") and
// anything outside [A-Za-z0-9._-] becomes "-".
func SanitizeName(name string) string {
	folded, _, err := transform.String(stripMarks, name)
	if err != nil {
		folded = name
	}
	var b strings.Builder
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" || strings.Trim(out, ".") == "" {
		return "file"
	}
	return out
}
