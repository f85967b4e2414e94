// Package s3x stores uploaded files in an S3 compatible bucket (AWS S3,
// Cloudflare R2, MinIO) and builds their public URLs.
package s3x

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/samber/lo"

	"github.com/kylinpoet/song-for-guoxi/internal/config"
	"github.com/kylinpoet/song-for-guoxi/internal/logx"
)

var s3Logger = logx.GetScope("s3x")

// Key namespaces.
const (
	NamespaceSheets = "sheets"
	NamespaceAudio  = "audio"
)

// DefaultContentType is used when an upload declares none.
const DefaultContentType = "application/octet-stream"

// Store is a bucket handle.
type Store struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

// Open returns nil when no endpoint or bucket is configured; uploads then
// fail with a configuration error.
func Open(cfg *config.Config) (*Store, error) {
	sc := cfg.Storage
	if strings.TrimSpace(sc.Endpoint) == "" || strings.TrimSpace(sc.Bucket) == "" {
		return nil, nil
	}
	endpoint, secure := splitEndpoint(sc.Endpoint, sc.UseSSL)
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(sc.AccessKey, sc.SecretKey, ""),
		Secure: secure,
		Region: sc.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("object store client: %w", err)
	}
	base := sc.PublicBase
	if base == "" {
		base = fmt.Sprintf("%s://%s/%s", lo.Ternary(secure, "https", "http"), endpoint, sc.Bucket)
	}
	s3Logger.Sugar().Infof("object store ready: bucket=%s endpoint=%s", sc.Bucket, endpoint)
	return &Store{client: client, bucket: sc.Bucket, publicBase: base}, nil
}

// splitEndpoint accepts "host[:port]" or a URL and reports whether TLS is used.
func splitEndpoint(raw string, useSSL bool) (string, bool) {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "https://"):
		return strings.TrimSuffix(strings.TrimPrefix(raw, "https://"), "/"), true
	case strings.HasPrefix(raw, "http://"):
		return strings.TrimSuffix(strings.TrimPrefix(raw, "http://"), "/"), false
	}
	return strings.TrimSuffix(raw, "/"), useSSL
}

// Put stores r under key and returns the object's public URL.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = DefaultContentType
	}
	info, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", err
	}
	s3Logger.Sugar().Debugf("stored %s (%d bytes)", info.Key, info.Size)
	return PublicURL(s.publicBase, info.Key), nil
}

// PublicURL joins the public base and a key with exactly one slash.
func PublicURL(base, key string) string {
	base = strings.TrimSpace(base)
	if base != "" && !strings.Contains(base, "://") {
		base = "https://" + base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// SanitizeFilename replaces every character outside [A-Za-z0-9._-] with '_'.
func SanitizeFilename(name string) string {
	return unsafeName.ReplaceAllString(name, "_")
}

// BuildKey returns "<namespace>/<epoch-ms>-<token>-<sanitized name>".
func BuildKey(namespace, filename string, now time.Time) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s/%d-%s-%s", namespace, now.UnixMilli(), token, SanitizeFilename(filename))
}
