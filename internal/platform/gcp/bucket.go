package gcp

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/contentpilot/contentpilot-backend/internal/platform/logger"
)

type BucketConfig struct {
	Name         string
	CDNDomain    string
	EmulatorHost string
	Credentials  string
}

// AssetBucket stores uploaded brand media.
type AssetBucket interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader) error
	PublicURL(key string) string
	Close() error
}

type assetBucket struct {
	log          *logger.Logger
	client       *storage.Client
	name         string
	cdnDomain    string
	emulatorHost string
}

func NewAssetBucket(ctx context.Context, log *logger.Logger, cfg BucketConfig) (AssetBucket, error) {
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		return nil, fmt.Errorf("missing GCS_ASSET_BUCKET")
	}
	emulator := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")

	var opts []option.ClientOption
	if emulator != "" {
		_ = os.Setenv("STORAGE_EMULATOR_HOST", emulator)
		opts = append(opts, option.WithoutAuthentication())
	} else {
		opts = append(ClientOptions(cfg.Credentials), option.WithScopes(storage.ScopeReadWrite))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	serviceLog := log.With("service", "AssetBucket")
	serviceLog.Info("Object storage initialized", "bucket", name, "emulator_host", emulator, "cdn_domain", cfg.CDNDomain)

	return &assetBucket{
		log:          serviceLog,
		client:       client,
		name:         name,
		cdnDomain:    strings.TrimSpace(cfg.CDNDomain),
		emulatorHost: emulator,
	}, nil
}

func (b *assetBucket) Upload(ctx context.Context, key, contentType string, r io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := b.client.Bucket(b.name).Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (b *assetBucket) PublicURL(key string) string {
	return publicURL(b.name, b.cdnDomain, b.emulatorHost, key)
}

func (b *assetBucket) Close() error {
	return b.client.Close()
}

func publicURL(bucket, cdnDomain, emulatorHost, key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", strings.TrimRight(cdnDomain, "/"), key)
	}
	if emulatorHost != "" {
		return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", emulatorHost, bucket, url.PathEscape(key))
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, key)
}
