package docstore

import (
	"context"
	"errors"
)

// Backend kinds accepted in Config.Backend.
const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

type Config struct {
	// Backend is local or s3.
	Backend string `env:"DOCSTORE" envDefault:"local"`
	// Root is the base directory for local and the key prefix for s3.
	Root string `env:"DOCSTORE_ROOT" envDefault:"app"`
	// CacheDir receives s3 downloads. Empty uses a directory under os.TempDir.
	CacheDir string `env:"DOCSTORE_CACHE_DIR"`

	S3Bucket         string `env:"S3_BUCKET"`
	S3Region         string `env:"S3_REGION" envDefault:"us-east-1"`
	S3AccessKeyID    string `env:"S3_ACCESS_KEY_ID"`
	S3SecretKey      string `env:"S3_SECRET_KEY"`
	S3Endpoint       string `env:"S3_ENDPOINT"`
	S3ForcePathStyle bool   `env:"S3_FORCE_PATH_STYLE" envDefault:"false"`
}

// NewFromConfig builds the backend named in cfg.
func NewFromConfig(ctx context.Context, cfg Config, opts ...S3Option) (Storage, error) {
	switch cfg.Backend {
	case "", BackendLocal:
		root := cfg.Root
		if root == "" {
			root = "app"
		}
		return NewLocalStorage(root)
	case BackendS3:
		return NewS3Storage(ctx, S3Config{
			Bucket:         cfg.S3Bucket,
			Region:         cfg.S3Region,
			AccessKeyID:    cfg.S3AccessKeyID,
			SecretKey:      cfg.S3SecretKey,
			Endpoint:       cfg.S3Endpoint,
			ForcePathStyle: cfg.S3ForcePathStyle,
			Prefix:         cfg.Root,
			CacheDir:       cfg.CacheDir,
		}, opts...)
	}
	return nil, errors.Join(ErrUnknownBackend, errors.New(cfg.Backend))
}
