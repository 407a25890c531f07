package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"time"
)

// ErrNotFound is returned when an object does not exist
var ErrNotFound = errors.New("storage: object not found")

// Storage interface for scraper feed files
type Storage interface {
	// Upload stores data under key and returns the storage path
	Upload(ctx context.Context, key string, data io.Reader) (string, error)

	// Download retrieves an object by storage path
	Download(ctx context.Context, storagePath string) (io.ReadCloser, error)

	// Delete removes an object by storage path
	Delete(ctx context.Context, storagePath string) error

	// List returns the objects whose path starts with prefix
	List(ctx context.Context, prefix string) ([]Object, error)
}

// Object describes one stored object
type Object struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StorageType represents the storage backend type
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

// StorageConfig holds configuration for storage
type StorageConfig struct {
	Type         StorageType
	LocalPath    string // For local storage
	S3Bucket     string // For S3 storage
	S3Region     string // For S3 storage
	S3Prefix     string
	AWSAccessKey string
	AWSSecretKey string
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(cfg StorageConfig) (Storage, error) {
	switch cfg.Type {
	case StorageTypeLocal:
		return NewLocalStorage(cfg.LocalPath)
	case StorageTypeS3:
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// ConfigFromEnv reads the storage configuration from environment variables
func ConfigFromEnv() (StorageConfig, error) {
	storageType := os.Getenv("STORAGE_TYPE")
	if storageType == "" {
		storageType = "local" // Default to local for development
	}

	cfg := StorageConfig{
		Type: StorageType(storageType),
	}

	switch cfg.Type {
	case StorageTypeLocal:
		cfg.LocalPath = os.Getenv("STORAGE_LOCAL_PATH")
		if cfg.LocalPath == "" {
			cfg.LocalPath = "./data/feeds"
		}

	case StorageTypeS3:
		cfg.S3Bucket = os.Getenv("AWS_S3_BUCKET")
		cfg.S3Prefix = os.Getenv("AWS_S3_PREFIX")
		cfg.S3Region = os.Getenv("AWS_REGION")
		if cfg.S3Region == "" {
			cfg.S3Region = "ap-south-1"
		}
		cfg.AWSAccessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		cfg.AWSSecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")

		if cfg.S3Bucket == "" {
			return cfg, errors.New("AWS_S3_BUCKET environment variable is required for S3 storage")
		}

	default:
		return cfg, fmt.Errorf("unknown storage type: %s", storageType)
	}
	return cfg, nil
}

// NewStorageFromEnv creates a storage instance from environment variables
func NewStorageFromEnv() (Storage, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return NewStorage(cfg)
}

// Latest returns the newest object under prefix whose base name matches
// pattern (a path.Match glob). Ties on modification time go to the larger name.
func Latest(ctx context.Context, s Storage, prefix, pattern string) (Object, error) {
	objects, err := s.List(ctx, prefix)
	if err != nil {
		return Object{}, err
	}

	var matched []Object
	for _, o := range objects {
		ok, err := path.Match(pattern, path.Base(o.Path))
		if err != nil {
			return Object{}, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		if ok {
			matched = append(matched, o)
		}
	}
	if len(matched) == 0 {
		return Object{}, fmt.Errorf("%w: no %s under %q", ErrNotFound, pattern, prefix)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].ModTime.Equal(matched[j].ModTime) {
			return matched[i].ModTime.After(matched[j].ModTime)
		}
		return matched[i].Path > matched[j].Path
	})
	return matched[0], nil
}

// Move copies an object to a new key and deletes the original
func Move(ctx context.Context, s Storage, storagePath, newKey string) (string, error) {
	r, err := s.Download(ctx, storagePath)
	if err != nil {
		return "", err
	}
	defer r.Close()

	dest, err := s.Upload(ctx, newKey, r)
	if err != nil {
		return "", err
	}
	if err := s.Delete(ctx, storagePath); err != nil {
		return dest, err
	}
	return dest, nil
}

// cleanKey turns key into a relative, slash-separated storage path
func cleanKey(key string) (string, error) {
	key = strings.ReplaceAll(key, "\\", "/")
	key = path.Clean("/" + key)
	key = strings.TrimPrefix(key, "/")
	if key == "" || key == "." {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	// Sanitize filename
	dir, file := path.Split(key)
	file = strings.ReplaceAll(file, " ", "_")
	return dir + file, nil
}
