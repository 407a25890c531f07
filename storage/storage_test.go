package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return s
}

func readAll(t *testing.T, s Storage, p string) string {
	t.Helper()
	r, err := s.Download(context.Background(), p)
	require.NoError(t, err)
	defer r.Close()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(b)
}

func TestLocalRoundTrip(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()

	p, err := s.Upload(ctx, "feeds/scraped cases 1.json", strings.NewReader(`[{"title":"A vs B"}]`))
	require.NoError(t, err)
	assert.Equal(t, "feeds/scraped_cases_1.json", p)
	assert.Equal(t, `[{"title":"A vs B"}]`, readAll(t, s, p))

	require.NoError(t, s.Delete(ctx, p))
	_, err = s.Download(ctx, p)
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting twice is fine
	assert.NoError(t, s.Delete(ctx, p))
}

func TestLocalKeysStayInsideBase(t *testing.T) {
	base := t.TempDir()
	s, err := NewLocalStorage(filepath.Join(base, "store"))
	require.NoError(t, err)

	p, err := s.Upload(context.Background(), "../../escape.json", strings.NewReader("{}"))
	require.NoError(t, err)
	assert.Equal(t, "escape.json", p)
	assert.FileExists(t, filepath.Join(base, "store", "escape.json"))

	_, err = s.Upload(context.Background(), "", strings.NewReader("{}"))
	assert.Error(t, err)
}

func TestLocalListAndLatest(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()

	for _, name := range []string{
		"scraped_cases_20240101_120000.json",
		"scraped_cases_20240301_120000.json",
		"notes.txt",
	} {
		_, err := s.Upload(ctx, "incoming/"+name, strings.NewReader("[]"))
		require.NoError(t, err)
	}
	_, err := s.Upload(ctx, "processed/scraped_cases_20250101_000000.json", strings.NewReader("[]"))
	require.NoError(t, err)

	// make file times equal so the name decides
	same := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	objects, err := s.List(ctx, "incoming/")
	require.NoError(t, err)
	require.Len(t, objects, 3)
	for _, o := range objects {
		require.NoError(t, os.Chtimes(filepath.Join(s.basePath, o.Path), same, same))
	}

	latest, err := Latest(ctx, s, "incoming/", "scraped_cases_*.json")
	require.NoError(t, err)
	assert.Equal(t, "incoming/scraped_cases_20240301_120000.json", latest.Path)

	_, err = Latest(ctx, s, "incoming/", "reviews_*.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMove(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()

	p, err := s.Upload(ctx, "incoming/feed.json", strings.NewReader("[1]"))
	require.NoError(t, err)

	dest, err := Move(ctx, s, p, "processed/feed.json")
	require.NoError(t, err)
	assert.Equal(t, "processed/feed.json", dest)
	assert.Equal(t, "[1]", readAll(t, s, dest))

	_, err = s.Download(ctx, p)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "s3")
	t.Setenv("AWS_S3_BUCKET", "")
	_, err := ConfigFromEnv()
	assert.Error(t, err)

	t.Setenv("AWS_S3_BUCKET", "nyaydarpan-feeds")
	t.Setenv("AWS_REGION", "")
	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, StorageTypeS3, cfg.Type)
	assert.Equal(t, "ap-south-1", cfg.S3Region)

	t.Setenv("STORAGE_TYPE", "ftp")
	_, err = ConfigFromEnv()
	assert.Error(t, err)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", contentType("a/b.json"))
	assert.Equal(t, "application/octet-stream", contentType("a/b"))
}
