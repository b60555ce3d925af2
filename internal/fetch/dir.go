package fetch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9.-]+`)

// FileName maps a document URL to the snapshot file name it is stored under.
func FileName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return strings.Trim(unsafeFileChars.ReplaceAllString(rawURL, "_"), "_")
	}
	key := u.Host + u.Path
	if u.RawQuery != "" {
		key += "_" + u.RawQuery
	}
	return strings.Trim(unsafeFileChars.ReplaceAllString(key, "_"), "_")
}

// DirFetcher replays documents previously saved with WriteSnapshot.
type DirFetcher struct {
	dir string
}

// NewDirFetcher creates a fetcher reading from dir.
func NewDirFetcher(dir string) *DirFetcher {
	return &DirFetcher{dir: dir}
}

// Fetch reads the snapshot stored for rawURL.
func (d *DirFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(d.dir, FileName(rawURL))
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("fetch: snapshot %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch: read snapshot: %w", err)
	}
	return data, nil
}

// WriteSnapshot stores body under dir so a DirFetcher can replay it. It
// returns the written path.
func WriteSnapshot(dir, rawURL string, body []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("fetch: create snapshot dir: %w", err)
	}
	path := filepath.Join(dir, FileName(rawURL))
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("fetch: write snapshot: %w", err)
	}
	return path, nil
}
