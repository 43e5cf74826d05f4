package verifier

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/vocdoni/privacy-pool/log"
	"github.com/vocdoni/privacy-pool/types"
)

// CheckHashes tells whether the SHA-256 of the artifacts is checked when they
// are loaded or downloaded. PRIVACYPOOL_CHECK_HASHES=false (or 0) disables
// it.
var CheckHashes = true

// BaseDir is the local cache of artifacts, files are named after the hex
// encoded hash of their content. Defaults to PRIVACYPOOL_ARTIFACTS_DIR or
// ~/.cache/privacy-pool-artifacts.
var BaseDir string

// progressInterval is how often the download progress is logged.
var progressInterval = 10 * time.Second

func init() {
	if v := os.Getenv("PRIVACYPOOL_CHECK_HASHES"); v != "" {
		if strings.EqualFold(v, "false") || v == "0" {
			CheckHashes = false
		}
	}
	if dir := os.Getenv("PRIVACYPOOL_ARTIFACTS_DIR"); dir != "" {
		BaseDir = dir
		return
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		BaseDir = filepath.Join(os.TempDir(), "privacy-pool-artifacts")
		return
	}
	BaseDir = filepath.Join(home, ".cache", "privacy-pool-artifacts")
}

// Artifact is a file the pool needs at runtime (a verification key), known
// by the hash of its content. It is read from the local cache or downloaded
// from RemoteURL.
type Artifact struct {
	RemoteURL string
	Hash      types.HexBytes
	Content   []byte
}

// NewArtifact returns the artifact with the given remote url and hex encoded
// SHA-256 hash.
func NewArtifact(remoteURL, hexHash string) (*Artifact, error) {
	hash, err := types.ParseHexBytes(hexHash)
	if err != nil {
		return nil, fmt.Errorf("invalid artifact hash: %w", err)
	}
	if len(hash) != sha256.Size {
		return nil, fmt.Errorf("invalid artifact hash length %d", len(hash))
	}
	return &Artifact{RemoteURL: remoteURL, Hash: hash}, nil
}

// ArtifactFromFile reads the artifact content from a local file, outside the
// cache.
func ArtifactFromFile(path string) (*Artifact, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read artifact %s: %w", path, err)
	}
	hash := sha256.Sum256(content)
	return &Artifact{Hash: hash[:], Content: content}, nil
}

// Load reads the content from the cache. It is a no-op if the content is
// already loaded. If the file is not cached it returns os.ErrNotExist.
func (a *Artifact) Load() error {
	if len(a.Content) != 0 {
		return nil
	}
	if len(a.Hash) == 0 {
		return fmt.Errorf("artifact hash not provided")
	}
	path := a.path()
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("artifact %s: %w", path, os.ErrNotExist)
		}
		return fmt.Errorf("error reading artifact %s: %w", path, err)
	}
	if err := checkHash(a.Hash, content); err != nil {
		return fmt.Errorf("artifact %s: %w", path, err)
	}
	a.Content = content
	return nil
}

// Download fetches the artifact from RemoteURL into the cache and loads it.
func (a *Artifact) Download(ctx context.Context) error {
	if a.RemoteURL == "" {
		return fmt.Errorf("artifact not cached and remote url not provided")
	}
	if len(a.Hash) == 0 {
		return fmt.Errorf("artifact hash not provided")
	}
	if err := download(ctx, a.RemoteURL, a.path(), a.Hash); err != nil {
		return err
	}
	return a.Load()
}

// LoadOrDownload loads the artifact from the cache, downloading it first if
// it is not there.
func (a *Artifact) LoadOrDownload(ctx context.Context) error {
	err := a.Load()
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	log.Infow("downloading artifact", "url", a.RemoteURL, "hash", a.Hash.String())
	return a.Download(ctx)
}

func (a *Artifact) path() string {
	return filepath.Join(BaseDir, hex.EncodeToString(a.Hash))
}

func checkHash(expected, content []byte) error {
	if !CheckHashes {
		return nil
	}
	got := sha256.Sum256(content)
	if !bytes.Equal(got[:], expected) {
		return fmt.Errorf("hash mismatch: expected %x, got %x", expected, got)
	}
	return nil
}

// countingReader counts the bytes read so far.
type countingReader struct {
	r     io.Reader
	total atomic.Int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.total.Add(int64(n))
	return n, err
}

// download stores the content of fileURL in path, through a temporary file
// that is only renamed once the hash matches.
func download(ctx context.Context, fileURL, path string, expectedHash []byte) error {
	if _, err := url.Parse(fileURL); err != nil {
		return fmt.Errorf("error parsing the artifact url: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating the artifacts directory: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return fmt.Errorf("error creating the artifact request: %w", err)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("error downloading artifact: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("error downloading artifact %s: http status: %d", fileURL, res.StatusCode)
	}

	partial := path + ".partial"
	fd, err := os.OpenFile(partial, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("error opening artifact file: %w", err)
	}
	defer os.Remove(partial)

	hasher := sha256.New()
	cr := &countingReader{r: res.Body}
	done := make(chan error, 1)
	go func() {
		_, err := io.Copy(io.MultiWriter(fd, hasher), cr)
		done <- err
	}()
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	for copying := true; copying; {
		select {
		case err := <-done:
			if err != nil {
				fd.Close()
				return fmt.Errorf("error writing artifact: %w", err)
			}
			copying = false
		case <-ticker.C:
			log.Debugw("downloading artifact", "url", fileURL,
				"downloaded", fmt.Sprintf("%.2fMiB", float64(cr.total.Load())/(1024*1024)),
				"size", res.ContentLength)
		}
	}
	if err := fd.Close(); err != nil {
		return fmt.Errorf("error closing artifact file: %w", err)
	}
	if CheckHashes {
		if got := hasher.Sum(nil); !bytes.Equal(got, expectedHash) {
			return fmt.Errorf("hash mismatch: expected %x, got %x", expectedHash, got)
		}
	}
	if err := os.Rename(partial, path); err != nil {
		return fmt.Errorf("error renaming artifact file: %w", err)
	}
	return nil
}
