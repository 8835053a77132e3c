package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/theplebdev/tmichat/internal/constants"
)

// FileSource reads credentials from a JSON secrets file and re-reads it on an
// interval, so tokens refreshed out of band (by a separate login flow writing
// the same file) reach subscribers without a restart.
type FileSource struct {
	path     string
	interval time.Duration

	mu      sync.Mutex
	modTime time.Time
	cached  fileCreds
	loaded  bool
}

type fileCreds struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
}

// NewFileSource creates a FileSource polling path at the default interval.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path, interval: constants.TokenPollInterval}
}

// NewFileSourceInterval creates a FileSource with a custom poll interval.
func NewFileSourceInterval(path string, interval time.Duration) *FileSource {
	return &FileSource{path: path, interval: interval}
}

// Tokens emits the current token and then re-emits whenever the secrets file
// changes. Read failures between emissions are skipped; the last good token
// stands until a new one can be read.
func (s *FileSource) Tokens(ctx context.Context) <-chan string {
	ch := make(chan string, 1)

	if creds, err := s.load(); err == nil {
		ch <- creds.AccessToken
	}

	go func() {
		defer close(ch)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				creds, changed, err := s.reload()
				if err != nil || !changed {
					continue
				}
				select {
				case ch <- creds.AccessToken:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch
}

// Username returns the login stored in the secrets file.
func (s *FileSource) Username(context.Context) (string, error) {
	creds, err := s.load()
	if err != nil {
		return "", err
	}
	if creds.Username == "" {
		return "", fmt.Errorf("secrets file %s: username not set", s.path)
	}
	return creds.Username, nil
}

func (s *FileSource) load() (fileCreds, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// reload re-reads the file only when its mtime moved, and reports whether the
// token actually changed.
func (s *FileSource) reload() (fileCreds, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	if err != nil {
		return fileCreds{}, false, fmt.Errorf("stat secrets file: %w", err)
	}
	if s.loaded && info.ModTime().Equal(s.modTime) {
		return s.cached, false, nil
	}

	prev := s.cached.AccessToken
	creds, err := s.loadLocked()
	if err != nil {
		return fileCreds{}, false, err
	}
	return creds, creds.AccessToken != prev, nil
}

func (s *FileSource) loadLocked() (fileCreds, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fileCreds{}, fmt.Errorf("reading secrets file: %w", err)
	}

	var creds fileCreds
	if err := json.Unmarshal(data, &creds); err != nil {
		return fileCreds{}, fmt.Errorf("parsing secrets file %s: %w", s.path, err)
	}
	if creds.AccessToken == "" {
		return fileCreds{}, fmt.Errorf("secrets file %s: access_token not set", s.path)
	}

	if info, err := os.Stat(s.path); err == nil {
		s.modTime = info.ModTime()
	}
	s.cached = creds
	s.loaded = true
	return creds, nil
}
