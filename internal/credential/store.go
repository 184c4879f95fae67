// Package credential persists the cookie bundle of a logged-in
// platform session as a JSON file in the per-user config directory.
// Presence of a bundle never implies validity; callers confirm
// liveness with a session check against the platform.
package credential

import (
	"encoding/json"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/markqq/vidflow-desktop/internal/model"
)

// LoginFileName is the credential file name inside the config directory
const LoginFileName = "login.json"

// Bundle is a persisted cookie set captured by a completed login flow.
// Bundles are never mutated in place; a fresh login replaces the file
// wholesale and readers reload it.
type Bundle struct {
	Cookies   map[string]string `json:"cookies"`
	LoginTime float64           `json:"login_time"`
	Platform  model.PlatformID  `json:"platform"`
}

// NewBundle creates a bundle for the given platform, stamped with the
// current time.
func NewBundle(platform model.PlatformID, cookies map[string]string) *Bundle {
	return &Bundle{
		Cookies:   cookies,
		LoginTime: float64(time.Now().UnixNano()) / float64(time.Second),
		Platform:  platform,
	}
}

// CookieHeader renders the bundle as a Cookie request-header value.
// Names are sorted for a deterministic header.
func (b *Bundle) CookieHeader() string {
	names := make([]string, 0, len(b.Cookies))
	for name := range b.Cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+b.Cookies[name])
	}
	return strings.Join(pairs, "; ")
}

// Store reads and writes the credential file.
type Store struct {
	path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the credential file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted bundle. A missing file, malformed content,
// or an empty cookie set all yield (nil, false); Load never fails to
// the caller.
func (s *Store) Load() (*Bundle, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, false
	}

	var bundle Bundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		log.Printf("Ignoring malformed credential file %s: %v", s.path, err)
		return nil, false
	}
	if len(bundle.Cookies) == 0 {
		return nil, false
	}
	return &bundle, true
}

// Save serializes the bundle to the store's path. I/O errors are
// logged and reported as false; the caller is not crashed.
func (s *Store) Save(bundle *Bundle) bool {
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		log.Printf("Failed to marshal credentials: %v", err)
		return false
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		log.Printf("Failed to write credential file %s: %v", s.path, err)
		return false
	}
	return true
}

// Logout deletes the persisted credential file. Idempotent: a missing
// file is not an error.
func (s *Store) Logout() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
