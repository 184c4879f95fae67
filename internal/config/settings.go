package config

import (
	"fyne.io/fyne/v2"

	"github.com/markqq/vidflow-desktop/internal/backend"
	"github.com/markqq/vidflow-desktop/internal/platform"
)

// Settings keys for Fyne preferences
const (
	KeyDownloadDir        = "download_directory"
	KeyBackendBaseURL     = "backend_base_url"
	KeyAutoRevealComplete = "auto_reveal_on_complete"
)

// Default values
const (
	DefaultAutoRevealComplete = false
)

// Settings manages application configuration
type Settings struct {
	app fyne.App
}

// NewSettings creates a new settings manager
func NewSettings(app fyne.App) *Settings {
	return &Settings{app: app}
}

// GetDownloadDirectory returns the configured download directory
func (s *Settings) GetDownloadDirectory() string {
	dir := s.app.Preferences().String(KeyDownloadDir)
	if dir == "" {
		// Use system default Downloads directory
		defaultDir, err := platform.GetHomeDownloadsDir()
		if err != nil {
			defaultDir = "/tmp/downloads"
		}
		s.SetDownloadDirectory(defaultDir)
		return defaultDir
	}
	return dir
}

// SetDownloadDirectory sets the download directory
func (s *Settings) SetDownloadDirectory(dir string) {
	s.app.Preferences().SetString(KeyDownloadDir, dir)
}

// GetBackendBaseURL returns the parse-backend base URL
func (s *Settings) GetBackendBaseURL() string {
	url := s.app.Preferences().String(KeyBackendBaseURL)
	if url == "" {
		s.SetBackendBaseURL(backend.DefaultBaseURL)
		return backend.DefaultBaseURL
	}
	return url
}

// SetBackendBaseURL sets the parse-backend base URL. An empty value
// restores the default.
func (s *Settings) SetBackendBaseURL(url string) {
	if url == "" {
		url = backend.DefaultBaseURL
	}
	s.app.Preferences().SetString(KeyBackendBaseURL, url)
}

// GetAutoRevealOnComplete returns whether to auto-reveal completed downloads
func (s *Settings) GetAutoRevealOnComplete() bool {
	return s.app.Preferences().BoolWithFallback(KeyAutoRevealComplete, DefaultAutoRevealComplete)
}

// SetAutoRevealOnComplete sets whether to auto-reveal completed downloads
func (s *Settings) SetAutoRevealOnComplete(autoReveal bool) {
	s.app.Preferences().SetBool(KeyAutoRevealComplete, autoReveal)
}
