package ui

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"fyne.io/fyne/v2"

	"github.com/markqq/vidflow-desktop/internal/bilibili"
)

// Cover loading constants
const (
	CoverFetchTimeout = 15 * time.Second
	CoverMaxBytes     = 8 << 20
)

var coverClient = &http.Client{Timeout: CoverFetchTimeout}

// fetchImageResource downloads a cover image into a Fyne resource. The
// Bilibili image CDN rejects requests without a browser user agent.
func fetchImageResource(url string) (fyne.Resource, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build cover request: %w", err)
	}
	req.Header.Set("User-Agent", bilibili.UserAgent)

	resp, err := coverClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cover: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected cover status: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, CoverMaxBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read cover body: %w", err)
	}

	return fyne.NewStaticResource("cover", data), nil
}
