package platform

import (
	"regexp"
	"strings"

	"github.com/markqq/vidflow-desktop/internal/model"
)

// URL extraction patterns, tried in order. The bare short-link pattern
// catches Douyin share text that omits the scheme.
var (
	fullURLPattern       = regexp.MustCompile(`https?://[^\s]+`)
	bareShortLinkPattern = regexp.MustCompile(`v\.douyin\.com/[A-Za-z0-9]+`)
)

// platformPatterns maps host substrings to platform identifiers.
// First match wins.
var platformPatterns = []struct {
	platform model.PlatformID
	patterns []string
}{
	{model.PlatformDouyin, []string{"douyin.com", "v.douyin.com", "iesdouyin.com"}},
	{model.PlatformBilibili, []string{"bilibili.com", "b23.tv"}},
}

// ExtractURL scans free-form share text for the first URL substring.
// A bare short-link match is normalized to a full https:// URL. When
// nothing matches, the trimmed input is returned unchanged and
// classification will fail downstream.
func ExtractURL(text string) string {
	if match := fullURLPattern.FindString(text); match != "" {
		return match
	}
	if match := bareShortLinkPattern.FindString(text); match != "" {
		return "https://" + match
	}
	return strings.TrimSpace(text)
}

// Classify tests the URL against the static per-platform pattern table.
// The second return value is false for unsupported platforms.
func Classify(url string) (model.PlatformID, bool) {
	for _, entry := range platformPatterns {
		for _, pattern := range entry.patterns {
			if strings.Contains(url, pattern) {
				return entry.platform, true
			}
		}
	}
	return "", false
}
