package model

import "time"

// Author describes the uploader of a video.
type Author struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatar"`
	Verified  bool   `json:"verified"`
	Followers int64  `json:"followers"`
	Signature string `json:"signature"`
}

// Stats holds the engagement counters of a video. CoinCount is only
// populated for Bilibili.
type Stats struct {
	Likes     int64 `json:"likes"`
	Comments  int64 `json:"comments"`
	Shares    int64 `json:"shares"`
	Favorites int64 `json:"favorites"`
	CoinCount int64 `json:"coins,omitempty"`
}

// VideoMetadata is the normalized metadata record produced by the
// metadata fetcher, regardless of source platform. Exactly one of the
// rendition payloads is populated: DouyinOptions for Douyin, Play for
// Bilibili. Both may be empty when the upstream playback-info fetch
// failed; the quality enumerator then yields an empty option list.
type VideoMetadata struct {
	Platform    PlatformID `json:"platform"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Author      Author     `json:"author"`
	Stats       Stats      `json:"stats"`
	CoverURL    string     `json:"cover_url"`
	PublishedAt time.Time  `json:"published_at"`

	// Tags is the hashtag list scanned from the caption (Douyin only).
	Tags []string `json:"tags,omitempty"`

	// DouyinOptions are the selectable renditions pre-built by the
	// backend API (Douyin only).
	DouyinOptions []DouyinOption `json:"video_quality_options,omitempty"`

	// AudioURL is the extracted soundtrack URL (Douyin only); empty when
	// the backend exposes none.
	AudioURL string `json:"audio_url,omitempty"`

	// Play carries the Bilibili playback payload (DASH or legacy durl).
	Play *PlayInfo `json:"play_info,omitempty"`
}

// PlayInfo is the Bilibili playback payload attached to a video-view
// record. It is a tagged variant: Dash is set for the DASH shape and
// Durl for the legacy single-stream shape.
type PlayInfo struct {
	Quality int           `json:"quality"`
	Dash    *DashInfo     `json:"dash,omitempty"`
	Durl    []DurlSegment `json:"durl,omitempty"`
}

// DashInfo holds the separate video and audio elementary stream lists
// of a DASH playback payload.
type DashInfo struct {
	Video []DashStream `json:"video"`
	Audio []DashStream `json:"audio"`
}

// DashStream is a single DASH elementary stream entry.
type DashStream struct {
	ID        int      `json:"id"`
	BaseURL   string   `json:"base_url"`
	BackupURL []string `json:"backup_url"`
	Bandwidth int      `json:"bandwidth"`
	Width     int      `json:"width"`
	Height    int      `json:"height"`
	FrameRate string   `json:"frame_rate"`
	Codecs    string   `json:"codecs"`
}

// DurlSegment is one segment of a legacy (non-DASH) playback payload.
// The first segment carries the combined audio+video URL.
type DurlSegment struct {
	URL       string   `json:"url"`
	BackupURL []string `json:"backup_url"`
}

// DouyinOption is one pre-built rendition entry returned by the backend
// API for Douyin videos.
type DouyinOption struct {
	Resolution string `json:"resolution"`
	FPS        int    `json:"fps"`
	Bitrate    string `json:"bitrate"`
	Encoding   string `json:"encoding"`
	Size       string `json:"size"`
	Format     string `json:"format"`
	URL        string `json:"url"`
}
