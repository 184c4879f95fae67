// Package backend is the client for the first-party parse API. The
// backend shields the app from platform scraping: it accepts a share
// URL and returns normalized video data in a {code, data} envelope
// where code 200 signals success.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/markqq/vidflow-desktop/internal/bilibili"
	"github.com/markqq/vidflow-desktop/internal/model"
)

// DefaultBaseURL is the production backend API
const DefaultBaseURL = "https://videoflow.markingchen.cn"

// API endpoints
const (
	ParseDouyinEndpoint   = "/api/parse_video"
	ParseBilibiliEndpoint = "/api/parse_bilibili"
)

// SuccessCode is the envelope code signalling a successful parse
const SuccessCode = 200

// Client calls the backend parse API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a backend client for the given base URL. An empty
// base URL selects the production backend.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: http.DefaultClient,
	}
}

// envelope is the response wrapper of every backend endpoint.
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// DouyinVideo mirrors the parse_video payload.
type DouyinVideo struct {
	Caption         string               `json:"caption"`
	Description     string               `json:"video_desc"`
	AuthorName      string               `json:"author_name"`
	AuthorAvatar    string               `json:"author_avatar"`
	AuthorVerified  bool                 `json:"author_verified"`
	AuthorFans      int64                `json:"author_fans"`
	AuthorSignature string               `json:"author_signature"`
	LikeCount       int64                `json:"video_heart"`
	CommentCount    int64                `json:"video_comment"`
	ShareCount      int64                `json:"video_share"`
	CollectCount    int64                `json:"video_collect"`
	CoverURL        string               `json:"video_cover"`
	DynamicCoverURL string               `json:"video_dynamic_cover"`
	UpdateTime      int64                `json:"update_time"`
	QualityOptions  []model.DouyinOption `json:"video_quality_options"`
	AudioURL        string               `json:"audio_url"`
}

// ParseDouyin resolves a Douyin share URL through the backend.
func (c *Client) ParseDouyin(ctx context.Context, videoURL string) (*DouyinVideo, error) {
	var video DouyinVideo
	if err := c.postParse(ctx, ParseDouyinEndpoint, videoURL, &video); err != nil {
		return nil, err
	}
	return &video, nil
}

// ParseBilibili resolves a Bilibili share URL through the backend. The
// payload has the same shape as the platform's own video-view record.
func (c *Client) ParseBilibili(ctx context.Context, videoURL string) (*bilibili.VideoView, error) {
	var view bilibili.VideoView
	if err := c.postParse(ctx, ParseBilibiliEndpoint, videoURL, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// postParse posts {url} to an endpoint and decodes the envelope data
// into out. Transport failures, non-200 HTTP statuses, non-success
// envelope codes and malformed JSON all surface as errors.
func (c *Client) postParse(ctx context.Context, endpoint, videoURL string, out any) error {
	body, err := json.Marshal(map[string]string{"url": videoURL})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend returned HTTP %d", resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode backend response: %w", err)
	}
	if env.Code != SuccessCode {
		return fmt.Errorf("backend rejected request: code %d %s", env.Code, env.Msg)
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode backend payload: %w", err)
	}
	return nil
}
