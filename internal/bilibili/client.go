// Package bilibili is a direct client for the Bilibili web API: the
// session probe, video-view and playback-URL endpoints used by the
// authenticated resolution path, and the QR-code login flow that
// produces a cookie bundle.
package bilibili

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"

	"github.com/markqq/vidflow-desktop/internal/credential"
	"github.com/markqq/vidflow-desktop/internal/model"
)

// Default endpoint hosts
const (
	DefaultAPIBase      = "https://api.bilibili.com"
	DefaultPassportBase = "https://passport.bilibili.com"
)

// Browser identity headers. The platform rejects requests without a
// desktop user agent and a matching referer.
const (
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	Referer   = "https://www.bilibili.com/"
	Origin    = "https://www.bilibili.com"
)

// Playback request parameters: highest tiered quality, DASH format,
// 4K enabled.
const (
	PlayURLQuality = "80"
	PlayURLFnval   = "4048"
	PlayURLFourk   = "1"
)

// Video id patterns
var (
	bvPattern = regexp.MustCompile(`[Bb][Vv]([A-Za-z0-9]+)`)
	avPattern = regexp.MustCompile(`av(\d+)`)
)

// VideoID is a BV- or AV-style video identifier expressed as the query
// parameter the web API expects.
type VideoID struct {
	Param string // "bvid" or "aid"
	Value string
}

// ExtractVideoID pulls a BV-id or AV-id out of a video URL. The second
// return value is false when neither pattern matches.
func ExtractVideoID(videoURL string) (VideoID, bool) {
	if m := bvPattern.FindStringSubmatch(videoURL); m != nil {
		return VideoID{Param: "bvid", Value: "BV" + m[1]}, true
	}
	if m := avPattern.FindStringSubmatch(videoURL); m != nil {
		return VideoID{Param: "aid", Value: m[1]}, true
	}
	return VideoID{}, false
}

// UserIdentity is the subset of the nav endpoint payload the app uses.
type UserIdentity struct {
	Name    string `json:"uname"`
	IsLogin bool   `json:"isLogin"`
	Avatar  string `json:"face"`
}

// Page is one content page of a video; multi-part videos have several.
type Page struct {
	CID  int64  `json:"cid"`
	Page int    `json:"page"`
	Part string `json:"part"`
}

// Owner is the uploader record of a video-view payload.
type Owner struct {
	Name string `json:"name"`
	Face string `json:"face"`
}

// Stat holds the counter block of a video-view payload.
type Stat struct {
	Like     int64 `json:"like"`
	Reply    int64 `json:"reply"`
	Share    int64 `json:"share"`
	Favorite int64 `json:"favorite"`
	Coin     int64 `json:"coin"`
}

// VideoView is the video-info record of the web-interface/view
// endpoint. The backend's parse_bilibili payload shares this shape;
// Cover is the backend's cover field, Pic the platform's.
type VideoView struct {
	BVID    string          `json:"bvid"`
	AID     int64           `json:"aid"`
	Title   string          `json:"title"`
	Desc    string          `json:"desc"`
	Pic     string          `json:"pic"`
	Cover   string          `json:"cover"`
	Pubdate int64           `json:"pubdate"`
	Owner   Owner           `json:"owner"`
	Stat    Stat            `json:"stat"`
	Pages   []Page          `json:"pages"`
	Play    *model.PlayInfo `json:"play_info,omitempty"`
}

// CoverURL returns whichever cover field is populated.
func (v *VideoView) CoverURL() string {
	if v.Pic != "" {
		return v.Pic
	}
	return v.Cover
}

// Client calls the Bilibili web API directly.
type Client struct {
	APIBase      string
	PassportBase string
	HTTPClient   *http.Client
}

// NewClient creates a client against the production endpoints.
func NewClient() *Client {
	return &Client{
		APIBase:      DefaultAPIBase,
		PassportBase: DefaultPassportBase,
		HTTPClient:   http.DefaultClient,
	}
}

// apiEnvelope wraps every web API response; code 0 is success.
type apiEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// CheckSession probes the nav ("current user") endpoint with the
// bundle's cookies. It returns (identity, true) only for a live
// session; every failure mode (transport, HTTP status, envelope code,
// isLogin false) reads as (nil, false). Read-only, no side effects.
func (c *Client) CheckSession(ctx context.Context, bundle *credential.Bundle) (*UserIdentity, bool) {
	var identity UserIdentity
	if err := c.getJSON(ctx, c.APIBase+"/x/web-interface/nav", nil, bundle, &identity); err != nil {
		return nil, false
	}
	if !identity.IsLogin {
		return nil, false
	}
	return &identity, true
}

// VideoView fetches the video-info record for a video id.
func (c *Client) VideoView(ctx context.Context, bundle *credential.Bundle, id VideoID) (*VideoView, error) {
	params := url.Values{id.Param: {id.Value}}

	var view VideoView
	if err := c.getJSON(ctx, c.APIBase+"/x/web-interface/view", params, bundle, &view); err != nil {
		return nil, fmt.Errorf("video view request failed: %w", err)
	}
	return &view, nil
}

// PlayInfo fetches the playback payload for a video page, requesting
// the highest tiered quality in DASH format.
func (c *Client) PlayInfo(ctx context.Context, bundle *credential.Bundle, bvid string, cid int64) (*model.PlayInfo, error) {
	params := url.Values{
		"bvid":  {bvid},
		"cid":   {fmt.Sprintf("%d", cid)},
		"qn":    {PlayURLQuality},
		"fnval": {PlayURLFnval},
		"fourk": {PlayURLFourk},
	}

	var play model.PlayInfo
	if err := c.getJSON(ctx, c.APIBase+"/x/player/playurl", params, bundle, &play); err != nil {
		return nil, fmt.Errorf("playurl request failed: %w", err)
	}
	return &play, nil
}

// getJSON issues an authenticated GET and decodes the envelope data
// into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, bundle *credential.Bundle, out any) error {
	resp, err := c.get(ctx, endpoint, params, bundle)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeEnvelope(resp, out)
}

// decodeEnvelope validates the HTTP status and the {code, data}
// envelope of a web API response and unmarshals data into out. The
// caller owns the response body.
func decodeEnvelope(resp *http.Response, out any) error {
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}
	if env.Code != 0 {
		return fmt.Errorf("API code %d: %s", env.Code, env.Message)
	}
	return json.Unmarshal(env.Data, out)
}

// get issues a GET with the browser identity headers and, when a
// bundle is present, its cookies.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, bundle *credential.Bundle) (*http.Response, error) {
	target := endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Referer", Referer)
	req.Header.Set("Origin", Origin)
	if bundle != nil {
		req.Header.Set("Cookie", bundle.CookieHeader())
	}

	return c.HTTPClient.Do(req)
}
