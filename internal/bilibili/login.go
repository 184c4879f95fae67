package bilibili

import (
	"context"
	"fmt"
	"net/url"
)

// QR login poll codes returned by the passport endpoint.
const (
	PollSuccess = 0     // confirmed on the phone; cookies issued
	PollExpired = 86038 // QR code expired, generate a new one
	PollScanned = 86090 // scanned, waiting for confirmation
	PollWaiting = 86101 // not scanned yet
)

// QRCode is a freshly generated login QR code. URL is the content to
// render as a QR image; Key identifies the code in poll requests.
type QRCode struct {
	URL string `json:"url"`
	Key string `json:"qrcode_key"`
}

// PollResult is the outcome of one login poll. Cookies and
// RefreshToken are only populated on PollSuccess.
type PollResult struct {
	Code         int
	Message      string
	Cookies      map[string]string
	RefreshToken string
}

// GenerateQR requests a new login QR code from the passport service.
func (c *Client) GenerateQR(ctx context.Context) (*QRCode, error) {
	var qr QRCode
	if err := c.getJSON(ctx, c.PassportBase+"/x/passport-login/web/qrcode/generate", nil, nil, &qr); err != nil {
		return nil, fmt.Errorf("QR code generation failed: %w", err)
	}
	if qr.Key == "" || qr.URL == "" {
		return nil, fmt.Errorf("QR code response missing key or URL")
	}
	return &qr, nil
}

// pollPayload is the data block of a poll response. The poll endpoint
// reports its state code inside data, not in the envelope.
type pollPayload struct {
	Code         int    `json:"code"`
	Message      string `json:"message"`
	RefreshToken string `json:"refresh_token"`
}

// PollQR checks the scan state of a QR code. On PollSuccess the session
// cookies delivered via Set-Cookie are captured into the result.
func (c *Client) PollQR(ctx context.Context, key string) (*PollResult, error) {
	params := url.Values{"qrcode_key": {key}}

	resp, err := c.get(ctx, c.PassportBase+"/x/passport-login/web/qrcode/poll", params, nil)
	if err != nil {
		return nil, fmt.Errorf("login poll failed: %w", err)
	}
	defer resp.Body.Close()

	var payload pollPayload
	if err := decodeEnvelope(resp, &payload); err != nil {
		return nil, fmt.Errorf("login poll failed: %w", err)
	}

	result := &PollResult{Code: payload.Code, Message: payload.Message}
	if payload.Code == PollSuccess {
		result.RefreshToken = payload.RefreshToken
		result.Cookies = make(map[string]string)
		for _, cookie := range resp.Cookies() {
			result.Cookies[cookie.Name] = cookie.Value
		}
		if payload.RefreshToken != "" {
			result.Cookies["refresh_token"] = payload.RefreshToken
		}
	}
	return result, nil
}
