package ui

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/markqq/vidflow-desktop/internal/bilibili"
	"github.com/markqq/vidflow-desktop/internal/credential"
	"github.com/markqq/vidflow-desktop/internal/model"
)

// QR login constants
const (
	LoginPollInterval = 2 * time.Second
	LoginQRPixels     = 220
)

// LoginDialog drives the Bilibili scan-to-login flow: render a QR
// code, poll its state, and persist the issued session cookies.
type LoginDialog struct {
	window  fyne.Window
	bili    *bilibili.Client
	creds   *credential.Store
	onLogin func() // invoked on the UI thread after a successful login

	dialog      dialog.Dialog
	qrImage     *canvas.Image
	statusLabel *widget.Label

	pollInterval time.Duration

	// pollMutex guards cancelPoll: startSession re-enters from the poll
	// goroutine on QR expiry while the UI thread may close the dialog
	pollMutex  sync.Mutex
	cancelPoll context.CancelFunc
}

// NewLoginDialog creates a new login dialog
func NewLoginDialog(window fyne.Window, bili *bilibili.Client, creds *credential.Store, onLogin func()) *LoginDialog {
	ld := &LoginDialog{
		window:       window,
		bili:         bili,
		creds:        creds,
		onLogin:      onLogin,
		pollInterval: LoginPollInterval,
	}

	ld.qrImage = &canvas.Image{FillMode: canvas.ImageFillContain}
	ld.qrImage.SetMinSize(fyne.NewSize(LoginQRPixels, LoginQRPixels))

	ld.statusLabel = widget.NewLabel("Requesting QR code...")
	ld.statusLabel.Alignment = fyne.TextAlignCenter

	content := container.NewVBox(
		widget.NewLabel("Scan with the Bilibili app to log in"),
		ld.qrImage,
		ld.statusLabel,
	)

	ld.dialog = dialog.NewCustom("Bilibili Login", "Close", content, window)
	ld.dialog.SetOnClosed(ld.stopPolling)
	return ld
}

// Show displays the dialog and starts a fresh QR session.
func (ld *LoginDialog) Show() {
	ld.dialog.Show()
	ld.startSession()
}

// startSession generates a QR code and begins polling its state,
// superseding any previous session.
func (ld *LoginDialog) startSession() {
	ctx, cancel := context.WithCancel(context.Background())

	ld.pollMutex.Lock()
	if ld.cancelPoll != nil {
		ld.cancelPoll()
	}
	ld.cancelPoll = cancel
	ld.pollMutex.Unlock()

	go func() {
		qr, err := ld.bili.GenerateQR(ctx)
		if err != nil {
			log.Printf("QR generation failed: %v", err)
			ld.setStatus("Could not reach the login service")
			return
		}

		png, err := qrcode.Encode(qr.URL, qrcode.Medium, LoginQRPixels)
		if err != nil {
			log.Printf("QR render failed: %v", err)
			ld.setStatus("Could not render the QR code")
			return
		}

		fyne.Do(func() {
			ld.qrImage.Resource = fyne.NewStaticResource("login-qr.png", png)
			ld.qrImage.Refresh()
			ld.statusLabel.SetText("Waiting for scan...")
		})

		ld.pollLoop(ctx, qr.Key)
	}()
}

// pollLoop polls the QR state until a terminal code or cancellation.
func (ld *LoginDialog) pollLoop(ctx context.Context, key string) {
	ticker := time.NewTicker(ld.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		result, err := ld.bili.PollQR(ctx, key)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Login poll failed: %v", err)
			continue
		}

		switch result.Code {
		case bilibili.PollWaiting:
			ld.setStatus("Waiting for scan...")
		case bilibili.PollScanned:
			ld.setStatus("Scanned. Confirm on your phone")
		case bilibili.PollExpired:
			ld.setStatus("QR code expired, requesting a new one...")
			if ctx.Err() == nil {
				ld.startSession()
			}
			return
		case bilibili.PollSuccess:
			ld.finishLogin(result)
			return
		default:
			ld.setStatus(fmt.Sprintf("Unexpected login state: %d", result.Code))
		}
	}
}

// finishLogin persists the issued cookies and closes the dialog.
func (ld *LoginDialog) finishLogin(result *bilibili.PollResult) {
	bundle := credential.NewBundle(model.PlatformBilibili, result.Cookies)
	if !ld.creds.Save(bundle) {
		ld.setStatus("Login succeeded but saving the session failed")
		return
	}

	fyne.Do(func() {
		ld.dialog.Hide()
		if ld.onLogin != nil {
			ld.onLogin()
		}
	})
}

// setStatus updates the status line from any goroutine.
func (ld *LoginDialog) setStatus(text string) {
	fyne.Do(func() {
		ld.statusLabel.SetText(text)
	})
}

// stopPolling cancels the active poll loop, if any.
func (ld *LoginDialog) stopPolling() {
	ld.pollMutex.Lock()
	defer ld.pollMutex.Unlock()
	if ld.cancelPoll != nil {
		ld.cancelPoll()
		ld.cancelPoll = nil
	}
}
