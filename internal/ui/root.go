package ui

import (
	"context"
	"fmt"
	"log"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/markqq/vidflow-desktop/internal/backend"
	"github.com/markqq/vidflow-desktop/internal/bilibili"
	"github.com/markqq/vidflow-desktop/internal/config"
	"github.com/markqq/vidflow-desktop/internal/credential"
	"github.com/markqq/vidflow-desktop/internal/download"
	"github.com/markqq/vidflow-desktop/internal/model"
	"github.com/markqq/vidflow-desktop/internal/pipeline"
	"github.com/markqq/vidflow-desktop/internal/platform"
	"github.com/markqq/vidflow-desktop/internal/quality"
)

// UI constants
const (
	// MainSlot is the single presentation slot of the main window
	MainSlot = "main"

	CoverWidth  = 160
	CoverHeight = 100
)

// RootUI represents the main UI structure
type RootUI struct {
	window fyne.Window

	orchestrator *pipeline.Orchestrator
	downloadSvc  download.Downloader
	backendSvc   *backend.Client
	bili         *bilibili.Client
	creds        *credential.Store
	settings     *config.Settings

	// Top panel
	shareEntry   *widget.Entry
	parseBtn     *widget.Button
	sessionLabel *widget.Label

	// Notification panel
	notificationContainer *fyne.Container
	notificationLabel     *widget.Label
	notificationSpinner   *widget.ProgressBarInfinite

	// Metadata card
	metaCard    *fyne.Container
	coverImage  *canvas.Image
	titleLabel  *widget.Label
	authorLabel *widget.Label
	statsLabel  *widget.Label
	tagsLabel   *widget.Label

	// Rendition picker
	optionsBox *fyne.Container

	// Download panel
	downloadPanel *fyne.Container
	progressBar   *widget.ProgressBar
	progressLabel *widget.Label
	cancelBtn     *widget.Button
	revealBtn     *widget.Button

	currentMeta    *model.VideoMetadata
	lastOutputPath string
}

// NewRootUI creates and initializes the main UI
func NewRootUI(window fyne.Window, app fyne.App, downloadSvc download.Downloader, backendSvc *backend.Client, bili *bilibili.Client, creds *credential.Store, resolver pipeline.Resolver) *RootUI {
	settings := config.NewSettings(app)

	ui := &RootUI{
		window:      window,
		downloadSvc: downloadSvc,
		backendSvc:  backendSvc,
		bili:        bili,
		creds:       creds,
		settings:    settings,
	}

	// The orchestrator pushes results back through the Notifier methods
	ui.orchestrator = pipeline.NewOrchestrator(resolver, downloadSvc, creds, ui)

	downloadSvc.SetDownloadDirectory(settings.GetDownloadDirectory())
	backendSvc.BaseURL = settings.GetBackendBaseURL()

	ui.setupUI()
	ui.refreshSessionState()
	return ui
}

// setupUI creates and arranges all UI components
func (ui *RootUI) setupUI() {
	ui.createMenu()

	ui.shareEntry = widget.NewEntry()
	ui.shareEntry.SetPlaceHolder("Paste a Douyin or Bilibili share link...")
	ui.shareEntry.OnSubmitted = func(string) {
		ui.onParseClick()
	}

	ui.parseBtn = widget.NewButton("Parse", ui.onParseClick)

	settingsBtn := widget.NewButton("Settings", ui.onShowSettings)
	settingsBtn.Importance = widget.LowImportance

	ui.sessionLabel = widget.NewLabel("Bilibili: not logged in")

	topPanel := container.NewBorder(nil, nil, container.NewHBox(settingsBtn), ui.parseBtn, ui.shareEntry)

	// Notification panel under the entry row (hidden by default)
	ui.notificationLabel = widget.NewLabel("")
	ui.notificationLabel.Alignment = fyne.TextAlignLeading
	ui.notificationSpinner = widget.NewProgressBarInfinite()
	ui.notificationSpinner.Hide()
	ui.notificationContainer = container.NewHBox(ui.notificationSpinner, container.NewPadded(ui.notificationLabel))
	ui.notificationContainer.Hide()

	topCombined := container.NewVBox(topPanel, ui.notificationContainer)

	// Metadata card (hidden until a parse succeeds)
	ui.coverImage = &canvas.Image{FillMode: canvas.ImageFillContain}
	ui.coverImage.SetMinSize(fyne.NewSize(CoverWidth, CoverHeight))

	ui.titleLabel = widget.NewLabel("")
	ui.titleLabel.TextStyle = fyne.TextStyle{Bold: true}
	ui.titleLabel.Wrapping = fyne.TextWrapWord
	ui.authorLabel = widget.NewLabel("")
	ui.statsLabel = widget.NewLabel("")
	ui.tagsLabel = widget.NewLabel("")
	ui.tagsLabel.Wrapping = fyne.TextWrapWord

	metaText := container.NewVBox(ui.titleLabel, ui.authorLabel, ui.statsLabel, ui.tagsLabel)
	ui.metaCard = container.NewBorder(nil, nil, ui.coverImage, nil, metaText)
	ui.metaCard.Hide()

	// Rendition picker, one button per selectable option
	ui.optionsBox = container.NewVBox()

	// Download progress panel
	ui.progressBar = widget.NewProgressBar()
	ui.progressLabel = widget.NewLabel("")
	ui.cancelBtn = widget.NewButton("Cancel", ui.onCancelClick)
	ui.revealBtn = widget.NewButton("Show in Folder", ui.onRevealClick)
	ui.revealBtn.Hide()
	ui.downloadPanel = container.NewVBox(
		ui.progressBar,
		container.NewHBox(ui.progressLabel, ui.cancelBtn, ui.revealBtn),
	)
	ui.downloadPanel.Hide()

	center := container.NewVBox(
		ui.metaCard,
		widget.NewSeparator(),
		ui.optionsBox,
		ui.downloadPanel,
	)

	content := container.NewBorder(
		topCombined,
		ui.sessionLabel,
		nil,
		nil,
		container.NewVScroll(center),
	)

	ui.window.SetContent(content)
}

// createMenu creates the application menu
func (ui *RootUI) createMenu() {
	settingsItem := fyne.NewMenuItem("Settings", ui.onShowSettings)

	loginItem := fyne.NewMenuItem("Bilibili Login...", ui.onShowLogin)
	logoutItem := fyne.NewMenuItem("Log Out", ui.onLogout)

	mainMenu := fyne.NewMainMenu(
		fyne.NewMenu("File", settingsItem),
		fyne.NewMenu("Account", loginItem, logoutItem),
	)

	ui.window.SetMainMenu(mainMenu)
}

// onParseClick handles the parse button click
func (ui *RootUI) onParseClick() {
	text := strings.TrimSpace(ui.shareEntry.Text)
	if text == "" {
		ui.showNotification("Paste a share link first", false)
		return
	}

	ui.showNotification("Parsing...", true)
	ui.orchestrator.Resolve(MainSlot, text)
}

// onCancelClick requests cancellation of the active download
func (ui *RootUI) onCancelClick() {
	if err := ui.orchestrator.CancelSlot(MainSlot); err != nil {
		log.Printf("Cancel request failed: %v", err)
	}
}

// onRevealClick highlights the last finished file in the file manager
func (ui *RootUI) onRevealClick() {
	if ui.lastOutputPath == "" {
		return
	}
	if err := platform.OpenFileInManager(ui.lastOutputPath); err != nil {
		log.Printf("Failed to reveal file: %v", err)
	}
}

// onShowSettings opens the settings dialog
func (ui *RootUI) onShowSettings() {
	NewSettingsDialog(ui.settings, ui.window, ui.onSettingsSaved).Show()
}

// onSettingsSaved propagates changed settings to the services
func (ui *RootUI) onSettingsSaved() {
	ui.downloadSvc.SetDownloadDirectory(ui.settings.GetDownloadDirectory())
	ui.backendSvc.BaseURL = ui.settings.GetBackendBaseURL()
}

// onShowLogin opens the QR login dialog
func (ui *RootUI) onShowLogin() {
	NewLoginDialog(ui.window, ui.bili, ui.creds, ui.refreshSessionState).Show()
}

// onLogout clears the stored session
func (ui *RootUI) onLogout() {
	if err := ui.creds.Logout(); err != nil {
		log.Printf("Logout failed: %v", err)
	}
	ui.sessionLabel.SetText("Bilibili: not logged in")
}

// refreshSessionState probes the stored session in the background and
// updates the status line.
func (ui *RootUI) refreshSessionState() {
	go func() {
		text := "Bilibili: not logged in"
		if bundle, ok := ui.creds.Load(); ok {
			if identity, valid := ui.bili.CheckSession(context.Background(), bundle); valid {
				text = "Bilibili: " + identity.Name
			}
		}
		fyne.Do(func() {
			ui.sessionLabel.SetText(text)
		})
	}()
}

// MetadataReady renders the resolved video and its rendition options.
func (ui *RootUI) MetadataReady(slot string, meta *model.VideoMetadata, options []model.RenditionOption) {
	fyne.Do(func() {
		ui.currentMeta = meta
		ui.hideNotification()
		ui.renderMetadata(meta)
		ui.renderOptions(meta, options)
		ui.downloadPanel.Hide()
	})

	if meta.CoverURL != "" {
		go ui.loadCover(meta.CoverURL)
	}
}

// Progress updates the download panel for an active job.
func (ui *RootUI) Progress(job *model.DownloadJob) {
	fyne.Do(func() {
		ui.downloadPanel.Show()
		ui.revealBtn.Hide()
		ui.cancelBtn.Show()
		ui.progressBar.SetValue(float64(job.Percent) / 100)
		ui.progressLabel.SetText(formatTransfer(job))
	})
}

// Finished reflects a job's terminal status.
func (ui *RootUI) Finished(job *model.DownloadJob) {
	fyne.Do(func() {
		ui.downloadPanel.Show()
		ui.cancelBtn.Hide()

		switch job.Status {
		case model.JobStatusCompleted:
			ui.lastOutputPath = job.OutputPath
			ui.progressBar.SetValue(1)
			ui.progressLabel.SetText("Saved: " + job.OutputPath)
			ui.revealBtn.Show()
			if ui.settings.GetAutoRevealOnComplete() {
				ui.onRevealClick()
			}
		case model.JobStatusCancelled:
			ui.progressLabel.SetText("Download cancelled")
		default:
			ui.progressLabel.SetText("Download failed: " + job.LastError)
		}
	})
}

// Error surfaces a pipeline failure in the notification panel.
func (ui *RootUI) Error(slot string, err error) {
	log.Printf("Pipeline error on slot %s: %v", slot, err)
	fyne.Do(func() {
		ui.showNotification(err.Error(), false)
	})
}

// renderMetadata fills the metadata card.
func (ui *RootUI) renderMetadata(meta *model.VideoMetadata) {
	ui.titleLabel.SetText(meta.Title)
	ui.authorLabel.SetText(meta.Author.Name)
	ui.statsLabel.SetText(formatStats(meta))

	if len(meta.Tags) > 0 {
		ui.tagsLabel.SetText("#" + strings.Join(meta.Tags, "  #"))
		ui.tagsLabel.Show()
	} else {
		ui.tagsLabel.Hide()
	}

	ui.coverImage.Resource = nil
	ui.coverImage.Refresh()
	ui.metaCard.Show()
}

// renderOptions rebuilds the rendition picker.
func (ui *RootUI) renderOptions(meta *model.VideoMetadata, options []model.RenditionOption) {
	ui.optionsBox.RemoveAll()

	if len(options) == 0 {
		ui.optionsBox.Add(widget.NewLabel("No downloadable renditions found"))
		return
	}

	for _, option := range options {
		opt := option // capture for closure
		btn := widget.NewButton(optionText(opt), func() {
			ui.onOptionSelected(meta, opt)
		})
		ui.optionsBox.Add(btn)
	}
}

// onOptionSelected starts downloading the chosen rendition.
func (ui *RootUI) onOptionSelected(meta *model.VideoMetadata, option model.RenditionOption) {
	if _, err := ui.orchestrator.DownloadSelected(MainSlot, meta, option); err != nil {
		ui.showNotification("Could not start download: "+err.Error(), false)
		return
	}

	ui.downloadPanel.Show()
	ui.revealBtn.Hide()
	ui.cancelBtn.Show()
	ui.progressBar.SetValue(0)
	ui.progressLabel.SetText("Starting...")
}

// loadCover fetches the cover image and swaps it in on the UI thread.
func (ui *RootUI) loadCover(url string) {
	res, err := fetchImageResource(url)
	if err != nil {
		log.Printf("Cover load failed: %v", err)
		return
	}
	fyne.Do(func() {
		ui.coverImage.Resource = res
		ui.coverImage.Refresh()
	})
}

// showNotification displays a message, optionally with a busy spinner.
func (ui *RootUI) showNotification(text string, busy bool) {
	ui.notificationLabel.SetText(text)
	if busy {
		ui.notificationSpinner.Show()
	} else {
		ui.notificationSpinner.Hide()
	}
	ui.notificationContainer.Show()
}

// hideNotification hides the notification panel.
func (ui *RootUI) hideNotification() {
	ui.notificationContainer.Hide()
}

// optionText builds the picker label for a rendition.
func optionText(option model.RenditionOption) string {
	if option.IsAudio() {
		return quality.AudioLabel
	}

	parts := []string{option.Label}
	if option.Width > 0 && option.Height > 0 {
		parts = append(parts, fmt.Sprintf("%dx%d", option.Width, option.Height))
	}
	if option.Codecs != "" {
		parts = append(parts, option.Codecs)
	}
	return strings.Join(parts, "  ")
}

// formatStats builds the one-line engagement summary.
func formatStats(meta *model.VideoMetadata) string {
	s := meta.Stats
	text := fmt.Sprintf("Likes %d · Comments %d · Shares %d · Favorites %d", s.Likes, s.Comments, s.Shares, s.Favorites)
	if meta.Platform == model.PlatformBilibili {
		text += fmt.Sprintf(" · Coins %d", s.CoinCount)
	}
	return text
}

// formatTransfer renders the running byte counter.
func formatTransfer(job *model.DownloadJob) string {
	received := float64(job.BytesReceived) / (1 << 20)
	if job.TotalBytes > 0 {
		total := float64(job.TotalBytes) / (1 << 20)
		return fmt.Sprintf("%.1f / %.1f MB", received, total)
	}
	return fmt.Sprintf("%.1f MB", received)
}
