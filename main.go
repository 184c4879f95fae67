package main

import (
	"fmt"
	"log"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"github.com/markqq/vidflow-desktop/internal/backend"
	"github.com/markqq/vidflow-desktop/internal/bilibili"
	"github.com/markqq/vidflow-desktop/internal/credential"
	"github.com/markqq/vidflow-desktop/internal/download"
	"github.com/markqq/vidflow-desktop/internal/mux"
	"github.com/markqq/vidflow-desktop/internal/parse"
	"github.com/markqq/vidflow-desktop/internal/platform"
	"github.com/markqq/vidflow-desktop/internal/ui"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

const (
	AppID   = "cn.markingchen.vidflow-desktop"
	AppName = "VidFlow Desktop"

	WindowWidth  = 720
	WindowHeight = 560
)

func main() {
	fmt.Printf("%s v%s starting...\n", AppName, version)

	myApp := app.NewWithID(AppID)
	myApp.Settings().SetTheme(ui.NewCompactTheme())

	myWindow := myApp.NewWindow(fmt.Sprintf("%s v%s", AppName, version))
	myWindow.Resize(fyne.NewSize(WindowWidth, WindowHeight))

	// Initialize services
	configDir, err := platform.ConfigDir()
	if err != nil {
		log.Printf("Config directory unavailable, sessions will not persist: %v", err)
	}
	creds := credential.NewStore(filepath.Join(configDir, credential.LoginFileName))

	backendSvc := backend.NewClient(backend.DefaultBaseURL)
	biliSvc := bilibili.NewClient()
	resolver := parse.NewService(backendSvc, biliSvc, creds)

	downloadsDir, err := platform.GetHomeDownloadsDir()
	if err != nil {
		downloadsDir = "."
	}
	downloadSvc := download.NewService(downloadsDir, mux.NewService())

	// Create and setup UI
	ui.NewRootUI(myWindow, myApp, downloadSvc, backendSvc, biliSvc, creds, resolver)

	// Show and run
	myWindow.ShowAndRun()
}
