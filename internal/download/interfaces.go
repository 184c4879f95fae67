package download

import (
	"net/http"

	"github.com/markqq/vidflow-desktop/internal/model"
)

// Muxer merges a downloaded video leg and audio leg into one container.
// The implementation owns cleanup of both input files.
type Muxer interface {
	Mux(videoPath, audioPath, outputPath string) error
}

// Downloader defines the interface for the download service.
type Downloader interface {
	SetUpdateCallback(func(*model.DownloadJob))
	Start(req Request) (*model.DownloadJob, error)
	Job(id string) (*model.DownloadJob, bool)
	ActiveJob(slot string) (*model.DownloadJob, bool)
	CancelSlot(slot string) error
	SetDownloadDirectory(dir string)
}

// Request describes one rendition selected for download.
type Request struct {
	// Slot is the presentation slot owning the job. Starting a request
	// on a slot cancels the slot's previous active job.
	Slot string

	// FileStem is the unsanitized base name for the output file, without
	// extension.
	FileStem string

	Option model.RenditionOption

	// Header carries transfer headers (cookies, referer) attached to
	// every CDN request of this job. May be nil.
	Header http.Header
}
