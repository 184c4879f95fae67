package model

import (
	"sync/atomic"
	"time"
)

// DownloadJob tracks one in-flight download. A job is created when a
// rendition is selected and becomes inert once it reaches a terminal
// status; a new selection on the same slot supersedes it.
type DownloadJob struct {
	ID   string
	Slot string // presentation slot owning the job; one active job per slot

	Status        JobStatus
	Percent       int   // 0 to 100
	BytesReceived int64 // running byte counter
	TotalBytes    int64 // advertised content length, 0 if unknown
	OutputPath    string
	LastError     string
	StartedAt     time.Time
	FinishedAt    time.Time

	cancelled atomic.Bool
}

// Cancel sets the cooperative cancellation flag. The download loop
// observes it at the next chunk boundary.
func (j *DownloadJob) Cancel() {
	j.cancelled.Store(true)
}

// IsCancelled reports whether cancellation has been requested.
func (j *DownloadJob) IsCancelled() bool {
	return j.cancelled.Load()
}
