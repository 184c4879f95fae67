package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/markqq/vidflow-desktop/internal/model"
	"github.com/markqq/vidflow-desktop/internal/platform"
)

// Transfer constants
const (
	// ChunkSize is the read granularity; progress and cancellation are
	// observed at chunk boundaries
	ChunkSize = 8 * 1024

	// ResponseHeaderTimeout bounds the wait for CDN response headers.
	// The body read itself is unbounded; large transfers are expected.
	ResponseHeaderTimeout = 30 * time.Second

	JobIDPrefix = "dl-"

	VideoExtension = ".mp4"
	AudioExtension = ".m4a"

	// Intermediate leg names inside the mux staging directory
	VideoLegName = "video.m4s"
	AudioLegName = "audio.m4s"

	MuxStagePrefix = "mux-"
)

// Service handles download operations
type Service struct {
	jobs        map[string]*model.DownloadJob
	slots       map[string]*model.DownloadJob // active job per slot
	jobsMutex   sync.RWMutex
	downloadDir string
	client      *http.Client
	muxer       Muxer
	onUpdate    func(*model.DownloadJob) // callback for UI updates
}

// NewService creates a new download service
func NewService(downloadDir string, muxer Muxer) *Service {
	return &Service{
		jobs:        make(map[string]*model.DownloadJob),
		slots:       make(map[string]*model.DownloadJob),
		downloadDir: downloadDir,
		muxer:       muxer,
		client: &http.Client{
			Transport: &http.Transport{ResponseHeaderTimeout: ResponseHeaderTimeout},
		},
	}
}

// SetUpdateCallback sets the callback function for job updates
func (s *Service) SetUpdateCallback(callback func(*model.DownloadJob)) {
	s.onUpdate = callback
}

// SetDownloadDirectory sets the download directory for new jobs
func (s *Service) SetDownloadDirectory(dir string) {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()
	s.downloadDir = dir
}

// Start registers a job for the request and begins the transfer in the
// background. A previous active job on the same slot is cancelled and
// superseded.
func (s *Service) Start(req Request) (*model.DownloadJob, error) {
	if req.Option.URL == "" {
		return nil, fmt.Errorf("rendition has no URL")
	}

	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	if prev, exists := s.slots[req.Slot]; exists && prev.Status.IsActive() {
		prev.Cancel()
	}

	job := &model.DownloadJob{
		ID:        generateJobID(),
		Slot:      req.Slot,
		Status:    model.JobStatusPending,
		StartedAt: time.Now(),
	}

	s.jobs[job.ID] = job
	s.slots[req.Slot] = job

	go s.run(job, req)

	return job, nil
}

// Job returns a job by ID
func (s *Service) Job(id string) (*model.DownloadJob, bool) {
	s.jobsMutex.RLock()
	defer s.jobsMutex.RUnlock()
	job, exists := s.jobs[id]
	return job, exists
}

// ActiveJob returns the job currently owning a slot
func (s *Service) ActiveJob(slot string) (*model.DownloadJob, bool) {
	s.jobsMutex.RLock()
	defer s.jobsMutex.RUnlock()
	job, exists := s.slots[slot]
	return job, exists
}

// CancelSlot requests cancellation of the slot's active job. The
// transfer loop observes the flag at the next chunk boundary and
// removes any partial output.
func (s *Service) CancelSlot(slot string) error {
	s.jobsMutex.RLock()
	defer s.jobsMutex.RUnlock()

	job, exists := s.slots[slot]
	if !exists {
		return fmt.Errorf("no job for slot: %s", slot)
	}
	if !job.Status.IsActive() {
		return fmt.Errorf("job is not active: %s", job.Status)
	}

	job.Cancel()
	return nil
}

// run drives one job to a terminal status.
func (s *Service) run(job *model.DownloadJob, req Request) {
	s.jobsMutex.RLock()
	dir := s.downloadDir
	s.jobsMutex.RUnlock()

	s.setStatus(job, model.JobStatusRunning)

	outputPath, err := s.transfer(job, req, dir)

	s.jobsMutex.Lock()
	switch terminalStatus(err) {
	case model.JobStatusCompleted:
		job.Status = model.JobStatusCompleted
		job.Percent = 100
		job.OutputPath = outputPath
	case model.JobStatusCancelled:
		job.Status = model.JobStatusCancelled
	default:
		job.Status = model.JobStatusFailed
		job.LastError = err.Error()
	}
	job.FinishedAt = time.Now()
	s.jobsMutex.Unlock()

	s.notifyUpdate(job)
}

// terminalStatus maps a transfer result to the job's final status. Only
// a transfer that was actually interrupted counts as cancelled; a flag
// raised after the file is fully on disk leaves the job completed.
func terminalStatus(err error) model.JobStatus {
	switch {
	case err == nil:
		return model.JobStatusCompleted
	case errors.Is(err, ErrCancelled):
		return model.JobStatusCancelled
	default:
		return model.JobStatusFailed
	}
}

// transfer streams the rendition to its final path. Split DASH
// renditions stage both legs in a temporary directory and hand them to
// the muxer; everything else streams directly.
func (s *Service) transfer(job *model.DownloadJob, req Request, dir string) (string, error) {
	if err := platform.CreateDirectoryIfNotExists(dir); err != nil {
		return "", &FileSystemError{Path: dir, Err: err}
	}

	ext := VideoExtension
	if req.Option.IsAudio() {
		ext = AudioExtension
	}
	stem := platform.SanitizeFilename(req.FileStem)
	outputPath := platform.UniquePath(filepath.Join(dir, stem+ext))

	if !req.Option.NeedsMux() {
		if err := s.streamCandidates(job, &req.Option, req.Header, outputPath); err != nil {
			return "", err
		}
		return outputPath, nil
	}

	stage := filepath.Join(dir, MuxStagePrefix+uuid.NewString())
	if err := os.Mkdir(stage, 0755); err != nil {
		return "", &FileSystemError{Path: stage, Err: err}
	}

	videoPath := filepath.Join(stage, VideoLegName)
	audioPath := filepath.Join(stage, AudioLegName)

	if err := s.streamCandidates(job, &req.Option, req.Header, videoPath); err != nil {
		os.RemoveAll(stage)
		return "", err
	}
	if err := s.streamCandidates(job, req.Option.Audio, req.Header, audioPath); err != nil {
		os.RemoveAll(stage)
		return "", err
	}

	// The muxer owns cleanup of the staged legs and their directory
	if err := s.muxer.Mux(videoPath, audioPath, outputPath); err != nil {
		return "", err
	}
	return outputPath, nil
}

// streamCandidates tries the primary URL and then each backup until one
// transfer succeeds. Cancellation and filesystem failures stop the
// sequence; only network failures fall through to the next candidate.
func (s *Service) streamCandidates(job *model.DownloadJob, option *model.RenditionOption, header http.Header, dest string) error {
	candidates := append([]string{option.URL}, option.BackupURLs...)

	var lastErr error
	for _, url := range candidates {
		err := s.streamTo(job, url, header, dest)
		if err == nil {
			return nil
		}
		lastErr = err

		if _, retryable := err.(*NetworkError); !retryable {
			return err
		}
	}
	return lastErr
}

// streamTo performs one HTTP transfer into dest, reporting progress per
// chunk. A cancelled job leaves no partial file behind.
func (s *Service) streamTo(job *model.DownloadJob, url string, header http.Header, dest string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Interrupt a blocked body read when cancellation is requested
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(100 * time.Millisecond):
				if job.IsCancelled() {
					cancel()
					return
				}
			}
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &NetworkError{URL: url, Err: err}
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &NetworkError{URL: url, Err: fmt.Errorf("unexpected status: %s", resp.Status)}
	}

	file, err := os.Create(dest)
	if err != nil {
		return &FileSystemError{Path: dest, Err: err}
	}

	s.jobsMutex.Lock()
	job.BytesReceived = 0
	job.TotalBytes = 0
	if resp.ContentLength > 0 {
		job.TotalBytes = resp.ContentLength
	}
	s.jobsMutex.Unlock()
	s.notifyUpdate(job)

	buf := make([]byte, ChunkSize)
	for {
		if job.IsCancelled() {
			file.Close()
			os.Remove(dest)
			return ErrCancelled
		}

		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := file.Write(buf[:n]); writeErr != nil {
				file.Close()
				os.Remove(dest)
				return &FileSystemError{Path: dest, Err: writeErr}
			}
			s.advanceProgress(job, int64(n))
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			file.Close()
			os.Remove(dest)
			if job.IsCancelled() {
				return ErrCancelled
			}
			return &NetworkError{URL: url, Err: readErr}
		}
	}

	if err := file.Close(); err != nil {
		os.Remove(dest)
		return &FileSystemError{Path: dest, Err: err}
	}
	return nil
}

// advanceProgress adds received bytes and recomputes the floored
// percentage for the current transfer leg.
func (s *Service) advanceProgress(job *model.DownloadJob, n int64) {
	s.jobsMutex.Lock()
	job.BytesReceived += n
	if job.TotalBytes > 0 {
		job.Percent = int(job.BytesReceived * 100 / job.TotalBytes)
	}
	s.jobsMutex.Unlock()

	s.notifyUpdate(job)
}

// setStatus transitions a job and notifies listeners.
func (s *Service) setStatus(job *model.DownloadJob, status model.JobStatus) {
	s.jobsMutex.Lock()
	job.Status = status
	s.jobsMutex.Unlock()

	s.notifyUpdate(job)
}

// notifyUpdate calls the update callback if set
func (s *Service) notifyUpdate(job *model.DownloadJob) {
	if s.onUpdate != nil {
		s.onUpdate(job)
	}
}

// generateJobID generates a unique job ID using UUID v7 for better uniqueness and time ordering
func generateJobID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to timestamp if UUID generation fails
		return fmt.Sprintf(JobIDPrefix+"%d", time.Now().UnixNano())
	}
	return JobIDPrefix + id.String()
}
