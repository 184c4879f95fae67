package download

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markqq/vidflow-desktop/internal/model"
)

// fakeMuxer stands in for the ffmpeg step: it concatenates the staged
// legs into the output and performs the cleanup contract.
type fakeMuxer struct {
	mu         sync.Mutex
	calls      int
	videoPath  string
	audioPath  string
	outputPath string
}

func (m *fakeMuxer) Mux(videoPath, audioPath, outputPath string) error {
	m.mu.Lock()
	m.calls++
	m.videoPath = videoPath
	m.audioPath = audioPath
	m.outputPath = outputPath
	m.mu.Unlock()

	video, err := os.ReadFile(videoPath)
	if err != nil {
		return err
	}
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, append(video, audio...), 0644); err != nil {
		return err
	}
	return os.RemoveAll(filepath.Dir(videoPath))
}

func waitForTerminal(t *testing.T, job *model.DownloadJob) {
	t.Helper()
	require.Eventually(t, func() bool {
		return job.Status.IsFinished()
	}, 5*time.Second, 10*time.Millisecond, "job never reached a terminal status")
}

func TestStartStreamsToDisk(t *testing.T) {
	payload := make([]byte, 20*1024)
	for i := range payload {
		payload[i] = byte(i % 251)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	svc := NewService(dir, &fakeMuxer{})

	job, err := svc.Start(Request{
		Slot:     "main",
		FileStem: "测试视频",
		Option:   model.RenditionOption{Kind: model.RenditionVideo, URL: srv.URL + "/v.mp4"},
	})
	require.NoError(t, err)
	waitForTerminal(t, job)

	assert.Equal(t, model.JobStatusCompleted, job.Status)
	assert.Equal(t, 100, job.Percent)
	assert.Equal(t, filepath.Join(dir, "测试视频.mp4"), job.OutputPath)

	written, err := os.ReadFile(job.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, payload, written)
}

func TestStartSanitizesAndDisambiguates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_b.mp4"), []byte("existing"), 0644))

	svc := NewService(dir, &fakeMuxer{})
	job, err := svc.Start(Request{
		Slot:     "main",
		FileStem: "a/b",
		Option:   model.RenditionOption{Kind: model.RenditionVideo, URL: srv.URL},
	})
	require.NoError(t, err)
	waitForTerminal(t, job)

	require.Equal(t, model.JobStatusCompleted, job.Status)
	assert.Equal(t, filepath.Join(dir, "a_b(1).mp4"), job.OutputPath)
}

func TestCancelLeavesNoPartialFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", fmt.Sprint(1024*1024))
		flusher := w.(http.Flusher)
		chunk := make([]byte, 1024)
		for i := 0; i < 1024; i++ {
			if _, err := w.Write(chunk); err != nil {
				return
			}
			flusher.Flush()
			time.Sleep(5 * time.Millisecond)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	svc := NewService(dir, &fakeMuxer{})

	started := make(chan struct{})
	var once sync.Once
	svc.SetUpdateCallback(func(job *model.DownloadJob) {
		if job.BytesReceived > 0 {
			once.Do(func() { close(started) })
		}
	})

	job, err := svc.Start(Request{
		Slot:     "main",
		FileStem: "partial",
		Option:   model.RenditionOption{Kind: model.RenditionVideo, URL: srv.URL},
	})
	require.NoError(t, err)

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("transfer never started")
	}
	require.NoError(t, svc.CancelSlot("main"))
	waitForTerminal(t, job)

	assert.Equal(t, model.JobStatusCancelled, job.Status)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "cancellation must remove partial output")
}

func TestDashLegsDownloadedThenMuxed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/video":
			w.Write([]byte("VIDEO"))
		case "/audio":
			w.Write([]byte("AUDIO"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	muxer := &fakeMuxer{}
	svc := NewService(dir, muxer)

	job, err := svc.Start(Request{
		Slot:     "main",
		FileStem: "dash",
		Option: model.RenditionOption{
			Kind: model.RenditionVideo,
			URL:  srv.URL + "/video",
			Audio: &model.RenditionOption{
				Kind: model.RenditionAudio,
				URL:  srv.URL + "/audio",
			},
		},
	})
	require.NoError(t, err)
	waitForTerminal(t, job)

	require.Equal(t, model.JobStatusCompleted, job.Status)
	assert.Equal(t, 1, muxer.calls)
	assert.Equal(t, VideoLegName, filepath.Base(muxer.videoPath))
	assert.Equal(t, AudioLegName, filepath.Base(muxer.audioPath))
	assert.Equal(t, filepath.Join(dir, "dash.mp4"), job.OutputPath)

	written, err := os.ReadFile(job.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "VIDEOAUDIO", string(written))

	// The staging directory is gone once the mux step finishes
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestRequestHeadersForwarded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "SESSDATA=abc", r.Header.Get("Cookie"))
		assert.Equal(t, "https://www.bilibili.com/", r.Header.Get("Referer"))
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	header := http.Header{}
	header.Set("Cookie", "SESSDATA=abc")
	header.Set("Referer", "https://www.bilibili.com/")

	svc := NewService(t.TempDir(), &fakeMuxer{})
	job, err := svc.Start(Request{
		Slot:     "main",
		FileStem: "cookies",
		Option:   model.RenditionOption{Kind: model.RenditionVideo, URL: srv.URL},
		Header:   header,
	})
	require.NoError(t, err)
	waitForTerminal(t, job)
	assert.Equal(t, model.JobStatusCompleted, job.Status)
}

func TestBackupURLTriedAfterNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/primary":
			w.WriteHeader(http.StatusBadGateway)
		case "/backup":
			w.Write([]byte("fallback"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	svc := NewService(t.TempDir(), &fakeMuxer{})
	job, err := svc.Start(Request{
		Slot:     "main",
		FileStem: "resilient",
		Option: model.RenditionOption{
			Kind:       model.RenditionVideo,
			URL:        srv.URL + "/primary",
			BackupURLs: []string{srv.URL + "/backup"},
		},
	})
	require.NoError(t, err)
	waitForTerminal(t, job)

	require.Equal(t, model.JobStatusCompleted, job.Status)
	written, err := os.ReadFile(job.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "fallback", string(written))
}

func TestStartSupersedesActiveSlotJob(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			w.Header().Set("Content-Length", "4096")
			w.Write(make([]byte, 1024))
			w.(http.Flusher).Flush()
			<-release
			return
		}
		w.Write([]byte("fast"))
	}))
	defer srv.Close()
	defer close(release)

	svc := NewService(t.TempDir(), &fakeMuxer{})

	first, err := svc.Start(Request{
		Slot:     "main",
		FileStem: "first",
		Option:   model.RenditionOption{Kind: model.RenditionVideo, URL: srv.URL + "/slow"},
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return first.BytesReceived > 0 }, 5*time.Second, 10*time.Millisecond)

	second, err := svc.Start(Request{
		Slot:     "main",
		FileStem: "second",
		Option:   model.RenditionOption{Kind: model.RenditionVideo, URL: srv.URL + "/fast"},
	})
	require.NoError(t, err)

	waitForTerminal(t, first)
	waitForTerminal(t, second)

	assert.Equal(t, model.JobStatusCancelled, first.Status)
	assert.Equal(t, model.JobStatusCompleted, second.Status)

	active, exists := svc.ActiveJob("main")
	require.True(t, exists)
	assert.Equal(t, second.ID, active.ID)
}

// lateCancelMuxer raises the job's cancel flag once both legs are on
// disk, then delegates to the real concatenation.
type lateCancelMuxer struct {
	fakeMuxer
	jobCh chan *model.DownloadJob
}

func (m *lateCancelMuxer) Mux(videoPath, audioPath, outputPath string) error {
	job := <-m.jobCh
	job.Cancel()
	return m.fakeMuxer.Mux(videoPath, audioPath, outputPath)
}

func TestTerminalStatusClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want model.JobStatus
	}{
		{"success", nil, model.JobStatusCompleted},
		{"cancelled", ErrCancelled, model.JobStatusCancelled},
		{"wrapped cancelled", fmt.Errorf("leg: %w", ErrCancelled), model.JobStatusCancelled},
		{"network failure", &NetworkError{URL: "http://x", Err: fmt.Errorf("boom")}, model.JobStatusFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, terminalStatus(tc.err))
		})
	}
}

func TestLateCancelAfterTransferKeepsCompletedFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/video":
			w.Write([]byte("VIDEO"))
		case "/audio":
			w.Write([]byte("AUDIO"))
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	muxer := &lateCancelMuxer{jobCh: make(chan *model.DownloadJob, 1)}
	svc := NewService(dir, muxer)

	job, err := svc.Start(Request{
		Slot:     "main",
		FileStem: "finished",
		Option: model.RenditionOption{
			Kind: model.RenditionVideo,
			URL:  srv.URL + "/video",
			Audio: &model.RenditionOption{
				Kind: model.RenditionAudio,
				URL:  srv.URL + "/audio",
			},
		},
	})
	require.NoError(t, err)
	muxer.jobCh <- job
	waitForTerminal(t, job)

	// The flag arrived after the transfer already succeeded; the job
	// stays completed and the finished file stays on disk
	assert.Equal(t, model.JobStatusCompleted, job.Status)
	assert.Equal(t, filepath.Join(dir, "finished.mp4"), job.OutputPath)
	written, err := os.ReadFile(job.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "VIDEOAUDIO", string(written))
}

func TestStartRejectsEmptyURL(t *testing.T) {
	svc := NewService(t.TempDir(), &fakeMuxer{})
	_, err := svc.Start(Request{Slot: "main", FileStem: "x"})
	assert.Error(t, err)
}
