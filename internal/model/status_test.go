package model

import "testing"

func TestJobStatusIsActive(t *testing.T) {
	tests := []struct {
		status   JobStatus
		expected bool
	}{
		{JobStatusPending, true},
		{JobStatusRunning, true},
		{JobStatusCompleted, false},
		{JobStatusFailed, false},
		{JobStatusCancelled, false},
	}

	for _, test := range tests {
		if got := test.status.IsActive(); got != test.expected {
			t.Errorf("%s.IsActive() = %v, expected %v", test.status, got, test.expected)
		}
	}
}

func TestJobStatusIsFinished(t *testing.T) {
	tests := []struct {
		status   JobStatus
		expected bool
	}{
		{JobStatusPending, false},
		{JobStatusRunning, false},
		{JobStatusCompleted, true},
		{JobStatusFailed, true},
		{JobStatusCancelled, true},
	}

	for _, test := range tests {
		if got := test.status.IsFinished(); got != test.expected {
			t.Errorf("%s.IsFinished() = %v, expected %v", test.status, got, test.expected)
		}
	}
}

func TestDownloadJobCancel(t *testing.T) {
	job := &DownloadJob{ID: "job-1", Status: JobStatusRunning}

	if job.IsCancelled() {
		t.Error("Expected new job to not be cancelled")
	}

	job.Cancel()
	if !job.IsCancelled() {
		t.Error("Expected job to be cancelled after Cancel()")
	}

	// Cancel is idempotent
	job.Cancel()
	if !job.IsCancelled() {
		t.Error("Expected job to stay cancelled")
	}
}

func TestRenditionOptionNeedsMux(t *testing.T) {
	audio := &RenditionOption{Kind: RenditionAudio, URL: "https://cdn.example.com/a.m4a"}
	video := &RenditionOption{Kind: RenditionVideo, URL: "https://cdn.example.com/v.m4v", Audio: audio}
	combined := &RenditionOption{Kind: RenditionVideo, URL: "https://cdn.example.com/full.mp4"}

	if !video.NeedsMux() {
		t.Error("Expected DASH video option to need muxing")
	}
	if combined.NeedsMux() {
		t.Error("Expected combined stream to not need muxing")
	}
	if audio.NeedsMux() {
		t.Error("Expected audio option to not need muxing")
	}
	if !audio.IsAudio() {
		t.Error("Expected audio option to report IsAudio")
	}
}
