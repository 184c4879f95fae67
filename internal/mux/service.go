package mux

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// FFmpeg invocation constants
const (
	FFmpegCommand = "ffmpeg"

	// CopyCodec remuxes both streams without re-encoding
	CopyCodec = "copy"
)

// ErrToolNotFound means no ffmpeg executable could be located.
var ErrToolNotFound = errors.New("ffmpeg executable not found")

// ToolError wraps a failed ffmpeg run together with its stderr output.
type ToolError struct {
	Err    error
	Stderr string
}

func (e *ToolError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("ffmpeg failed: %v: %s", e.Err, e.Stderr)
	}
	return fmt.Sprintf("ffmpeg failed: %v", e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// Service merges video and audio legs via ffmpeg.
type Service struct {
	// toolPath overrides ffmpeg discovery; empty means locate on demand
	toolPath string
}

// NewService creates a new mux service
func NewService() *Service {
	return &Service{}
}

// SetToolPath pins the ffmpeg executable to an explicit location.
func (s *Service) SetToolPath(path string) {
	s.toolPath = path
}

// Mux remuxes the video and audio legs into outputPath. The staged
// input files and their parent directory are removed whether or not
// the merge succeeds; a failed merge also removes any partial output.
func (s *Service) Mux(videoPath, audioPath, outputPath string) error {
	defer cleanupStage(videoPath, audioPath)

	tool, err := s.locateTool()
	if err != nil {
		return err
	}

	cmd := exec.Command(tool, BuildArgs(videoPath, audioPath, outputPath)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(outputPath)
		return &ToolError{Err: err, Stderr: stderr.String()}
	}
	return nil
}

// BuildArgs builds the ffmpeg command arguments
func BuildArgs(videoPath, audioPath, outputPath string) []string {
	return []string{
		"-i", videoPath, // Video leg
		"-i", audioPath, // Audio leg
		"-c", CopyCodec, // Remux only
		"-y",       // Overwrite output file
		outputPath, // Output file
	}
}

// locateTool prefers an ffmpeg bundled next to the application binary
// and falls back to PATH lookup.
func (s *Service) locateTool() (string, error) {
	if s.toolPath != "" {
		return s.toolPath, nil
	}

	if execPath, err := os.Executable(); err == nil {
		bundled := filepath.Join(filepath.Dir(execPath), ffmpegBinaryName())
		if _, err := os.Stat(bundled); err == nil {
			return bundled, nil
		}
	}

	path, err := exec.LookPath(FFmpegCommand)
	if err != nil {
		return "", ErrToolNotFound
	}
	return path, nil
}

// ffmpegBinaryName returns the platform-specific executable name.
func ffmpegBinaryName() string {
	if runtime.GOOS == "windows" {
		return FFmpegCommand + ".exe"
	}
	return FFmpegCommand
}

// cleanupStage removes both staged legs and their shared directory.
func cleanupStage(videoPath, audioPath string) {
	os.Remove(videoPath)
	os.Remove(audioPath)
	os.Remove(filepath.Dir(videoPath))
}
