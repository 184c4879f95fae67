package platform

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"normal title", "normal title"},
		{`a<b>c:d"e/f\g|h?i*j`, "a_b_c_d_e_f_g_h_i_j"},
		{"标题：测试/视频", "标题：测试_视频"},
		{"", ""},
	}

	for _, test := range tests {
		if got := SanitizeFilename(test.input); got != test.expected {
			t.Errorf("SanitizeFilename(%q) = %q, expected %q", test.input, got, test.expected)
		}
	}
}

func TestSanitizeFilenameTruncates(t *testing.T) {
	long := strings.Repeat("x", 150)
	got := SanitizeFilename(long)
	if len([]rune(got)) != MaxFilenameLength {
		t.Errorf("Expected sanitized length %d, got %d", MaxFilenameLength, len([]rune(got)))
	}
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "video.mp4")

	// No collision: path returned unchanged
	if got := UniquePath(path); got != path {
		t.Errorf("Expected %q for free path, got %q", path, got)
	}

	// First collision: video(1).mp4
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	expected := filepath.Join(dir, "video(1).mp4")
	if got := UniquePath(path); got != expected {
		t.Errorf("Expected %q on first collision, got %q", expected, got)
	}

	// Second collision: video(2).mp4
	if err := os.WriteFile(expected, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	expected2 := filepath.Join(dir, "video(2).mp4")
	if got := UniquePath(path); got != expected2 {
		t.Errorf("Expected %q on second collision, got %q", expected2, got)
	}
}

func TestCreateDirectoryIfNotExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "downloads")

	if err := CreateDirectoryIfNotExists(dir); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("Expected directory to exist: %v", err)
	}
	if !info.IsDir() {
		t.Error("Expected a directory")
	}

	// Idempotent on existing directory
	if err := CreateDirectoryIfNotExists(dir); err != nil {
		t.Errorf("Expected no error for existing directory, got %v", err)
	}
}
