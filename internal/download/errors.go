package download

import (
	"errors"
	"fmt"
)

// ErrCancelled marks a transfer aborted by a user cancellation request.
var ErrCancelled = errors.New("download cancelled")

// NetworkError wraps a failed transfer against a media CDN.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network failure for %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// FileSystemError wraps a failed local write or directory operation.
type FileSystemError struct {
	Path string
	Err  error
}

func (e *FileSystemError) Error() string {
	return fmt.Sprintf("filesystem failure at %s: %v", e.Path, e.Err)
}

func (e *FileSystemError) Unwrap() error {
	return e.Err
}
