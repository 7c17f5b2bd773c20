package media

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery is returned for a missing or empty search term, before any network call
	ErrInvalidQuery = errors.New("invalid query")

	// ErrFetchFailed is returned when a search request fails in transport or with a non-2xx status
	ErrFetchFailed = errors.New("fetch failed")

	// ErrDownloadFailed is returned when an asset cannot be fetched or written to disk
	ErrDownloadFailed = errors.New("download failed")
)

// FetchError describes a failed search request.
// It matches ErrFetchFailed with errors.Is.
type FetchError struct {
	StatusCode int // 0 for transport errors
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch failed (HTTP %d): %s", e.StatusCode, msg)
	}
	return "fetch failed: " + msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is makes every FetchError match ErrFetchFailed
func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailed
}

// DownloadError describes a failed asset download.
// It matches ErrDownloadFailed with errors.Is.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download failed for %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// Is makes every DownloadError match ErrDownloadFailed
func (e *DownloadError) Is(target error) bool {
	return target == ErrDownloadFailed
}
