package downloader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/justchokingaround/inspire/internal/media"
)

// Downloader defines the interface for download managers
type Downloader interface {
	// Queue management
	Enqueue(ctx context.Context, item media.Item) (Task, error)
	Remove(ctx context.Context, id string) error
	GetQueue(ctx context.Context) ([]Task, error)

	// Download control
	Start(ctx context.Context) error
	Stop() error
	Cancel(ctx context.Context, id string) error
	Retry(ctx context.Context, id string) error

	// Progress monitoring
	OnProgress(callback func(task Task))
	OnComplete(callback func(task Task))
	OnError(callback func(task Task, err error))

	// Settings
	SetConcurrency(workers int)
	SetOutputDir(dir string)
}

// ErrAlreadyQueued is returned when an item is already queued or downloaded
var ErrAlreadyQueued = errors.New("already queued or downloaded")

// Task represents a single asset download
type Task struct {
	ID              string          `json:"id"`
	MediaID         int64           `json:"media_id"`
	MediaType       media.MediaType `json:"media_type"`
	SourceURL       string          `json:"source_url"`
	PageURL         string          `json:"page_url,omitempty"`
	Credit          string          `json:"credit,omitempty"`
	OutputPath      string          `json:"output_path"`
	Status          Status          `json:"status"`
	Progress        float64         `json:"progress"` // 0.0 - 100.0
	BytesDownloaded int64           `json:"bytes_downloaded"`
	TotalBytes      int64           `json:"total_bytes"`
	Speed           int64           `json:"speed"` // bytes per second
	Error           string          `json:"error,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	StartedAt       *time.Time      `json:"started_at,omitempty"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
}

// NewTask builds a task for item. Videos use the variant matching quality,
// else the first one.
func NewTask(item media.Item, quality string) (Task, error) {
	if item == nil {
		return Task{}, fmt.Errorf("item cannot be nil")
	}

	task := Task{
		MediaID:   item.MediaID(),
		MediaType: item.Type(),
		PageURL:   item.PageURL(),
		Credit:    item.Credit(),
		Status:    StatusQueued,
	}

	switch v := item.(type) {
	case *media.Video:
		if quality == "" {
			quality = media.DefaultVideoQuality
		}
		if f, ok := v.BestFile(quality); ok {
			task.SourceURL = f.Link
		}
	default:
		task.SourceURL = item.FullURL()
	}

	if task.SourceURL == "" {
		return Task{}, fmt.Errorf("%s %d has no downloadable source", task.MediaType, task.MediaID)
	}
	return task, nil
}

// Status represents the status of a download task
type Status string

const (
	StatusQueued      Status = "queued"
	StatusDownloading Status = "downloading"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusCancelled   Status = "cancelled"
)

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsActive returns true if the download is in progress
func (s Status) IsActive() bool {
	return s == StatusDownloading
}

// IsComplete returns true if the download is in a terminal state
func (s Status) IsComplete() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}
