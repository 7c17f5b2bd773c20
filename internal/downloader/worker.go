package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/justchokingaround/inspire/internal/database"
	"github.com/justchokingaround/inspire/internal/media"
	providerhttp "github.com/justchokingaround/inspire/internal/providers/http"
)

const progressInterval = 500 * time.Millisecond

// worker represents a download worker
type worker struct {
	id      int
	manager *Manager
	logger  *slog.Logger
}

func newWorker(id int, manager *Manager) *worker {
	return &worker{
		id:      id,
		manager: manager,
		logger:  manager.logger.With("worker_id", id),
	}
}

// run starts the worker loop
func (w *worker) run(ctx context.Context, queue <-chan *Task) {
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-queue:
			if !ok {
				return
			}
			if !w.manager.isQueued(task.ID) {
				w.logger.Debug("skipping task that is no longer queued", "task_id", task.ID)
				continue
			}

			err := w.processTask(ctx, task)
			switch {
			case err == nil:
			case errors.Is(err, context.Canceled):
				// Cancel, Remove or Stop already recorded the outcome
				w.logger.Info("download interrupted", "task_id", task.ID)
			default:
				task.Status = StatusFailed
				task.Error = err.Error()
				_ = w.finish(task)
				w.logger.Error("download failed", "task_id", task.ID, "url", task.SourceURL, "error", err)
				w.manager.triggerErrorCallback(*task, err)
			}
		}
	}
}

// processTask downloads a single task, retrying transient failures
func (w *worker) processTask(ctx context.Context, task *Task) error {
	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	w.manager.mu.Lock()
	w.manager.active[task.ID] = &activeDownload{
		task:     task,
		workerID: w.id,
		cancel:   cancel,
	}
	w.manager.mu.Unlock()

	defer func() {
		w.manager.mu.Lock()
		delete(w.manager.active, task.ID)
		w.manager.mu.Unlock()
	}()

	task.Status = StatusDownloading
	task.Error = ""
	now := time.Now()
	task.StartedAt = &now
	_ = w.manager.updateTaskInDB(*task)
	w.manager.triggerProgressCallback(*task)

	var lastErr error
	for attempt := 0; attempt <= w.manager.maxRetries; attempt++ {
		if attempt > 0 {
			w.logger.Info("retrying download", "attempt", attempt, "max_retries", w.manager.maxRetries, "task_id", task.ID)
			select {
			case <-time.After(w.manager.retryDelay):
			case <-taskCtx.Done():
				return taskCtx.Err()
			}
		}

		lastErr = w.download(taskCtx, task)
		if lastErr == nil || !retryable(lastErr) || taskCtx.Err() != nil {
			break
		}
	}
	if taskCtx.Err() != nil {
		return taskCtx.Err()
	}
	if lastErr != nil {
		return lastErr
	}

	task.Status = StatusCompleted
	task.Progress = 100.0
	completedAt := time.Now()
	task.CompletedAt = &completedAt
	if err := w.finish(task); err != nil {
		return err
	}

	w.logger.Info("download completed",
		"task_id", task.ID,
		"path", task.OutputPath,
		"size", humanize.Bytes(uint64(task.BytesDownloaded)),
		"took", time.Since(now).Round(time.Millisecond))
	w.manager.triggerCompleteCallback(*task)
	return nil
}

// download streams the asset to <output>.part and renames it on success.
// The partial file is removed on any failure.
func (w *worker) download(ctx context.Context, task *Task) (err error) {
	partPath := task.OutputPath + ".part"
	defer func() {
		if err != nil {
			_ = os.Remove(partPath)
			if !errors.Is(err, context.Canceled) {
				err = &media.DownloadError{URL: task.SourceURL, Err: err}
			}
		}
	}()

	body, size, err := w.manager.client.Stream(ctx, task.SourceURL, nil)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	defer func() { _ = body.Close() }()

	out, err := os.Create(partPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	task.TotalBytes = size
	task.BytesDownloaded = 0
	pw := &progressWriter{task: task, worker: w, lastUpdate: time.Now()}

	if _, err := io.Copy(io.MultiWriter(out, pw), body); err != nil {
		_ = out.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("error reading response: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("error closing output file: %w", err)
	}

	if err := os.Rename(partPath, task.OutputPath); err != nil {
		return fmt.Errorf("failed to rename output file: %w", err)
	}
	if task.TotalBytes <= 0 {
		task.TotalBytes = task.BytesDownloaded
	}
	return nil
}

// finish stores the terminal state unless the task was cancelled or removed meanwhile
func (w *worker) finish(task *Task) error {
	return w.manager.db.Model(&database.Download{}).
		Where("id = ? AND status = ?", task.ID, string(StatusDownloading)).
		Updates(map[string]any{
			"status":           string(task.Status),
			"error":            task.Error,
			"progress":         task.Progress,
			"bytes_downloaded": task.BytesDownloaded,
			"total_bytes":      task.TotalBytes,
			"completed_at":     task.CompletedAt,
		}).Error
}

// progressWriter counts written bytes and reports progress periodically
type progressWriter struct {
	task           *Task
	worker         *worker
	lastUpdate     time.Time
	lastDownloaded int64
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.task.BytesDownloaded += int64(len(b))
	if p.task.TotalBytes > 0 {
		p.task.Progress = float64(p.task.BytesDownloaded) / float64(p.task.TotalBytes) * 100.0
	}

	elapsed := time.Since(p.lastUpdate)
	if elapsed >= progressInterval {
		p.task.Speed = int64(float64(p.task.BytesDownloaded-p.lastDownloaded) / elapsed.Seconds())
		p.lastUpdate = time.Now()
		p.lastDownloaded = p.task.BytesDownloaded

		p.worker.manager.triggerProgressCallback(*p.task)
		_ = p.worker.manager.db.Model(&database.Download{}).
			Where("id = ? AND status = ?", p.task.ID, string(StatusDownloading)).
			Updates(map[string]any{
				"progress":         p.task.Progress,
				"bytes_downloaded": p.task.BytesDownloaded,
				"total_bytes":      p.task.TotalBytes,
				"speed":            p.task.Speed,
			}).Error
	}
	return len(b), nil
}

// retryable reports whether a failed download may succeed on another attempt:
// transport errors and 5xx responses
func retryable(err error) bool {
	var statusErr *providerhttp.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500
	}
	return true
}
