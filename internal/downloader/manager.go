package downloader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/justchokingaround/inspire/internal/config"
	"github.com/justchokingaround/inspire/internal/database"
	"github.com/justchokingaround/inspire/internal/media"
	providerhttp "github.com/justchokingaround/inspire/internal/providers/http"
	"gorm.io/gorm"
)

const (
	queueSize         = 100
	defaultWorkers    = 3
	maxWorkers        = 10
	defaultMaxRetries = 2
	defaultRetryDelay = 2 * time.Second
	streamTimeout     = 10 * time.Minute
)

// Manager implements the Downloader interface
type Manager struct {
	mu sync.RWMutex

	// Worker pool
	queue    chan *Task
	active   map[string]*activeDownload // task ID -> active download info
	workerWg sync.WaitGroup

	// State
	running bool
	ctx     context.Context
	cancel  context.CancelFunc

	// Callbacks
	onProgress func(Task)
	onComplete func(Task)
	onError    func(Task, error)

	config     config.DownloadsConfig
	client     *providerhttp.Client
	logger     *slog.Logger
	db         *gorm.DB
	maxRetries int
	retryDelay time.Duration
}

// activeDownload tracks an in-progress download
type activeDownload struct {
	task     *Task
	workerID int
	cancel   context.CancelFunc
}

// NewManager creates a new download manager
func NewManager(db *gorm.DB, cfg *config.DownloadsConfig, logger *slog.Logger) (*Manager, error) {
	if db == nil {
		return nil, fmt.Errorf("database cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(cfg.Path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{
		active: make(map[string]*activeDownload),
		config: *cfg,
		client: providerhttp.NewClient(providerhttp.ClientConfig{
			Timeout:      streamTimeout,
			DisableRetry: true,
			Logger:       logger,
		}),
		logger:     logger.With("component", "downloader"),
		db:         db,
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
	}, nil
}

// Start starts the worker pool and queues every task left in the queued state
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("manager already running")
	}

	m.ctx, m.cancel = context.WithCancel(ctx)
	m.queue = make(chan *Task, queueSize)
	m.running = true
	m.startWorkerPool()

	return m.loadQueueFromDB()
}

// Stop stops the workers. Downloads still in flight go back to queued and
// resume on the next Start.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false

	interrupted := make([]*Task, 0, len(m.active))
	for _, ad := range m.active {
		interrupted = append(interrupted, ad.task)
	}

	m.cancel()
	close(m.queue)
	m.mu.Unlock()

	// workers take the lock to unregister themselves
	m.workerWg.Wait()

	for _, task := range interrupted {
		_ = m.updateStatus(task.ID, StatusQueued, "")
	}
	return nil
}

// Enqueue creates a task for item and queues it
func (m *Manager) Enqueue(ctx context.Context, item media.Item) (Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, err := NewTask(item, m.config.PreferredVideoQuality)
	if err != nil {
		return Task{}, err
	}

	var existing database.Download
	err = m.db.Where("media_id = ? AND media_type = ?", task.MediaID, string(task.MediaType)).
		First(&existing).Error
	if err == nil {
		if existing.Status != string(StatusFailed) && existing.Status != string(StatusCancelled) {
			return Task{}, fmt.Errorf("%s %d: %w (status: %s)", task.MediaType, task.MediaID, ErrAlreadyQueued, existing.Status)
		}
		m.db.Delete(&existing)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Task{}, fmt.Errorf("failed to check existing downloads: %w", err)
	}

	task.ID = uuid.New().String()
	task.CreatedAt = time.Now()

	template := TemplateFor(task.MediaType, m.config.PhotoTemplate, m.config.VideoTemplate)
	filename, err := ParseTemplate(template, task)
	if err != nil {
		return Task{}, fmt.Errorf("failed to parse filename template: %w", err)
	}

	if err := os.MkdirAll(m.config.Path, 0755); err != nil {
		return Task{}, fmt.Errorf("failed to create output directory: %w", err)
	}
	task.OutputPath = EnsureUniqueFilename(filepath.Join(m.config.Path, filename))

	if err := m.addTaskToDB(task); err != nil {
		return Task{}, fmt.Errorf("failed to save task to database: %w", err)
	}

	if err := m.push(ctx, task); err != nil {
		return Task{}, err
	}

	m.logger.Info("download queued", "task_id", task.ID, "media_id", task.MediaID, "type", task.MediaType)
	return task, nil
}

// Remove cancels a task if it is running and deletes its record
func (m *Manager) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ad, exists := m.active[id]; exists {
		ad.cancel()
		delete(m.active, id)
	}

	return m.db.Delete(&database.Download{}, "id = ?", id).Error
}

// Get returns a single task
func (m *Manager) Get(ctx context.Context, id string) (Task, error) {
	var download database.Download
	if err := m.db.First(&download, "id = ?", id).Error; err != nil {
		return Task{}, fmt.Errorf("task not found: %w", err)
	}
	return downloadToTask(download), nil
}

// GetQueue returns all tasks, oldest first
func (m *Manager) GetQueue(ctx context.Context) ([]Task, error) {
	var downloads []database.Download
	if err := m.db.Order("created_at ASC, id ASC").Find(&downloads).Error; err != nil {
		return nil, fmt.Errorf("failed to get queue from database: %w", err)
	}

	tasks := make([]Task, 0, len(downloads))
	for _, d := range downloads {
		tasks = append(tasks, downloadToTask(d))
	}
	return tasks, nil
}

// HasActiveDownloads reports whether any task is queued or downloading
func (m *Manager) HasActiveDownloads() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.active) > 0 {
		return true
	}

	var count int64
	m.db.Model(&database.Download{}).
		Where("status IN ?", []string{string(StatusQueued), string(StatusDownloading)}).
		Count(&count)
	return count > 0
}

// Cancel stops a download and marks it cancelled
func (m *Manager) Cancel(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ad, exists := m.active[id]; exists {
		ad.cancel()
		delete(m.active, id)
	}

	var download database.Download
	if err := m.db.First(&download, "id = ?", id).Error; err != nil {
		return fmt.Errorf("task not found: %w", err)
	}
	if Status(download.Status) == StatusCompleted {
		return fmt.Errorf("task already completed: %s", id)
	}

	download.Status = string(StatusCancelled)
	if err := m.db.Save(&download).Error; err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

// Retry re-queues a failed or cancelled download
func (m *Manager) Retry(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var download database.Download
	if err := m.db.First(&download, "id = ?", id).Error; err != nil {
		return fmt.Errorf("task not found: %w", err)
	}

	if download.Status != string(StatusFailed) && download.Status != string(StatusCancelled) {
		return fmt.Errorf("can only retry failed or cancelled tasks")
	}

	download.Status = string(StatusQueued)
	download.Error = ""
	download.Progress = 0
	download.BytesDownloaded = 0
	if err := m.db.Save(&download).Error; err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	return m.push(ctx, downloadToTask(download))
}

// OnProgress sets the progress update callback
func (m *Manager) OnProgress(callback func(task Task)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onProgress = callback
}

// OnComplete sets the download complete callback
func (m *Manager) OnComplete(callback func(task Task)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onComplete = callback
}

// OnError sets the download error callback
func (m *Manager) OnError(callback func(task Task, err error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onError = callback
}

// SetConcurrency sets the number of workers; it takes effect on the next Start
func (m *Manager) SetConcurrency(workers int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if workers < 1 {
		workers = 1
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}
	m.config.Concurrent = workers
}

// SetOutputDir sets the directory for tasks queued from now on
func (m *Manager) SetOutputDir(dir string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.config.Path = dir
	_ = os.MkdirAll(dir, 0755)
}

// OutputDir returns the current output directory
func (m *Manager) OutputDir() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.Path
}

// push hands task to the workers. Callers hold m.mu.
func (m *Manager) push(ctx context.Context, task Task) error {
	if !m.running {
		return nil
	}
	select {
	case m.queue <- &task:
	case <-ctx.Done():
		return ctx.Err()
	default:
		m.logger.Warn("download queue full, task stays queued until restart", "task_id", task.ID)
	}
	return nil
}

func (m *Manager) startWorkerPool() {
	workerCount := m.config.Concurrent
	if workerCount < 1 {
		workerCount = defaultWorkers
	}

	for i := 0; i < workerCount; i++ {
		w := newWorker(i, m)
		m.workerWg.Add(1)
		go func(ctx context.Context, queue <-chan *Task) {
			defer m.workerWg.Done()
			w.run(ctx, queue)
		}(m.ctx, m.queue)
	}
}

// loadQueueFromDB queues tasks left over from a previous run. Callers hold m.mu.
func (m *Manager) loadQueueFromDB() error {
	var downloads []database.Download
	statuses := []string{string(StatusQueued), string(StatusDownloading)}
	if err := m.db.Where("status IN ?", statuses).Order("created_at ASC").Find(&downloads).Error; err != nil {
		return fmt.Errorf("failed to load downloads: %w", err)
	}

	for _, d := range downloads {
		task := downloadToTask(d)
		if task.Status == StatusDownloading {
			// interrupted by a crash
			task.Status = StatusQueued
			_ = m.updateTaskInDB(task)
		}
		if err := m.push(m.ctx, task); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) addTaskToDB(task Task) error {
	download := taskToDownload(task)
	if err := m.db.Create(&download).Error; err != nil {
		m.logger.Error("failed to create download in db", "error", err, "task_id", task.ID)
		return err
	}
	return nil
}

func (m *Manager) updateTaskInDB(task Task) error {
	download := taskToDownload(task)
	if err := m.db.Save(&download).Error; err != nil {
		m.logger.Error("failed to update download in db", "error", err, "task_id", task.ID)
		return err
	}
	m.logger.Debug("updated task in db", "task_id", task.ID, "status", task.Status, "progress", task.Progress)
	return nil
}

func (m *Manager) updateStatus(id string, status Status, errMsg string) error {
	return m.db.Model(&database.Download{}).Where("id = ?", id).
		Updates(map[string]any{"status": string(status), "error": errMsg}).Error
}

// isQueued reports whether the stored task is still waiting for a worker.
// Cancelled and removed tasks may still sit in the channel.
func (m *Manager) isQueued(id string) bool {
	var download database.Download
	if err := m.db.First(&download, "id = ?", id).Error; err != nil {
		return false
	}
	return Status(download.Status) == StatusQueued
}

func taskToDownload(task Task) database.Download {
	return database.Download{
		ID:              task.ID,
		MediaID:         task.MediaID,
		MediaType:       string(task.MediaType),
		SourceURL:       task.SourceURL,
		PageURL:         task.PageURL,
		Credit:          task.Credit,
		Status:          string(task.Status),
		Progress:        task.Progress,
		BytesDownloaded: task.BytesDownloaded,
		TotalBytes:      task.TotalBytes,
		Speed:           task.Speed,
		Error:           task.Error,
		FilePath:        task.OutputPath,
		CreatedAt:       task.CreatedAt,
		StartedAt:       task.StartedAt,
		CompletedAt:     task.CompletedAt,
	}
}

func downloadToTask(d database.Download) Task {
	return Task{
		ID:              d.ID,
		MediaID:         d.MediaID,
		MediaType:       media.MediaType(d.MediaType),
		SourceURL:       d.SourceURL,
		PageURL:         d.PageURL,
		Credit:          d.Credit,
		Status:          Status(d.Status),
		Progress:        d.Progress,
		BytesDownloaded: d.BytesDownloaded,
		TotalBytes:      d.TotalBytes,
		Speed:           d.Speed,
		Error:           d.Error,
		OutputPath:      d.FilePath,
		CreatedAt:       d.CreatedAt,
		StartedAt:       d.StartedAt,
		CompletedAt:     d.CompletedAt,
	}
}

func (m *Manager) triggerProgressCallback(task Task) {
	m.mu.RLock()
	callback := m.onProgress
	m.mu.RUnlock()

	if callback != nil {
		go callback(task)
	}
}

func (m *Manager) triggerCompleteCallback(task Task) {
	m.mu.RLock()
	callback := m.onComplete
	m.mu.RUnlock()

	if callback != nil {
		go callback(task)
	}
}

func (m *Manager) triggerErrorCallback(task Task, err error) {
	m.mu.RLock()
	callback := m.onError
	m.mu.RUnlock()

	if callback != nil {
		go callback(task, err)
	}
}
