package database

import (
	"time"

	"gorm.io/gorm"
)

// Download represents an asset download task
type Download struct {
	ID              string     `gorm:"primaryKey"`
	MediaID         int64      `gorm:"not null;index"`
	MediaType       string     `gorm:"not null"` // images, videos
	SourceURL       string     `gorm:"not null"`
	PageURL         string     `gorm:""`
	Credit          string     `gorm:""`
	Status          string     `gorm:"not null;index"` // queued, downloading, completed, failed, cancelled
	Progress        float64    `gorm:"default:0.0"`
	BytesDownloaded int64      `gorm:"default:0"`
	TotalBytes      int64      `gorm:"default:0"`
	Speed           int64      `gorm:"default:0"` // bytes/sec
	Error           string     `gorm:""`
	FilePath        string     `gorm:""`
	CreatedAt       time.Time  `gorm:"default:CURRENT_TIMESTAMP"`
	StartedAt       *time.Time `gorm:""`
	CompletedAt     *time.Time `gorm:""`
}

// TableName overrides the table name
func (Download) TableName() string {
	return "downloads"
}

// SearchHistory records a submitted gallery query
type SearchHistory struct {
	ID        uint      `gorm:"primaryKey"`
	Term      string    `gorm:"not null;default:'';uniqueIndex:idx_search_query"`
	Category  string    `gorm:"not null;default:'';uniqueIndex:idx_search_query"`
	MediaType string    `gorm:"not null;uniqueIndex:idx_search_query"`
	UseCount  int       `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP"`
	LastUsed  time.Time `gorm:"index;default:CURRENT_TIMESTAMP"`
}

// TableName overrides the table name
func (SearchHistory) TableName() string {
	return "search_history"
}

// Migrate runs database migrations
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Download{},
		&SearchHistory{},
	)
}
