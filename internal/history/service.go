package history

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/justchokingaround/inspire/internal/database"
	"github.com/justchokingaround/inspire/internal/media"
)

// Service records submitted gallery queries
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// Entry is a recorded query with its usage counters
type Entry struct {
	ID        uint
	Query     media.Query
	UseCount  int
	CreatedAt time.Time
	LastUsed  time.Time
}

// NewService creates a new history service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// Record stores q, or bumps the use counter of an identical earlier query.
// Queries without an effective term are not recorded.
func (s *Service) Record(q media.Query) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	if q.Validate() != nil {
		return nil
	}

	term := strings.ToLower(strings.TrimSpace(q.Term))
	category := ""
	if term == "" {
		category = strings.ToLower(q.Category)
	}
	mediaType := string(q.Type())
	now := s.now()

	var existing database.SearchHistory
	err := s.db.Where("term = ? AND category = ? AND media_type = ?", term, category, mediaType).
		First(&existing).Error
	switch {
	case err == nil:
		existing.UseCount++
		existing.LastUsed = now
		return s.db.Save(&existing).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.db.Create(&database.SearchHistory{
			Term:      term,
			Category:  category,
			MediaType: mediaType,
			UseCount:  1,
			CreatedAt: now,
			LastUsed:  now,
		}).Error
	default:
		return fmt.Errorf("failed to look up search history: %w", err)
	}
}

// Recent returns the most recently used queries, newest first.
// A limit of 0 or less returns everything.
func (s *Service) Recent(limit int) ([]Entry, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	query := s.db.Model(&database.SearchHistory{}).Order("last_used DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []database.SearchHistory
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch search history: %w", err)
	}

	entries := make([]Entry, len(records))
	for i, r := range records {
		entries[i] = Entry{
			ID: r.ID,
			Query: media.Query{
				Term:      r.Term,
				Category:  r.Category,
				MediaType: media.MediaType(r.MediaType),
			},
			UseCount:  r.UseCount,
			CreatedAt: r.CreatedAt,
			LastUsed:  r.LastUsed,
		}
	}
	return entries, nil
}

// Delete removes a single entry
func (s *Service) Delete(id uint) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	return s.db.Delete(&database.SearchHistory{}, id).Error
}

// Clear removes every recorded query
func (s *Service) Clear() error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	return s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&database.SearchHistory{}).Error
}
