package database

import (
	"path/filepath"
	"testing"

	"github.com/justchokingaround/inspire/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "inspire.db")
	db, err := Open(&config.DatabaseConfig{Path: path, MaxConnections: 4, WALMode: true})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	assert.FileExists(t, path)
	assert.True(t, db.Migrator().HasTable(&Download{}))
	assert.True(t, db.Migrator().HasTable(&SearchHistory{}))

	var mode string
	require.NoError(t, db.Raw("PRAGMA journal_mode").Scan(&mode).Error)
	assert.Equal(t, "wal", mode)
}

func TestSearchHistory_UniqueQuery(t *testing.T) {
	db, err := Open(&config.DatabaseConfig{Path: ":memory:"})
	require.NoError(t, err)

	require.NoError(t, db.Create(&SearchHistory{Term: "nature", MediaType: "images"}).Error)
	require.NoError(t, db.Create(&SearchHistory{Term: "nature", MediaType: "videos"}).Error)
	assert.Error(t, db.Create(&SearchHistory{Term: "nature", MediaType: "images"}).Error)
}

func TestInitAndClose(t *testing.T) {
	require.NoError(t, Init(&config.DatabaseConfig{Path: ":memory:"}))
	assert.NotNil(t, GetDB())
	assert.NoError(t, Close())
	DB = nil
	assert.NoError(t, Close())
}
