package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/peekknuf/dataiq/internal/profiler"
)

// ProfileRun is one recorded profiling run.
type ProfileRun struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	Dataset       string    `gorm:"index;not null" json:"dataset"`
	Rows          int       `json:"rows"`
	Columns       int       `json:"columns"`
	DuplicateRows int       `json:"duplicate_rows"`
	TotalNulls    int       `json:"total_nulls"`
	Mismatches    int       `json:"type_mismatches"`
	Score         float64   `gorm:"not null" json:"score"`
	Grade         string    `gorm:"size:8" json:"grade"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

func (r *ProfileRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// HistoryStore records profile runs in a sqlite database.
type HistoryStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// OpenHistory opens (and migrates) the history database at dsn. ":memory:"
// is accepted for tests.
func OpenHistory(dsn string, logger *zap.Logger) (*HistoryStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, &PersistenceError{Path: dsn, Err: err}
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	if err := db.AutoMigrate(&ProfileRun{}); err != nil {
		return nil, fmt.Errorf("migrate history db: %w", err)
	}

	return &HistoryStore{db: db, logger: logger.Named("history")}, nil
}

// Record stores a summary of r with its score.
func (h *HistoryStore) Record(ctx context.Context, r *profiler.Result, score float64) (ProfileRun, error) {
	run := ProfileRun{
		Dataset:       r.Name,
		Rows:          r.Overall.Rows,
		Columns:       r.Overall.Columns,
		DuplicateRows: r.Overall.DuplicateRows,
		TotalNulls:    r.Overall.TotalNulls,
		Mismatches:    r.TotalMismatches(),
		Score:         score,
		Grade:         profiler.Grade(score),
	}

	if err := h.db.WithContext(ctx).Create(&run).Error; err != nil {
		return ProfileRun{}, fmt.Errorf("record profile run: %w", err)
	}

	h.logger.Debug("Recorded profile run", zap.String("id", run.ID), zap.String("dataset", run.Dataset))
	return run, nil
}

// Recent returns up to limit runs for a dataset, newest first.
func (h *HistoryStore) Recent(ctx context.Context, name string, limit int) ([]ProfileRun, error) {
	if limit <= 0 {
		limit = 20
	}

	var runs []ProfileRun
	err := h.db.WithContext(ctx).
		Where("dataset = ?", name).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("query profile runs: %w", err)
	}
	return runs, nil
}

func (h *HistoryStore) Close() error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
