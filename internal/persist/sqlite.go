package persist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/ncruces/go-sqlite3/gormlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go.klb.dev/qlip/internal/history"
)

// entryRow is the SQLite row of one entry.
type entryRow struct {
	ID          int64     `gorm:"primaryKey;autoIncrement:false"`
	Kind        string    `gorm:"not null"`
	Data        string    `gorm:"not null"`
	CapturedAt  time.Time `gorm:"not null;index"`
	Favorite    bool      `gorm:"not null;default:false;index"`
	FavoriteSeq int64     `gorm:"not null;default:0"`
}

func (entryRow) TableName() string { return "entries" }

// SQLite stores snapshots in a SQLite database. Each Save replaces the
// table contents inside one transaction.
type SQLite struct {
	path string
	db   *gorm.DB
}

// OpenSQLite opens (creating if needed) the database at path and migrates
// its schema.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := gorm.Open(gormlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrPersistence, path, err)
	}
	if err := db.AutoMigrate(&entryRow{}); err != nil {
		return nil, fmt.Errorf("%w: migrate: %w", ErrPersistence, err)
	}
	return &SQLite{path: path, db: db}, nil
}

func (s *SQLite) Name() string { return "sqlite:" + s.path }

func (s *SQLite) Load(ctx context.Context) ([]history.Entry, error) {
	var rows []entryRow
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: load: %w", ErrPersistence, err)
	}
	recs := make([]record, len(rows))
	for i, r := range rows {
		recs[i] = record{
			ID:          r.ID,
			Kind:        r.Kind,
			Data:        r.Data,
			CapturedAt:  r.CapturedAt,
			Favorite:    r.Favorite,
			FavoriteSeq: r.FavoriteSeq,
		}
	}
	return fromRecords(recs)
}

func (s *SQLite) Save(ctx context.Context, entries []history.Entry) error {
	rows := make([]entryRow, len(entries))
	for i, r := range toRecords(entries) {
		rows[i] = entryRow{
			ID:          r.ID,
			Kind:        r.Kind,
			Data:        r.Data,
			CapturedAt:  r.CapturedAt,
			Favorite:    r.Favorite,
			FavoriteSeq: r.FavoriteSeq,
		}
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&entryRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 200).Error
	})
	if err != nil {
		return fmt.Errorf("%w: save: %w", ErrPersistence, err)
	}
	return nil
}

// SetAside closes the database, renames it together with its WAL files and
// opens a fresh one at the original path.
func (s *SQLite) SetAside() (string, error) {
	if err := s.Close(); err != nil {
		return "", fmt.Errorf("%w: close: %w", ErrPersistence, err)
	}
	dst := asidePath(s.path, time.Now())
	if err := os.Rename(s.path, dst); err != nil {
		return "", fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Rename(s.path+suffix, dst+suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %w", ErrPersistence, err)
		}
	}
	fresh, err := OpenSQLite(s.path)
	if err != nil {
		return "", err
	}
	s.db = fresh.db
	return dst, nil
}

func (s *SQLite) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
