package storage

import (
	"errors"
	"fmt"
	"log"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// score is one persisted track score. Seq records first-seen order.
type score struct {
	Seq   uint   `gorm:"primaryKey;autoIncrement"`
	URI   string `gorm:"uniqueIndex;not null"`
	Score int    `gorm:"not null;default:0"`
}

// SQLStorage keeps scores in a sqlite database.
type SQLStorage struct {
	db *gorm.DB
}

// NewSQL opens (creating if needed) the sqlite database at dsn.
func NewSQL(dsn string) (*SQLStorage, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: failed to open database: %w", err)
	}
	if err := db.AutoMigrate(&score{}); err != nil {
		return nil, fmt.Errorf("storage: failed to migrate: %w", err)
	}
	return &SQLStorage{db: db}, nil
}

func (s *SQLStorage) Get(uri string) (int, bool) {
	var row score
	err := s.db.Where("uri = ?", uri).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false
	}
	if err != nil {
		log.Printf("[WARN] [Storage] Failed to read score for %s: %v", uri, err)
		return 0, false
	}
	return row.Score, true
}

func (s *SQLStorage) Set(uri string, value int) error {
	row := score{URI: uri, Score: value}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uri"}},
		DoUpdates: clause.AssignmentColumns([]string{"score"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("storage: failed to save score for %s: %w", uri, err)
	}
	return nil
}

func (s *SQLStorage) ForEach(visit func(uri string, score int)) {
	var rows []score
	if err := s.db.Order("seq").Find(&rows).Error; err != nil {
		log.Printf("[WARN] [Storage] Failed to list scores: %v", err)
		return
	}
	for _, r := range rows {
		visit(r.URI, r.Score)
	}
}

func (s *SQLStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
