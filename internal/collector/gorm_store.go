package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// GormStore is a Store backed by MySQL through gorm.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// OpenMySQL connects to dsn, sizes the pool and migrates the schema.
func OpenMySQL(dsn string) (*GormStore, error) {
	db, err := gorm.Open(mysql.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("connect to mysql: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("connect to mysql: %w", err)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)

	store := NewGormStore(db)
	if err := store.Migrate(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return store, nil
}

// NewGormStore wraps an open gorm handle without migrating.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	}
}

// Migrate creates or updates the collector tables.
func (s *GormStore) Migrate() error {
	if err := s.db.AutoMigrate(&Host{}, &SubmissionRow{}, &EnvEntry{}); err != nil {
		return fmt.Errorf("migrate collector schema: %w", err)
	}
	return nil
}

func (s *GormStore) Host(ctx context.Context, uuid string) (Host, error) {
	var h Host
	err := s.db.WithContext(ctx).Where("uuid = ?", uuid).Take(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Host{}, ErrNotFound
	}
	if err != nil {
		return Host{}, fmt.Errorf("load host: %w", err)
	}
	return h, nil
}

// RegisterHost inserts host unless the UUID is taken. Concurrent first
// uploads for one host race here; the loser sees ErrHostExists.
func (s *GormStore) RegisterHost(ctx context.Context, host Host) error {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&host)
	if res.Error != nil {
		return fmt.Errorf("register host: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrHostExists
	}
	return nil
}

func (s *GormStore) SaveSubmission(ctx context.Context, sub SubmissionRow, env []EnvEntry) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&sub).Error; err != nil {
			return err
		}
		if err := tx.Where("host_uuid = ?", sub.HostUUID).Delete(&EnvEntry{}).Error; err != nil {
			return err
		}
		if len(env) == 0 {
			return nil
		}
		return tx.CreateInBatches(env, 500).Error
	})
	if err != nil {
		return fmt.Errorf("save submission: %w", err)
	}
	return nil
}

func (s *GormStore) LatestSubmission(ctx context.Context, uuid string) (SubmissionRow, error) {
	var row SubmissionRow
	err := s.db.WithContext(ctx).
		Where("host_uuid = ?", uuid).
		Order("received_at DESC").
		Order("id DESC").
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return SubmissionRow{}, ErrNotFound
	}
	if err != nil {
		return SubmissionRow{}, fmt.Errorf("load submission: %w", err)
	}
	return row, nil
}

func (s *GormStore) EnvCounts(ctx context.Context, variable string) ([]ValueCount, error) {
	var out []ValueCount
	err := s.db.WithContext(ctx).
		Model(&EnvEntry{}).
		Select("value, COUNT(DISTINCT host_uuid) AS hosts").
		Where("variable = ?", variable).
		Group("value").
		Order("hosts DESC").
		Order("value").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("count %s values: %w", variable, err)
	}
	if out == nil {
		out = []ValueCount{}
	}
	return out, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
