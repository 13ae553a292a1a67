package config

import (
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vnkhanh/wedding-rsvp/store"
)

// ConnectDB mở kết nối theo DATABASE_URL (postgres hoặc sqlite) và migrate bảng.
func ConnectDB(cfg DBConfig, log *slog.Logger) (*gorm.DB, error) {
	dialector, driver := dialectorFor(cfg.DatabaseURL)

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	if driver == "sqlite" {
		// sqlite chỉ cho một writer; tránh "database is locked" khi redeem đồng thời
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := store.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info("database connected and migrated", "component", "config", "driver", driver)
	return db, nil
}

func dialectorFor(url string) (gorm.Dialector, string) {
	if isPostgres(url) {
		return postgres.Open(url), "postgres"
	}
	return sqlite.Open(url), "sqlite"
}

func isPostgres(url string) bool {
	return strings.HasPrefix(url, "postgres://") ||
		strings.HasPrefix(url, "postgresql://") ||
		strings.Contains(url, "host=")
}
