package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mentorloop/reviewhub/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open connects to the configured database without touching the global handle.
func Open(driver, dsn string, level logger.LogLevel) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return db, nil
}

func InitDB(cfg *config.DatabaseConfig, logLevel string) error {
	db, err := Open(cfg.Driver, cfg.DSN, gormLogLevel(logLevel))
	if err != nil {
		return err
	}
	DB = db
	return nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logger.Info
	case "warn", "info":
		return logger.Warn
	default:
		return logger.Error
	}
}

// Migrate creates or updates all tables on db.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&User{},
		&Project{},
		&ProjectMentee{},
		&Assignment{},
		&AssignmentMentee{},
		&Submission{},
		&ImportLog{},
		&SystemLog{},
		&JobLock{},
	)
	if err != nil {
		return err
	}
	return backfillProjectNameKeys(db)
}

// backfillProjectNameKeys fills name_key on rows created before the column existed.
func backfillProjectNameKeys(db *gorm.DB) error {
	var projects []Project
	if err := db.Unscoped().Select("id", "name").
		Where("name_key IS NULL OR name_key = ?", "").Find(&projects).Error; err != nil {
		return err
	}
	for _, p := range projects {
		err := db.Unscoped().Model(&Project{}).Where("id = ?", p.ID).
			Update("name_key", ProjectNameKey(p.Name)).Error
		if err != nil {
			return fmt.Errorf("backfill name_key for project %d: %w", p.ID, err)
		}
	}
	return nil
}

func AutoMigrate() error {
	return Migrate(DB)
}

func GetDB() *gorm.DB {
	return DB
}

// SeedDefaultData creates the first HOD account when the users table is empty.
func SeedDefaultData(name, email string) error {
	if email == "" {
		return errors.New("seed email is required")
	}
	var count int64
	if err := DB.Model(&User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return DB.Create(&User{
		Name:     name,
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Role:     RoleHOD,
		IsActive: true,
	}).Error
}
