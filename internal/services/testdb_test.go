package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/mentorloop/reviewhub/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := models.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name), logger.Silent)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	prev := globalDB
	InitSystemLogger(db)
	t.Cleanup(func() { globalDB = prev })
	return db
}

func seedUsers(t *testing.T, db *gorm.DB, users ...models.User) {
	t.Helper()
	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			t.Fatalf("seed user %s: %v", users[i].Email, err)
		}
	}
}
