// Package dbtest opens isolated in-memory SQLite databases for repository tests.
package dbtest

import (
	"io"
	"log"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/kitstore-backend/pkg/db/models"
)

// AllModels lists every table the application persists.
func AllModels() []any {
	return []any{
		&models.User{},
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderStatusEntry{},
		&models.PaymentSession{},
		&models.CustomLeague{},
		&models.CustomTeam{},
		&models.DeliveryPrice{},
		&models.Banner{},
		&models.OutboxEvent{},
		&models.OutboxDLQ{},
	}
}

// Open returns a fresh database with the schema for the given models
// (every model when none are passed). Each call gets its own database.
func Open(t *testing.T, tables ...any) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger: gormlogger.New(
			log.New(io.Discard, "", log.LstdFlags),
			gormlogger.Config{LogLevel: gormlogger.Silent},
		),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if len(tables) == 0 {
		tables = AllModels()
	}
	if err := conn.AutoMigrate(tables...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return conn
}
