// Package testutil поднимает postgres для интеграционных тестов: берёт
// TEST_DB_DSN, если он задан, иначе запускает одноразовый контейнер.
package testutil

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/carryhub/carry-service/internal/database"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"
)

var (
	setupOnce sync.Once
	testDSN   string
	setupErr  error
)

// OpenTestDB возвращает подключение к мигрированной тестовой базе.
// Контейнер общий на весь пакет; без docker и без TEST_DB_DSN тест
// скипается. Ответственность за чистоту таблиц лежит на ResetTables.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	setupOnce.Do(func() {
		testDSN = os.Getenv("TEST_DB_DSN")
		if testDSN == "" {
			ctr, err := tcpostgres.Run(context.Background(), "postgres:16-alpine",
				tcpostgres.WithDatabase("carry_service_test"),
				tcpostgres.WithUsername("postgres"),
				tcpostgres.WithPassword("postgres"),
				tcpostgres.BasicWaitStrategies(),
			)
			if err != nil {
				setupErr = err
				return
			}
			testDSN, setupErr = ctr.ConnectionString(context.Background(), "sslmode=disable")
			if setupErr != nil {
				return
			}
		}
		setupErr = database.MigrateUp(testDSN)
	})
	if setupErr != nil {
		t.Skipf("postgres unavailable: %v", setupErr)
	}
	db, err := database.Open(testDSN)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	return db
}

// ResetTables очищает все таблицы между тестами.
func ResetTables(t *testing.T, db *gorm.DB) {
	t.Helper()
	err := db.Exec("TRUNCATE tickets, sessions, carry_proofs, blacklist RESTART IDENTITY CASCADE").Error
	if err != nil {
		t.Fatalf("reset tables: %v", err)
	}
}
