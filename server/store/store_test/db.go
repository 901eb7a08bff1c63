package store_test

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tinycd/tinycd/common/logger"
	"github.com/tinycd/tinycd/server/store"
	"github.com/tinycd/tinycd/server/store/migrations"
)

func init() {
	rand.Seed(time.Now().UnixNano())
}

var letters = []rune("abcdefghijklmnopqrstuvwxyz")

func randSeq(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}

// Connect opens a new test database connection against a uniquely named
// in-memory SQLite database, with the server migrations applied.
func Connect(logFactory logger.LogFactory) (*store.DB, func(), error) {
	connectionString := store.DatabaseConnectionString(
		fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", randSeq(12)))

	databaseConfig := store.DatabaseConfig{
		ConnectionString:   connectionString,
		MaxIdleConnections: store.DefaultDatabaseMaxIdleConnections,
		MaxOpenConnections: store.DefaultDatabaseMaxOpenConnections,
	}

	db, cleanup, err := store.NewDatabase(context.Background(), databaseConfig, migrations.NewServerMigrateRunner(logFactory))
	if err != nil {
		return nil, nil, fmt.Errorf("error creating test database: %w", err)
	}
	return db, cleanup, nil
}
