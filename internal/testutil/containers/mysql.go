//go:build integration

// Package containers starts throwaway MySQL and Redis servers for the
// integration suites.
package containers

import (
	"context"
	"database/sql"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/iliyamo/citizen-services/internal/database"
)

// MySQLContainer wraps a MySQL instance with the portal schema applied.
type MySQLContainer struct {
	Container testcontainers.Container
	DB        *sql.DB
}

// NewMySQLContainer starts MySQL 8, opens a pool and creates the tables.
// The container is terminated when the test finishes.
func NewMySQLContainer(t *testing.T) *MySQLContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcmysql.Run(ctx, "mysql:8.0",
		tcmysql.WithDatabase("portal"),
		tcmysql.WithUsername("portal"),
		tcmysql.WithPassword("portal"),
	)
	if err != nil {
		t.Fatalf("failed to start mysql container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "parseTime=true", "loc=UTC", "charset=utf8mb4")
	if err != nil {
		t.Fatalf("failed to get mysql connection string: %v", err)
	}
	db, err := database.OpenDSN(dsn)
	if err != nil {
		t.Fatalf("failed to open mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.EnsureSchema(ctx, db); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return &MySQLContainer{Container: container, DB: db}
}

// Truncate empties every portal table.
func (m *MySQLContainer) Truncate(ctx context.Context) error {
	for _, table := range []string{"certificates", "applications", "refresh_tokens", "users"} {
		if _, err := m.DB.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}
