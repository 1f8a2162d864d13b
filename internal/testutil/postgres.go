package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
)

// StartPostgres launches Postgres, applies the embedded migrations and
// returns the DSN.
func StartPostgres(t *testing.T) string {
	t.Helper()

	addr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:16",
		Env:          map[string]string{"POSTGRES_PASSWORD": "postgres", "POSTGRES_USER": "postgres", "POSTGRES_DB": "storefront"},
		ExposedPorts: []string{"5432/tcp"},
		// the server restarts once after initdb, so wait for the second banner
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	})

	dsn := "postgres://postgres:postgres@" + addr + "/storefront?sslmode=disable"
	require.NoError(t, db.RunMigrations(dsn, zap.NewNop()))

	applied, err := db.SchemaVersion(dsn)
	require.NoError(t, err)
	latest, err := db.LatestVersion()
	require.NoError(t, err)
	require.Equal(t, latest, applied, "schema not at latest migration")
	return dsn
}
