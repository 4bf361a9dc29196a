package testdb

import (
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	tcpg "github.com/mpapenbr/iracelog-sector-monitor/testsupport/tcpostgres"
)

// InitTestDB returns a pool on an empty, migrated database.
// Set TESTDB_URL to use an existing database instead of a container.
func InitTestDB() *pgxpool.Pool {
	var pool *pgxpool.Pool

	if os.Getenv("TESTDB_URL") != "" {
		pool = tcpg.SetupExternalTestDB()
	} else {
		pool = tcpg.SetupTestDB()
	}
	tcpg.ClearSectorTables(pool)
	return pool
}
