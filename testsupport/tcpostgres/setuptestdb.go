//nolint:errcheck // testsetup
package tcpostgres

import (
	"context"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/iracelog-sector-monitor/pkg/db/migrate"
	database "github.com/mpapenbr/iracelog-sector-monitor/pkg/db/postgres"
)

// create a pg connection pool for the sectormon testdatabase
func SetupTestDB() *pgxpool.Pool {
	ctx := context.Background()
	opts := []ContainerOption{WithName("sectormon-test")}
	if image := os.Getenv("TESTDB_IMAGE"); image != "" {
		opts = append(opts, WithImage(image))
	}
	container, err := StartPostgres(ctx, opts...)
	if err != nil {
		log.Fatal(err)
	}
	dbURL, err := container.URL(ctx)
	if err != nil {
		log.Fatal(err)
	}
	return setupPool(ctx, dbURL)
}

// use the database given by TESTDB_URL instead of a container
func SetupExternalTestDB() *pgxpool.Pool {
	return setupPool(context.Background(), os.Getenv("TESTDB_URL"))
}

func setupPool(ctx context.Context, dbURL string) *pgxpool.Pool {
	if err := migrate.MigrateDB(dbURL); err != nil {
		log.Fatal(err)
	}
	pool, err := database.InitWithURL(ctx, dbURL)
	if err != nil {
		log.Fatal(err)
	}
	return pool
}

func ClearSectorTables(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from sector_range")
	pool.Exec(context.Background(), "delete from sector_definition")
}
