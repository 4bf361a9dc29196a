package tcpostgres

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx driver for wait.ForSQL
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	dbUser     = "postgres"
	dbPassword = "password"
	dbName     = "postgres"
	dbImage    = "postgres:17"
)

var dbPort = nat.Port("5432/tcp")

// PostgresContainer is the database container for the sector definition tests
type PostgresContainer struct {
	testcontainers.Container
}

type ContainerOption func(req *testcontainers.ContainerRequest)

// WithName lets test runs reuse a running container
func WithName(containerName string) ContainerOption {
	return func(req *testcontainers.ContainerRequest) {
		req.Name = containerName
	}
}

func WithImage(image string) ContainerOption {
	return func(req *testcontainers.ContainerRequest) {
		req.Image = image
	}
}

// URL returns the connection string for the mapped database port
func (c *PostgresContainer) URL(ctx context.Context) (string, error) {
	host, err := c.Host(ctx)
	if err != nil {
		return "", err
	}
	port, err := c.MappedPort(ctx, dbPort)
	if err != nil {
		return "", err
	}
	return connString(host, port), nil
}

func connString(host string, port nat.Port) string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable",
		dbUser, dbPassword, host, port.Port(), dbName)
}

// the init run logs "ready" once before the final start, so two occurrences
// plus a query are needed before migrations can run
func readyStrategy() wait.Strategy {
	return wait.ForAll(
		wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2),
		wait.ForSQL(dbPort, "pgx", connString).
			WithQuery("select 1"),
	).WithDeadline(1 * time.Minute)
}

// StartPostgres starts (or reuses) the postgres container
func StartPostgres(ctx context.Context, opts ...ContainerOption) (
	*PostgresContainer, error,
) {
	req := testcontainers.ContainerRequest{
		Image: dbImage,
		Env: map[string]string{
			"POSTGRES_USER":     dbUser,
			"POSTGRES_PASSWORD": dbPassword,
			"POSTGRES_DB":       dbName,
		},
		ExposedPorts: []string{string(dbPort)},
		Cmd:          []string{"postgres", "-c", "fsync=off"},
		WaitingFor:   readyStrategy(),
	}
	for _, opt := range opts {
		opt(&req)
	}

	container, err := testcontainers.GenericContainer(
		ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
			Reuse:            req.Name != "",
		})
	if err != nil {
		return nil, err
	}
	return &PostgresContainer{Container: container}, nil
}
