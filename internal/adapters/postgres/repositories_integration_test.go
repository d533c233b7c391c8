//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Adelipop59/super-try-api-sub002/internal/adapters/postgres"
	"github.com/Adelipop59/super-try-api-sub002/internal/adapters/storetest"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPostgresStoreContract(t *testing.T) {
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "supertry",
				"POSTGRES_PASSWORD": "supertry",
				"POSTGRES_DB":       "supertry",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("postgres host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("postgres port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://supertry:supertry@%s:%s/supertry?sslmode=disable", host, port.Port())

	db, err := postgres.Connect(ctx, dsn, 4)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	// Migrations are re-runnable.
	for i := 0; i < 2; i++ {
		if err := postgres.RunMigrations(ctx, db); err != nil {
			t.Fatalf("run migrations (pass %d): %v", i+1, err)
		}
	}
	if err := postgres.Ping(ctx, db); err != nil {
		t.Fatalf("ping: %v", err)
	}

	repos := postgres.NewRepositories(db)
	storetest.Run(t, storetest.Stores{
		Users:       repos.Users,
		Categories:  repos.Categories,
		Campaigns:   repos.Campaigns,
		Wallets:     repos.Wallets,
		Withdrawals: repos.Withdrawals,
		Outbox:      repos.Outbox,
		EventDedup:  repos.EventDedup,
		Idempotency: repos.Idempotency,
	})
}
