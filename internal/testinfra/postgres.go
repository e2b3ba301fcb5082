//go:build integration
// +build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	"AgriConnect/internal/app"
	"AgriConnect/pkg/postgres"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	pgUser     = "agri"
	pgPassword = "agri"
	pgDatabase = "agri_test"
)

// PostgresContainer is a migrated order store: products, orders, profiles and
// the payment ledger.
type PostgresContainer struct {
	Container testcontainers.Container
	Pool      *postgres.Postgres
	DSN       string
}

func dsn(host string, port nat.Port) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", pgUser, pgPassword, host, port.Port(), pgDatabase)
}

func NewPostgres(ctx context.Context) (*PostgresContainer, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: "postgres:17-alpine",
			Env: map[string]string{
				"POSTGRES_USER":     pgUser,
				"POSTGRES_PASSWORD": pgPassword,
				"POSTGRES_DB":       pgDatabase,
			},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor: wait.ForSQL("5432/tcp", "postgres", func(host string, port nat.Port) string {
				return dsn(host, port)
			}).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	c := &PostgresContainer{Container: container}
	if err := c.connect(ctx); err != nil {
		c.Cleanup(ctx)
		return nil, err
	}
	return c, nil
}

func (c *PostgresContainer) connect(ctx context.Context) error {
	host, err := c.Container.Host(ctx)
	if err != nil {
		return fmt.Errorf("postgres host: %w", err)
	}
	port, err := c.Container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return fmt.Errorf("postgres port: %w", err)
	}
	c.DSN = dsn(host, port)

	if err := app.ApplyMigrations(ctx, c.DSN, app.MIGRATION_FS); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// Concurrent reconciliation tests hold one connection per goroutine.
	c.Pool, err = postgres.New(c.DSN, postgres.MaxPoolSize(20))
	if err != nil {
		return fmt.Errorf("failed to create postgres pool: %w", err)
	}
	return nil
}

func (c *PostgresContainer) Cleanup(ctx context.Context) {
	if c.Pool != nil {
		c.Pool.Close()
	}
	if c.Container != nil {
		_ = c.Container.Terminate(ctx)
	}
}

// Truncate empties the order store between tests.
func (c *PostgresContainer) Truncate(ctx context.Context) error {
	_, err := c.Pool.Pool.Exec(ctx,
		"TRUNCATE TABLE payment_events, orders, products, profiles CASCADE")
	return err
}

// SeedProduct inserts a product or resets its stock.
func (c *PostgresContainer) SeedProduct(ctx context.Context, id string, quantity int) error {
	_, err := c.Pool.Pool.Exec(ctx,
		`INSERT INTO products (id, name, quantity) VALUES ($1, $1, $2)
		 ON CONFLICT (id) DO UPDATE SET quantity = EXCLUDED.quantity`, id, quantity)
	return err
}

// Stock returns the remaining quantity of a product.
func (c *PostgresContainer) Stock(ctx context.Context, productID string) (int, error) {
	var quantity int
	err := c.Pool.Pool.QueryRow(ctx, "SELECT quantity FROM products WHERE id = $1", productID).Scan(&quantity)
	return quantity, err
}

// CountOrders counts orders created for one provider payment. An empty id
// counts every order.
func (c *PostgresContainer) CountOrders(ctx context.Context, providerPaymentID string) (int, error) {
	query, args := "SELECT COUNT(*) FROM orders", []any{}
	if providerPaymentID != "" {
		query += " WHERE provider_payment_id = $1"
		args = append(args, providerPaymentID)
	}
	var n int
	err := c.Pool.Pool.QueryRow(ctx, query, args...).Scan(&n)
	return n, err
}

// ProfileRole returns the role of a buyer profile, empty when unset.
func (c *PostgresContainer) ProfileRole(ctx context.Context, buyerID string) (string, error) {
	var role *string
	if err := c.Pool.Pool.QueryRow(ctx, "SELECT role FROM profiles WHERE id = $1", buyerID).Scan(&role); err != nil {
		return "", err
	}
	if role == nil {
		return "", nil
	}
	return *role, nil
}
