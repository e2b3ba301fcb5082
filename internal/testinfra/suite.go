//go:build integration
// +build integration

package testinfra

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// TestSuite is the set of backing services one integration package needs.
// Postgres, holding orders, stock and the payment ledger, is always started.
type TestSuite struct {
	Postgres *PostgresContainer
	Kafka    *KafkaContainer
	Redis    *RedisContainer
}

type SuiteOptions struct {
	// PaymentsBroker starts Kafka with the payments and dead letter topics.
	PaymentsBroker bool
	// AppliedCache starts Redis for the applied-event cache.
	AppliedCache bool
}

// NewTestSuite starts the requested containers concurrently. If any fails,
// the ones already started are terminated.
func NewTestSuite(ctx context.Context, opts SuiteOptions) (*TestSuite, error) {
	suite := &TestSuite{}
	var g errgroup.Group

	g.Go(func() error {
		pg, err := NewPostgres(ctx)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		suite.Postgres = pg
		return nil
	})

	if opts.PaymentsBroker {
		g.Go(func() error {
			k, err := NewKafka(ctx)
			if err != nil {
				return fmt.Errorf("kafka: %w", err)
			}
			suite.Kafka = k
			return nil
		})
	}

	if opts.AppliedCache {
		g.Go(func() error {
			r, err := NewRedis(ctx)
			if err != nil {
				return fmt.Errorf("redis: %w", err)
			}
			suite.Redis = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		suite.Cleanup(ctx)
		return nil, fmt.Errorf("start test suite: %w", err)
	}
	return suite, nil
}

func (s *TestSuite) Cleanup(ctx context.Context) {
	if s.Redis != nil {
		s.Redis.Cleanup(ctx)
	}
	if s.Kafka != nil {
		s.Kafka.Cleanup(ctx)
	}
	if s.Postgres != nil {
		s.Postgres.Cleanup(ctx)
	}
}
