package profile_repo

import (
	"context"
	"fmt"
	"log/slog"

	"AgriConnect/internal/domain/order"
	"AgriConnect/pkg/postgres"

	"github.com/Masterminds/squirrel"
)

const RoleConsumer = "consumer"

// ProfileLinker gives a buyer the consumer role after their first applied
// payment. Existing roles are never overwritten.
type ProfileLinker struct {
	db      postgres.Executor
	builder squirrel.StatementBuilderType
}

func NewProfileLinker(pg *postgres.Postgres) *ProfileLinker {
	return &ProfileLinker{db: pg.Pool, builder: pg.Builder}
}

func (l *ProfileLinker) AfterApplied(ctx context.Context, outcome order.Outcome) error {
	if outcome.BuyerID == "" {
		return nil
	}

	linked, err := l.LinkConsumer(ctx, outcome.BuyerID)
	if err != nil {
		return err
	}
	if linked {
		slog.InfoContext(ctx, "Buyer linked as consumer",
			"buyer_id", outcome.BuyerID,
			"provider_payment_id", outcome.ProviderPaymentID)
	}
	return nil
}

// LinkConsumer creates the buyer's profile with the consumer role, or assigns
// the role to an existing profile that has none. Reports whether a row changed.
func (l *ProfileLinker) LinkConsumer(ctx context.Context, buyerID string) (bool, error) {
	query, args, err := l.builder.Insert("profiles").
		Columns("id", "role").
		Values(buyerID, RoleConsumer).
		Suffix("ON CONFLICT (id) DO UPDATE SET role = EXCLUDED.role, updated_at = NOW() WHERE profiles.role IS NULL").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build link consumer query: %w", err)
	}

	tag, err := l.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("link consumer profile: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
