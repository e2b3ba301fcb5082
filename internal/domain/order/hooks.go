package order

import "context"

//go:generate mockgen -source hooks.go -destination mock_hooks.go -package order

// AppliedCache remembers dedup keys whose payment is applied, so redeliveries
// can skip the database. The ledger stays authoritative; a cache miss is never
// treated as "not applied" on its own.
type AppliedCache interface {
	IsApplied(ctx context.Context, key string) (bool, error)
	MarkApplied(ctx context.Context, key string) error
}

// PostCommitHook runs after an applied outcome is committed. Errors are logged
// and never undo the commit.
type PostCommitHook interface {
	AfterApplied(ctx context.Context, outcome Outcome) error
}

// OutcomeSink receives every reconciliation outcome for audit.
type OutcomeSink interface {
	RecordOutcome(ctx context.Context, outcome Outcome) error
}
