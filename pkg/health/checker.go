package health

import "context"

// Status is reported per dependency and for the service as a whole.
type Status string

const (
	StatusUp   Status = "up"
	StatusDown Status = "down"
)

type Result struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

func up() Result {
	return Result{Status: StatusUp}
}

func down(err error) Result {
	return Result{Status: StatusDown, Message: err.Error()}
}

// Checker tests one dependency the webhook service needs to accept traffic:
// the order store, the payments broker or the applied-event cache.
type Checker interface {
	Name() string
	Check(ctx context.Context) Result
}
