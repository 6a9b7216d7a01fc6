package learningtool

import (
	"context"
	"fmt"

	"studymate/internal/domain"
)

// QuotaGuard rejects generation requests before any paid call is made.
//
// The check is a plain read, not a reservation: two concurrent requests from
// the same user can both pass it and the user ends up at most one generation
// over the limit. The authoritative count lives in the commit transaction,
// so this stays a soft limit on purpose.
type QuotaGuard struct {
	users domain.UserRepository
}

// NewQuotaGuard constructs a QuotaGuard.
func NewQuotaGuard(users domain.UserRepository) *QuotaGuard {
	return &QuotaGuard{users: users}
}

// Usage reports the current counter pair without judging it.
func (q *QuotaGuard) Usage(ctx context.Context, userID string) (domain.Usage, error) {
	return q.users.GetUsage(ctx, userID)
}

// Check fails with ErrQuotaExhausted when the user has no generations left.
func (q *QuotaGuard) Check(ctx context.Context, userID string) error {
	usage, err := q.users.GetUsage(ctx, userID)
	if err != nil {
		return err
	}
	if usage.Exhausted() {
		return fmt.Errorf("used %d of %d generations: %w", usage.Count, usage.Limit, domain.ErrQuotaExhausted)
	}
	return nil
}
