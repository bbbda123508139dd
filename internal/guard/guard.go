// Package guard records which (subject, trigger) notifications were claimed or sent,
// so that every trigger is delivered at most once per subject.
//
// A claim starts as pending. It becomes sent after the gateway confirmed delivery,
// or is released when delivery failed so a later sweep can retry it. Pending claims
// left behind by a crash are removed by ReconcileStale.
package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/marathon/internal/config"
	"github.com/2beens/marathon/internal/errs"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	StatusPending = "pending"
	StatusSent    = "sent"
)

// ErrClaimNotHeld is returned when marking or releasing a claim that is not pending anymore.
var ErrClaimNotHeld = fmt.Errorf("claim not held: %w", errs.ErrConcurrencyConflict)

type Guard interface {
	// TryClaim atomically creates a pending claim; false means someone else holds it or already sent it.
	TryClaim(ctx context.Context, subjectID, triggerKey string) (bool, error)
	MarkSent(ctx context.Context, subjectID, triggerKey string) error
	Release(ctx context.Context, subjectID, triggerKey string) error
	// Sent reports whether the trigger was already delivered to the subject.
	Sent(ctx context.Context, subjectID, triggerKey string) (bool, error)
	// ReconcileStale drops pending claims older than olderThan and returns how many were dropped.
	ReconcileStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// New returns the guard for the configured driver. The pool and redis client are only
// required by their own drivers.
func New(driver string, db *pgxpool.Pool, rdb *redis.Client, lease time.Duration) (Guard, error) {
	switch driver {
	case config.GuardDriverPostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres guard: nil db pool")
		}
		return NewPostgresGuard(db), nil
	case config.GuardDriverRedis:
		if rdb == nil {
			return nil, fmt.Errorf("redis guard: nil redis client")
		}
		return NewRedisGuard(rdb, lease), nil
	case config.GuardDriverMemory:
		return NewMemoryGuard(), nil
	default:
		return nil, fmt.Errorf("unknown guard driver: %s", driver)
	}
}
