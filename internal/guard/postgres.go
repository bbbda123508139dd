package guard

import (
	"context"
	"time"

	"github.com/2beens/marathon/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

// PostgresGuard keeps claims in the send_record table, unique on (subject_id, trigger_key).
type PostgresGuard struct {
	db  *pgxpool.Pool
	now func() time.Time
}

func NewPostgresGuard(db *pgxpool.Pool) *PostgresGuard {
	return &PostgresGuard{
		db:  db,
		now: time.Now,
	}
}

func (g *PostgresGuard) TryClaim(ctx context.Context, subjectID, triggerKey string) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.guard.claim")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("subject", subjectID),
		attribute.String("trigger", triggerKey),
	)

	tag, err := g.db.Exec(ctx, `
		INSERT INTO send_record (subject_id, trigger_key, status, claimed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (subject_id, trigger_key) DO NOTHING
	`, subjectID, triggerKey, StatusPending, g.now().UTC())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (g *PostgresGuard) MarkSent(ctx context.Context, subjectID, triggerKey string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.guard.marksent")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := g.db.Exec(ctx, `
		UPDATE send_record
		SET status = $3, sent_at = $4
		WHERE subject_id = $1 AND trigger_key = $2 AND status = $5
	`, subjectID, triggerKey, StatusSent, g.now().UTC(), StatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrClaimNotHeld
	}
	return nil
}

func (g *PostgresGuard) Release(ctx context.Context, subjectID, triggerKey string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.guard.release")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := g.db.Exec(ctx, `
		DELETE FROM send_record
		WHERE subject_id = $1 AND trigger_key = $2 AND status = $3
	`, subjectID, triggerKey, StatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrClaimNotHeld
	}
	return nil
}

func (g *PostgresGuard) Sent(ctx context.Context, subjectID, triggerKey string) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.guard.sent")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var sent bool
	if err := g.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM send_record
			WHERE subject_id = $1 AND trigger_key = $2 AND status = $3
		)
	`, subjectID, triggerKey, StatusSent).Scan(&sent); err != nil {
		return false, err
	}
	return sent, nil
}

func (g *PostgresGuard) ReconcileStale(ctx context.Context, olderThan time.Duration) (_ int64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.guard.reconcile")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := g.db.Exec(ctx, `
		DELETE FROM send_record
		WHERE status = $1 AND claimed_at < $2
	`, StatusPending, g.now().Add(-olderThan).UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
