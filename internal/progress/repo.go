package progress

import (
	"context"
	"fmt"

	"github.com/2beens/marathon/internal/marathon"
	"github.com/2beens/marathon/internal/telemetry/tracing"
	"github.com/2beens/marathon/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Upsert writes the progress record; completing an already completed slot
// only moves its completedAt.
func (r *Repo) Upsert(ctx context.Context, p ExerciseProgress) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.upsert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int64("marathon.id", p.MarathonID),
		attribute.Int("day.number", p.DayNumber),
	)

	if err := p.Validate(); err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO exercise_progress (user_id, marathon_id, day_number, exercise_id, completed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, marathon_id, day_number, exercise_id)
		DO UPDATE SET completed_at = EXCLUDED.completed_at
	`, p.UserID, p.MarathonID, p.DayNumber, p.ExerciseID, p.CompletedAt)
	if pkg.IsForeignKeyViolationError(err) {
		// the marathon was deleted after its content was checked
		return marathon.ErrMarathonNotFound
	}
	return err
}

func (r *Repo) ListForUser(ctx context.Context, userID string, marathonID int64) (_ []ExerciseProgress, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.listforuser")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT user_id, marathon_id, day_number, exercise_id, completed_at
		FROM exercise_progress
		WHERE user_id = $1 AND marathon_id = $2
		ORDER BY day_number, exercise_id
	`, userID, marathonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]ExerciseProgress, 0)
	for rows.Next() {
		var p ExerciseProgress
		if err := rows.Scan(&p.UserID, &p.MarathonID, &p.DayNumber, &p.ExerciseID, &p.CompletedAt); err != nil {
			return nil, err
		}
		records = append(records, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// ListLegacy returns the not yet migrated rows of the old progress table.
func (r *Repo) ListLegacy(ctx context.Context) (_ []LegacyRecord, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.listlegacy")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, marathon_id, day_number, exercise_id, completed_at
		FROM exercise_progress_legacy
		WHERE migrated_at IS NULL
		ORDER BY marathon_id, user_id, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]LegacyRecord, 0)
	for rows.Next() {
		var lr LegacyRecord
		if err := rows.Scan(&lr.ID, &lr.UserID, &lr.MarathonID, &lr.DayNumber, &lr.ExerciseID, &lr.CompletedAt); err != nil {
			return nil, err
		}
		records = append(records, lr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("legacy.rows", len(records)))
	return records, nil
}

// ApplyLegacyMigration writes the reconciled records and flags the legacy rows, in one transaction.
// Unresolved rows stay unmigrated but are marked, so they can be fixed by hand.
func (r *Repo) ApplyLegacyMigration(ctx context.Context, result ReconcileResult) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.applylegacy")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	batch := &pgx.Batch{}
	for _, p := range result.Resolved {
		batch.Queue(`
			INSERT INTO exercise_progress (user_id, marathon_id, day_number, exercise_id, completed_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id, marathon_id, day_number, exercise_id)
			DO UPDATE SET completed_at = GREATEST(exercise_progress.completed_at, EXCLUDED.completed_at)
		`, p.UserID, p.MarathonID, p.DayNumber, p.ExerciseID, p.CompletedAt)
	}
	if len(result.MigratedIDs) > 0 {
		batch.Queue(`
			UPDATE exercise_progress_legacy SET migrated_at = now(), unresolved = FALSE
			WHERE id = ANY($1)
		`, result.MigratedIDs)
	}
	if len(result.Unresolved) > 0 {
		ids := make([]int64, 0, len(result.Unresolved))
		for _, u := range result.Unresolved {
			ids = append(ids, u.Record.ID)
		}
		batch.Queue(`
			UPDATE exercise_progress_legacy SET unresolved = TRUE
			WHERE id = ANY($1)
		`, ids)
	}
	if batch.Len() == 0 {
		return nil
	}

	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("apply legacy batch: %w", err)
	}
	return nil
}
