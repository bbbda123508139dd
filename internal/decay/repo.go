package decay

import (
	"context"
	"time"

	"github.com/2beens/marathon/internal/telemetry/tracing"

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

// ListExpiring returns diaries expiring within the largest threshold window from asOf,
// including the ones expiring on asOf. Invalid rows are returned too, the sweep
// rejects them per subject.
func (r *Repo) ListExpiring(ctx context.Context, asOf time.Time) (_ []PhotoDiary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.decay.listexpiring")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	window := Thresholds[len(Thresholds)-1]
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, marathon_id, expires_on
		FROM photo_diary
		WHERE expires_on >= $1::date AND expires_on - $2::int <= $1::date
		ORDER BY id
	`, asOf, window)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	diaries := make([]PhotoDiary, 0)
	for rows.Next() {
		var d PhotoDiary
		if err := rows.Scan(&d.ID, &d.UserID, &d.MarathonID, &d.ExpiresOn); err != nil {
			return nil, err
		}
		diaries = append(diaries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("diaries.count", len(diaries)))
	return diaries, nil
}
