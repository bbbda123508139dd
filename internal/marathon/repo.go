package marathon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/marathon/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

// Repo reads the marathon catalog and enrollments. The catalog itself is
// maintained by the admin tooling, this service never writes it.
type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) GetMarathon(ctx context.Context, id int64) (_ *Marathon, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.marathon.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("marathon.id", id))

	m := &Marathon{}
	err = r.db.QueryRow(ctx, `
		SELECT id, title, number_of_days, start_date
		FROM marathon
		WHERE id = $1
	`, id).Scan(&m.ID, &m.Title, &m.NumberOfDays, &m.StartDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMarathonNotFound
		}
		return nil, err
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("marathon %d: %w", id, err)
	}
	return m, nil
}

func (r *Repo) GetContent(ctx context.Context, marathonID int64) (_ *Content, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.marathon.content")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	m, err := r.GetMarathon(ctx, marathonID)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT d.id, d.day_number, d.title, d.description, e.exercise_id
		FROM marathon_day d
		LEFT JOIN marathon_day_exercise e ON e.day_id = d.id
		WHERE d.marathon_id = $1
		ORDER BY d.day_number, e.position, e.exercise_id
	`, marathonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	content := &Content{
		Marathon: *m,
		Days:     make([]Day, 0, m.NumberOfDays),
	}
	for rows.Next() {
		var (
			day        Day
			exerciseID *string
		)
		if err := rows.Scan(&day.ID, &day.DayNumber, &day.Title, &day.Description, &exerciseID); err != nil {
			return nil, err
		}
		day.MarathonID = marathonID

		last := len(content.Days) - 1
		if last < 0 || content.Days[last].ID != day.ID {
			content.Days = append(content.Days, day)
			last++
		}
		if exerciseID != nil {
			content.Days[last].Exercises = append(content.Days[last].Exercises, ExerciseRef{ExerciseID: *exerciseID})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := content.Validate(); err != nil {
		return nil, fmt.Errorf("marathon %d content: %w", marathonID, err)
	}
	span.SetAttributes(attribute.Int("marathon.days", len(content.Days)))
	return content, nil
}

func (r *Repo) GetEnrollment(ctx context.Context, userID string, marathonID int64) (_ *Enrollment, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.marathon.enrollment.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	e := &Enrollment{}
	err = r.db.QueryRow(ctx, `
		SELECT user_id, marathon_id, start_date
		FROM enrollment
		WHERE user_id = $1 AND marathon_id = $2
	`, userID, marathonID).Scan(&e.UserID, &e.MarathonID, &e.StartDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, err
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// ListActiveEnrollments returns enrollments that may have a trigger due on asOf:
// still active and starting no later than the day after asOf.
// Rows are not validated here, the sweep rejects invalid ones per subject.
func (r *Repo) ListActiveEnrollments(ctx context.Context, asOf time.Time) (_ []Enrollment, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.marathon.enrollment.listactive")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT user_id, marathon_id, start_date
		FROM enrollment
		WHERE active
		  AND start_date - 1 <= $1::date
		ORDER BY marathon_id, user_id
	`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	enrollments := make([]Enrollment, 0)
	for rows.Next() {
		var e Enrollment
		if err := rows.Scan(&e.UserID, &e.MarathonID, &e.StartDate); err != nil {
			return nil, err
		}
		enrollments = append(enrollments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("enrollments", len(enrollments)))
	return enrollments, nil
}

// FinishEnrollment deactivates an enrollment once its completion notification went out.
func (r *Repo) FinishEnrollment(ctx context.Context, userID string, marathonID int64) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.marathon.enrollment.finish")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(ctx, `
		UPDATE enrollment SET active = FALSE
		WHERE user_id = $1 AND marathon_id = $2
	`, userID, marathonID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEnrollmentNotFound
	}
	return nil
}

func (r *Repo) GetParticipant(ctx context.Context, userID string) (_ *Participant, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.marathon.participant.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	p := &Participant{}
	err = r.db.QueryRow(ctx, `
		SELECT user_id, email, first_name
		FROM participant
		WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.Email, &p.FirstName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
