package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/marathon/internal/marathon"
	"github.com/2beens/marathon/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=tracker_mocks_test.go -package=progress_test

type contentProvider interface {
	GetContent(ctx context.Context, marathonID int64) (*marathon.Content, error)
}

type progressRepo interface {
	Upsert(ctx context.Context, p ExerciseProgress) error
	ListForUser(ctx context.Context, userID string, marathonID int64) ([]ExerciseProgress, error)
}

// Tracker is the only entry point that mutates progress state.
type Tracker struct {
	content contentProvider
	repo    progressRepo
	now     func() time.Time
}

func NewTracker(content contentProvider, repo progressRepo) *Tracker {
	return &Tracker{
		content: content,
		repo:    repo,
		now:     time.Now,
	}
}

// WithClock replaces the time source used for completedAt.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

func (t *Tracker) MarkComplete(
	ctx context.Context,
	userID string,
	marathonID int64,
	dayNumber int,
	exerciseID string,
) (_ *ExerciseProgress, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.progress.markcomplete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int64("marathon.id", marathonID),
		attribute.Int("day.number", dayNumber),
		attribute.String("exercise.id", exerciseID),
	)

	p := ExerciseProgress{
		UserID:      userID,
		MarathonID:  marathonID,
		DayNumber:   dayNumber,
		ExerciseID:  exerciseID,
		CompletedAt: t.now().UTC(),
	}
	if err := p.validateRefs(); err != nil {
		return nil, err
	}

	content, err := t.content.GetContent(ctx, marathonID)
	if err != nil {
		return nil, fmt.Errorf("get marathon content: %w", err)
	}
	// days below 1 are rejected here too, as UnknownDayError
	if err := CheckSlot(*content, dayNumber, exerciseID); err != nil {
		return nil, err
	}

	if err := t.repo.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("upsert progress: %w", err)
	}

	log.Tracef("progress: user [%s] completed [%s] on day %d of marathon %d", userID, exerciseID, dayNumber, marathonID)
	return &p, nil
}

func (t *Tracker) DayCompletionRatio(ctx context.Context, userID string, marathonID int64, dayNumber int) (_ float64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.progress.dayratio")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	content, err := t.content.GetContent(ctx, marathonID)
	if err != nil {
		return 0, fmt.Errorf("get marathon content: %w", err)
	}
	if _, ok := content.Day(dayNumber); !ok {
		return 0, &UnknownDayError{MarathonID: marathonID, DayNumber: dayNumber, NumberOfDays: content.Marathon.NumberOfDays}
	}

	records, err := t.repo.ListForUser(ctx, userID, marathonID)
	if err != nil {
		return 0, fmt.Errorf("list progress: %w", err)
	}
	return DayRatio(*content, userID, dayNumber, records)
}

func (t *Tracker) MarathonCompletionRatio(ctx context.Context, userID string, marathonID int64) (float64, error) {
	summary, err := t.Summary(ctx, userID, marathonID)
	if err != nil {
		return 0, err
	}
	return summary.CompletionRatio, nil
}

// Summary returns the marathon ratio together with the per-day breakdown.
func (t *Tracker) Summary(ctx context.Context, userID string, marathonID int64) (_ *Summary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.progress.summary")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	content, err := t.content.GetContent(ctx, marathonID)
	if err != nil {
		return nil, fmt.Errorf("get marathon content: %w", err)
	}
	records, err := t.repo.ListForUser(ctx, userID, marathonID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}

	summary := Summarize(*content, userID, records)
	span.SetAttributes(attribute.Float64("completion.ratio", summary.CompletionRatio))
	return &summary, nil
}
