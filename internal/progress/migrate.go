package progress

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/2beens/marathon/internal/marathon"
	"github.com/2beens/marathon/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
)

// LegacyRecord is a row of the old progress table, keyed by (user, marathon, exercise)
// only. DayNumber is missing or wrong for records written by the old code.
type LegacyRecord struct {
	ID          int64
	UserID      string
	MarathonID  int64
	DayNumber   *int
	ExerciseID  string
	CompletedAt time.Time
}

type UnresolvedRecord struct {
	Record LegacyRecord `json:"record"`
	Reason string       `json:"reason"`
}

type ReconcileResult struct {
	// Resolved holds one record per 4-tuple, the latest completion winning.
	Resolved    []ExerciseProgress
	MigratedIDs []int64
	Merged      int
	Unresolved  []UnresolvedRecord
}

const (
	reasonUnknownExercise = "exercise is not part of the marathon"
	reasonAmbiguousDay    = "exercise is on several days and the completion date does not pick one"
	reasonNoEnrollment    = "exercise is on several days and the user has no enrollment"
)

// ReconcileLegacy maps legacy records of one user and marathon onto the day-keyed model.
//
// A record keeps its day number if that day lists the exercise. Otherwise the day is
// derived from the content: an exercise on a single day maps to it, an exercise on
// several days maps to the latest such day not after the completion date (needs the
// enrollment start). Whatever stays ambiguous is reported, never guessed.
func ReconcileLegacy(content marathon.Content, enrollmentStart *time.Time, records []LegacyRecord) ReconcileResult {
	var result ReconcileResult

	merged := make(map[Key]ExerciseProgress)
	for _, rec := range records {
		dayNumber, reason := resolveDay(content, enrollmentStart, rec)
		if reason != "" {
			result.Unresolved = append(result.Unresolved, UnresolvedRecord{Record: rec, Reason: reason})
			continue
		}

		p := ExerciseProgress{
			UserID:      rec.UserID,
			MarathonID:  rec.MarathonID,
			DayNumber:   dayNumber,
			ExerciseID:  rec.ExerciseID,
			CompletedAt: rec.CompletedAt,
		}
		result.MigratedIDs = append(result.MigratedIDs, rec.ID)

		existing, found := merged[p.Key()]
		if found {
			result.Merged++
			if !p.CompletedAt.After(existing.CompletedAt) {
				continue
			}
		}
		merged[p.Key()] = p
	}

	result.Resolved = make([]ExerciseProgress, 0, len(merged))
	for _, p := range merged {
		result.Resolved = append(result.Resolved, p)
	}
	sort.Slice(result.Resolved, func(i, j int) bool {
		a, b := result.Resolved[i], result.Resolved[j]
		if a.UserID != b.UserID {
			return a.UserID < b.UserID
		}
		if a.DayNumber != b.DayNumber {
			return a.DayNumber < b.DayNumber
		}
		return a.ExerciseID < b.ExerciseID
	})
	return result
}

func resolveDay(content marathon.Content, enrollmentStart *time.Time, rec LegacyRecord) (int, string) {
	if rec.DayNumber != nil && CheckSlot(content, *rec.DayNumber, rec.ExerciseID) == nil {
		return *rec.DayNumber, ""
	}

	candidates := content.DaysWithExercise(rec.ExerciseID)
	switch len(candidates) {
	case 0:
		return 0, reasonUnknownExercise
	case 1:
		return candidates[0], ""
	}

	if enrollmentStart == nil {
		return 0, reasonNoEnrollment
	}
	enrollment := marathon.Enrollment{StartDate: *enrollmentStart}
	completedOnDay := enrollment.DayNumberOn(rec.CompletedAt)
	best := 0
	for _, d := range candidates {
		if d <= completedOnDay {
			best = d
		}
	}
	if best == 0 {
		return 0, reasonAmbiguousDay
	}
	return best, ""
}

//go:generate mockgen -source=$GOFILE -destination=migrate_mocks_test.go -package=progress_test

type legacyRepo interface {
	ListLegacy(ctx context.Context) ([]LegacyRecord, error)
	ApplyLegacyMigration(ctx context.Context, result ReconcileResult) error
}

type enrollmentProvider interface {
	GetEnrollment(ctx context.Context, userID string, marathonID int64) (*marathon.Enrollment, error)
}

type MigrationReport struct {
	DryRun     bool               `json:"dryRun"`
	Read       int                `json:"read"`
	Written    int                `json:"written"`
	Merged     int                `json:"merged"`
	Unresolved []UnresolvedRecord `json:"unresolved"`
}

// Migrator backfills the day-keyed progress table from the legacy one.
// It has to run before the old writers are switched off for good.
type Migrator struct {
	legacy      legacyRepo
	content     contentProvider
	enrollments enrollmentProvider
}

func NewMigrator(legacy legacyRepo, content contentProvider, enrollments enrollmentProvider) *Migrator {
	return &Migrator{
		legacy:      legacy,
		content:     content,
		enrollments: enrollments,
	}
}

type groupKey struct {
	userID     string
	marathonID int64
}

func (m *Migrator) Run(ctx context.Context, dryRun bool) (_ *MigrationReport, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.progress.migratelegacy")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	records, err := m.legacy.ListLegacy(ctx)
	if err != nil {
		return nil, fmt.Errorf("list legacy progress: %w", err)
	}

	groups := make(map[groupKey][]LegacyRecord)
	order := make([]groupKey, 0)
	for _, rec := range records {
		k := groupKey{userID: rec.UserID, marathonID: rec.MarathonID}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], rec)
	}

	contents := make(map[int64]*marathon.Content)
	total := ReconcileResult{}
	for _, k := range order {
		content, ok := contents[k.marathonID]
		if !ok {
			content, err = m.content.GetContent(ctx, k.marathonID)
			if err != nil {
				return nil, fmt.Errorf("get content of marathon %d: %w", k.marathonID, err)
			}
			contents[k.marathonID] = content
		}

		var start *time.Time
		enrollment, err := m.enrollments.GetEnrollment(ctx, k.userID, k.marathonID)
		switch {
		case err == nil:
			start = &enrollment.StartDate
		case errors.Is(err, marathon.ErrEnrollmentNotFound):
			log.Debugf("legacy progress: no enrollment for user [%s] in marathon %d", k.userID, k.marathonID)
		default:
			return nil, fmt.Errorf("get enrollment: %w", err)
		}

		res := ReconcileLegacy(*content, start, groups[k])
		total.Resolved = append(total.Resolved, res.Resolved...)
		total.MigratedIDs = append(total.MigratedIDs, res.MigratedIDs...)
		total.Merged += res.Merged
		total.Unresolved = append(total.Unresolved, res.Unresolved...)
	}

	report := &MigrationReport{
		DryRun:     dryRun,
		Read:       len(records),
		Written:    len(total.Resolved),
		Merged:     total.Merged,
		Unresolved: total.Unresolved,
	}
	if dryRun {
		return report, nil
	}

	if err := m.legacy.ApplyLegacyMigration(ctx, total); err != nil {
		return nil, fmt.Errorf("apply legacy migration: %w", err)
	}
	log.Infof("legacy progress migrated: read %d, written %d, merged %d, unresolved %d",
		report.Read, report.Written, report.Merged, len(report.Unresolved))
	return report, nil
}
