// Package sweep runs the batch pass that sends every due lifecycle and decay notification.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/2beens/marathon/internal/decay"
	"github.com/2beens/marathon/internal/delivery"
	"github.com/2beens/marathon/internal/errs"
	"github.com/2beens/marathon/internal/guard"
	"github.com/2beens/marathon/internal/lifecycle"
	"github.com/2beens/marathon/internal/marathon"
	"github.com/2beens/marathon/internal/progress"
	"github.com/2beens/marathon/internal/telemetry/metrics"
	"github.com/2beens/marathon/internal/telemetry/tracing"
	"github.com/2beens/marathon/internal/templates"
	"github.com/2beens/marathon/pkg"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

//go:generate mockgen -source=$GOFILE -destination=sweep_mocks_test.go -package=sweep_test

var ErrSweepRunning = errors.New("sweep already running")

const (
	kindLifecycle = "lifecycle"
	kindDecay     = "decay"
)

type enrollmentsRepo interface {
	ListActiveEnrollments(ctx context.Context, asOf time.Time) ([]marathon.Enrollment, error)
	FinishEnrollment(ctx context.Context, userID string, marathonID int64) error
	GetParticipant(ctx context.Context, userID string) (*marathon.Participant, error)
}

type contentProvider interface {
	GetContent(ctx context.Context, marathonID int64) (*marathon.Content, error)
}

type progressLister interface {
	ListForUser(ctx context.Context, userID string, marathonID int64) ([]progress.ExerciseProgress, error)
}

type diariesRepo interface {
	ListExpiring(ctx context.Context, asOf time.Time) ([]decay.PhotoDiary, error)
}

type templateGetter interface {
	Get(ctx context.Context, templateType templates.Type) (*templates.Template, error)
}

type Dependencies struct {
	Enrollments enrollmentsRepo
	Content     contentProvider
	Progress    progressLister
	Diaries     diariesRepo
	Templates   templateGetter
	Guard       guard.Guard
	Gateway     delivery.Gateway
	Metrics     *metrics.Manager
}

type Params struct {
	Workers int
	BaseURL string
	// pending claims older than this are dropped before each sweep
	StaleClaimAge time.Duration
}

// Runner runs one sweep at a time. It keeps no state between sweeps: everything
// needed to resume lives in the enrollments and the guard.
type Runner struct {
	deps    Dependencies
	params  Params
	running atomic.Bool
}

func NewRunner(deps Dependencies, params Params) *Runner {
	if params.Workers <= 0 {
		params.Workers = 1
	}
	return &Runner{
		deps:   deps,
		params: params,
	}
}

// notification is one guarded send. prepare resolves the recipient and template
// bindings, it runs only after the claim was acquired.
type notification struct {
	kind         string
	subjectID    string
	triggerKey   string
	triggerLabel string
	templateType templates.Type
	prepare      func(ctx context.Context) (to string, bindings map[string]string, err error)
}

// RunSweep evaluates every active enrollment and expiring photo diary against asOf.
// Failures of single subjects are collected in the report; the returned error is
// set only when the sweep could not run at all.
func (r *Runner) RunSweep(ctx context.Context, asOf time.Time) (_ *Report, err error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, ErrSweepRunning
	}
	defer r.running.Store(false)

	asOf = pkg.DateOf(asOf)
	report := newReport(uuid.NewString(), asOf)

	ctx, span := tracing.GlobalTracer.Start(ctx, "service.sweep.run")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("sweep.id", report.RunID),
		attribute.String("sweep.asof", report.AsOf),
	)

	m := r.deps.Metrics
	if m != nil {
		m.GaugeSweepRunning.Set(1)
		defer m.GaugeSweepRunning.Set(0)
	}
	logger := log.WithFields(log.Fields{"sweep": report.RunID, "asOf": report.AsOf})
	logger.Info("sweep started")

	defer func() {
		report.finish()
		if m != nil {
			m.HistSweepDuration.Observe(report.Duration.Seconds())
			m.GaugeLastSweepTime.SetToCurrentTime()
			m.CounterSweeps.WithLabelValues(report.result(err)).Inc()
		}
		if err != nil {
			logger.Errorf("sweep failed: %s", err)
			return
		}
		logger.Infof("sweep done in %s: %d subjects, %d sent, %d skipped, %d failed",
			report.Duration, report.Subjects, report.Sent, report.Skipped, report.Failed)
	}()

	if r.params.StaleClaimAge > 0 {
		reconciled, err := r.deps.Guard.ReconcileStale(ctx, r.params.StaleClaimAge)
		if err != nil {
			// stale claims only delay a retry, the sweep can go on
			logger.Errorf("reconcile stale claims: %s", err)
			report.addError(fmt.Errorf("reconcile stale claims: %w", err))
		} else {
			report.Reconciled = reconciled
			if m != nil {
				m.CounterGuardReconciled.Add(float64(reconciled))
			}
			if reconciled > 0 {
				logger.Warnf("released %d stale claims", reconciled)
			}
		}
	}

	enrollments, err := r.deps.Enrollments.ListActiveEnrollments(ctx, asOf)
	if err != nil {
		return report, fmt.Errorf("list active enrollments: %w", err)
	}
	diaries, err := r.deps.Diaries.ListExpiring(ctx, asOf)
	if err != nil {
		return report, fmt.Errorf("list expiring photo diaries: %w", err)
	}
	contents := r.loadContents(ctx, enrollments)

	var wg errgroup.Group
	wg.SetLimit(r.params.Workers)
	for _, userEnrollments := range groupByUser(enrollments) {
		wg.Go(func() error {
			// a user in several marathons is one subject, handled by one worker
			for _, e := range userEnrollments {
				r.runSubject(ctx, report, lifecycle.SubjectID(e.UserID), r.enrollmentNotifications(asOf, e, contents[e.MarathonID]))
			}
			return nil
		})
	}
	for _, d := range diaries {
		wg.Go(func() error {
			r.runSubject(ctx, report, d.SubjectID(), r.diaryNotifications(asOf, d))
			return nil
		})
	}
	_ = wg.Wait()

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("sweep interrupted: %w", err)
	}
	return report, nil
}

// groupByUser keeps the order of first appearance of every user.
func groupByUser(enrollments []marathon.Enrollment) [][]marathon.Enrollment {
	index := make(map[string]int)
	var groups [][]marathon.Enrollment
	for _, e := range enrollments {
		i, ok := index[e.UserID]
		if !ok {
			i = len(groups)
			index[e.UserID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], e)
	}
	return groups
}

type loadedContent struct {
	content *marathon.Content
	err     error
}

// loadContents reads the content of every marathon once per sweep.
func (r *Runner) loadContents(ctx context.Context, enrollments []marathon.Enrollment) map[int64]loadedContent {
	contents := make(map[int64]loadedContent)
	for _, e := range enrollments {
		if _, ok := contents[e.MarathonID]; ok || e.Validate() != nil {
			continue
		}
		content, err := r.deps.Content.GetContent(ctx, e.MarathonID)
		if err != nil {
			err = fmt.Errorf("get content of marathon %d: %w", e.MarathonID, err)
		}
		contents[e.MarathonID] = loadedContent{content: content, err: err}
	}
	return contents
}

type subjectWork struct {
	notifications []notification
	// afterSent runs after a notification of the subject was delivered
	afterSent func(ctx context.Context, n notification) error
	// afterSkipped runs when a notification was already claimed by an earlier run or another worker
	afterSkipped func(ctx context.Context, n notification) error
	err          error
}

// runSubject sends the subject's notifications strictly in order. A delivery failure
// stops the subject so the remaining triggers keep their order on the next sweep.
func (r *Runner) runSubject(ctx context.Context, report *Report, subjectID string, work subjectWork) {
	report.addSubject()
	logger := log.WithFields(log.Fields{"sweep": report.RunID, "subject": subjectID})

	if work.err != nil {
		r.subjectFailed(report, logger, subjectID, work.err)
		return
	}

	for _, n := range work.notifications {
		if ctx.Err() != nil {
			return
		}

		outcome, err := r.send(ctx, n)
		r.countOutcome(report, n, outcome)
		switch outcome {
		case metrics.OutcomeSent:
			logger.Infof("sent %s", n.triggerKey)
			if err != nil {
				// delivered, but the claim could not be marked
				report.addError(fmt.Errorf("subject %s, trigger %s: %w", subjectID, n.triggerKey, err))
			}
			if work.afterSent != nil {
				if err := work.afterSent(ctx, n); err != nil {
					r.subjectFailed(report, logger, subjectID, err)
					return
				}
			}
		case metrics.OutcomeSkipped:
			logger.Debugf("skip %s, already claimed", n.triggerKey)
			if work.afterSkipped != nil {
				if err := work.afterSkipped(ctx, n); err != nil {
					r.subjectFailed(report, logger, subjectID, err)
					return
				}
			}
		case metrics.OutcomeTemplateError:
			// only this notification is lost, later triggers can still go out
			r.subjectFailed(report, logger, subjectID, fmt.Errorf("trigger %s: %w", n.triggerKey, err))
		default:
			r.subjectFailed(report, logger, subjectID, fmt.Errorf("trigger %s: %w", n.triggerKey, err))
			return
		}
	}
}

func (r *Runner) subjectFailed(report *Report, logger *log.Entry, subjectID string, err error) {
	logger.Errorf("subject failed: %s", err)
	report.addError(fmt.Errorf("subject %s: %w", subjectID, err))
	if r.deps.Metrics != nil {
		r.deps.Metrics.CounterSubjectErrors.WithLabelValues(errs.Kind(err)).Inc()
	}
}

func (r *Runner) countOutcome(report *Report, n notification, outcome string) {
	report.addOutcome(outcome)
	if r.deps.Metrics != nil {
		r.deps.Metrics.CounterNotifications.WithLabelValues(n.kind, n.triggerLabel, outcome).Inc()
	}
}

// send claims, renders and delivers one notification. Every failure after a
// successful claim releases it, so the trigger is retried by a later sweep.
func (r *Runner) send(ctx context.Context, n notification) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.sweep.send")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("subject", n.subjectID),
		attribute.String("trigger", n.triggerKey),
	)

	claimed, err := r.deps.Guard.TryClaim(ctx, n.subjectID, n.triggerKey)
	if err != nil {
		return metrics.OutcomeGuardError, fmt.Errorf("claim: %w", err)
	}
	if !claimed {
		return metrics.OutcomeSkipped, nil
	}

	outcome, err := r.deliver(ctx, n)
	if err != nil {
		if releaseErr := r.deps.Guard.Release(ctx, n.subjectID, n.triggerKey); releaseErr != nil {
			err = multierr.Append(err, fmt.Errorf("release claim: %w", releaseErr))
		}
		return outcome, err
	}

	if err := r.deps.Guard.MarkSent(ctx, n.subjectID, n.triggerKey); err != nil {
		return metrics.OutcomeSent, fmt.Errorf("mark sent: %w", err)
	}
	return metrics.OutcomeSent, nil
}

func (r *Runner) deliver(ctx context.Context, n notification) (string, error) {
	to, bindings, err := n.prepare(ctx)
	if err != nil {
		return metrics.OutcomeBindingsError, err
	}

	tmpl, err := r.deps.Templates.Get(ctx, n.templateType)
	if err != nil {
		// an invalid stored template loses only this notification
		if errors.Is(err, errs.ErrTemplate) || errors.Is(err, errs.ErrValidation) {
			return metrics.OutcomeTemplateError, err
		}
		return metrics.OutcomeBindingsError, fmt.Errorf("get template %s: %w", n.templateType, err)
	}
	rendered, err := templates.Render(*tmpl, bindings)
	if err != nil {
		return metrics.OutcomeTemplateError, err
	}

	if err := r.deps.Gateway.Send(ctx, delivery.Message{
		To:      to,
		Subject: rendered.Subject,
		HTML:    rendered.HTML,
		Text:    rendered.Text,
	}); err != nil {
		return metrics.OutcomeDeliveryError, err
	}
	return metrics.OutcomeSent, nil
}

// participantLoader fetches the participant at most once per subject.
type participantLoader struct {
	once        sync.Once
	repo        enrollmentsRepo
	userID      string
	participant *marathon.Participant
	err         error
}

func (l *participantLoader) get(ctx context.Context) (*marathon.Participant, error) {
	l.once.Do(func() {
		l.participant, l.err = l.repo.GetParticipant(ctx, l.userID)
		if l.err != nil {
			l.err = fmt.Errorf("get participant %s: %w", l.userID, l.err)
		}
	})
	return l.participant, l.err
}

func (r *Runner) enrollmentNotifications(asOf time.Time, e marathon.Enrollment, loaded loadedContent) subjectWork {
	if err := e.Validate(); err != nil {
		return subjectWork{err: fmt.Errorf("enrollment in marathon %d: %w", e.MarathonID, err)}
	}
	if loaded.err != nil {
		return subjectWork{err: loaded.err}
	}
	content := loaded.content
	participants := &participantLoader{repo: r.deps.Enrollments, userID: e.UserID}

	due := lifecycle.DueTriggers(e, content.Marathon.NumberOfDays, asOf)
	notifications := make([]notification, 0, len(due))
	for _, t := range due {
		notifications = append(notifications, notification{
			kind:         kindLifecycle,
			subjectID:    lifecycle.SubjectID(e.UserID),
			triggerKey:   t.Key(e.MarathonID),
			triggerLabel: string(t.Kind),
			templateType: t.TemplateType(),
			prepare: func(ctx context.Context) (string, map[string]string, error) {
				participant, err := participants.get(ctx)
				if err != nil {
					return "", nil, err
				}
				bindings, err := r.lifecycleBindings(ctx, e, *content, t, *participant)
				return participant.Email, bindings, err
			},
		})
	}

	return subjectWork{
		notifications: notifications,
		afterSent: func(ctx context.Context, n notification) error {
			if n.triggerLabel != string(lifecycle.KindCompletion) {
				return nil
			}
			return r.finishEnrollment(ctx, e)
		},
		// the completion went out before, but the enrollment was not finished then
		afterSkipped: func(ctx context.Context, n notification) error {
			if n.triggerLabel != string(lifecycle.KindCompletion) {
				return nil
			}
			sent, err := r.deps.Guard.Sent(ctx, n.subjectID, n.triggerKey)
			if err != nil {
				return fmt.Errorf("check completion sent: %w", err)
			}
			if !sent {
				// still pending, its holder finishes the enrollment
				return nil
			}
			return r.finishEnrollment(ctx, e)
		},
	}
}

func (r *Runner) finishEnrollment(ctx context.Context, e marathon.Enrollment) error {
	if err := r.deps.Enrollments.FinishEnrollment(ctx, e.UserID, e.MarathonID); err != nil {
		return fmt.Errorf("finish enrollment: %w", err)
	}
	return nil
}

func (r *Runner) lifecycleBindings(
	ctx context.Context,
	e marathon.Enrollment,
	content marathon.Content,
	t lifecycle.Trigger,
	participant marathon.Participant,
) (map[string]string, error) {
	dayNumber := 1
	switch t.Kind {
	case lifecycle.KindDaily:
		dayNumber = t.DayNumber
	case lifecycle.KindCompletion:
		dayNumber = content.Marathon.NumberOfDays
	}
	day, _ := content.Day(dayNumber)
	dayTitle := day.Title
	if dayTitle == "" {
		dayTitle = fmt.Sprintf("Day %d", dayNumber)
	}

	bindings := map[string]string{
		"firstName":     participant.FirstName,
		"marathonTitle": content.Marathon.Title,
		"startDate":     pkg.FormatDate(e.StartDate),
		"numberOfDays":  fmt.Sprintf("%d", content.Marathon.NumberOfDays),
		"dayNumber":     fmt.Sprintf("%d", dayNumber),
		"dayTitle":      dayTitle,
		"baseUrl":       r.params.BaseURL,
	}

	if t.Kind == lifecycle.KindCompletion {
		records, err := r.deps.Progress.ListForUser(ctx, e.UserID, e.MarathonID)
		if err != nil {
			return nil, fmt.Errorf("list progress: %w", err)
		}
		bindings["completionPercent"] = FormatPercent(progress.MarathonRatio(content, e.UserID, records))
	}
	return bindings, nil
}

func (r *Runner) diaryNotifications(asOf time.Time, d decay.PhotoDiary) subjectWork {
	if err := d.Validate(); err != nil {
		return subjectWork{err: fmt.Errorf("photo diary %d: %w", d.ID, err)}
	}
	threshold, due := decay.DueThreshold(d.ExpiresOn, asOf)
	if !due {
		return subjectWork{}
	}
	participants := &participantLoader{repo: r.deps.Enrollments, userID: d.UserID}

	return subjectWork{
		notifications: []notification{{
			kind:         kindDecay,
			subjectID:    d.SubjectID(),
			triggerKey:   decay.TriggerKey(threshold),
			triggerLabel: decay.TriggerKey(threshold),
			templateType: templates.TypePhotoDiaryExpiry,
			prepare: func(ctx context.Context) (string, map[string]string, error) {
				participant, err := participants.get(ctx)
				if err != nil {
					return "", nil, err
				}
				return participant.Email, map[string]string{
					"firstName":         participant.FirstName,
					"photoDiaryEndDate": pkg.FormatDate(d.ExpiresOn),
					"daysLeft":          fmt.Sprintf("%d", d.DaysLeft(asOf)),
					"baseUrl":           r.params.BaseURL,
				}, nil
			},
		}},
	}
}

// FormatPercent renders a ratio in [0, 1] as a whole percentage, e.g. 0.875 -> "88%".
func FormatPercent(ratio float64) string {
	return fmt.Sprintf("%.0f%%", ratio*100)
}
