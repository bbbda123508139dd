// Package lifecycle derives which marathon notifications are due for an enrollment on a given date.
// It holds no state: the same enrollment and date always give the same triggers, and
// deduplication across sweeps is left to the guard.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/2beens/marathon/internal/marathon"
	"github.com/2beens/marathon/internal/templates"
	"github.com/2beens/marathon/pkg"
)

type Kind string

const (
	KindPreStart   Kind = "pre_start"
	KindStart      Kind = "start"
	KindDaily      Kind = "daily"
	KindCompletion Kind = "completion"
)

// Trigger is a single lifecycle notification. DayNumber is set for daily triggers only.
type Trigger struct {
	Kind      Kind
	DayNumber int
	Date      time.Time
}

// Key identifies the trigger within a subject, e.g. marathon:7:daily:3.
func (t Trigger) Key(marathonID int64) string {
	if t.Kind == KindDaily {
		return fmt.Sprintf("marathon:%d:%s:%d", marathonID, t.Kind, t.DayNumber)
	}
	return fmt.Sprintf("marathon:%d:%s", marathonID, t.Kind)
}

func (t Trigger) String() string {
	if t.Kind == KindDaily {
		return fmt.Sprintf("%s(%d)", t.Kind, t.DayNumber)
	}
	return string(t.Kind)
}

func (t Trigger) TemplateType() templates.Type {
	switch t.Kind {
	case KindPreStart:
		return templates.TypePreStart
	case KindStart:
		return templates.TypeStart
	case KindCompletion:
		return templates.TypeCompletion
	default:
		return templates.TypeDaily
	}
}

// SubjectID is the guard subject of all lifecycle triggers of a user.
func SubjectID(userID string) string {
	return "user:" + userID
}

type State int

const (
	StateNotStarted State = iota
	StatePreStartWindow
	StateRunning
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StatePreStartWindow:
		return "pre_start_window"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// StateOf returns the enrollment state on asOf, and the current day number while running.
func StateOf(e marathon.Enrollment, numberOfDays int, asOf time.Time) (State, int) {
	dayNumber := e.DayNumberOn(asOf)
	switch {
	case dayNumber < 0:
		return StateNotStarted, 0
	case dayNumber == 0:
		return StatePreStartWindow, 0
	case dayNumber <= numberOfDays:
		return StateRunning, dayNumber
	default:
		return StateCompleted, 0
	}
}

// Schedule lists every trigger of the enrollment in chronological order:
// pre_start the day before day 1, start on day 1, daily(k) on days 2..N and
// completion on the day after the last day.
func Schedule(e marathon.Enrollment, numberOfDays int) []Trigger {
	if numberOfDays < 1 {
		return nil
	}
	triggers := make([]Trigger, 0, numberOfDays+2)
	triggers = append(triggers,
		Trigger{Kind: KindPreStart, Date: e.DateOfDay(0)},
		Trigger{Kind: KindStart, Date: e.DateOfDay(1)},
	)
	for k := 2; k <= numberOfDays; k++ {
		triggers = append(triggers, Trigger{Kind: KindDaily, DayNumber: k, Date: e.DateOfDay(k)})
	}
	triggers = append(triggers, Trigger{Kind: KindCompletion, Date: e.DateOfDay(numberOfDays + 1)})
	return triggers
}

// DueTriggers returns the triggers dated on or before asOf, oldest first, so a sweep
// that was skipped for a few days catches up on everything it missed.
func DueTriggers(e marathon.Enrollment, numberOfDays int, asOf time.Time) []Trigger {
	asOf = pkg.DateOf(asOf)
	var due []Trigger
	for _, t := range Schedule(e, numberOfDays) {
		if t.Date.After(asOf) {
			break
		}
		due = append(due, t)
	}
	return due
}
