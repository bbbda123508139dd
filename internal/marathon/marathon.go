package marathon

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/2beens/marathon/internal/errs"
	"github.com/2beens/marathon/pkg"
)

var (
	ErrMarathonNotFound    = errors.New("marathon not found")
	ErrEnrollmentNotFound  = errors.New("enrollment not found")
	ErrParticipantNotFound = errors.New("participant not found")
)

// Marathon is a fixed-length, day-numbered program of exercises.
// Its length is immutable once users have enrolled.
type Marathon struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	NumberOfDays int        `json:"numberOfDays"`
	StartDate    *time.Time `json:"startDate,omitempty"`
}

func (m Marathon) Validate() error {
	if m.ID <= 0 {
		return errs.Invalid("marathon", "id", "must be positive")
	}
	if strings.TrimSpace(m.Title) == "" {
		return errs.Invalid("marathon", "title", "is required")
	}
	if m.NumberOfDays <= 0 {
		return errs.Invalid("marathon", "numberOfDays", "must be positive")
	}
	return nil
}

type ExerciseRef struct {
	ExerciseID string `json:"exerciseId"`
}

type Day struct {
	ID          int64         `json:"id"`
	MarathonID  int64         `json:"marathonId"`
	DayNumber   int           `json:"dayNumber"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Exercises   []ExerciseRef `json:"exercises"`
}

func (d Day) Validate() error {
	if d.MarathonID <= 0 {
		return errs.Invalid("marathon day", "marathonId", "must be positive")
	}
	if d.DayNumber < 1 {
		return errs.Invalid("marathon day", "dayNumber", "must be at least 1")
	}
	seen := make(map[string]bool, len(d.Exercises))
	for _, ex := range d.Exercises {
		if ex.ExerciseID == "" {
			return errs.Invalid("marathon day", "exercises", "contain an empty exercise id")
		}
		if seen[ex.ExerciseID] {
			return errs.Invalid("marathon day", "exercises", fmt.Sprintf("list %s twice", ex.ExerciseID))
		}
		seen[ex.ExerciseID] = true
	}
	return nil
}

func (d Day) HasExercise(exerciseID string) bool {
	for _, ex := range d.Exercises {
		if ex.ExerciseID == exerciseID {
			return true
		}
	}
	return false
}

// Content is a marathon together with its days, ordered by day number.
type Content struct {
	Marathon Marathon `json:"marathon"`
	Days     []Day    `json:"days"`
}

func (c Content) Validate() error {
	if err := c.Marathon.Validate(); err != nil {
		return err
	}
	seen := make(map[int]bool, len(c.Days))
	for _, d := range c.Days {
		if err := d.Validate(); err != nil {
			return err
		}
		if d.MarathonID != c.Marathon.ID {
			return errs.Invalid("marathon day", "marathonId", fmt.Sprintf("%d does not match marathon %d", d.MarathonID, c.Marathon.ID))
		}
		if d.DayNumber > c.Marathon.NumberOfDays {
			return errs.Invalid("marathon day", "dayNumber", fmt.Sprintf("%d is past the marathon length %d", d.DayNumber, c.Marathon.NumberOfDays))
		}
		if seen[d.DayNumber] {
			return errs.Invalid("marathon day", "dayNumber", fmt.Sprintf("%d is not unique", d.DayNumber))
		}
		seen[d.DayNumber] = true
	}
	return nil
}

// Day returns the content of the given day. A day number inside the marathon
// range without stored content is returned as an empty day.
func (c Content) Day(dayNumber int) (Day, bool) {
	if dayNumber < 1 || dayNumber > c.Marathon.NumberOfDays {
		return Day{}, false
	}
	for _, d := range c.Days {
		if d.DayNumber == dayNumber {
			return d, true
		}
	}
	return Day{MarathonID: c.Marathon.ID, DayNumber: dayNumber}, true
}

// DaysWithExercise returns the day numbers (ascending) whose content lists the exercise.
func (c Content) DaysWithExercise(exerciseID string) []int {
	var days []int
	for _, d := range c.Days {
		if d.HasExercise(exerciseID) {
			days = append(days, d.DayNumber)
		}
	}
	return days
}

// TotalSlots is the number of distinct (day, exercise) pairs of the marathon.
func (c Content) TotalSlots() int {
	total := 0
	for _, d := range c.Days {
		total += len(d.Exercises)
	}
	return total
}

// Enrollment binds a user to a marathon start date. Day N falls on StartDate + (N-1).
type Enrollment struct {
	UserID     string    `json:"userId"`
	MarathonID int64     `json:"marathonId"`
	StartDate  time.Time `json:"startDate"`
}

func (e Enrollment) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return errs.Invalid("enrollment", "userId", "is required")
	}
	if e.MarathonID <= 0 {
		return errs.Invalid("enrollment", "marathonId", "must be positive")
	}
	if e.StartDate.IsZero() {
		return errs.Invalid("enrollment", "startDate", "is required")
	}
	return nil
}

// DateOfDay maps a day number to its calendar date.
func (e Enrollment) DateOfDay(dayNumber int) time.Time {
	return pkg.AddDays(e.StartDate, dayNumber-1)
}

// DayNumberOn maps a calendar date back to a day number (may be out of range).
func (e Enrollment) DayNumberOn(date time.Time) int {
	return pkg.DaysBetween(e.StartDate, date) + 1
}

// Participant is the addressee of notifications.
type Participant struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
}

func (p Participant) Validate() error {
	if strings.TrimSpace(p.UserID) == "" {
		return errs.Invalid("participant", "userId", "is required")
	}
	if _, err := mail.ParseAddress(p.Email); err != nil {
		return errs.Invalid("participant", "email", "is not a valid address")
	}
	return nil
}
