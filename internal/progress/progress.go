package progress

import (
	"fmt"
	"strings"
	"time"

	"github.com/2beens/marathon/internal/errs"
	"github.com/2beens/marathon/internal/marathon"
)

// ExerciseProgress is identified by (UserID, MarathonID, DayNumber, ExerciseID):
// the same exercise done on two days of a marathon is two records.
type ExerciseProgress struct {
	UserID      string    `json:"userId"`
	MarathonID  int64     `json:"marathonId"`
	DayNumber   int       `json:"dayNumber"`
	ExerciseID  string    `json:"exerciseId"`
	CompletedAt time.Time `json:"completedAt"`
}

type Key struct {
	UserID     string
	MarathonID int64
	DayNumber  int
	ExerciseID string
}

func (p ExerciseProgress) Key() Key {
	return Key{
		UserID:     p.UserID,
		MarathonID: p.MarathonID,
		DayNumber:  p.DayNumber,
		ExerciseID: p.ExerciseID,
	}
}

func (p ExerciseProgress) Validate() error {
	if err := p.validateRefs(); err != nil {
		return err
	}
	if p.DayNumber < 1 {
		return errs.Invalid("exercise progress", "dayNumber", "must be at least 1")
	}
	return nil
}

// validateRefs checks everything but the day, which only the marathon content can bound.
func (p ExerciseProgress) validateRefs() error {
	if strings.TrimSpace(p.UserID) == "" {
		return errs.Invalid("exercise progress", "userId", "is required")
	}
	if p.MarathonID <= 0 {
		return errs.Invalid("exercise progress", "marathonId", "must be positive")
	}
	if strings.TrimSpace(p.ExerciseID) == "" {
		return errs.Invalid("exercise progress", "exerciseId", "is required")
	}
	return nil
}

type UnknownDayError struct {
	MarathonID   int64
	DayNumber    int
	NumberOfDays int
}

func (e *UnknownDayError) Error() string {
	return fmt.Sprintf("unknown day %d for marathon %d (days 1..%d)", e.DayNumber, e.MarathonID, e.NumberOfDays)
}

func (e *UnknownDayError) Is(target error) bool {
	return target == errs.ErrValidation
}

type UnknownExerciseError struct {
	MarathonID int64
	DayNumber  int
	ExerciseID string
}

func (e *UnknownExerciseError) Error() string {
	return fmt.Sprintf("exercise %s is not part of day %d of marathon %d", e.ExerciseID, e.DayNumber, e.MarathonID)
}

func (e *UnknownExerciseError) Is(target error) bool {
	return target == errs.ErrValidation
}

// CheckSlot verifies that the exercise belongs to the given day of the marathon.
func CheckSlot(content marathon.Content, dayNumber int, exerciseID string) error {
	day, ok := content.Day(dayNumber)
	if !ok {
		return &UnknownDayError{
			MarathonID:   content.Marathon.ID,
			DayNumber:    dayNumber,
			NumberOfDays: content.Marathon.NumberOfDays,
		}
	}
	if !day.HasExercise(exerciseID) {
		return &UnknownExerciseError{
			MarathonID: content.Marathon.ID,
			DayNumber:  dayNumber,
			ExerciseID: exerciseID,
		}
	}
	return nil
}

type DaySummary struct {
	DayNumber int     `json:"dayNumber"`
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Ratio     float64 `json:"ratio"`
}

type Summary struct {
	UserID          string       `json:"userId"`
	MarathonID      int64        `json:"marathonId"`
	CompletionRatio float64      `json:"completionRatio"`
	Days            []DaySummary `json:"days"`
}

// completedSet indexes records by (day, exercise), ignoring records of other users/marathons.
func completedSet(userID string, marathonID int64, records []ExerciseProgress) map[int]map[string]bool {
	set := make(map[int]map[string]bool)
	for _, r := range records {
		if r.UserID != userID || r.MarathonID != marathonID {
			continue
		}
		if set[r.DayNumber] == nil {
			set[r.DayNumber] = make(map[string]bool)
		}
		set[r.DayNumber][r.ExerciseID] = true
	}
	return set
}

func daySummary(day marathon.Day, done map[string]bool) DaySummary {
	s := DaySummary{
		DayNumber: day.DayNumber,
		Total:     len(day.Exercises),
	}
	for _, ex := range day.Exercises {
		if done[ex.ExerciseID] {
			s.Completed++
		}
	}
	s.Ratio = ratio(s.Completed, s.Total)
	return s
}

// ratio treats 0/0 as vacuously complete.
func ratio(completed, total int) float64 {
	if total == 0 {
		return 1.0
	}
	return float64(completed) / float64(total)
}

// DayRatio is completed/total exercises of the day; a day without exercises is 1.0.
func DayRatio(content marathon.Content, userID string, dayNumber int, records []ExerciseProgress) (float64, error) {
	day, ok := content.Day(dayNumber)
	if !ok {
		return 0, &UnknownDayError{
			MarathonID:   content.Marathon.ID,
			DayNumber:    dayNumber,
			NumberOfDays: content.Marathon.NumberOfDays,
		}
	}
	set := completedSet(userID, content.Marathon.ID, records)
	return daySummary(day, set[dayNumber]).Ratio, nil
}

// MarathonRatio is completed (day, exercise) slots over all slots of the marathon.
// Records for exercises no longer in the content do not count. No slots at all is 1.0.
func MarathonRatio(content marathon.Content, userID string, records []ExerciseProgress) float64 {
	return Summarize(content, userID, records).CompletionRatio
}

func Summarize(content marathon.Content, userID string, records []ExerciseProgress) Summary {
	set := completedSet(userID, content.Marathon.ID, records)
	summary := Summary{
		UserID:     userID,
		MarathonID: content.Marathon.ID,
		Days:       make([]DaySummary, 0, content.Marathon.NumberOfDays),
	}

	completed, total := 0, 0
	for n := 1; n <= content.Marathon.NumberOfDays; n++ {
		day, _ := content.Day(n)
		ds := daySummary(day, set[n])
		completed += ds.Completed
		total += ds.Total
		summary.Days = append(summary.Days, ds)
	}
	summary.CompletionRatio = ratio(completed, total)
	return summary
}
