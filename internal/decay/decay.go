// Package decay picks the expiry warning due for a photo diary.
package decay

import (
	"fmt"
	"strings"
	"time"

	"github.com/2beens/marathon/internal/errs"
	"github.com/2beens/marathon/pkg"
)

// Thresholds are the days before expiry on which a warning is sent, ascending.
var Thresholds = []int{1, 3, 7}

// PhotoDiary is a user's photo diary for a marathon, deleted after ExpiresOn.
type PhotoDiary struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"userId"`
	MarathonID int64     `json:"marathonId"`
	ExpiresOn  time.Time `json:"expiresOn"`
}

func (d PhotoDiary) Validate() error {
	if d.ID <= 0 {
		return errs.Invalid("photo diary", "id", "must be positive")
	}
	if strings.TrimSpace(d.UserID) == "" {
		return errs.Invalid("photo diary", "userId", "is required")
	}
	if d.ExpiresOn.IsZero() {
		return errs.Invalid("photo diary", "expiresOn", "is required")
	}
	return nil
}

// SubjectID is the guard subject of the diary's warnings.
func (d PhotoDiary) SubjectID() string {
	return fmt.Sprintf("photo_diary:%d", d.ID)
}

// TriggerKey identifies the warning for a threshold, e.g. expiry:3.
func TriggerKey(threshold int) string {
	return fmt.Sprintf("expiry:%d", threshold)
}

// DueThreshold returns the smallest threshold whose date (expiry - threshold days)
// has been reached on asOf. Nothing is due before the largest threshold date or
// after the expiry date itself.
func DueThreshold(expiresOn, asOf time.Time) (int, bool) {
	daysLeft := pkg.DaysBetween(asOf, expiresOn)
	if daysLeft < 0 {
		return 0, false
	}
	for _, threshold := range Thresholds {
		if daysLeft <= threshold {
			return threshold, true
		}
	}
	return 0, false
}

// DaysLeft is the number of days from asOf until the diary is deleted.
func (d PhotoDiary) DaysLeft(asOf time.Time) int {
	return pkg.DaysBetween(asOf, d.ExpiresOn)
}
