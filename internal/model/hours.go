package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TimeOfDay is a clock time expressed as minutes since midnight, in the
// single practice timezone.
type TimeOfDay int

const (
	MinutesPerDay = 24 * 60
	// EndOfDay is the last representable minute, used by full-day closures.
	EndOfDay TimeOfDay = MinutesPerDay - 1
)

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < MinutesPerDay
}

// OnDate anchors the clock time to a calendar date in the given location.
func (t TimeOfDay) OnDate(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), int(t)/60, int(t)%60, 0, 0, loc)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t TimeOfDay) Value() (driver.Value, error) {
	return int64(t), nil
}

func (t *TimeOfDay) Scan(src interface{}) error {
	switch v := src.(type) {
	case int64:
		*t = TimeOfDay(v)
		return nil
	case []byte:
		parsed, err := ParseTimeOfDay(string(v))
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into TimeOfDay", src)
	}
}

// WeeklyHoursRule is a weekly template entry: the clinic is open every week
// on Weekday between Start and End, until the rule is removed.
type WeeklyHoursRule struct {
	Base
	ClinicID uuid.UUID    `db:"clinic_id" json:"clinic_id"`
	Weekday  time.Weekday `db:"weekday" json:"weekday"`
	Start    TimeOfDay    `db:"start_min" json:"start"`
	End      TimeOfDay    `db:"end_min" json:"end"`
}

// HoursOverride is a date-specific rule that supersedes the weekly template
// for that date. A Blocked override with no window is a full-day closure; a
// Blocked override with a window subtracts it from the template; a
// non-blocked override adds an extra opening.
type HoursOverride struct {
	Base
	ClinicID uuid.UUID  `db:"clinic_id" json:"clinic_id"`
	Date     time.Time  `db:"date" json:"date"`
	Start    *TimeOfDay `db:"start_min" json:"start,omitempty"`
	End      *TimeOfDay `db:"end_min" json:"end,omitempty"`
	Blocked  bool       `db:"blocked" json:"blocked"`
	Reason   string     `db:"reason" json:"reason,omitempty"`
}

// FullDay reports whether the override closes the entire date. A missing
// window on a blocked override means the whole day; so does an explicit
// 00:00-23:59 window.
func (o *HoursOverride) FullDay() bool {
	if !o.Blocked {
		return false
	}
	if o.Start == nil || o.End == nil {
		return true
	}
	return *o.Start == 0 && *o.End >= EndOfDay
}

type CreateWeeklyHoursRequest struct {
	Weekday int    `json:"weekday" binding:"gte=0,lte=6"`
	Start   string `json:"start" binding:"required"`
	End     string `json:"end" binding:"required"`
}

type CreateHoursOverrideRequest struct {
	Date    string  `json:"date" binding:"required"`
	Start   *string `json:"start"`
	End     *string `json:"end"`
	Blocked bool    `json:"blocked"`
	Reason  string  `json:"reason" binding:"max=500"`
}
