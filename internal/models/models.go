package models

import "time"

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

type User struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"device_id"`
	CreatedAt time.Time `json:"created_at"`
}

// DailyRecord is one self-reported measurement day. There is at most one
// record per (UserID, Date); repeat submissions replace the metric fields.
type DailyRecord struct {
	ID             int64     `json:"id"`
	UserID         string    `json:"user_id"`
	Date           time.Time `json:"-"`
	WeightKg       *float64  `json:"weight_kg"`
	BodyFatPercent *float64  `json:"body_fat_percent"`
	SleepHours     *float64  `json:"sleep_hours"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DateString returns Date formatted as YYYY-MM-DD.
func (r DailyRecord) DateString() string {
	return r.Date.Format(DateLayout)
}

// Goal is immutable once created. The active goal is the most recently
// created one; StartsAt is informational only.
type Goal struct {
	ID             int64      `json:"id"`
	UserID         string     `json:"user_id"`
	Goal           string     `json:"goal"`
	Weight         *float64   `json:"weight"`
	BodyFatPercent *float64   `json:"body_fat_percent"`
	StartsAt       *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
}

// StartsAtString returns StartsAt as YYYY-MM-DD, or nil when unset.
func (g Goal) StartsAtString() *string {
	if g.StartsAt == nil {
		return nil
	}
	value := g.StartsAt.Format(DateLayout)
	return &value
}

// CalendarDate truncates t to midnight UTC of its own calendar day.
func CalendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Float64Ptr is a small helper for optional metric fields.
func Float64Ptr(value float64) *float64 {
	return &value
}
