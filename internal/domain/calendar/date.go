// Package calendar provides a time-zone free calendar date and the
// normalizer that turns spreadsheet and user input into one.
package calendar

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ISOLayout is the canonical textual form of a Date.
const ISOLayout = "2006-01-02"

// Date is a calendar day with no time-of-day and no location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a Date, returning false when the fields do not name a
// real day in the supported year range.
func NewDate(year int, month time.Month, day int) (Date, bool) {
	if year < minYear || year > maxYear {
		return Date{}, false
	}
	if month < time.January || month > time.December {
		return Date{}, false
	}
	if day < 1 || day > daysIn(year, month) {
		return Date{}, false
	}
	return Date{Year: year, Month: month, Day: day}, true
}

// FromTime extracts the local calendar fields of t.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current local date.
func Today() Date {
	return FromTime(time.Now())
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// String formats d as yyyy-mm-dd.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// utc anchors d at midnight UTC, for arithmetic that must not see DST.
func (d Date) utc() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Compare returns -1, 0 or +1.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }

// Within reports whether d lies in [from, to].
func (d Date) Within(from, to Date) bool {
	return d.Compare(from) >= 0 && d.Compare(to) <= 0
}

// AddDays shifts d by n days.
func (d Date) AddDays(n int) Date {
	return FromTime(d.utc().AddDate(0, 0, n))
}

// Weekday is computed from the calendar fields alone.
func (d Date) Weekday() time.Weekday {
	return d.utc().Weekday()
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, ok := ParseString(s)
	if !ok {
		return fmt.Errorf("invalid date: %q", s)
	}
	*d = parsed
	return nil
}

// Value stores the date as ISO text.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan reads ISO text or a time value written by the sqlite driver.
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = Date{Year: v.Year(), Month: v.Month(), Day: v.Day()}
		return nil
	case []byte:
		return d.scanString(string(v))
	case string:
		return d.scanString(v)
	default:
		return fmt.Errorf("cannot scan %T into calendar.Date", src)
	}
}

func (d *Date) scanString(s string) error {
	if s == "" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(ISOLayout, s)
	if err != nil {
		return fmt.Errorf("invalid stored date %q: %w", s, err)
	}
	*d = Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
	return nil
}

var weekdayNames = [7]string{
	time.Sunday:    "الأحد",
	time.Monday:    "الإثنين",
	time.Tuesday:   "الثلاثاء",
	time.Wednesday: "الأربعاء",
	time.Thursday:  "الخميس",
	time.Friday:    "الجمعة",
	time.Saturday:  "السبت",
}

// DayName returns the Arabic weekday name of d.
func DayName(d Date) string {
	if d.IsZero() {
		return ""
	}
	return weekdayNames[d.Weekday()]
}

// DayOfWeek resolves an ISO date string to its weekday name. Unparseable
// input yields an empty name.
func DayOfWeek(iso string) string {
	d, ok := ParseString(iso)
	if !ok {
		return ""
	}
	return DayName(d)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
