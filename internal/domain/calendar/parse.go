package calendar

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	minYear = 1900
	maxYear = 2100
)

var (
	yearFirstPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:[ T].*)?$`),
		regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})(?:[ T].*)?$`),
		regexp.MustCompile(`^(\d{4})\.(\d{1,2})\.(\d{1,2})(?:[ T].*)?$`),
	}
	dayFirstPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2}|\d{4})(?:[ T].*)?$`),
		regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{2}|\d{4})(?:[ T].*)?$`),
		regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{2}|\d{4})(?:[ T].*)?$`),
	}
	serialPattern = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
)

// Parse normalizes a date given as time.Time, a spreadsheet serial number
// or text. It never panics; false means the input named no valid date.
func Parse(v interface{}) (Date, bool) {
	switch x := v.(type) {
	case nil:
		return Date{}, false
	case Date:
		return x, !x.IsZero()
	case time.Time:
		if x.IsZero() {
			return Date{}, false
		}
		d := FromTime(x)
		return NewDate(d.Year, d.Month, d.Day)
	case *time.Time:
		if x == nil {
			return Date{}, false
		}
		return Parse(*x)
	case float64:
		return FromSerial(x)
	case float32:
		return FromSerial(float64(x))
	case int:
		return FromSerial(float64(x))
	case int64:
		return FromSerial(float64(x))
	case string:
		return ParseString(x)
	default:
		return Date{}, false
	}
}

// FromSerial converts a 1900-system spreadsheet serial day count. The
// fractional time-of-day part is discarded.
func FromSerial(serial float64) (Date, bool) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) || serial < 1 {
		return Date{}, false
	}
	t, err := excelize.ExcelDateToTime(math.Floor(serial), false)
	if err != nil {
		return Date{}, false
	}
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseString tries the supported textual layouts in order. Purely
// numeric text is read as a serial date.
func ParseString(s string) (Date, bool) {
	s = strings.TrimSpace(NormalizeDigits(s))
	if s == "" {
		return Date{}, false
	}

	if serialPattern.MatchString(s) {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Date{}, false
		}
		return FromSerial(f)
	}

	for _, re := range yearFirstPatterns {
		if m := re.FindStringSubmatch(s); m != nil {
			return NewDate(atoi(m[1]), time.Month(atoi(m[2])), atoi(m[3]))
		}
	}

	for _, re := range dayFirstPatterns {
		if m := re.FindStringSubmatch(s); m != nil {
			first, second := atoi(m[1]), atoi(m[2])
			year := promoteYear(m[3])
			day, month := first, second
			// Day-first unless only the second component can be a day.
			if first <= 12 && second > 12 {
				day, month = second, first
			}
			return NewDate(year, time.Month(month), day)
		}
	}

	return Date{}, false
}

// NormalizeDigits rewrites Arabic-Indic and Extended Arabic-Indic digits
// as ASCII.
func NormalizeDigits(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '٠' && r <= '٩':
			return '0' + (r - '٠')
		case r >= '۰' && r <= '۹':
			return '0' + (r - '۰')
		}
		return r
	}, s)
}

func promoteYear(s string) int {
	y := atoi(s)
	if len(s) == 2 {
		if y < 50 {
			return 2000 + y
		}
		return 1900 + y
	}
	return y
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
