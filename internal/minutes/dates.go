package minutes

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Link titles come in a handful of shapes, the archive's own
// "Minutes - Apr-04-2000" form plus the usual numeric variants.
var (
	minutesDatePattern = regexp.MustCompile(`Minutes\s*-\s*([A-Za-z]+)-(\d{1,2})-(\d{4})`)

	numericDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d{1,2})[-_](\d{1,2})[-_](\d{4})`),
		regexp.MustCompile(`(\d{4})[-_](\d{1,2})[-_](\d{1,2})`),
		regexp.MustCompile(`(\d{1,2})[-_](\d{1,2})[-_](\d{2})`),
		regexp.MustCompile(`(\d{4})(\d{2})(\d{2})`),
		regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})[/-](\d{4})`),
	}

	plainDateLayouts = []string{
		"01/02/2006",
		"01-02-2006",
		"January 2, 2006",
		"Jan 2, 2006",
		"2006-01-02",
	}

	monthsByPrefix = map[string]time.Month{
		"jan": time.January, "feb": time.February, "mar": time.March,
		"apr": time.April, "may": time.May, "jun": time.June,
		"jul": time.July, "aug": time.August, "sep": time.September,
		"oct": time.October, "nov": time.November, "dec": time.December,
	}
)

// DateFromTitle extracts a calendar date from a minutes link title or
// filename. The zero time and false are returned when nothing parses.
func DateFromTitle(title string) (time.Time, bool) {
	if title == "" {
		return time.Time{}, false
	}

	if m := minutesDatePattern.FindStringSubmatch(title); m != nil {
		if d, ok := monthNameDate(m[1], m[2], m[3]); ok {
			return d, true
		}
	}

	for _, pattern := range numericDatePatterns {
		m := pattern.FindStringSubmatch(title)
		if m == nil {
			continue
		}
		if d, ok := numericDate(m[1], m[2], m[3]); ok {
			return d, true
		}
	}

	trimmed := strings.TrimSpace(title)
	for _, layout := range plainDateLayouts {
		if d, err := time.Parse(layout, trimmed); err == nil {
			return d, true
		}
	}

	return time.Time{}, false
}

func monthNameDate(monthName, dayStr, yearStr string) (time.Time, bool) {
	prefix := strings.ToLower(monthName)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	month, ok := monthsByPrefix[prefix]
	if !ok {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return time.Time{}, false
	}
	return civilDate(year, month, day)
}

func numericDate(a, b, c string) (time.Time, bool) {
	var yearStr, monthStr, dayStr string
	if len(a) == 4 {
		yearStr, monthStr, dayStr = a, b, c
	} else {
		monthStr, dayStr, yearStr = a, b, c
	}
	if len(yearStr) == 2 {
		yearStr = "20" + yearStr
	}

	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return time.Time{}, false
	}
	return civilDate(year, time.Month(month), day)
}

// civilDate validates the components instead of letting time.Date
// normalize month 13 into the next year.
func civilDate(year int, month time.Month, day int) (time.Time, bool) {
	if month < time.January || month > time.December {
		return time.Time{}, false
	}
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || d.Month() != month || d.Year() != year {
		return time.Time{}, false
	}
	return d, true
}
