package shared

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical rendering of every date the pipeline stores or returns.
const DateLayout = "2006-01-02 15:04:05"

const (
	minYear = 1900
	maxYear = 2099
)

type dateOrder int

const (
	orderYMD dateOrder = iota
	orderMDY
	orderYM
)

type datePattern struct {
	re    *regexp.Regexp
	order dateOrder
}

var (
	ymdDash  = datePattern{regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`), orderYMD}
	ymdUnder = datePattern{regexp.MustCompile(`(\d{4})_(\d{2})_(\d{2})`), orderYMD}
	ymdSlash = datePattern{regexp.MustCompile(`(\d{4})/(\d{2})/(\d{2})`), orderYMD}
	mdyDash  = datePattern{regexp.MustCompile(`(\d{2})-(\d{2})-(\d{4})`), orderMDY}
	mdyUnder = datePattern{regexp.MustCompile(`(\d{2})_(\d{2})_(\d{4})`), orderMDY}
	compact  = datePattern{regexp.MustCompile(`(\d{4})(\d{2})(\d{2})`), orderYMD}
	ymDash   = datePattern{regexp.MustCompile(`(\d{4})-(\d{2})`), orderYM}
	ymUnder  = datePattern{regexp.MustCompile(`(\d{4})_(\d{2})`), orderYM}
	ymSlash  = datePattern{regexp.MustCompile(`(\d{4})/(\d{2})`), orderYM}

	clock = regexp.MustCompile(`^(\d{2}):(\d{2})(?::(\d{2}))?$`)

	// full dates are preferred over year-month forms
	inputPatterns    = anchor(ymdDash, ymdUnder, ymdSlash, mdyDash, mdyUnder, compact, ymDash, ymUnder, ymSlash)
	filenamePatterns = []datePattern{ymdDash, ymdUnder, mdyDash, mdyUnder, ymDash, ymUnder, compact}
	pathPatterns     = []datePattern{ymdDash, ymdUnder, ymdSlash, ymSlash, mdyDash, mdyUnder, ymDash, ymUnder, compact}
)

func anchor(patterns ...datePattern) []datePattern {
	out := make([]datePattern, len(patterns))
	for i, p := range patterns {
		out[i] = datePattern{regexp.MustCompile("^" + p.re.String() + "$"), p.order}
	}
	return out
}

// ParseDate normalises a user-supplied date in any of the accepted shapes, with an optional
// HH:MM[:SS] time separated by a space or "T".
//
// The result is in UTC. Years outside 1900-2099 and impossible calendar dates are rejected with [ErrInvalidDate].
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidDate)
	}

	datePart, clockPart := s, ""
	if i := strings.IndexAny(s, " T"); i >= 0 {
		datePart, clockPart = s[:i], strings.TrimSpace(s[i+1:])
	}

	day, ok := findDate(datePart, inputPatterns)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	if clockPart == "" {
		return day, nil
	}

	m := clock.FindStringSubmatch(clockPart)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: bad time in %q", ErrInvalidDate, s)
	}

	h, mi, sec := atoi(m[1]), atoi(m[2]), atoi(m[3])
	if h > 23 || mi > 59 || sec > 59 {
		return time.Time{}, fmt.Errorf("%w: bad time in %q", ErrInvalidDate, s)
	}
	return day.Add(time.Duration(h)*time.Hour + time.Duration(mi)*time.Minute + time.Duration(sec)*time.Second), nil
}

// FormatDate renders t in [DateLayout].
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// DateFromFilename returns the first valid date embedded in a file's base name.
func DateFromFilename(name string) (time.Time, bool) {
	return findDate(name, filenamePatterns)
}

// DateFromPath returns the first valid date embedded in a slash-separated directory path.
func DateFromPath(p string) (time.Time, bool) {
	return findDate(p, pathPatterns)
}

// InRange reports whether t falls inside [start, end]; a zero bound is open.
func InRange(t, start, end time.Time) bool {
	if !start.IsZero() && t.Before(start) {
		return false
	}
	if !end.IsZero() && t.After(end) {
		return false
	}
	return true
}

func findDate(s string, patterns []datePattern) (time.Time, bool) {
	for _, p := range patterns {
		for _, m := range p.re.FindAllStringSubmatch(s, -1) {
			if t, ok := p.build(m); ok {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func (p datePattern) build(m []string) (time.Time, bool) {
	var y, mo, d int
	switch p.order {
	case orderYMD:
		y, mo, d = atoi(m[1]), atoi(m[2]), atoi(m[3])
	case orderMDY:
		mo, d, y = atoi(m[1]), atoi(m[2]), atoi(m[3])
	case orderYM:
		y, mo, d = atoi(m[1]), atoi(m[2]), 1
	}
	return validDate(y, mo, d)
}

func validDate(y, mo, d int) (time.Time, bool) {
	if y < minYear || y > maxYear || mo < 1 || mo > 12 || d < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || int(t.Month()) != mo {
		return time.Time{}, false
	}
	return t, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
