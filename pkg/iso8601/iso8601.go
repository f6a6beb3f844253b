// Package iso8601 encodes and decodes the ISO 8601 duration text used by
// the Service Bus management API.
package iso8601

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Unbounded marks a duration with no limit. The management API expresses
// "never expires" by leaving the element off the wire, so Unbounded is
// never serialized.
const Unbounded time.Duration = math.MaxInt64

// Calendar component lengths. The service uses fixed-length years and
// months when it converts duration text to a time span.
const (
	Day   = 24 * time.Hour
	Month = 30 * Day
	Year  = 365 * Day
)

// ErrInvalidDuration reports text that does not follow the ISO 8601
// duration grammar PnYnMnDTnHnMnS.
var ErrInvalidDuration = errors.New("invalid ISO 8601 duration")

// designator describes one grammar component: its unit length and its
// position within the date or time part. Components must appear in rank
// order and at most once.
type designator struct {
	unit time.Duration
	rank int
}

var dateDesignators = map[byte]designator{
	'Y': {unit: Year, rank: 1},
	'M': {unit: Month, rank: 2},
	'D': {unit: Day, rank: 3},
}

var timeDesignators = map[byte]designator{
	'H': {unit: time.Hour, rank: 1},
	'M': {unit: time.Minute, rank: 2},
	'S': {unit: time.Second, rank: 3},
}

// ParseDuration parses ISO 8601 duration text. A fraction is accepted on
// the seconds component only. Values beyond the range of time.Duration
// saturate to Unbounded: the service expresses "no limit" as a duration
// past the representable maximum.
func ParseDuration(s string) (time.Duration, error) {
	orig := s
	if s == "" {
		return 0, fmt.Errorf("%w: empty text", ErrInvalidDuration)
	}

	negative := false
	if s[0] == '-' {
		negative = true
		s = s[1:]
	} else if s[0] == '+' {
		s = s[1:]
	}

	if len(s) == 0 || s[0] != 'P' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, orig)
	}
	s = s[1:]

	var (
		total      time.Duration
		overflow   bool
		inTime     bool
		components int
		lastRank   int
	)

	for len(s) > 0 {
		if s[0] == 'T' {
			if inTime {
				return 0, fmt.Errorf("%w: %q has two time markers", ErrInvalidDuration, orig)
			}
			inTime = true
			lastRank = 0
			s = s[1:]
			continue
		}

		// Read the numeric value, fraction included.
		digits := 0
		for digits < len(s) && ((s[digits] >= '0' && s[digits] <= '9') || s[digits] == '.') {
			digits++
		}
		if digits == 0 || digits == len(s) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, orig)
		}
		number := s[:digits]
		unit := s[digits]
		s = s[digits+1:]

		table := dateDesignators
		if inTime {
			table = timeDesignators
		}
		d, ok := table[unit]
		if !ok {
			return 0, fmt.Errorf("%w: %q has unexpected designator %q", ErrInvalidDuration, orig, string(unit))
		}
		if d.rank <= lastRank {
			return 0, fmt.Errorf("%w: %q has components out of order", ErrInvalidDuration, orig)
		}
		lastRank = d.rank

		whole, frac, err := splitNumber(number, inTime && unit == 'S')
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrInvalidDuration, orig, err)
		}

		v, ok := mulUnits(whole, d.unit)
		if !ok {
			overflow = true
			components++
			continue
		}
		total, ok = addClamped(total, v)
		if !ok {
			overflow = true
		}
		total, ok = addClamped(total, frac)
		if !ok {
			overflow = true
		}
		components++
	}

	if components == 0 {
		return 0, fmt.Errorf("%w: %q has no components", ErrInvalidDuration, orig)
	}
	if overflow {
		return Unbounded, nil
	}
	if negative {
		return -total, nil
	}
	return total, nil
}

// splitNumber parses the whole part of a component and, when permitted,
// a fraction converted to nanoseconds of one second.
func splitNumber(number string, allowFraction bool) (uint64, time.Duration, error) {
	wholeText, fracText, hasFraction := strings.Cut(number, ".")
	if hasFraction && !allowFraction {
		return 0, 0, fmt.Errorf("fraction only allowed on seconds")
	}
	if wholeText == "" {
		return 0, 0, fmt.Errorf("missing digits")
	}
	whole, err := strconv.ParseUint(wholeText, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad number %q", number)
	}
	if !hasFraction {
		return whole, 0, nil
	}
	if fracText == "" || strings.Contains(fracText, ".") {
		return 0, 0, fmt.Errorf("bad fraction %q", number)
	}
	// Scale the fraction to nanoseconds, dropping digits past nanosecond
	// precision.
	if len(fracText) > 9 {
		fracText = fracText[:9]
	}
	frac, err := strconv.ParseUint(fracText, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad fraction %q", number)
	}
	for i := len(fracText); i < 9; i++ {
		frac *= 10
	}
	return whole, time.Duration(frac), nil
}

// mulUnits multiplies a component count by its unit length, reporting
// overflow instead of wrapping.
func mulUnits(n uint64, unit time.Duration) (time.Duration, bool) {
	if n > uint64(math.MaxInt64/int64(unit)) {
		return 0, false
	}
	return time.Duration(n) * unit, true
}

// addClamped adds two non-negative durations, reporting overflow.
func addClamped(a, b time.Duration) (time.Duration, bool) {
	if a > math.MaxInt64-b {
		return 0, false
	}
	return a + b, true
}

// FormatDuration renders a duration as ISO 8601 text using day and time
// components: PnDTnHnMnS. The zero duration renders as PT0S. Unbounded has
// no wire form and must be handled by the caller.
func FormatDuration(d time.Duration) string {
	if d == 0 {
		return "PT0S"
	}

	var sb strings.Builder
	if d < 0 {
		sb.WriteByte('-')
		d = -d
	}
	sb.WriteByte('P')

	days := d / Day
	d -= days * Day
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second
	nanos := d - seconds*time.Second

	if days > 0 {
		fmt.Fprintf(&sb, "%dD", days)
	}
	if hours == 0 && minutes == 0 && seconds == 0 && nanos == 0 {
		return sb.String()
	}
	sb.WriteByte('T')
	if hours > 0 {
		fmt.Fprintf(&sb, "%dH", hours)
	}
	if minutes > 0 {
		fmt.Fprintf(&sb, "%dM", minutes)
	}
	if seconds > 0 || nanos > 0 {
		if nanos > 0 {
			frac := strings.TrimRight(fmt.Sprintf("%09d", nanos), "0")
			fmt.Fprintf(&sb, "%d.%sS", seconds, frac)
		} else {
			fmt.Fprintf(&sb, "%dS", seconds)
		}
	}
	return sb.String()
}
