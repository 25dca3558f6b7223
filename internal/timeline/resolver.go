// Package timeline turns year-less syslog timestamps into absolute times:
// anchor-year detection, per-record resolution, and single-boundary year
// rollover correction.
package timeline

import (
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tinysift/sift/internal/model"
)

const timestampLayout = "2006 Jan 2 15:04:05"

var (
	yearPattern        = regexp.MustCompile(`(20\d{2})`)
	trailingYear       = regexp.MustCompile(`(20\d{2})\s*$`)
	leadingYearPattern = regexp.MustCompile(`^20\d{2}`)
)

// AnchorYear scans records in file order for the first explicit four-digit
// year, preferring an extracted timestamp field over the line's end. When
// the log never states a year, fallback is used.
func AnchorYear(records []*model.LogRecord, fallback int) (year int, found bool) {
	for _, r := range records {
		if ts, ok := r.Params["TIMESTAMP"]; ok {
			if m := yearPattern.FindStringSubmatch(ts); m != nil {
				y, _ := strconv.Atoi(m[1])
				return y, true
			}
		}
		if m := trailingYear.FindStringSubmatch(strings.TrimSpace(r.RawLine)); m != nil {
			y, _ := strconv.Atoi(m[1])
			return y, true
		}
	}
	return fallback, false
}

// Resolve fills in each record's absolute timestamp using the anchor year.
// Records whose timestamp cannot be parsed keep the zero time; they stay in
// the record set but are excluded from time-series analysis.
func Resolve(records []*model.LogRecord, anchorYear int) {
	var unresolved int
	for _, r := range records {
		ts := r.Params["TIMESTAMP"]
		if ts == "" {
			// Standard syslog puts the date at the front of the line.
			parts := strings.Fields(r.RawLine)
			if len(parts) >= 3 {
				ts = strings.Join(parts[:3], " ")
			}
		}
		t, ok := parseWithAnchor(ts, anchorYear)
		if !ok {
			unresolved++
			continue
		}
		r.Timestamp = t
	}
	if unresolved > 0 {
		log.Printf("timeline: %d of %d records have no resolvable timestamp", unresolved, len(records))
	}
}

// CorrectRollover finds the first adjacent December-to-January transition
// among resolved records in file order and adds one year to every resolved
// record from that point on. Only a single boundary is corrected per run.
func CorrectRollover(records []*model.LogRecord) bool {
	resolved := make([]*model.LogRecord, 0, len(records))
	for _, r := range records {
		if !r.Timestamp.IsZero() {
			resolved = append(resolved, r)
		}
	}

	boundary := -1
	for i := 0; i < len(resolved)-1; i++ {
		if resolved[i].Timestamp.Month() == time.December && resolved[i+1].Timestamp.Month() == time.January {
			boundary = i + 1
			break
		}
	}
	if boundary == -1 {
		return false
	}

	log.Printf("timeline: year rollover detected, adjusting %d records", len(resolved)-boundary)
	for _, r := range resolved[boundary:] {
		r.Timestamp = r.Timestamp.AddDate(1, 0, 0)
	}
	return true
}

// Bounds returns the earliest and latest resolved timestamps. ok is false
// when no record resolved at all.
func Bounds(records []*model.LogRecord) (min, max time.Time, ok bool) {
	for _, r := range records {
		if r.Timestamp.IsZero() {
			continue
		}
		if !ok {
			min, max = r.Timestamp, r.Timestamp
			ok = true
			continue
		}
		if r.Timestamp.Before(min) {
			min = r.Timestamp
		}
		if r.Timestamp.After(max) {
			max = r.Timestamp
		}
	}
	return min, max, ok
}

// parseWithAnchor normalizes whitespace, prepends the anchor year unless
// the value already carries one, and parses in UTC.
func parseWithAnchor(ts string, anchorYear int) (time.Time, bool) {
	ts = strings.Join(strings.Fields(ts), " ")
	if ts == "" {
		return time.Time{}, false
	}
	if !leadingYearPattern.MatchString(ts) {
		ts = strconv.Itoa(anchorYear) + " " + ts
	}
	t, err := time.ParseInLocation(timestampLayout, ts, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
