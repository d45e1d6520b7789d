package services

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cyberguard/backend/internal/models"
)

const (
	DefaultLogLimit = 20
	MaxLogLimit     = 100
)

// LogFilter narrows an audit log query. Zero values mean "no filter".
type LogFilter struct {
	AttackType models.AttackCategory
	Severity   models.Severity
	Detected   *bool
	Search     string
	StartDate  *time.Time
	EndDate    *time.Time

	Page int
	// Skip, when set, takes precedence over Page.
	Skip  *int
	Limit int
}

func (f LogFilter) normalize() LogFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultLogLimit
	}
	if f.Limit > MaxLogLimit {
		f.Limit = MaxLogLimit
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Skip != nil && *f.Skip < 0 {
		zero := 0
		f.Skip = &zero
	}
	f.Search = strings.TrimSpace(f.Search)
	return f
}

// offset reports false when the page lies beyond any representable row.
func (f LogFilter) offset() (int, bool) {
	if f.Skip != nil {
		return *f.Skip, true
	}
	if f.Page-1 > math.MaxInt/f.Limit {
		return 0, false
	}
	return (f.Page - 1) * f.Limit, true
}

func (f LogFilter) currentPage() int {
	if f.Skip != nil {
		return *f.Skip/f.Limit + 1
	}
	return f.Page
}

const dateOnly = "2006-01-02"

// ParseLogFilter reads a filter from query parameters. Values it does not
// understand, including "all", are ignored rather than rejected.
func ParseLogFilter(q url.Values) LogFilter {
	var f LogFilter

	if c, ok := models.ParseCategory(q.Get("attackType")); ok {
		f.AttackType = c
	}
	if s, ok := models.ParseSeverity(q.Get("severity")); ok {
		f.Severity = s
	}
	if d, err := strconv.ParseBool(strings.TrimSpace(q.Get("detected"))); err == nil {
		f.Detected = &d
	}
	f.Search = strings.TrimSpace(q.Get("search"))

	if t, _, ok := parseDate(q.Get("startDate")); ok {
		f.StartDate = &t
	}
	if t, dayOnly, ok := parseDate(q.Get("endDate")); ok {
		if dayOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		f.EndDate = &t
	}

	if n, err := strconv.Atoi(q.Get("page")); err == nil {
		f.Page = n
	}
	if raw := q.Get("skip"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			f.Skip = &n
		}
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil {
		f.Limit = n
	}
	return f
}

// parseDate accepts RFC 3339 timestamps and bare dates (UTC midnight).
func parseDate(raw string) (t time.Time, dayOnly bool, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, false, true
	}
	if t, err := time.Parse(dateOnly, raw); err == nil {
		return t, true, true
	}
	return time.Time{}, false, false
}
