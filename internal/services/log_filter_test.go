package services

import (
	"math"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberguard/backend/internal/models"
)

func TestParseLogFilter_Empty(t *testing.T) {
	f := ParseLogFilter(url.Values{})

	assert.Empty(t, f.AttackType)
	assert.Empty(t, f.Severity)
	assert.Nil(t, f.Detected)
	assert.Nil(t, f.Skip)
	assert.Nil(t, f.StartDate)
	assert.Nil(t, f.EndDate)

	n := f.normalize()
	assert.Equal(t, 1, n.Page)
	assert.Equal(t, DefaultLogLimit, n.Limit)
	assertOffset(t, 0, n)
}

func assertOffset(t *testing.T, want int, f LogFilter) {
	t.Helper()
	got, ok := f.offset()
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestLogFilter_OffsetOverflowIsOutOfRange(t *testing.T) {
	for _, page := range []int{math.MaxInt, 1 << 62, 5e17} {
		f := LogFilter{Page: page, Limit: 20}.normalize()
		_, ok := f.offset()
		assert.False(t, ok, "page %d", page)
	}

	f := ParseLogFilter(url.Values{"page": {"9223372036854775807"}, "limit": {"100"}}).normalize()
	_, ok := f.offset()
	assert.False(t, ok)
}

func TestParseLogFilter_AllAndUnknownMeanNoFilter(t *testing.T) {
	f := ParseLogFilter(url.Values{
		"attackType": {"all"},
		"severity":   {"ALL"},
		"detected":   {"all"},
	})
	assert.Empty(t, f.AttackType)
	assert.Empty(t, f.Severity)
	assert.Nil(t, f.Detected)

	f = ParseLogFilter(url.Values{"attackType": {"CSRF"}, "severity": {"Apocalyptic"}})
	assert.Empty(t, f.AttackType)
	assert.Empty(t, f.Severity)
}

func TestParseLogFilter_Values(t *testing.T) {
	f := ParseLogFilter(url.Values{
		"attackType": {"sql injection"},
		"severity":   {"critical"},
		"detected":   {"true"},
		"search":     {"  UNION  "},
		"page":       {"3"},
		"limit":      {"10"},
	})

	assert.Equal(t, models.CategorySQLInjection, f.AttackType)
	assert.Equal(t, models.SeverityCritical, f.Severity)
	require.NotNil(t, f.Detected)
	assert.True(t, *f.Detected)
	assert.Equal(t, "UNION", f.Search)
	assertOffset(t, 20, f.normalize())
}

func TestParseLogFilter_SkipOverridesPage(t *testing.T) {
	f := ParseLogFilter(url.Values{"page": {"5"}, "skip": {"7"}, "limit": {"5"}}).normalize()
	assertOffset(t, 7, f)
	assert.Equal(t, 2, f.currentPage())

	f = ParseLogFilter(url.Values{"skip": {"-4"}}).normalize()
	assertOffset(t, 0, f)
}

func TestParseLogFilter_Dates(t *testing.T) {
	f := ParseLogFilter(url.Values{
		"startDate": {"2024-05-01T10:00:00Z"},
		"endDate":   {"2024-05-03"},
	})
	require.NotNil(t, f.StartDate)
	require.NotNil(t, f.EndDate)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), f.StartDate.UTC())
	assert.Equal(t, time.Date(2024, 5, 3, 23, 59, 59, 999999999, time.UTC), *f.EndDate)

	f = ParseLogFilter(url.Values{"startDate": {"yesterday"}, "endDate": {"05/03/2024"}})
	assert.Nil(t, f.StartDate)
	assert.Nil(t, f.EndDate)
}

func TestLogFilter_LimitCap(t *testing.T) {
	assert.Equal(t, MaxLogLimit, LogFilter{Limit: 1000}.normalize().Limit)
	assert.Equal(t, DefaultLogLimit, LogFilter{Limit: -1}.normalize().Limit)
}
