package attendance

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/timeliteral"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestReportFilter_Bounds(t *testing.T) {
	// Wednesday
	now := time.Date(2024, 2, 14, 9, 30, 0, 0, time.UTC)

	cases := []struct {
		name     string
		filter   ReportFilter
		from, to string
	}{
		{"today", ReportFilter{Range: RangeToday}, "2024-02-14", "2024-02-14"},
		{"default is today", ReportFilter{}, "2024-02-14", "2024-02-14"},
		{"week runs monday to sunday", ReportFilter{Range: RangeWeek}, "2024-02-12", "2024-02-18"},
		{"week anchored on sunday", ReportFilter{Range: RangeWeek, Anchor: strPtr("2024-02-18")}, "2024-02-12", "2024-02-18"},
		{"leap month", ReportFilter{Range: RangeMonth}, "2024-02-01", "2024-02-29"},
		{"year", ReportFilter{Range: RangeYear, Anchor: strPtr("2023-06-01")}, "2023-01-01", "2023-12-31"},
		{"custom", ReportFilter{Range: RangeCustom, From: strPtr("2024-01-30"), To: strPtr("2024-02-02")}, "2024-01-30", "2024-02-02"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			from, to, err := tc.filter.Bounds(now)
			require.NoError(t, err)
			assert.Equal(t, tc.from, timeliteral.FormatDate(from))
			assert.Equal(t, tc.to, timeliteral.FormatDate(to))
		})
	}
}

func TestReportFilter_BoundsRejects(t *testing.T) {
	now := time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC)

	inverted := ReportFilter{Range: RangeCustom, From: strPtr("2024-02-02"), To: strPtr("2024-02-01")}
	_, _, err := inverted.Bounds(now)
	assert.ErrorIs(t, err, ErrInvalidReportRange)

	tooLong := ReportFilter{Range: RangeCustom, From: strPtr("2022-01-01"), To: strPtr("2024-01-01")}
	_, _, err = tooLong.Bounds(now)
	assert.ErrorIs(t, err, ErrInvalidReportRange)
}

func TestReportFilter_Validate(t *testing.T) {
	f := ReportFilter{Range: "fortnight"}
	err := f.Validate()
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "range must be one of: today, week, month, year, custom", verrs.ToMap()["range"])

	f = ReportFilter{Range: RangeCustom, From: strPtr("2024-01-01")}
	require.ErrorAs(t, f.Validate(), &verrs)
	assert.Contains(t, verrs.ToMap(), "to")

	f = ReportFilter{Anchor: strPtr("2024-13-01")}
	require.ErrorAs(t, f.Validate(), &verrs)
	assert.Contains(t, verrs.ToMap(), "anchor")

	f = ReportFilter{}
	require.NoError(t, f.Validate())
	assert.Equal(t, RangeToday, f.Range)
}

func TestLogPunchRequest_Validate(t *testing.T) {
	req := LogPunchRequest{}
	var verrs validator.ValidationErrors
	require.ErrorAs(t, req.Validate(), &verrs)
	assert.Equal(t, map[string]string{
		"employee_code": "employee_code is required",
		"log_type":      "log_type is required",
	}, verrs.ToMap())
}
