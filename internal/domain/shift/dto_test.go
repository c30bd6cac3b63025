package shift

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/timeliteral"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func officeRequest() CreateShiftRequest {
	return CreateShiftRequest{
		Name:         "Office",
		MorningIn:    "08:00",
		MorningOut:   "12:00:00",
		AfternoonIn:  "1:00 PM",
		AfternoonOut: "2024-01-08T17:00:00Z",
		Weekdays:     []any{1, 2, 3, 4, 5},
	}
}

func validationMap(t *testing.T, err error) map[string]string {
	t.Helper()
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs), "expected validation errors, got %v", err)
	return verrs.ToMap()
}

func TestCreateShiftRequest_Valid(t *testing.T) {
	req := officeRequest()
	require.NoError(t, req.Validate())

	def, overrides := req.ToDefinition()
	assert.Equal(t, "Office", def.Name)
	assert.Equal(t, "13:00:00", def.Times.AfternoonIn.String())
	assert.Equal(t, "17:00:00", def.Times.AfternoonOut.String())
	assert.Equal(t, DefaultGracePeriodMinutes, def.GracePeriodMinutes)
	assert.Equal(t, []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday}, def.Weekdays)
	assert.Empty(t, overrides)
}

func TestCreateShiftRequest_MissingFields(t *testing.T) {
	req := CreateShiftRequest{MorningIn: "08:00", AfternoonIn: "  "}
	details := validationMap(t, req.Validate())

	assert.Equal(t, "name is required", details["name"])
	assert.Equal(t, "morning_out is required", details["morning_out"])
	assert.Equal(t, "afternoon_in is required", details["afternoon_in"])
	assert.Equal(t, "afternoon_out is required", details["afternoon_out"])
	assert.NotContains(t, details, "morning_in")
}

func TestCreateShiftRequest_InvalidTimeNamesField(t *testing.T) {
	req := officeRequest()
	req.MorningOut = "25:00"
	details := validationMap(t, req.Validate())

	require.Contains(t, details, "morning_out")
	assert.Contains(t, details["morning_out"], "invalid time format")
	assert.Contains(t, details["morning_out"], "25:00")
}

func TestCreateShiftRequest_NegativeGrace(t *testing.T) {
	req := officeRequest()
	req.GracePeriodMinutes = intPtr(-1)
	details := validationMap(t, req.Validate())
	assert.Contains(t, details, "grace_period_minutes")
}

func TestCreateShiftRequest_PatternErrorsNameIndex(t *testing.T) {
	req := officeRequest()
	req.Patterns = []PatternRequest{
		{Weekdays: []any{"sat"}, MorningIn: "09:00", MorningOut: "12:00", AfternoonIn: "13:00", AfternoonOut: "15:00"},
		{Weekdays: []any{"holiday"}, MorningIn: "09:00", MorningOut: "12:00", AfternoonIn: "13:00", AfternoonOut: "15:00"},
		{Weekdays: []any{5}, MorningIn: "09:00", MorningOut: "noon", AfternoonIn: "13:00"},
	}
	details := validationMap(t, req.Validate())

	assert.NotContains(t, details, "patterns[0].weekdays")
	assert.Equal(t, "pattern 1: pattern must specify at least one weekday", details["patterns[1].weekdays"])
	assert.Contains(t, details["patterns[2].morning_out"], "pattern 2:")
	assert.Equal(t, "pattern 2: afternoon_out is required", details["patterns[2].afternoon_out"])
}

func TestCreateShiftRequest_PatternsExpandPerWeekday(t *testing.T) {
	req := officeRequest()
	req.GracePeriodMinutes = intPtr(10)
	req.Patterns = []PatternRequest{{
		Weekdays:           []any{"Friday", 6},
		MorningIn:          "07:30",
		MorningOut:         "11:30",
		AfternoonIn:        "12:30",
		AfternoonOut:       "15:00",
		GracePeriodMinutes: intPtr(0),
	}}
	require.NoError(t, req.Validate())

	def, overrides := req.ToDefinition()
	assert.Equal(t, 10, def.GracePeriodMinutes)
	assert.Equal(t, []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}, def.Weekdays)
	require.Len(t, overrides, 2)
	assert.Equal(t, Friday, overrides[0].Weekday)
	assert.Equal(t, Saturday, overrides[1].Weekday)
	assert.Equal(t, "07:30:00", overrides[1].MorningIn.String())
	assert.Equal(t, 0, *overrides[1].GracePeriodMinutes)
}

func TestCreateShiftRequest_AcceptsClockObjectsFromJSON(t *testing.T) {
	var req CreateShiftRequest
	require.NoError(t, json.Unmarshal([]byte(`{
		"name": "Kiosk",
		"morning_in": {"hour": 8, "minute": 0},
		"morning_out": "12:00",
		"afternoon_in": "13:00",
		"afternoon_out": "17:00",
		"weekdays": ["mon", 2]
	}`), &req))
	require.NoError(t, req.Validate())

	def, _ := req.ToDefinition()
	assert.Equal(t, "08:00:00", def.Times.MorningIn.String())
	assert.Equal(t, []Weekday{Monday, Tuesday}, def.Weekdays)
}

func TestGroupPatterns(t *testing.T) {
	c := timeliteral.MustParse
	early := c("07:00:00")
	def := ShiftDefinition{
		Times: SlotTimes{
			MorningIn: c("08:00:00"), MorningOut: c("12:00:00"),
			AfternoonIn: c("13:00:00"), AfternoonOut: c("17:00:00"),
		},
		GracePeriodMinutes: 5,
		Overrides: []DayOverride{
			{Weekday: Saturday, MorningIn: &early},
			{Weekday: Wednesday, GracePeriodMinutes: intPtr(15)},
			{Weekday: Monday, MorningIn: &early},
		},
	}

	got := GroupPatterns(def)
	require.Len(t, got, 2)
	assert.Equal(t, []int{1, 6}, got[0].Weekdays)
	assert.Equal(t, []string{"Monday", "Saturday"}, got[0].DayNames)
	assert.Equal(t, "07:00:00", got[0].MorningIn)
	assert.Equal(t, "12:00:00", got[0].MorningOut)
	assert.Equal(t, []int{3}, got[1].Weekdays)
	assert.Equal(t, 15, got[1].GracePeriodMinutes)
}

func TestResolve(t *testing.T) {
	c := timeliteral.MustParse
	base := ShiftDefinition{
		ID:   "s1",
		Name: "Office",
		Times: SlotTimes{
			MorningIn: c("08:00:00"), MorningOut: c("12:00:00"),
			AfternoonIn: c("13:00:00"), AfternoonOut: c("17:00:00"),
		},
		GracePeriodMinutes: 10,
	}
	allotment := Allotment{ID: "a1", ShiftID: "s1"}
	monday := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	t.Run("not associated", func(t *testing.T) {
		assert.Nil(t, Resolve(WeekdayRule{Shift: base}, allotment, monday))
	})

	t.Run("base times", func(t *testing.T) {
		got := Resolve(WeekdayRule{Shift: base, Associated: true}, allotment, monday)
		require.NotNil(t, got)
		assert.Equal(t, base.Times, got.Times)
		assert.Equal(t, 10, got.GracePeriodMinutes)
		assert.Equal(t, Monday, got.Weekday)
		assert.Equal(t, "a1", got.AllotmentID)
		assert.False(t, got.Overridden)
	})

	t.Run("override fields win, missing fields fall back", func(t *testing.T) {
		late := c("09:00:00")
		rule := WeekdayRule{
			Shift:      base,
			Associated: true,
			Override:   &DayOverride{Weekday: Monday, MorningIn: &late, GracePeriodMinutes: intPtr(0)},
		}
		got := Resolve(rule, allotment, monday)
		require.NotNil(t, got)
		assert.Equal(t, "09:00:00", got.Times.MorningIn.String())
		assert.Equal(t, "12:00:00", got.Times.MorningOut.String())
		assert.Equal(t, "17:00:00", got.Times.AfternoonOut.String())
		assert.Equal(t, 0, got.GracePeriodMinutes)
		assert.True(t, got.Overridden)
	})
}

func TestAssignShiftRequest_DateRange(t *testing.T) {
	str := func(s string) *string { return &s }

	req := AssignShiftRequest{ShiftID: "s1", EmployeeIDs: []string{"e1"}, EffectiveFrom: "2024-01-01"}
	require.NoError(t, req.Validate())
	from, to, err := req.DateRange()
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", timeliteral.FormatDate(from))
	assert.Nil(t, to)

	req.EffectiveTo = str("2024-01-01")
	_, to, err = req.DateRange()
	require.NoError(t, err)
	require.NotNil(t, to)

	req.EffectiveTo = str("2023-12-31")
	_, _, err = req.DateRange()
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	req.EffectiveFrom = "01/01/2024"
	_, _, err = req.DateRange()
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestAssignShiftRequest_Validate(t *testing.T) {
	req := AssignShiftRequest{}
	details := validationMap(t, req.Validate())
	assert.Contains(t, details, "shift_id")
	assert.Contains(t, details, "employee_ids")
	assert.Contains(t, details, "effective_from")

	req = AssignShiftRequest{ShiftID: "s1", AssignAll: true, EffectiveFrom: "2024-01-01"}
	assert.NoError(t, req.Validate())
}
