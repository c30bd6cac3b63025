package shift

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/timeliteral"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/validator"
)

// CreateShiftRequest carries time fields as raw JSON values so every shape the
// time parser understands (strings, ISO datetimes, clock objects) is accepted.
type CreateShiftRequest struct {
	Name               string           `json:"name" yaml:"name"`
	MorningIn          any              `json:"morning_in" yaml:"morning_in"`
	MorningOut         any              `json:"morning_out" yaml:"morning_out"`
	AfternoonIn        any              `json:"afternoon_in" yaml:"afternoon_in"`
	AfternoonOut       any              `json:"afternoon_out" yaml:"afternoon_out"`
	GracePeriodMinutes *int             `json:"grace_period_minutes,omitempty" yaml:"grace_period_minutes,omitempty"`
	Weekdays           []any            `json:"weekdays" yaml:"weekdays"`
	Patterns           []PatternRequest `json:"patterns,omitempty" yaml:"patterns,omitempty"`
}

// PatternRequest overrides the base times on the listed weekdays.
type PatternRequest struct {
	Weekdays           []any `json:"weekdays" yaml:"weekdays"`
	MorningIn          any   `json:"morning_in" yaml:"morning_in"`
	MorningOut         any   `json:"morning_out" yaml:"morning_out"`
	AfternoonIn        any   `json:"afternoon_in" yaml:"afternoon_in"`
	AfternoonOut       any   `json:"afternoon_out" yaml:"afternoon_out"`
	GracePeriodMinutes *int  `json:"grace_period_minutes,omitempty" yaml:"grace_period_minutes,omitempty"`
}

func (r *CreateShiftRequest) Validate() error {
	_, _, errs := r.build()
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ToDefinition converts a validated request into the definition and its
// per-weekday overrides. Pattern weekdays are added to the associations.
func (r *CreateShiftRequest) ToDefinition() (ShiftDefinition, []DayOverride) {
	def, overrides, _ := r.build()
	return def, overrides
}

func (r *CreateShiftRequest) build() (ShiftDefinition, []DayOverride, validator.ValidationErrors) {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}

	var times SlotTimes
	times.MorningIn = parseSlot("morning_in", r.MorningIn, &errs)
	times.MorningOut = parseSlot("morning_out", r.MorningOut, &errs)
	times.AfternoonIn = parseSlot("afternoon_in", r.AfternoonIn, &errs)
	times.AfternoonOut = parseSlot("afternoon_out", r.AfternoonOut, &errs)

	grace := DefaultGracePeriodMinutes
	if r.GracePeriodMinutes != nil {
		if *r.GracePeriodMinutes < 0 {
			errs = append(errs, validator.ValidationError{
				Field:   "grace_period_minutes",
				Message: "grace_period_minutes must be a non-negative number",
			})
		}
		grace = *r.GracePeriodMinutes
	}

	var seen [8]bool
	for _, wd := range ParseWeekdays(r.Weekdays) {
		seen[wd] = true
	}

	var overrides []DayOverride
	for i, p := range r.Patterns {
		prefix := "patterns[" + strconv.Itoa(i) + "]"
		label := "pattern " + strconv.Itoa(i)

		days := ParseWeekdays(p.Weekdays)
		if len(days) == 0 {
			errs = append(errs, validator.ValidationError{
				Field:   prefix + ".weekdays",
				Message: label + ": " + msgPatternWeekdays,
			})
		}

		var patternErrs validator.ValidationErrors
		mi := parseSlot("morning_in", p.MorningIn, &patternErrs)
		mo := parseSlot("morning_out", p.MorningOut, &patternErrs)
		ai := parseSlot("afternoon_in", p.AfternoonIn, &patternErrs)
		ao := parseSlot("afternoon_out", p.AfternoonOut, &patternErrs)
		for _, pe := range patternErrs {
			errs = append(errs, validator.ValidationError{
				Field:   prefix + "." + pe.Field,
				Message: label + ": " + pe.Message,
			})
		}

		var patternGrace *int
		if p.GracePeriodMinutes != nil {
			if *p.GracePeriodMinutes < 0 {
				errs = append(errs, validator.ValidationError{
					Field:   prefix + ".grace_period_minutes",
					Message: label + ": grace_period_minutes must be a non-negative number",
				})
			}
			g := *p.GracePeriodMinutes
			patternGrace = &g
		}

		for _, wd := range days {
			seen[wd] = true
			overrides = append(overrides, DayOverride{
				Weekday:            wd,
				MorningIn:          clockPtr(mi),
				MorningOut:         clockPtr(mo),
				AfternoonIn:        clockPtr(ai),
				AfternoonOut:       clockPtr(ao),
				GracePeriodMinutes: patternGrace,
			})
		}
	}

	def := ShiftDefinition{
		Name:               r.Name,
		Times:              times,
		GracePeriodMinutes: grace,
	}
	for wd := Monday; wd <= Sunday; wd++ {
		if seen[wd] {
			def.Weekdays = append(def.Weekdays, wd)
		}
	}

	return def, overrides, errs
}

func parseSlot(field string, raw any, errs *validator.ValidationErrors) timeliteral.Clock {
	if raw == nil {
		*errs = append(*errs, validator.ValidationError{
			Field:   field,
			Message: field + " is required",
		})
		return timeliteral.Clock{}
	}
	if s, ok := raw.(string); ok && validator.IsEmpty(s) {
		*errs = append(*errs, validator.ValidationError{
			Field:   field,
			Message: field + " is required",
		})
		return timeliteral.Clock{}
	}
	c, ok := timeliteral.Parse(raw)
	if !ok {
		*errs = append(*errs, validator.ValidationError{
			Field:   field,
			Message: fmt.Sprintf("%s: %s (got %v)", field, msgInvalidTimeFormat, raw),
		})
	}
	return c
}

func clockPtr(c timeliteral.Clock) *timeliteral.Clock {
	return &c
}

type ShiftResponse struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	MorningIn          string          `json:"morning_in"`
	MorningOut         string          `json:"morning_out"`
	AfternoonIn        string          `json:"afternoon_in"`
	AfternoonOut       string          `json:"afternoon_out"`
	GracePeriodMinutes int             `json:"grace_period_minutes"`
	Weekdays           []int           `json:"weekdays"`
	DayNames           []string        `json:"day_names"`
	PatternDetails     []PatternDetail `json:"pattern_details,omitempty"`
	CreatedAt          string          `json:"created_at"`
	UpdatedAt          string          `json:"updated_at"`
}

// PatternDetail groups the overrides that share identical times and grace.
type PatternDetail struct {
	Weekdays           []int    `json:"weekdays"`
	DayNames           []string `json:"day_names"`
	MorningIn          string   `json:"morning_in"`
	MorningOut         string   `json:"morning_out"`
	AfternoonIn        string   `json:"afternoon_in"`
	AfternoonOut       string   `json:"afternoon_out"`
	GracePeriodMinutes int      `json:"grace_period_minutes"`
}

func NewShiftResponse(def ShiftDefinition) ShiftResponse {
	resp := ShiftResponse{
		ID:                 def.ID,
		Name:               def.Name,
		MorningIn:          def.Times.MorningIn.String(),
		MorningOut:         def.Times.MorningOut.String(),
		AfternoonIn:        def.Times.AfternoonIn.String(),
		AfternoonOut:       def.Times.AfternoonOut.String(),
		GracePeriodMinutes: def.GracePeriodMinutes,
		Weekdays:           []int{},
		DayNames:           []string{},
		PatternDetails:     GroupPatterns(def),
		CreatedAt:          def.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          def.UpdatedAt.Format(time.RFC3339),
	}
	for _, wd := range def.Weekdays {
		resp.Weekdays = append(resp.Weekdays, int(wd))
		resp.DayNames = append(resp.DayNames, wd.String())
	}
	return resp
}

// GroupPatterns folds overrides with identical effective values into one
// pattern with a combined weekday list, ordered by first weekday.
func GroupPatterns(def ShiftDefinition) []PatternDetail {
	groups := make(map[string]*PatternDetail)
	var order []string

	overrides := append([]DayOverride(nil), def.Overrides...)
	sort.Slice(overrides, func(i, j int) bool { return overrides[i].Weekday < overrides[j].Weekday })

	for _, o := range overrides {
		p := PatternDetail{
			MorningIn:          resolveField(o.MorningIn, def.Times.MorningIn).String(),
			MorningOut:         resolveField(o.MorningOut, def.Times.MorningOut).String(),
			AfternoonIn:        resolveField(o.AfternoonIn, def.Times.AfternoonIn).String(),
			AfternoonOut:       resolveField(o.AfternoonOut, def.Times.AfternoonOut).String(),
			GracePeriodMinutes: resolveField(o.GracePeriodMinutes, def.GracePeriodMinutes),
		}
		key := fmt.Sprintf("%s|%s|%s|%s|%d", p.MorningIn, p.MorningOut, p.AfternoonIn, p.AfternoonOut, p.GracePeriodMinutes)

		g, ok := groups[key]
		if !ok {
			p.Weekdays = []int{}
			p.DayNames = []string{}
			g = &p
			groups[key] = g
			order = append(order, key)
		}
		g.Weekdays = append(g.Weekdays, int(o.Weekday))
		g.DayNames = append(g.DayNames, o.Weekday.String())
	}

	details := make([]PatternDetail, 0, len(order))
	for _, key := range order {
		details = append(details, *groups[key])
	}
	return details
}

// resolveField picks the override when present, else the base value.
func resolveField[T any](override *T, base T) T {
	if override != nil {
		return *override
	}
	return base
}

// Resolve applies the day rule for the allotment's shift on date. It returns
// nil when the shift is not associated with date's weekday.
func Resolve(rule WeekdayRule, allotment Allotment, date time.Time) *ResolvedShift {
	if !rule.Associated {
		return nil
	}

	base := rule.Shift
	resolved := &ResolvedShift{
		ShiftID:            base.ID,
		ShiftName:          base.Name,
		AllotmentID:        allotment.ID,
		Date:               timeliteral.DateOf(date),
		Weekday:            WeekdayOf(date),
		Times:              base.Times,
		GracePeriodMinutes: base.GracePeriodMinutes,
	}

	if o := rule.Override; o != nil {
		resolved.Times = SlotTimes{
			MorningIn:    resolveField(o.MorningIn, base.Times.MorningIn),
			MorningOut:   resolveField(o.MorningOut, base.Times.MorningOut),
			AfternoonIn:  resolveField(o.AfternoonIn, base.Times.AfternoonIn),
			AfternoonOut: resolveField(o.AfternoonOut, base.Times.AfternoonOut),
		}
		resolved.GracePeriodMinutes = resolveField(o.GracePeriodMinutes, base.GracePeriodMinutes)
		resolved.Overridden = true
	}

	return resolved
}

type ResolvedShiftResponse struct {
	Scheduled          bool    `json:"scheduled"`
	Date               string  `json:"date"`
	Weekday            int     `json:"weekday"`
	DayName            string  `json:"day_name"`
	ShiftID            *string `json:"shift_id,omitempty"`
	ShiftName          *string `json:"shift_name,omitempty"`
	AllotmentID        *string `json:"allotment_id,omitempty"`
	MorningIn          *string `json:"morning_in,omitempty"`
	MorningOut         *string `json:"morning_out,omitempty"`
	AfternoonIn        *string `json:"afternoon_in,omitempty"`
	AfternoonOut       *string `json:"afternoon_out,omitempty"`
	GracePeriodMinutes *int    `json:"grace_period_minutes,omitempty"`
	Overridden         bool    `json:"overridden"`
}

// NewResolvedShiftResponse renders a resolution; a nil shift means no shift
// is scheduled on date.
func NewResolvedShiftResponse(date time.Time, rs *ResolvedShift) ResolvedShiftResponse {
	wd := WeekdayOf(date)
	resp := ResolvedShiftResponse{
		Date:    timeliteral.FormatDate(date),
		Weekday: int(wd),
		DayName: wd.String(),
	}
	if rs == nil {
		return resp
	}

	str := func(c timeliteral.Clock) *string { s := c.String(); return &s }
	grace := rs.GracePeriodMinutes
	resp.Scheduled = true
	resp.ShiftID = &rs.ShiftID
	resp.ShiftName = &rs.ShiftName
	resp.AllotmentID = &rs.AllotmentID
	resp.MorningIn = str(rs.Times.MorningIn)
	resp.MorningOut = str(rs.Times.MorningOut)
	resp.AfternoonIn = str(rs.Times.AfternoonIn)
	resp.AfternoonOut = str(rs.Times.AfternoonOut)
	resp.GracePeriodMinutes = &grace
	resp.Overridden = rs.Overridden
	return resp
}

type AssignShiftRequest struct {
	ShiftID       string   `json:"shift_id"`
	EmployeeIDs   []string `json:"employee_ids"`
	AssignAll     bool     `json:"assign_all"`
	EffectiveFrom string   `json:"effective_from"`
	EffectiveTo   *string  `json:"effective_to,omitempty"`
}

func (r *AssignShiftRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ShiftID) {
		errs = append(errs, validator.ValidationError{
			Field:   "shift_id",
			Message: "shift_id is required",
		})
	}
	if !r.AssignAll && len(r.EmployeeIDs) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_ids",
			Message: ErrNoEmployeesSelected.Message,
		})
	}
	for i, id := range r.EmployeeIDs {
		if validator.IsEmpty(id) {
			errs = append(errs, validator.ValidationError{
				Field:   "employee_ids[" + strconv.Itoa(i) + "]",
				Message: "employee id must not be empty",
			})
		}
	}
	if validator.IsEmpty(r.EffectiveFrom) {
		errs = append(errs, validator.ValidationError{
			Field:   "effective_from",
			Message: "effective_from is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// DateRange parses the effective range, failing with ErrInvalidDateRange when
// a date is malformed or the range is inverted.
func (r *AssignShiftRequest) DateRange() (time.Time, *time.Time, error) {
	from, ok := timeliteral.ParseDate(r.EffectiveFrom)
	if !ok {
		return time.Time{}, nil, fmt.Errorf("%w: effective_from %q must be a valid date in YYYY-MM-DD format", ErrInvalidDateRange, r.EffectiveFrom)
	}
	if r.EffectiveTo == nil || validator.IsEmpty(*r.EffectiveTo) {
		return from, nil, nil
	}
	to, ok := timeliteral.ParseDate(*r.EffectiveTo)
	if !ok {
		return time.Time{}, nil, fmt.Errorf("%w: effective_to %q must be a valid date in YYYY-MM-DD format", ErrInvalidDateRange, *r.EffectiveTo)
	}
	if to.Before(from) {
		return time.Time{}, nil, fmt.Errorf("%w: effective_to %s is before effective_from %s", ErrInvalidDateRange, *r.EffectiveTo, r.EffectiveFrom)
	}
	return from, &to, nil
}

type AssignShiftResponse struct {
	ShiftID       string  `json:"shift_id"`
	EffectiveFrom string  `json:"effective_from"`
	EffectiveTo   *string `json:"effective_to,omitempty"`
	AssignedCount int     `json:"assigned_count"`
	// Truncated counts earlier allotments whose range was cut short.
	Truncated int `json:"truncated"`
	// Replaced counts allotments removed or rescheduled by the new range.
	Replaced int `json:"replaced"`
}

type AllotmentResponse struct {
	ID            string  `json:"id"`
	EmployeeID    string  `json:"employee_id"`
	ShiftID       string  `json:"shift_id"`
	ShiftName     string  `json:"shift_name"`
	EffectiveFrom string  `json:"effective_from"`
	EffectiveTo   *string `json:"effective_to,omitempty"`
	IsOpenEnded   bool    `json:"is_open_ended"`
}

func NewAllotmentResponse(a Allotment, shiftName string) AllotmentResponse {
	resp := AllotmentResponse{
		ID:            a.ID,
		EmployeeID:    a.EmployeeID,
		ShiftID:       a.ShiftID,
		ShiftName:     shiftName,
		EffectiveFrom: timeliteral.FormatDate(a.EffectiveFrom),
		IsOpenEnded:   a.EffectiveTo == nil,
	}
	if a.EffectiveTo != nil {
		to := timeliteral.FormatDate(*a.EffectiveTo)
		resp.EffectiveTo = &to
	}
	return resp
}
