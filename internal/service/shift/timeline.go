package shift

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/flexi-attendance/internal/domain/shift"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/timeliteral"
)

// Timeline is one employee's allotments. Methods do not assume it is sorted.
type Timeline []shift.Allotment

// Truncation ends an earlier allotment the day before a new one starts.
type Truncation struct {
	AllotmentID string
	EffectiveTo time.Time
}

// Reschedule moves a later allotment's start past the end of a new one.
type Reschedule struct {
	AllotmentID   string
	EffectiveFrom time.Time
}

// Plan is the set of writes that makes room for Insert.
type Plan struct {
	Deletes     []string
	Truncations []Truncation
	Reschedules []Reschedule
	Insert      shift.Allotment
}

// PlanAssignment computes last-writer-wins changes for inserting next into
// existing:
//
//   - an allotment with the same start is replaced
//   - an earlier allotment still running on next's start is truncated to the
//     day before
//
// Later allotments are left alone unless trimFuture is set. Then one that
// starts inside next's range is dropped when it also ends inside it (or next
// is open-ended), otherwise its start moves to the day after next ends.
func PlanAssignment(existing Timeline, next shift.Allotment, trimFuture bool) Plan {
	from := timeliteral.DateOf(next.EffectiveFrom)
	var to *time.Time
	if next.EffectiveTo != nil {
		d := timeliteral.DateOf(*next.EffectiveTo)
		to = &d
	}
	next.EffectiveFrom, next.EffectiveTo = from, to

	plan := Plan{Insert: next}
	for _, a := range existing {
		switch {
		case a.EffectiveFrom.Equal(from):
			plan.Deletes = append(plan.Deletes, a.ID)

		case a.EffectiveFrom.Before(from):
			if a.EffectiveTo == nil || !a.EffectiveTo.Before(from) {
				plan.Truncations = append(plan.Truncations, Truncation{
					AllotmentID: a.ID,
					EffectiveTo: timeliteral.AddDays(from, -1),
				})
			}

		case trimFuture:
			if to != nil && a.EffectiveFrom.After(*to) {
				continue
			}
			if to == nil || (a.EffectiveTo != nil && !a.EffectiveTo.After(*to)) {
				plan.Deletes = append(plan.Deletes, a.ID)
				continue
			}
			plan.Reschedules = append(plan.Reschedules, Reschedule{
				AllotmentID:   a.ID,
				EffectiveFrom: timeliteral.AddDays(*to, 1),
			})
		}
	}
	return plan
}

// Apply returns the timeline after the plan's writes, sorted by start.
func (p Plan) Apply(t Timeline) Timeline {
	deleted := make(map[string]bool, len(p.Deletes))
	for _, id := range p.Deletes {
		deleted[id] = true
	}
	truncated := make(map[string]time.Time, len(p.Truncations))
	for _, tr := range p.Truncations {
		truncated[tr.AllotmentID] = tr.EffectiveTo
	}
	moved := make(map[string]time.Time, len(p.Reschedules))
	for _, rs := range p.Reschedules {
		moved[rs.AllotmentID] = rs.EffectiveFrom
	}

	out := make(Timeline, 0, len(t)+1)
	for _, a := range t {
		if deleted[a.ID] {
			continue
		}
		if to, ok := truncated[a.ID]; ok {
			a.EffectiveTo = &to
		}
		if from, ok := moved[a.ID]; ok {
			a.EffectiveFrom = from
		}
		out = append(out, a)
	}
	out = append(out, p.Insert)
	out.sort()
	return out
}

// Changes counts the existing allotments the plan touches.
func (p Plan) Changes() (truncated, replaced int) {
	return len(p.Truncations), len(p.Deletes) + len(p.Reschedules)
}

func (t Timeline) sort() {
	sort.SliceStable(t, func(i, j int) bool { return t[i].EffectiveFrom.Before(t[j].EffectiveFrom) })
}

// Overlaps returns every pair of allotments that cover a common date.
func (t Timeline) Overlaps() [][2]shift.Allotment {
	sorted := append(Timeline(nil), t...)
	sorted.sort()

	var pairs [][2]shift.Allotment
	for i := range sorted {
		for j := i + 1; j < len(sorted); j++ {
			a, b := sorted[i], sorted[j]
			if a.EffectiveTo != nil && a.EffectiveTo.Before(b.EffectiveFrom) {
				continue
			}
			pairs = append(pairs, [2]shift.Allotment{a, b})
		}
	}
	return pairs
}

// At returns the allotment that applies on date: among those covering it,
// the one with the latest start.
func (t Timeline) At(date time.Time) *shift.Allotment {
	var best *shift.Allotment
	for i := range t {
		a := t[i]
		if !a.Covers(date) {
			continue
		}
		if best == nil || a.EffectiveFrom.After(best.EffectiveFrom) {
			best = &a
		}
	}
	return best
}
