package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/flexi-attendance/internal/domain/shift"
)

type shiftRepository struct {
	s *Store
}

func (r *shiftRepository) Create(_ context.Context, def shift.ShiftDefinition) (shift.ShiftDefinition, error) {
	id, err := newID()
	if err != nil {
		return shift.ShiftDefinition{}, err
	}

	var dup bool
	r.s.write(func(d *dataset) {
		for _, existing := range d.shifts {
			if existing.Name == def.Name {
				dup = true
				return
			}
		}
		def.ID = id
		def.CreatedAt = r.s.stamp()
		def.UpdatedAt = def.CreatedAt
		def.Weekdays = nil
		def.Overrides = nil
		d.shifts[id] = def
	})
	if dup {
		return shift.ShiftDefinition{}, shift.ErrShiftNameExists
	}
	return def, nil
}

// assemble attaches weekdays and overrides; callers hold the read lock.
func assemble(d *dataset, def shift.ShiftDefinition) shift.ShiftDefinition {
	def.Weekdays = nil
	for wd := shift.Monday; wd <= shift.Sunday; wd++ {
		if d.shiftDays[def.ID][wd] {
			def.Weekdays = append(def.Weekdays, wd)
		}
	}
	def.Overrides = nil
	for _, o := range d.overrides[def.ID] {
		def.Overrides = append(def.Overrides, o)
	}
	sort.Slice(def.Overrides, func(i, j int) bool { return def.Overrides[i].Weekday < def.Overrides[j].Weekday })
	return def
}

func (r *shiftRepository) GetByID(_ context.Context, id string) (shift.ShiftDefinition, error) {
	var (
		def shift.ShiftDefinition
		ok  bool
	)
	r.s.read(func(d *dataset) {
		if def, ok = d.shifts[id]; ok {
			def = assemble(d, def)
		}
	})
	if !ok {
		return shift.ShiftDefinition{}, shift.ErrShiftNotFound
	}
	return def, nil
}

func (r *shiftRepository) List(_ context.Context) ([]shift.ShiftDefinition, error) {
	var defs []shift.ShiftDefinition
	r.s.read(func(d *dataset) {
		for _, def := range d.shifts {
			defs = append(defs, assemble(d, def))
		}
	})
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs, nil
}

func (r *shiftRepository) Delete(_ context.Context, id string) error {
	var ok bool
	r.s.write(func(d *dataset) {
		if _, ok = d.shifts[id]; ok {
			delete(d.shifts, id)
			delete(d.shiftDays, id)
			delete(d.overrides, id)
		}
	})
	if !ok {
		return shift.ErrShiftNotFound
	}
	return nil
}

func (r *shiftRepository) AddWeekdays(_ context.Context, shiftID string, weekdays []shift.Weekday) error {
	var ok bool
	r.s.write(func(d *dataset) {
		if _, ok = d.shifts[shiftID]; !ok {
			return
		}
		days := d.shiftDays[shiftID]
		if days == nil {
			days = make(map[shift.Weekday]bool)
			d.shiftDays[shiftID] = days
		}
		for _, wd := range weekdays {
			days[wd] = true
		}
	})
	if !ok {
		return shift.ErrShiftNotFound
	}
	return nil
}

func (r *shiftRepository) UpsertOverride(_ context.Context, o shift.DayOverride) (shift.DayOverride, error) {
	id, err := newID()
	if err != nil {
		return shift.DayOverride{}, err
	}

	var ok bool
	r.s.write(func(d *dataset) {
		if _, ok = d.shifts[o.ShiftID]; !ok {
			return
		}
		byDay := d.overrides[o.ShiftID]
		if byDay == nil {
			byDay = make(map[shift.Weekday]shift.DayOverride)
			d.overrides[o.ShiftID] = byDay
		}
		now := r.s.stamp()
		if existing, found := byDay[o.Weekday]; found {
			o.ID = existing.ID
			o.CreatedAt = existing.CreatedAt
		} else {
			o.ID = id
			o.CreatedAt = now
		}
		o.UpdatedAt = now
		byDay[o.Weekday] = o
	})
	if !ok {
		return shift.DayOverride{}, shift.ErrShiftNotFound
	}
	return o, nil
}

func (r *shiftRepository) GetWeekdayRule(_ context.Context, shiftID string, weekday shift.Weekday) (shift.WeekdayRule, error) {
	var (
		rule shift.WeekdayRule
		ok   bool
	)
	r.s.read(func(d *dataset) {
		var def shift.ShiftDefinition
		if def, ok = d.shifts[shiftID]; !ok {
			return
		}
		rule.Shift = def
		rule.Associated = d.shiftDays[shiftID][weekday]
		if o, found := d.overrides[shiftID][weekday]; found {
			rule.Override = &o
		}
	})
	if !ok {
		return shift.WeekdayRule{}, shift.ErrShiftNotFound
	}
	return rule, nil
}
