package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/flexi-attendance/internal/domain/shift"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type shiftRepositoryImpl struct {
	db *database.DB
}

func NewShiftRepository(db *database.DB) shift.ShiftRepository {
	return &shiftRepositoryImpl{db: db}
}

const shiftColumns = `s.id, s.name, s.morning_in, s.morning_out, s.afternoon_in, s.afternoon_out,
	s.grace_period_minutes, s.created_at, s.updated_at`

type shiftRow struct {
	def                                      shift.ShiftDefinition
	morningIn, morningOut, afterIn, afterOut pgtype.Time
}

func (r *shiftRow) dest() []any {
	return []any{
		&r.def.ID, &r.def.Name, &r.morningIn, &r.morningOut, &r.afterIn, &r.afterOut,
		&r.def.GracePeriodMinutes, &r.def.CreatedAt, &r.def.UpdatedAt,
	}
}

func (r *shiftRow) definition() shift.ShiftDefinition {
	def := r.def
	def.Times = shift.SlotTimes{
		MorningIn:    clockFromPG(r.morningIn),
		MorningOut:   clockFromPG(r.morningOut),
		AfternoonIn:  clockFromPG(r.afterIn),
		AfternoonOut: clockFromPG(r.afterOut),
	}
	return def
}

// Create implements shift.ShiftRepository.
func (s *shiftRepositoryImpl) Create(ctx context.Context, def shift.ShiftDefinition) (shift.ShiftDefinition, error) {
	q := GetQuerier(ctx, s.db)

	id, err := newID()
	if err != nil {
		return shift.ShiftDefinition{}, fmt.Errorf("failed to generate shift id: %w", err)
	}

	query := `
		INSERT INTO shifts (id, name, morning_in, morning_out, afternoon_in, afternoon_out, grace_period_minutes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err = q.QueryRow(ctx, query,
		id, def.Name,
		clockParam(def.Times.MorningIn), clockParam(def.Times.MorningOut),
		clockParam(def.Times.AfternoonIn), clockParam(def.Times.AfternoonOut),
		def.GracePeriodMinutes,
	).Scan(&def.ID, &def.CreatedAt, &def.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return shift.ShiftDefinition{}, shift.ErrShiftNameExists
		}
		return shift.ShiftDefinition{}, fmt.Errorf("failed to create shift: %w", wrapStorageErr(err))
	}

	return def, nil
}

// GetByID implements shift.ShiftRepository.
func (s *shiftRepositoryImpl) GetByID(ctx context.Context, id string) (shift.ShiftDefinition, error) {
	q := GetQuerier(ctx, s.db)

	var row shiftRow
	err := q.QueryRow(ctx, `SELECT `+shiftColumns+` FROM shifts s WHERE s.id = $1`, id).Scan(row.dest()...)
	if err != nil {
		if isNoRows(err) {
			return shift.ShiftDefinition{}, shift.ErrShiftNotFound
		}
		return shift.ShiftDefinition{}, fmt.Errorf("failed to get shift with id %s: %w", id, wrapStorageErr(err))
	}

	defs := []shift.ShiftDefinition{row.definition()}
	if err := s.attachDays(ctx, q, defs); err != nil {
		return shift.ShiftDefinition{}, err
	}
	return defs[0], nil
}

// List implements shift.ShiftRepository.
func (s *shiftRepositoryImpl) List(ctx context.Context) ([]shift.ShiftDefinition, error) {
	q := GetQuerier(ctx, s.db)

	rows, err := q.Query(ctx, `SELECT `+shiftColumns+` FROM shifts s ORDER BY s.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", wrapStorageErr(err))
	}
	defer rows.Close()

	var defs []shift.ShiftDefinition
	for rows.Next() {
		var row shiftRow
		if err := rows.Scan(row.dest()...); err != nil {
			return nil, err
		}
		defs = append(defs, row.definition())
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStorageErr(err)
	}

	if err := s.attachDays(ctx, q, defs); err != nil {
		return nil, err
	}
	return defs, nil
}

// attachDays loads weekday associations and overrides for defs in two queries.
func (s *shiftRepositoryImpl) attachDays(ctx context.Context, q database.Querier, defs []shift.ShiftDefinition) error {
	if len(defs) == 0 {
		return nil
	}

	ids := make([]string, len(defs))
	index := make(map[string]int, len(defs))
	for i, d := range defs {
		ids[i] = d.ID
		index[d.ID] = i
	}

	dayRows, err := q.Query(ctx, `
		SELECT shift_id, weekday FROM shift_days
		WHERE shift_id = ANY($1)
		ORDER BY shift_id, weekday`, ids)
	if err != nil {
		return fmt.Errorf("failed to load shift days: %w", wrapStorageErr(err))
	}
	defer dayRows.Close()

	for dayRows.Next() {
		var shiftID string
		var wd int16
		if err := dayRows.Scan(&shiftID, &wd); err != nil {
			return err
		}
		i := index[shiftID]
		defs[i].Weekdays = append(defs[i].Weekdays, shift.Weekday(wd))
	}
	if err := dayRows.Err(); err != nil {
		return wrapStorageErr(err)
	}

	overrideRows, err := q.Query(ctx, `
		SELECT id, shift_id, weekday, morning_in, morning_out, afternoon_in, afternoon_out,
			grace_period_minutes, created_at, updated_at
		FROM shift_day_overrides
		WHERE shift_id = ANY($1)
		ORDER BY shift_id, weekday`, ids)
	if err != nil {
		return fmt.Errorf("failed to load shift overrides: %w", wrapStorageErr(err))
	}
	defer overrideRows.Close()

	for overrideRows.Next() {
		o, err := scanOverride(overrideRows)
		if err != nil {
			return err
		}
		i := index[o.ShiftID]
		defs[i].Overrides = append(defs[i].Overrides, o)
	}
	return wrapStorageErr(overrideRows.Err())
}

func scanOverride(row pgx.Row) (shift.DayOverride, error) {
	var (
		o                                        shift.DayOverride
		wd                                       int16
		morningIn, morningOut, afterIn, afterOut pgtype.Time
	)
	err := row.Scan(
		&o.ID, &o.ShiftID, &wd, &morningIn, &morningOut, &afterIn, &afterOut,
		&o.GracePeriodMinutes, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return shift.DayOverride{}, err
	}
	o.Weekday = shift.Weekday(wd)
	o.MorningIn = clockPtrFromPG(morningIn)
	o.MorningOut = clockPtrFromPG(morningOut)
	o.AfternoonIn = clockPtrFromPG(afterIn)
	o.AfternoonOut = clockPtrFromPG(afterOut)
	return o, nil
}

// Delete implements shift.ShiftRepository. Day rows go with the shift via
// ON DELETE CASCADE.
func (s *shiftRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, s.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM shifts WHERE id = $1`, id)
	if isInvalidID(err) {
		return shift.ErrShiftNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete shift with id %s: %w", id, wrapStorageErr(err))
	}
	if commandTag.RowsAffected() == 0 {
		return shift.ErrShiftNotFound
	}
	return nil
}

// AddWeekdays implements shift.ShiftRepository.
func (s *shiftRepositoryImpl) AddWeekdays(ctx context.Context, shiftID string, weekdays []shift.Weekday) error {
	if len(weekdays) == 0 {
		return nil
	}
	q := GetQuerier(ctx, s.db)

	days := make([]int16, len(weekdays))
	for i, wd := range weekdays {
		days[i] = int16(wd)
	}

	_, err := q.Exec(ctx, `
		INSERT INTO shift_days (shift_id, weekday)
		SELECT $1, d FROM unnest($2::smallint[]) AS d
		ON CONFLICT (shift_id, weekday) DO NOTHING`, shiftID, days)
	if err != nil {
		return fmt.Errorf("failed to add shift days: %w", wrapStorageErr(err))
	}
	return nil
}

// UpsertOverride implements shift.ShiftRepository.
func (s *shiftRepositoryImpl) UpsertOverride(ctx context.Context, o shift.DayOverride) (shift.DayOverride, error) {
	q := GetQuerier(ctx, s.db)

	id, err := newID()
	if err != nil {
		return shift.DayOverride{}, fmt.Errorf("failed to generate override id: %w", err)
	}

	query := `
		INSERT INTO shift_day_overrides (
			id, shift_id, weekday, morning_in, morning_out, afternoon_in, afternoon_out, grace_period_minutes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (shift_id, weekday) DO UPDATE SET
			morning_in = EXCLUDED.morning_in,
			morning_out = EXCLUDED.morning_out,
			afternoon_in = EXCLUDED.afternoon_in,
			afternoon_out = EXCLUDED.afternoon_out,
			grace_period_minutes = EXCLUDED.grace_period_minutes,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err = q.QueryRow(ctx, query,
		id, o.ShiftID, int16(o.Weekday),
		clockPtrParam(o.MorningIn), clockPtrParam(o.MorningOut),
		clockPtrParam(o.AfternoonIn), clockPtrParam(o.AfternoonOut),
		o.GracePeriodMinutes,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return shift.DayOverride{}, fmt.Errorf("failed to upsert override for weekday %d: %w", o.Weekday, wrapStorageErr(err))
	}
	return o, nil
}

// GetWeekdayRule implements shift.ShiftRepository.
func (s *shiftRepositoryImpl) GetWeekdayRule(ctx context.Context, shiftID string, weekday shift.Weekday) (shift.WeekdayRule, error) {
	q := GetQuerier(ctx, s.db)

	query := `
		SELECT ` + shiftColumns + `,
			EXISTS (SELECT 1 FROM shift_days d WHERE d.shift_id = s.id AND d.weekday = $2),
			o.id, o.morning_in, o.morning_out, o.afternoon_in, o.afternoon_out, o.grace_period_minutes
		FROM shifts s
		LEFT JOIN shift_day_overrides o ON o.shift_id = s.id AND o.weekday = $2
		WHERE s.id = $1
	`

	var (
		row                                          shiftRow
		associated                                   bool
		overrideID                                   *string
		oMorningIn, oMorningOut, oAfterIn, oAfterOut pgtype.Time
		oGrace                                       *int
	)
	dest := append(row.dest(), &associated, &overrideID, &oMorningIn, &oMorningOut, &oAfterIn, &oAfterOut, &oGrace)

	if err := q.QueryRow(ctx, query, shiftID, int16(weekday)).Scan(dest...); err != nil {
		if isNoRows(err) {
			return shift.WeekdayRule{}, shift.ErrShiftNotFound
		}
		return shift.WeekdayRule{}, fmt.Errorf("failed to get weekday rule: %w", wrapStorageErr(err))
	}

	rule := shift.WeekdayRule{Shift: row.definition(), Associated: associated}
	if overrideID != nil {
		rule.Override = &shift.DayOverride{
			ID:                 *overrideID,
			ShiftID:            shiftID,
			Weekday:            weekday,
			MorningIn:          clockPtrFromPG(oMorningIn),
			MorningOut:         clockPtrFromPG(oMorningOut),
			AfternoonIn:        clockPtrFromPG(oAfterIn),
			AfternoonOut:       clockPtrFromPG(oAfterOut),
			GracePeriodMinutes: oGrace,
		}
	}
	return rule, nil
}
