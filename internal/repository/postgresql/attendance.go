package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/flexi-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type attendanceRepositoryImpl struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{db: db}
}

const recordColumns = `id, employee_id, attendance_date, shift_id, morning_in, morning_out, afternoon_in,
	afternoon_out, minutes_late, minutes_early_leave, status, created_at, updated_at`

func scanRecord(row pgx.Row) (attendance.Record, error) {
	var (
		r                                        attendance.Record
		morningIn, morningOut, afterIn, afterOut pgtype.Time
	)
	err := row.Scan(
		&r.ID, &r.EmployeeID, &r.Date, &r.ShiftID, &morningIn, &morningOut, &afterIn, &afterOut,
		&r.MinutesLate, &r.MinutesEarlyLeave, &r.Status, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return attendance.Record{}, err
	}
	r.MorningIn = clockPtrFromPG(morningIn)
	r.MorningOut = clockPtrFromPG(morningOut)
	r.AfternoonIn = clockPtrFromPG(afterIn)
	r.AfternoonOut = clockPtrFromPG(afterOut)
	return r, nil
}

// LockDay implements attendance.AttendanceRepository.
func (a *attendanceRepositoryImpl) LockDay(ctx context.Context, employeeID string, date time.Time) error {
	q := GetQuerier(ctx, a.db)

	key := fmt.Sprintf("attendance:%s:%s", employeeID, date.Format("2006-01-02"))
	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return fmt.Errorf("failed to lock attendance day: %w", wrapStorageErr(err))
	}
	return nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepositoryImpl) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Record, error) {
	if !isUUID(employeeID) {
		return nil, nil
	}
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + recordColumns + `
		FROM attendance_records
		WHERE employee_id = $1 AND attendance_date = $2
		FOR UPDATE
	`

	rec, err := scanRecord(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance record: %w", wrapStorageErr(err))
	}
	return &rec, nil
}

// Create implements attendance.AttendanceRepository. A concurrent insert for
// the same (employee, date) resolves to the existing row.
func (a *attendanceRepositoryImpl) Create(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	id, err := newID()
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to generate attendance id: %w", err)
	}

	query := `
		INSERT INTO attendance_records (
			id, employee_id, attendance_date, shift_id, morning_in, morning_out, afternoon_in, afternoon_out,
			minutes_late, minutes_early_leave, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (employee_id, attendance_date) DO NOTHING
		RETURNING ` + recordColumns

	created, err := scanRecord(q.QueryRow(ctx, query,
		id, record.EmployeeID, record.Date, record.ShiftID,
		clockPtrParam(record.MorningIn), clockPtrParam(record.MorningOut),
		clockPtrParam(record.AfternoonIn), clockPtrParam(record.AfternoonOut),
		record.MinutesLate, record.MinutesEarlyLeave, record.Status,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		existing, getErr := a.GetByEmployeeAndDate(ctx, record.EmployeeID, record.Date)
		if getErr != nil {
			return attendance.Record{}, getErr
		}
		if existing == nil {
			return attendance.Record{}, attendance.ErrAttendanceNotFound
		}
		return *existing, nil
	}
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to create attendance record: %w", wrapStorageErr(err))
	}
	return created, nil
}

// Update implements attendance.AttendanceRepository.
func (a *attendanceRepositoryImpl) Update(ctx context.Context, record attendance.Record) error {
	q := GetQuerier(ctx, a.db)

	commandTag, err := q.Exec(ctx, `
		UPDATE attendance_records SET
			shift_id = $2,
			morning_in = $3,
			morning_out = $4,
			afternoon_in = $5,
			afternoon_out = $6,
			minutes_late = $7,
			minutes_early_leave = $8,
			status = $9,
			updated_at = NOW()
		WHERE id = $1`,
		record.ID, record.ShiftID,
		clockPtrParam(record.MorningIn), clockPtrParam(record.MorningOut),
		clockPtrParam(record.AfternoonIn), clockPtrParam(record.AfternoonOut),
		record.MinutesLate, record.MinutesEarlyLeave, record.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to update attendance record %s: %w", record.ID, wrapStorageErr(err))
	}
	if commandTag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}
	return nil
}

// ListByRange implements attendance.AttendanceRepository.
func (a *attendanceRepositoryImpl) ListByRange(ctx context.Context, from, to time.Time, employeeID *string) ([]attendance.Record, error) {
	if employeeID != nil && !isUUID(*employeeID) {
		return nil, nil
	}
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + recordColumns + `
		FROM attendance_records
		WHERE attendance_date BETWEEN $1 AND $2
		  AND ($3::uuid IS NULL OR employee_id = $3)
		ORDER BY attendance_date ASC, employee_id ASC
	`

	rows, err := q.Query(ctx, query, from, to, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", wrapStorageErr(err))
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStorageErr(err)
	}
	return records, nil
}
