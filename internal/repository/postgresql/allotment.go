package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/flexi-attendance/internal/domain/shift"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type allotmentRepositoryImpl struct {
	db *database.DB
}

func NewAllotmentRepository(db *database.DB) shift.AllotmentRepository {
	return &allotmentRepositoryImpl{db: db}
}

const allotmentColumns = `id, employee_id, shift_id, effective_from, effective_to, created_at, updated_at`

func scanAllotments(rows pgx.Rows) ([]shift.Allotment, error) {
	defer rows.Close()

	var allotments []shift.Allotment
	for rows.Next() {
		var a shift.Allotment
		if err := rows.Scan(
			&a.ID, &a.EmployeeID, &a.ShiftID, &a.EffectiveFrom, &a.EffectiveTo, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		allotments = append(allotments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStorageErr(err)
	}
	return allotments, nil
}

// Create implements shift.AllotmentRepository.
func (r *allotmentRepositoryImpl) Create(ctx context.Context, a shift.Allotment) (shift.Allotment, error) {
	q := GetQuerier(ctx, r.db)

	id, err := newID()
	if err != nil {
		return shift.Allotment{}, fmt.Errorf("failed to generate allotment id: %w", err)
	}

	query := `
		INSERT INTO employee_shift_allotments (id, employee_id, shift_id, effective_from, effective_to)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err = q.QueryRow(ctx, query, id, a.EmployeeID, a.ShiftID, a.EffectiveFrom, a.EffectiveTo).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return shift.Allotment{}, fmt.Errorf("failed to create allotment for employee %s: %w", a.EmployeeID, wrapStorageErr(err))
	}
	return a, nil
}

// GetByEmployeeID implements shift.AllotmentRepository.
func (r *allotmentRepositoryImpl) GetByEmployeeID(ctx context.Context, employeeID string) ([]shift.Allotment, error) {
	if !isUUID(employeeID) {
		return nil, nil
	}
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT `+allotmentColumns+`
		FROM employee_shift_allotments
		WHERE employee_id = $1
		ORDER BY effective_from ASC, created_at ASC`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list allotments for employee %s: %w", employeeID, wrapStorageErr(err))
	}
	return scanAllotments(rows)
}

// CoveringDate implements shift.AllotmentRepository.
func (r *allotmentRepositoryImpl) CoveringDate(ctx context.Context, employeeID string, date time.Time) ([]shift.Allotment, error) {
	if !isUUID(employeeID) {
		return nil, nil
	}
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT `+allotmentColumns+`
		FROM employee_shift_allotments
		WHERE employee_id = $1
		  AND effective_from <= $2
		  AND (effective_to IS NULL OR effective_to >= $2)
		ORDER BY effective_from DESC, created_at DESC`, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to find allotments covering %s: %w", date.Format("2006-01-02"), wrapStorageErr(err))
	}
	return scanAllotments(rows)
}

// UpdateRange implements shift.AllotmentRepository.
func (r *allotmentRepositoryImpl) UpdateRange(ctx context.Context, id string, effectiveFrom time.Time, effectiveTo *time.Time) error {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `
		UPDATE employee_shift_allotments
		SET effective_from = $2, effective_to = $3, updated_at = NOW()
		WHERE id = $1`, id, effectiveFrom, effectiveTo)
	if isInvalidID(err) {
		return shift.ErrAllotmentNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update allotment %s: %w", id, wrapStorageErr(err))
	}
	if commandTag.RowsAffected() == 0 {
		return shift.ErrAllotmentNotFound
	}
	return nil
}

// Delete implements shift.AllotmentRepository.
func (r *allotmentRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM employee_shift_allotments WHERE id = $1`, id)
	if isInvalidID(err) {
		return shift.ErrAllotmentNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete allotment %s: %w", id, wrapStorageErr(err))
	}
	if commandTag.RowsAffected() == 0 {
		return shift.ErrAllotmentNotFound
	}
	return nil
}

// DeleteByShiftID implements shift.AllotmentRepository.
func (r *allotmentRepositoryImpl) DeleteByShiftID(ctx context.Context, shiftID string) (int64, error) {
	if !isUUID(shiftID) {
		return 0, nil
	}
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM employee_shift_allotments WHERE shift_id = $1`, shiftID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete allotments of shift %s: %w", shiftID, wrapStorageErr(err))
	}
	return commandTag.RowsAffected(), nil
}

// LockEmployee implements shift.AllotmentRepository. The advisory lock is
// released when the surrounding transaction commits or rolls back.
func (r *allotmentRepositoryImpl) LockEmployee(ctx context.Context, employeeID string) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, "allotments:"+employeeID)
	if err != nil {
		return fmt.Errorf("failed to lock allotments of employee %s: %w", employeeID, wrapStorageErr(err))
	}
	return nil
}
