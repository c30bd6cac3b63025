package postgresql

import (
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/timeliteral"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const microsPerSecond = 1_000_000

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func clockParam(c timeliteral.Clock) pgtype.Time {
	return pgtype.Time{Microseconds: int64(c.Seconds()) * microsPerSecond, Valid: true}
}

func clockPtrParam(c *timeliteral.Clock) pgtype.Time {
	if c == nil {
		return pgtype.Time{}
	}
	return clockParam(*c)
}

// clockFromPG drops sub-second precision; stored times never carry it.
func clockFromPG(t pgtype.Time) timeliteral.Clock {
	secs := int(t.Microseconds / microsPerSecond)
	c, _ := timeliteral.New(secs/3600, secs%3600/60, secs%60)
	return c
}

func clockPtrFromPG(t pgtype.Time) *timeliteral.Clock {
	if !t.Valid {
		return nil
	}
	c := clockFromPG(t)
	return &c
}
