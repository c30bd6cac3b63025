package fixtures

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/flexi-attendance/internal/domain/shift"
	"gopkg.in/yaml.v3"
)

//go:embed default_shifts.yaml
var defaultShiftsYAML []byte

// GetDefaultShifts returns the built-in shift templates.
func GetDefaultShifts() ([]shift.CreateShiftRequest, error) {
	var reqs []shift.CreateShiftRequest
	if err := yaml.Unmarshal(defaultShiftsYAML, &reqs); err != nil {
		return nil, fmt.Errorf("failed to decode default shifts: %w", err)
	}
	return reqs, nil
}

// SeedDefaultShifts creates every default shift whose name is not taken yet
// and returns how many were created.
func SeedDefaultShifts(ctx context.Context, svc shift.ShiftService) (int, error) {
	reqs, err := GetDefaultShifts()
	if err != nil {
		return 0, err
	}

	existing, err := svc.ListShifts(ctx)
	if err != nil {
		return 0, err
	}
	taken := make(map[string]bool, len(existing))
	for _, s := range existing {
		taken[s.Name] = true
	}

	created := 0
	for _, req := range reqs {
		if taken[req.Name] {
			slog.Debug("Default shift already present", "name", req.Name)
			continue
		}
		if _, err := svc.CreateShift(ctx, req); err != nil {
			return created, fmt.Errorf("failed to seed shift %q: %w", req.Name, err)
		}
		created++
	}

	slog.Info("Default shifts seeded", "created", created, "skipped", len(reqs)-created)
	return created, nil
}
