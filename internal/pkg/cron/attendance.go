package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/flexi-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/sse"
)

// DroppedCounter reports how many audit envelopes were discarded.
type DroppedCounter interface {
	Dropped() int64
}

type AttendanceJobs struct {
	attendanceSvc attendance.AttendanceService
	hub           *sse.Hub
	audit         DroppedCounter
	now           func() time.Time

	lastDropped int64
}

func NewAttendanceJobs(attendanceSvc attendance.AttendanceService, hub *sse.Hub, audit DroppedCounter) *AttendanceJobs {
	return &AttendanceJobs{
		attendanceSvc: attendanceSvc,
		hub:           hub,
		audit:         audit,
		now:           time.Now,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler, totalsInterval time.Duration) {
	scheduler.AddJob("broadcast_daily_totals", totalsInterval, j.BroadcastDailyTotals)
	if j.audit != nil {
		scheduler.AddJob("report_audit_drops", time.Minute, j.ReportAuditDrops)
	}
}

// BroadcastDailyTotals publishes today's report totals to stream subscribers
// so dashboards can refresh without polling. Skipped when nobody listens.
func (j *AttendanceJobs) BroadcastDailyTotals(ctx context.Context) error {
	if j.hub.SubscriberCount(sse.TopicAttendance) == 0 {
		return nil
	}

	report, err := j.attendanceSvc.Report(ctx, attendance.ReportFilter{Range: attendance.RangeToday}, j.now())
	if err != nil {
		return fmt.Errorf("failed to build daily totals: %w", err)
	}

	j.hub.Publish(sse.Event{
		Topic: sse.TopicAttendance,
		Event: "totals",
		Data: map[string]any{
			"date":             report.From,
			"totals":           report.Totals,
			"total_duty_hours": report.TotalDutyHours,
		},
	})
	return nil
}

// ReportAuditDrops warns when audit envelopes were lost since the last run.
func (j *AttendanceJobs) ReportAuditDrops(context.Context) error {
	dropped := j.audit.Dropped()
	if delta := dropped - j.lastDropped; delta > 0 {
		slog.Warn("Audit envelopes dropped", "since_last_check", delta, "total", dropped)
	}
	j.lastDropped = dropped
	return nil
}
