package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cyberguard/backend/internal/logger"
	"github.com/cyberguard/backend/internal/models"
)

// DigestService periodically sends a summary of recent traffic through the
// alert destinations.
type DigestService struct {
	Cron   *cron.Cron
	audit  *AuditService
	alerts *AlertService
	window time.Duration
}

// NewDigestService schedules the digest with a standard five field cron
// expression covering the preceding window.
func NewDigestService(audit *AuditService, alerts *AlertService, schedule string, window time.Duration) (*DigestService, error) {
	if window <= 0 {
		window = 24 * time.Hour
	}
	s := &DigestService{
		Cron:   cron.New(),
		audit:  audit,
		alerts: alerts,
		window: window,
	}
	if _, err := s.Cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := s.RunOnce(ctx, time.Now()); err != nil {
			logger.Component("digest").WithError(err).Warn("digest failed")
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid digest schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins running the schedule in the background.
func (s *DigestService) Start() {
	s.Cron.Start()
}

// Stop halts the schedule and waits for a running digest to finish.
func (s *DigestService) Stop() {
	<-s.Cron.Stop().Done()
}

// RunOnce sends the digest for the window ending at now.
func (s *DigestService) RunOnce(ctx context.Context, now time.Time) error {
	summary, err := s.audit.Summary(ctx, now.Add(-s.window))
	if err != nil {
		return err
	}
	return s.alerts.Send("CyberGuard traffic digest", FormatSummary(summary))
}

// FormatSummary renders a summary as plain text.
func FormatSummary(sum *Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Since %s\n", sum.Since.Format(time.RFC3339))
	fmt.Fprintf(&b, "Requests: %d, detected: %d, blocked: %d\n", sum.Total, sum.Detected, sum.Blocked)
	for _, c := range models.AllCategories {
		fmt.Fprintf(&b, "%s: %d\n", c, sum.ByCategory[c])
	}
	return strings.TrimRight(b.String(), "\n")
}
