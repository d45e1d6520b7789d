package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/containrrr/shoutrrr"

	"github.com/cyberguard/backend/internal/broadcast"
	"github.com/cyberguard/backend/internal/logger"
	"github.com/cyberguard/backend/internal/metrics"
	"github.com/cyberguard/backend/internal/models"
	"github.com/cyberguard/backend/internal/util"
)

// AlertService pushes detections at or above a severity threshold to
// external notification services through shoutrrr URLs.
type AlertService struct {
	urls        []string
	minSeverity models.Severity
	send        func(url, message string) error
}

// NewAlertService alerts on detections at or above minSeverity. An
// unrecognised severity falls back to Critical.
func NewAlertService(urls []string, minSeverity string) *AlertService {
	sev, ok := models.ParseSeverity(minSeverity)
	if !ok {
		sev = models.SeverityCritical
	}
	return &AlertService{
		urls:        urls,
		minSeverity: sev,
		send:        shoutrrr.Send,
	}
}

// Enabled reports whether any destination is configured.
func (s *AlertService) Enabled() bool {
	return len(s.urls) > 0
}

// ShouldAlert reports whether evt crosses the alert threshold. A finalized
// ransomware record is published a second time; only its first event alerts.
func (s *AlertService) ShouldAlert(evt broadcast.Event) bool {
	if evt.Action == models.ActionSimulatedEncrypt {
		return false
	}
	return evt.Status == broadcast.StatusAttack && evt.Severity.AtLeast(s.minSeverity)
}

// Send delivers title and message to every destination. Failures for one
// destination do not prevent delivery to the others.
func (s *AlertService) Send(title, message string) error {
	msg := fmt.Sprintf("%s\n\n%s", title, message)
	var errs []error
	for _, url := range s.urls {
		if err := s.send(url, msg); err != nil {
			metrics.IncAlert("failed")
			errs = append(errs, fmt.Errorf("send to %s: %w", redactURL(url), err))
			continue
		}
		metrics.IncAlert("sent")
	}
	return errors.Join(errs...)
}

// Run consumes the traffic feed until ctx is done.
func (s *AlertService) Run(ctx context.Context, hub *broadcast.Hub) {
	sub := hub.Subscribe("alerts")
	defer sub.Close()
	log := logger.Component("alerts")

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-sub.Events():
			if !ok {
				return
			}
			if !s.ShouldAlert(evt) {
				continue
			}
			title := fmt.Sprintf("[%s] %s detected", evt.Severity, evt.AttackType)
			if err := s.Send(title, formatEvent(evt)); err != nil {
				log.WithError(err).WithField("audit_record_id", evt.AuditRecordID).Warn("alert delivery failed")
			}
		}
	}
}

func formatEvent(evt broadcast.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Source: %s\n", evt.SourceIP)
	fmt.Fprintf(&b, "Action: %s\n", evt.Action)
	fmt.Fprintf(&b, "Audit record: %d\n", evt.AuditRecordID)
	fmt.Fprintf(&b, "Time: %s\n", evt.Timestamp.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "Payload: %s", util.SanitizeForLog(evt.PayloadSnippet))
	return b.String()
}

// redactURL keeps the scheme of a shoutrrr URL and hides its credentials.
func redactURL(raw string) string {
	if i := strings.Index(raw, "://"); i >= 0 {
		return raw[:i] + "://***"
	}
	return "***"
}
