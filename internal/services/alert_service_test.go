package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberguard/backend/internal/broadcast"
	"github.com/cyberguard/backend/internal/models"
)

type recordedSend struct {
	url string
	msg string
}

type fakeSender struct {
	mu    sync.Mutex
	sent  []recordedSend
	fails map[string]bool
}

func (f *fakeSender) send(url, msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, recordedSend{url: url, msg: msg})
	if f.fails[url] {
		return errors.New("unreachable")
	}
	return nil
}

func (f *fakeSender) messages() []recordedSend {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedSend(nil), f.sent...)
}

func newTestAlertService(urls []string, min string) (*AlertService, *fakeSender) {
	svc := NewAlertService(urls, min)
	fs := &fakeSender{fails: map[string]bool{}}
	svc.send = fs.send
	return svc, fs
}

func TestAlertService_Threshold(t *testing.T) {
	svc, _ := newTestAlertService([]string{"generic://example.com"}, "High")

	assert.True(t, svc.ShouldAlert(broadcast.Event{Status: broadcast.StatusAttack, Severity: models.SeverityCritical}))
	assert.True(t, svc.ShouldAlert(broadcast.Event{Status: broadcast.StatusAttack, Severity: models.SeverityHigh}))
	assert.False(t, svc.ShouldAlert(broadcast.Event{Status: broadcast.StatusAttack, Severity: models.SeverityMedium}))
	assert.False(t, svc.ShouldAlert(broadcast.Event{Status: broadcast.StatusSafe, Severity: models.SeverityCritical}))
}

func TestAlertService_UnknownSeverityDefaultsToCritical(t *testing.T) {
	svc, _ := newTestAlertService(nil, "whenever")
	assert.Equal(t, models.SeverityCritical, svc.minSeverity)
	assert.False(t, svc.Enabled())
}

func TestAlertService_SendContinuesPastFailures(t *testing.T) {
	svc, fs := newTestAlertService([]string{"slack://token@channel", "generic://example.com/hook"}, "Critical")
	fs.fails["slack://token@channel"] = true

	err := svc.Send("title", "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slack://***")
	assert.NotContains(t, err.Error(), "token")
	assert.Len(t, fs.messages(), 2)
	assert.Equal(t, "title\n\nbody", fs.messages()[1].msg)
}

func TestAlertService_RunAlertsOnCriticalDetections(t *testing.T) {
	svc, fs := newTestAlertService([]string{"generic://example.com"}, "Critical")
	hub := broadcast.NewHub(8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx, hub)
	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 5*time.Millisecond)

	xss := newRecord(1, models.CategoryXSS)
	xss.ID = 1
	sqli := newRecord(2, models.CategorySQLInjection)
	sqli.ID = 2
	hub.Publish(xss)
	hub.Publish(sqli)

	require.Eventually(t, func() bool { return len(fs.messages()) == 1 }, time.Second, 5*time.Millisecond)
	msg := fs.messages()[0].msg
	assert.Contains(t, msg, "[Critical] SQL Injection detected")
	assert.Contains(t, msg, "Audit record: 2")
}

func TestAlertService_RansomwareAlertsOncePerRequest(t *testing.T) {
	svc, fs := newTestAlertService([]string{"generic://example.com"}, "Critical")
	hub := broadcast.NewHub(8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx, hub)
	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 5*time.Millisecond)

	rec := newRecord(1, models.CategoryRansomware)
	rec.ID = 7
	hub.Publish(rec)
	finalized := *rec
	finalized.Action = models.ActionSimulatedEncrypt
	hub.Publish(&finalized)

	marker := newRecord(2, models.CategorySQLInjection)
	marker.ID = 8
	hub.Publish(marker)

	require.Eventually(t, func() bool { return len(fs.messages()) == 2 }, time.Second, 5*time.Millisecond)
	msgs := fs.messages()
	assert.Contains(t, msgs[0].msg, "Audit record: 7")
	assert.Contains(t, msgs[0].msg, "Action: Allowed")
	assert.Contains(t, msgs[1].msg, "Audit record: 8")

	assert.False(t, svc.ShouldAlert(broadcast.NewEvent(&finalized)))
}
