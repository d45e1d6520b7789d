package broadcast

import (
	"time"

	"github.com/google/uuid"

	"github.com/cyberguard/backend/internal/inspect"
	"github.com/cyberguard/backend/internal/models"
	"github.com/cyberguard/backend/internal/util"
)

// Status is the coarse verdict shown to observers.
type Status string

const (
	StatusAttack Status = "attack"
	StatusSafe   Status = "safe"
)

// Event is the lightweight notification observers receive for every
// inspected request. It is derived from an already persisted AuditRecord.
type Event struct {
	EventID        string                `json:"eventId"`
	AuditRecordID  uint                  `json:"auditRecordId"`
	Timestamp      time.Time             `json:"timestamp"`
	SourceIP       string                `json:"sourceIP"`
	Status         Status                `json:"status"`
	AttackType     models.AttackCategory `json:"attackType"`
	PayloadSnippet string                `json:"payloadSnippet"`
	Action         models.Action         `json:"action"`
	Severity       models.Severity       `json:"severity"`
}

// NewEvent builds the event for rec with a fresh event id.
func NewEvent(rec *models.AuditRecord) Event {
	status := StatusSafe
	if rec.Detected {
		status = StatusAttack
	}
	return Event{
		EventID:        uuid.NewString(),
		AuditRecordID:  rec.ID,
		Timestamp:      rec.Timestamp,
		SourceIP:       rec.SourceIP,
		Status:         status,
		AttackType:     rec.AttackType,
		PayloadSnippet: util.Truncate(rec.Payload, inspect.SnippetLength),
		Action:         rec.Action,
		Severity:       rec.Severity,
	}
}
