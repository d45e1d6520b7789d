package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// AttackCategory is the closed set of categories the classifier can produce.
type AttackCategory string

const (
	CategoryNormal       AttackCategory = "Normal Request"
	CategorySQLInjection AttackCategory = "SQL Injection"
	CategoryXSS          AttackCategory = "Cross-Site Scripting (XSS)"
	CategoryRansomware   AttackCategory = "Ransomware Simulation"
)

// AllCategories lists every category in classification priority order,
// followed by the Normal fallback.
var AllCategories = []AttackCategory{
	CategorySQLInjection,
	CategoryXSS,
	CategoryRansomware,
	CategoryNormal,
}

// ParseCategory matches s against the known categories, ignoring case.
func ParseCategory(s string) (AttackCategory, bool) {
	for _, c := range AllCategories {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, true
		}
	}
	return "", false
}

// Severity is ordinal: Low < Medium < High < Critical.
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank returns the ordinal position of the severity, 0 for unknown values.
func (s Severity) Rank() int {
	return severityRank[s]
}

// AtLeast reports whether s is as severe as other.
func (s Severity) AtLeast(other Severity) bool {
	return s.Rank() >= other.Rank()
}

// ParseSeverity matches s against the known severities, ignoring case.
func ParseSeverity(s string) (Severity, bool) {
	for sev := range severityRank {
		if strings.EqualFold(string(sev), strings.TrimSpace(s)) {
			return sev, true
		}
	}
	return "", false
}

// Action is the effect applied to an inspected request.
type Action string

const (
	ActionAllowed Action = "Allowed"
	ActionBlocked Action = "Blocked"
	// ActionSimulatedEncrypt is terminal; only Finalize may set it.
	ActionSimulatedEncrypt Action = "Simulated Encrypt"
)

// AuditRecord is the durable record of one inspected request's
// classification and decision. Rows are never updated except through
// AuditService.Finalize.
type AuditRecord struct {
	ID                  uint           `json:"id" gorm:"primaryKey"`
	Timestamp           time.Time      `json:"timestamp" gorm:"index"`
	SourceIP            string         `json:"sourceIP" gorm:"column:source_ip;index"`
	AttackType          AttackCategory `json:"attackType" gorm:"index"`
	Payload             string         `json:"payload" gorm:"type:text"`
	Detected            bool           `json:"detected" gorm:"index"`
	Action              Action         `json:"action"`
	DetectionRule       string         `json:"detectionRule"`
	Severity            Severity       `json:"severity" gorm:"index"`
	SuggestedMitigation string         `json:"suggestedMitigation" gorm:"type:text"`
	ResponseMessage     string         `json:"responseMessage" gorm:"type:text"`
	TargetURL           string         `json:"targetUrl" gorm:"column:target_url"`
	UserAgent           string         `json:"userAgent"`
	// SearchText is the case-folded payload and source IP that log search
	// matches against. SQLite's LOWER only folds ASCII.
	SearchText string `json:"-" gorm:"type:text"`
}

// TableName keeps the table name stable regardless of struct renames.
func (AuditRecord) TableName() string {
	return "audit_records"
}

// BeforeCreate fills SearchText. Payload and source IP never change after
// the row is written.
func (r *AuditRecord) BeforeCreate(tx *gorm.DB) error {
	r.SearchText = strings.ToLower(r.Payload + "\n" + r.SourceIP)
	return nil
}
