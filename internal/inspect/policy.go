package inspect

import "github.com/cyberguard/backend/internal/models"

// Decision is what the pipeline does about a classification.
type Decision struct {
	Severity        models.Severity
	Action          models.Action
	Mitigation      string
	ResponseMessage string
}

var policyTable = map[models.AttackCategory]Decision{
	models.CategoryNormal: {
		Severity:        models.SeverityLow,
		Action:          models.ActionAllowed,
		ResponseMessage: "Request Processed Safely.",
	},
	models.CategorySQLInjection: {
		Severity:        models.SeverityCritical,
		Action:          models.ActionBlocked,
		Mitigation:      "Use parameterized queries or ORM for database interactions.",
		ResponseMessage: "Attack Detected: SQL Injection!",
	},
	models.CategoryXSS: {
		Severity:        models.SeverityHigh,
		Action:          models.ActionBlocked,
		Mitigation:      "Sanitize and encode all user-supplied input before rendering it.",
		ResponseMessage: "Attack Detected: Cross-Site Scripting!",
	},
	// Allowed on purpose: the ransomware demonstration handler downstream
	// finalizes the record as Simulated Encrypt.
	models.CategoryRansomware: {
		Severity:        models.SeverityCritical,
		Action:          models.ActionAllowed,
		Mitigation:      "Isolate compromised systems, restore from secure backups, implement robust access controls.",
		ResponseMessage: "Ransomware Simulation Triggered!",
	},
}

// Decide maps a classification to its decision. Categories without a row
// resolve to the Normal row.
func Decide(res ClassificationResult) Decision {
	if d, ok := policyTable[res.Category]; ok {
		return d
	}
	return policyTable[models.CategoryNormal]
}
