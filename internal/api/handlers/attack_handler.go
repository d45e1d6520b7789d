package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cyberguard/backend/internal/api/middleware"
	"github.com/cyberguard/backend/internal/guard"
	"github.com/cyberguard/backend/internal/models"
	"github.com/cyberguard/backend/internal/services"
)

const ransomwareMessage = "Simulated Ransomware Attack Triggered! Your 'files' are now encrypted. Pay 1 BTC to recover."

// AttackHandler serves the deliberately vulnerable demonstration endpoints.
// Every route sits behind the guard, so a handler only runs for requests
// the guard allowed.
type AttackHandler struct {
	audit     *services.AuditService
	publisher guard.Publisher
}

func NewAttackHandler(audit *services.AuditService, publisher guard.Publisher) *AttackHandler {
	return &AttackHandler{audit: audit, publisher: publisher}
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type commentRequest struct {
	Comment string `json:"comment" form:"comment"`
}

// inspectionFields describes what the guard concluded for the response body.
func inspectionFields(c *gin.Context) (gin.H, *guard.Inspection) {
	in, ok := guard.FromContext(c)
	if !ok {
		return gin.H{
			"detectedByMiddleware": false,
			"attackType":           models.CategoryNormal,
			"severity":             models.SeverityLow,
			"suggestedMitigation":  "",
		}, nil
	}
	return gin.H{
		"detectedByMiddleware": in.Result.Matched,
		"attackType":           in.Record.AttackType,
		"severity":             in.Record.Severity,
		"suggestedMitigation":  in.Record.SuggestedMitigation,
	}, in
}

func allowedDetection(in *guard.Inspection) bool {
	return in != nil && in.Result.Matched && in.Record.Action == models.ActionAllowed
}

// SQLInjection simulates a login form with two hard-coded demo accounts.
func (h *AttackHandler) SQLInjection(c *gin.Context) {
	var req loginRequest
	_ = c.ShouldBind(&req)

	var message string
	compromised := true
	switch {
	case req.Username == "admin" && req.Password == "password123":
		message = "Login Successful (Simulated Admin access)."
	case req.Username == "user" && req.Password == "pass":
		message = "Login Successful (Simulated User access)."
	default:
		message = "Invalid Credentials (Simulated)."
		compromised = false
	}

	resp, in := inspectionFields(c)
	if allowedDetection(in) {
		message = "Attack detected but allowed (for demonstration): " + string(in.Record.AttackType) + ". " + message
		compromised = true
	}
	resp["message"] = message
	resp["compromised"] = compromised
	c.JSON(http.StatusOK, resp)
}

// XSS echoes a submitted comment back unescaped.
func (h *AttackHandler) XSS(c *gin.Context) {
	var req commentRequest
	_ = c.ShouldBind(&req)

	message := "Your comment received: " + req.Comment
	resp, in := inspectionFields(c)
	compromised := false
	if allowedDetection(in) {
		message = "Attack detected but allowed (for demonstration): " + string(in.Record.AttackType) +
			". Your comment (potentially malicious) received: " + req.Comment
		compromised = true
	}
	resp["message"] = message
	resp["compromised"] = compromised
	resp["rawComment"] = req.Comment
	c.JSON(http.StatusOK, resp)
}

// RansomwareTrigger completes the ransomware demonstration: the audit record
// the guard stored is finalized as Simulated Encrypt and announced again.
func (h *AttackHandler) RansomwareTrigger(c *gin.Context) {
	resp, in := inspectionFields(c)

	switch {
	case in != nil && in.Result.Matched && in.Record.AttackType == models.CategoryRansomware:
		rec, err := h.audit.Finalize(c.Request.Context(), in.Record.ID, ransomwareMessage)
		if err != nil {
			middleware.GetRequestLogger(c).WithError(err).WithField("audit_record_id", in.Record.ID).Error("failed to finalize ransomware record")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to finalize ransomware simulation"})
			return
		}
		h.publisher.Publish(rec)
		resp["message"] = ransomwareMessage
		resp["compromised"] = true
		resp["action"] = rec.Action
	case in != nil && !in.Result.Matched:
		resp["message"] = "Ransomware trigger received but no attack detected by middleware."
		resp["compromised"] = false
	default:
		resp["message"] = "Unexpected request to ransomware trigger endpoint."
		resp["compromised"] = false
	}
	c.JSON(http.StatusOK, resp)
}

// SafeRequest echoes the request body.
func (h *AttackHandler) SafeRequest(c *gin.Context) {
	var echo interface{}
	if err := c.ShouldBindJSON(&echo); err != nil {
		echo = map[string]interface{}{}
	}

	resp, _ := inspectionFields(c)
	delete(resp, "suggestedMitigation")
	resp["message"] = "Success! Safe request processed."
	resp["echo"] = echo
	c.JSON(http.StatusOK, resp)
}
