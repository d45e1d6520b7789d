// Package guard inspects inbound requests before they reach a handler:
// every request is classified, decided, durably recorded and broadcast,
// and then either blocked or let through.
package guard

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/cyberguard/backend/internal/api/middleware"
	"github.com/cyberguard/backend/internal/broadcast"
	"github.com/cyberguard/backend/internal/inspect"
	"github.com/cyberguard/backend/internal/metrics"
	"github.com/cyberguard/backend/internal/models"
)

const (
	unknownIP        = "Unknown IP"
	unknownUserAgent = "Unknown User-Agent"
	inspectionKey    = "inspection"
)

// Recorder durably stores audit records.
type Recorder interface {
	Record(ctx context.Context, rec *models.AuditRecord) error
}

// Publisher announces stored records to observers.
type Publisher interface {
	Publish(rec *models.AuditRecord) broadcast.Event
}

// Inspection is what the guard learned about an allowed request. Handlers
// read it with FromContext.
type Inspection struct {
	Result   inspect.ClassificationResult
	Decision inspect.Decision
	Record   *models.AuditRecord
}

// Guard runs the inspection pipeline.
type Guard struct {
	classifier *inspect.Classifier
	recorder   Recorder
	publisher  Publisher
	maxBody    int64
	now        func() time.Time
}

// New wires a guard. Bodies larger than maxBody are inspected up to
// maxBody bytes and passed on whole.
func New(classifier *inspect.Classifier, recorder Recorder, publisher Publisher, maxBody int64) *Guard {
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	return &Guard{
		classifier: classifier,
		recorder:   recorder,
		publisher:  publisher,
		maxBody:    maxBody,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Middleware returns the gin handler enforcing the guard. A request is
// only served or blocked after its audit record is stored; if storing
// fails the request is answered with 500 and nothing is broadcast.
func (g *Guard) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := g.readBody(c.Request)
		if err != nil {
			middleware.GetRequestLogger(c).WithError(err).Warn("failed to read request body")
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
			return
		}

		payload := inspect.Serialize(c.ContentType(), body, c.Request.URL.Query())
		result := g.classifier.Classify(inspect.Input{Payload: payload, Path: c.Request.URL.Path})
		decision := inspect.Decide(result)
		rec := g.buildRecord(c, payload, result, decision)

		log := middleware.GetRequestLogger(c).WithFields(logrus.Fields{
			"source_ip":   rec.SourceIP,
			"attack_type": rec.AttackType,
			"rule":        rec.DetectionRule,
			"action":      rec.Action,
			"severity":    rec.Severity,
		})

		if err := g.recorder.Record(c.Request.Context(), rec); err != nil {
			metrics.IncPersistFailure()
			log.WithError(err).Error("audit record not stored; refusing request")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to record request audit log"})
			return
		}
		metrics.IncInspection(string(rec.AttackType), string(rec.Action))
		g.publisher.Publish(rec)

		if decision.Action == models.ActionBlocked {
			log.WithField("audit_record_id", rec.ID).Warn("blocked request")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"message":             decision.ResponseMessage,
				"detected":            true,
				"attackType":          rec.AttackType,
				"severity":            rec.Severity,
				"suggestedMitigation": rec.SuggestedMitigation,
				"auditRecordId":       rec.ID,
			})
			return
		}

		if result.Matched {
			log.WithField("audit_record_id", rec.ID).Warn("detected request allowed")
		}
		c.Set(inspectionKey, &Inspection{Result: result, Decision: decision, Record: rec})
		c.Next()
	}
}

func (g *Guard) buildRecord(c *gin.Context, payload string, result inspect.ClassificationResult, decision inspect.Decision) *models.AuditRecord {
	ip := c.ClientIP()
	if ip == "" {
		ip = unknownIP
	}
	ua := c.Request.UserAgent()
	if ua == "" {
		ua = unknownUserAgent
	}
	return &models.AuditRecord{
		Timestamp:           g.now(),
		SourceIP:            ip,
		AttackType:          result.Category,
		Payload:             payload,
		Detected:            result.Matched,
		Action:              decision.Action,
		DetectionRule:       result.RuleID,
		Severity:            decision.Severity,
		SuggestedMitigation: decision.Mitigation,
		ResponseMessage:     decision.ResponseMessage,
		TargetURL:           c.Request.URL.RequestURI(),
		UserAgent:           ua,
	}
}

// readBody returns up to maxBody bytes of the body and leaves the full
// body readable for downstream handlers.
func (g *Guard) readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	head, err := io.ReadAll(io.LimitReader(r.Body, g.maxBody))
	if err != nil {
		return nil, err
	}
	r.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(head), r.Body), Closer: r.Body}
	return head, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

// FromContext returns the inspection stored by the guard for an allowed
// request.
func FromContext(c *gin.Context) (*Inspection, bool) {
	v, ok := c.Get(inspectionKey)
	if !ok {
		return nil, false
	}
	in, ok := v.(*Inspection)
	return in, ok
}
