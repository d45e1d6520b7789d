package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"gorm.io/gorm"

	"github.com/cyberguard/backend/internal/models"
)

var (
	ErrAuditRecordNotFound = errors.New("audit record not found")
	ErrAlreadyFinalized    = errors.New("audit record cannot be finalized")
)

// PersistenceError reports that an audit write did not complete. The
// request that produced it must not be served.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("audit %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// AuditService owns the audit_records table: the single write per inspected
// request, the ransomware finalization and every read of the log.
type AuditService struct {
	db      *gorm.DB
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker
}

// NewAuditService bounds each write by timeout.
func NewAuditService(db *gorm.DB, timeout time.Duration) *AuditService {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "audit-store",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})
	return &AuditService{db: db, timeout: timeout, cb: cb}
}

// write runs fn once inside the breaker with the write timeout applied.
func (s *AuditService) write(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		wctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return nil, fn(s.db.WithContext(wctx))
	})
	if err != nil {
		return &PersistenceError{Op: op, Err: err}
	}
	return nil
}

// Record stores rec exactly as given and fills in its ID. There are no
// retries: one failed attempt is a PersistenceError.
func (s *AuditService) Record(ctx context.Context, rec *models.AuditRecord) error {
	return s.write(ctx, "record", func(tx *gorm.DB) error {
		return tx.Create(rec).Error
	})
}

// Finalize moves an allowed ransomware record to the terminal Simulated
// Encrypt action and stores message as its response. It succeeds at most
// once per record.
func (s *AuditService) Finalize(ctx context.Context, id uint, message string) (*models.AuditRecord, error) {
	var affected int64
	err := s.write(ctx, "finalize", func(tx *gorm.DB) error {
		res := tx.Model(&models.AuditRecord{}).
			Where("id = ? AND attack_type = ? AND action = ?", id, models.CategoryRansomware, models.ActionAllowed).
			Updates(map[string]interface{}{
				"action":           models.ActionSimulatedEncrypt,
				"response_message": message,
			})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return nil, err
	}

	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrAlreadyFinalized
	}
	return rec, nil
}

// Get returns a single record.
func (s *AuditService) Get(ctx context.Context, id uint) (*models.AuditRecord, error) {
	var rec models.AuditRecord
	if err := s.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAuditRecordNotFound
		}
		return nil, fmt.Errorf("get audit record %d: %w", id, err)
	}
	return &rec, nil
}

// LogPage is one page of query results.
type LogPage struct {
	Logs  []models.AuditRecord `json:"logs"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Pages int                  `json:"pages"`
	Limit int                  `json:"limit"`
}

// Query returns the records matching f, newest first.
func (s *AuditService) Query(ctx context.Context, f LogFilter) (*LogPage, error) {
	f = f.normalize()

	q := s.db.WithContext(ctx).Model(&models.AuditRecord{})
	if f.AttackType != "" {
		q = q.Where("attack_type = ?", f.AttackType)
	}
	if f.Severity != "" {
		q = q.Where("severity = ?", f.Severity)
	}
	if f.Detected != nil {
		q = q.Where("detected = ?", *f.Detected)
	}
	if f.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(f.Search)) + "%"
		q = q.Where("search_text LIKE ? ESCAPE '\\'", pattern)
	}
	if f.StartDate != nil {
		q = q.Where("timestamp >= ?", f.StartDate.UTC())
	}
	if f.EndDate != nil {
		q = q.Where("timestamp <= ?", f.EndDate.UTC())
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count audit records: %w", err)
	}

	logs := make([]models.AuditRecord, 0, f.Limit)
	if offset, ok := f.offset(); ok && int64(offset) < total {
		if err := q.Order("timestamp desc").Order("id desc").
			Offset(offset).Limit(f.Limit).
			Find(&logs).Error; err != nil {
			return nil, fmt.Errorf("query audit records: %w", err)
		}
	}

	pages := int((total + int64(f.Limit) - 1) / int64(f.Limit))
	if pages < 1 {
		pages = 1
	}
	return &LogPage{
		Logs:  logs,
		Total: total,
		Page:  f.currentPage(),
		Pages: pages,
		Limit: f.Limit,
	}, nil
}

// Summary aggregates the records stored since the given time.
type Summary struct {
	Since      time.Time                       `json:"since"`
	Total      int64                           `json:"total"`
	Detected   int64                           `json:"detected"`
	Blocked    int64                           `json:"blocked"`
	ByCategory map[models.AttackCategory]int64 `json:"byCategory"`
	BySeverity map[models.Severity]int64       `json:"bySeverity"`
}

type groupCount struct {
	GroupKey string
	Count    int64
}

// Summary counts records since the given time by category and severity.
func (s *AuditService) Summary(ctx context.Context, since time.Time) (*Summary, error) {
	since = since.UTC()
	base := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.AuditRecord{}).Where("timestamp >= ?", since)
	}

	out := &Summary{
		Since:      since,
		ByCategory: make(map[models.AttackCategory]int64, len(models.AllCategories)),
		BySeverity: make(map[models.Severity]int64, 4),
	}
	for _, c := range models.AllCategories {
		out.ByCategory[c] = 0
	}

	if err := base().Count(&out.Total).Error; err != nil {
		return nil, fmt.Errorf("summary total: %w", err)
	}
	if err := base().Where("detected = ?", true).Count(&out.Detected).Error; err != nil {
		return nil, fmt.Errorf("summary detected: %w", err)
	}
	if err := base().Where("action = ?", models.ActionBlocked).Count(&out.Blocked).Error; err != nil {
		return nil, fmt.Errorf("summary blocked: %w", err)
	}

	var rows []groupCount
	if err := base().Select("attack_type AS group_key, COUNT(*) AS count").Group("attack_type").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("summary by category: %w", err)
	}
	for _, r := range rows {
		out.ByCategory[models.AttackCategory(r.GroupKey)] = r.Count
	}

	rows = nil
	if err := base().Select("severity AS group_key, COUNT(*) AS count").Group("severity").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("summary by severity: %w", err)
	}
	for _, r := range rows {
		out.BySeverity[models.Severity(r.GroupKey)] = r.Count
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
