package inspect

import (
	"sync/atomic"

	"github.com/cyberguard/backend/internal/models"
	"github.com/cyberguard/backend/internal/util"
)

// Input is what the classifier sees of one request.
type Input struct {
	Payload string
	Path    string
}

// ClassificationResult is the outcome of evaluating one request. At most one
// category is ever selected.
type ClassificationResult struct {
	Matched  bool
	Category models.AttackCategory
	RuleID   string
	Snippet  string
}

// Classify evaluates in against the table: categories in priority order,
// rules in listed order, first match wins. Unmatched input is Normal.
func (rs *RuleSet) Classify(in Input) ClassificationResult {
	res := ClassificationResult{
		Category: models.CategoryNormal,
		Snippet:  util.Truncate(in.Payload, SnippetLength),
	}
	for _, g := range rs.groups {
		for _, r := range g.Rules {
			subject := in.Payload
			if r.Target == TargetPath {
				subject = in.Path
			}
			if r.Pattern.MatchString(subject) {
				res.Matched = true
				res.Category = g.Category
				res.RuleID = r.ID
				return res
			}
		}
	}
	return res
}

// Classifier is a handle to the active RuleSet. Swapping the set never
// affects a classification already in progress.
type Classifier struct {
	current atomic.Pointer[RuleSet]
}

// NewClassifier returns a Classifier using rs, or the built-in table when rs is nil.
func NewClassifier(rs *RuleSet) *Classifier {
	if rs == nil {
		rs = DefaultRuleSet()
	}
	c := &Classifier{}
	c.current.Store(rs)
	return c
}

// Classify evaluates in against the active RuleSet.
func (c *Classifier) Classify(in Input) ClassificationResult {
	return c.current.Load().Classify(in)
}

// RuleSet returns the active table.
func (c *Classifier) RuleSet() *RuleSet {
	return c.current.Load()
}

// Swap installs rs as the active table.
func (c *Classifier) Swap(rs *RuleSet) {
	if rs != nil {
		c.current.Store(rs)
	}
}
