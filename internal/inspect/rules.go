package inspect

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/cyberguard/backend/internal/models"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// Target selects the request attribute a rule inspects.
type Target string

const (
	TargetPayload Target = "payload"
	TargetPath    Target = "path"
)

// Rule is one compiled signature.
type Rule struct {
	ID      string
	Target  Target
	Pattern *regexp.Regexp
}

// Group is the ordered rule list of a single category.
type Group struct {
	Category models.AttackCategory
	Rules    []Rule
}

// RuleSet is an immutable, ordered signature table. Groups are sorted by
// category priority; it is safe for concurrent use.
type RuleSet struct {
	groups []Group
}

// Groups returns the groups in evaluation order.
func (rs *RuleSet) Groups() []Group {
	return rs.groups
}

type ruleDocument struct {
	Categories []struct {
		Category string `yaml:"category"`
		Rules    []struct {
			ID      string `yaml:"id"`
			Target  string `yaml:"target"`
			Pattern string `yaml:"pattern"`
		} `yaml:"rules"`
	} `yaml:"categories"`
}

var errNoRules = errors.New("rule document defines no rules")

// DefaultRuleSet returns the built-in signature table.
func DefaultRuleSet() *RuleSet {
	rs, err := ParseRuleSet(defaultRulesYAML, nil)
	if err != nil {
		panic(fmt.Sprintf("built-in rule table is invalid: %v", err))
	}
	return rs
}

// LoadRuleSet reads an override document from path and layers it over the
// built-in table: every category it names has its rule list replaced. A
// category listed with no rules is disabled.
func LoadRuleSet(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule file: %w", err)
	}
	return ParseRuleSet(data, DefaultRuleSet())
}

// ParseRuleSet compiles a rule document. Categories absent from the document
// are taken from base when base is non-nil.
func ParseRuleSet(data []byte, base *RuleSet) (*RuleSet, error) {
	var doc ruleDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse rule document: %w", err)
	}

	byCategory := make(map[models.AttackCategory]Group)
	if base != nil {
		for _, g := range base.groups {
			byCategory[g.Category] = g
		}
	}

	seenCategory := make(map[models.AttackCategory]bool)
	seenID := make(map[string]bool)
	for _, dc := range doc.Categories {
		cat, ok := models.ParseCategory(dc.Category)
		if !ok || cat == models.CategoryNormal {
			return nil, fmt.Errorf("unknown attack category %q", dc.Category)
		}
		if seenCategory[cat] {
			return nil, fmt.Errorf("category %q listed twice", cat)
		}
		seenCategory[cat] = true

		group := Group{Category: cat}
		for _, dr := range dc.Rules {
			if dr.ID == "" {
				return nil, fmt.Errorf("category %q: rule without id", cat)
			}
			if seenID[dr.ID] {
				return nil, fmt.Errorf("duplicate rule id %q", dr.ID)
			}
			seenID[dr.ID] = true

			target := Target(dr.Target)
			if target == "" {
				target = TargetPayload
			}
			if target != TargetPayload && target != TargetPath {
				return nil, fmt.Errorf("rule %q: unknown target %q", dr.ID, dr.Target)
			}
			if dr.Pattern == "" {
				return nil, fmt.Errorf("rule %q: empty pattern", dr.ID)
			}
			re, err := regexp.Compile(dr.Pattern)
			if err != nil {
				return nil, fmt.Errorf("rule %q: %w", dr.ID, err)
			}
			group.Rules = append(group.Rules, Rule{ID: dr.ID, Target: target, Pattern: re})
		}
		byCategory[cat] = group
	}

	rs := &RuleSet{}
	for _, g := range byCategory {
		if len(g.Rules) > 0 {
			rs.groups = append(rs.groups, g)
		}
	}
	if len(rs.groups) == 0 {
		return nil, errNoRules
	}
	sort.Slice(rs.groups, func(i, j int) bool {
		return priority(rs.groups[i].Category) < priority(rs.groups[j].Category)
	})
	return rs, nil
}

func priority(c models.AttackCategory) int {
	for i, known := range models.AllCategories {
		if known == c {
			return i
		}
	}
	return len(models.AllCategories)
}
