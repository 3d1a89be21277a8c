package odns

import (
	"errors"
	"fmt"
	"strings"
)

// Rule maps query names to a fixed set of answer records.
type Rule struct {
	Name    NameMatcher
	Records []RecordSpec
}

// NewRule returns a rule for a name pattern of the given kind (see
// NewNameMatcher) and at least one record.
func NewRule(kind, pattern string, records ...RecordSpec) (*Rule, error) {
	if len(records) == 0 {
		return nil, errors.New("no records defined for rule")
	}
	for _, rec := range records {
		if rec.rr == nil {
			return nil, fmt.Errorf("uninitialized record %s, use NewRecordSpec", rec)
		}
	}
	m, err := NewNameMatcher(kind, pattern)
	if err != nil {
		return nil, err
	}
	return &Rule{Name: m, Records: records}, nil
}

func (r *Rule) String() string {
	var rs []string
	for _, rec := range r.Records {
		rs = append(rs, rec.String())
	}
	return fmt.Sprintf("%s->[%s]", r.Name, strings.Join(rs, ";"))
}

// RuleTable is an ordered, read-only list of rules. The first rule that
// matches a name wins. It's safe for concurrent use.
type RuleTable struct {
	rules []*Rule
}

// NewRuleTable returns a table with the rules in the given order.
func NewRuleTable(rules ...*Rule) *RuleTable {
	return &RuleTable{rules: append([]*Rule(nil), rules...)}
}

// Match returns the first rule matching the name. False means the name should
// be forwarded upstream.
func (t *RuleTable) Match(name string) (*Rule, bool) {
	if t == nil {
		return nil, false
	}
	for _, r := range t.rules {
		if r.Name.Match(name) {
			return r, true
		}
	}
	return nil, false
}

// Len returns the number of rules in the table.
func (t *RuleTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}

func (t *RuleTable) String() string {
	var rs []string
	for _, r := range t.Rules() {
		rs = append(rs, r.String())
	}
	return fmt.Sprintf("Rules(%s)", strings.Join(rs, ";"))
}

// Rules returns the rules in match order.
func (t *RuleTable) Rules() []*Rule {
	if t == nil {
		return nil
	}
	return append([]*Rule(nil), t.rules...)
}
