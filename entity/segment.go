package entity

import (
	"crm/pkg/errutil"
	"fmt"
)

const (
	QueryOpAnd = "AND"
	QueryOpOr  = "OR"
)

const (
	RuleOpGt  = ">"
	RuleOpLt  = "<"
	RuleOpGte = ">="
	RuleOpLte = "<="
	RuleOpEq  = "=="
	RuleOpNeq = "!="
)

// RuleFieldLastVisit rules carry a recency value in months, compared
// against the stored last-visit timestamp.
const RuleFieldLastVisit = "lastVisit"

// ruleFields maps the rule field names accepted from clients to the
// customer store field they target. Numeric fields additionally allow
// the ordering operators.
var ruleFields = map[string]string{
	"name":             "name",
	"email":            "email",
	"phone":            "phone",
	"segment":          "segment",
	"totalSpend":       "total_spend",
	"visitCount":       "visit_count",
	RuleFieldLastVisit: "last_visit",
}

var numericRuleFields = map[string]bool{
	"totalSpend": true,
	"visitCount": true,
}

func IsNumericRuleField(field string) bool {
	return numericRuleFields[field]
}

// StoreField resolves a rule field name to the customer store field it
// queries. The second return is false for unknown fields.
func StoreField(field string) (string, bool) {
	f, ok := ruleFields[field]
	return f, ok
}

type Rule struct {
	Field *string `json:"field,omitempty"`
	Op    *string `json:"operator,omitempty"`
	Value *string `json:"value,omitempty"`
}

func (r *Rule) GetField() string {
	if r != nil && r.Field != nil {
		return *r.Field
	}
	return ""
}

func (r *Rule) GetOp() string {
	if r != nil && r.Op != nil {
		return *r.Op
	}
	return ""
}

func (r *Rule) GetValue() string {
	if r != nil && r.Value != nil {
		return *r.Value
	}
	return ""
}

type Segment struct {
	Rules    []*Rule `json:"rules,omitempty"`
	Operator *string `json:"operator,omitempty"`
}

func (s *Segment) GetRules() []*Rule {
	if s != nil && s.Rules != nil {
		return s.Rules
	}
	return nil
}

func (s *Segment) GetOperator() string {
	if s != nil && s.Operator != nil {
		return *s.Operator
	}
	return ""
}

// Validate checks the structural shape of the segment. Per-rule operator
// and value checks happen when the query is built against the customer
// store.
func (s *Segment) Validate() error {
	if s == nil || len(s.Rules) == 0 {
		return errutil.ValidationError(fmt.Errorf("segment must have at least one rule"))
	}

	op := s.GetOperator()
	if op != QueryOpAnd && op != QueryOpOr {
		return errutil.ValidationError(fmt.Errorf("invalid segment operator: %s", op))
	}

	for i, r := range s.Rules {
		if r == nil || r.GetField() == "" {
			return errutil.ValidationError(fmt.Errorf("rule %d has no field", i))
		}
		if _, ok := StoreField(r.GetField()); !ok {
			return errutil.ValidationError(fmt.Errorf("unknown rule field: %s", r.GetField()))
		}
	}

	return nil
}
