package repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"crm/entity"
	"crm/pkg/goutil"
)

func newRule(field, op, value string) *entity.Rule {
	return &entity.Rule{
		Field: goutil.String(field),
		Op:    goutil.String(op),
		Value: goutil.String(value),
	}
}

func TestBuildSegmentQueryAnd(t *testing.T) {
	segment := &entity.Segment{
		Operator: goutil.String(entity.QueryOpAnd),
		Rules: []*entity.Rule{
			newRule("segment", entity.RuleOpEq, "Active"),
			newRule("totalSpend", entity.RuleOpGt, "20000"),
		},
	}

	query, err := BuildSegmentQuery(segment)
	assert.Nil(t, err)

	boolQuery := query["bool"].(map[string]interface{})
	clauses := boolQuery["must"].([]interface{})
	assert.Equal(t, 2, len(clauses))

	// exact match on an analyzed text field goes through the keyword subfield
	term := clauses[0].(map[string]interface{})["term"].(map[string]interface{})
	assert.Equal(t, "Active", term["segment.keyword"])

	rng := clauses[1].(map[string]interface{})["range"].(map[string]interface{})
	assert.Equal(t, float64(20000), rng["total_spend"].(map[string]interface{})["gt"])
}

func TestBuildSegmentQueryOr(t *testing.T) {
	segment := &entity.Segment{
		Operator: goutil.String(entity.QueryOpOr),
		Rules: []*entity.Rule{
			newRule("segment", entity.RuleOpEq, "Active"),
			newRule("visitCount", entity.RuleOpGte, "3"),
		},
	}

	query, err := BuildSegmentQuery(segment)
	assert.Nil(t, err)

	boolQuery := query["bool"].(map[string]interface{})
	assert.Equal(t, 1, boolQuery["minimum_should_match"])
	assert.Equal(t, 2, len(boolQuery["should"].([]interface{})))
}

func TestBuildSegmentQueryNotEqual(t *testing.T) {
	segment := &entity.Segment{
		Operator: goutil.String(entity.QueryOpAnd),
		Rules: []*entity.Rule{
			newRule("segment", entity.RuleOpNeq, "Inactive"),
		},
	}

	query, err := BuildSegmentQuery(segment)
	assert.Nil(t, err)

	clauses := query["bool"].(map[string]interface{})["must"].([]interface{})
	mustNot := clauses[0].(map[string]interface{})["bool"].(map[string]interface{})["must_not"].([]interface{})
	term := mustNot[0].(map[string]interface{})["term"].(map[string]interface{})
	assert.Equal(t, "Inactive", term["segment.keyword"])
}

func TestBuildCustomerFilterQuerySegmentKeyword(t *testing.T) {
	query := buildCustomerFilterQuery(&CustomerFilter{Segment: goutil.String("Active")})

	clauses := query["bool"].(map[string]interface{})["must"].([]interface{})
	term := clauses[0].(map[string]interface{})["term"].(map[string]interface{})
	assert.Equal(t, "Active", term["segment.keyword"])
}

func TestBuildSegmentQueryNonNumericValue(t *testing.T) {
	segment := &entity.Segment{
		Operator: goutil.String(entity.QueryOpAnd),
		Rules: []*entity.Rule{
			newRule("totalSpend", entity.RuleOpGt, "lots"),
		},
	}

	_, err := BuildSegmentQuery(segment)
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "must be numeric")
}

func TestBuildSegmentQueryOrderingOnTextField(t *testing.T) {
	segment := &entity.Segment{
		Operator: goutil.String(entity.QueryOpAnd),
		Rules: []*entity.Rule{
			newRule("name", entity.RuleOpGt, "M"),
		},
	}

	_, err := BuildSegmentQuery(segment)
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "not allowed on field")
}

func TestBuildSegmentQueryUnknownOperator(t *testing.T) {
	segment := &entity.Segment{
		Operator: goutil.String(entity.QueryOpAnd),
		Rules: []*entity.Rule{
			newRule("segment", "~=", "Active"),
		},
	}

	_, err := BuildSegmentQuery(segment)
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "unknown rule operator")
}

func TestBuildSegmentQueryLastVisitRecency(t *testing.T) {
	before := float64(time.Now().Unix())

	query, err := BuildSegmentQuery(&entity.Segment{
		Operator: goutil.String(entity.QueryOpAnd),
		Rules:    []*entity.Rule{newRule("lastVisit", entity.RuleOpGte, "6")},
	})
	assert.Nil(t, err)

	after := float64(time.Now().Unix())

	clauses := query["bool"].(map[string]interface{})["must"].([]interface{})
	rng := clauses[0].(map[string]interface{})["range"].(map[string]interface{})["last_visit"].(map[string]interface{})

	// at least six months ago selects timestamps at or below the cutoff
	sixMonths := float64(6 * 30 * 24 * 60 * 60)
	cutoff := rng["lte"].(float64)
	assert.True(t, cutoff >= before-sixMonths)
	assert.True(t, cutoff <= after-sixMonths)
}

func TestBuildSegmentQueryLastVisitWithinMonths(t *testing.T) {
	query, err := BuildSegmentQuery(&entity.Segment{
		Operator: goutil.String(entity.QueryOpAnd),
		Rules:    []*entity.Rule{newRule("lastVisit", entity.RuleOpLt, "3")},
	})
	assert.Nil(t, err)

	clauses := query["bool"].(map[string]interface{})["must"].([]interface{})
	rng := clauses[0].(map[string]interface{})["range"].(map[string]interface{})["last_visit"].(map[string]interface{})

	// within the last three months selects timestamps above the cutoff
	_, ok := rng["gt"]
	assert.True(t, ok)
}

func TestBuildSegmentQueryLastVisitEquality(t *testing.T) {
	_, err := BuildSegmentQuery(&entity.Segment{
		Operator: goutil.String(entity.QueryOpAnd),
		Rules:    []*entity.Rule{newRule("lastVisit", entity.RuleOpEq, "6")},
	})
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "not allowed on field")
}

func TestBuildSegmentQueryInvalidSegment(t *testing.T) {
	_, err := BuildSegmentQuery(&entity.Segment{})
	assert.NotNil(t, err)

	_, err = BuildSegmentQuery(&entity.Segment{
		Operator: goutil.String("XOR"),
		Rules:    []*entity.Rule{newRule("segment", entity.RuleOpEq, "Active")},
	})
	assert.NotNil(t, err)

	_, err = BuildSegmentQuery(&entity.Segment{
		Operator: goutil.String(entity.QueryOpAnd),
		Rules:    []*entity.Rule{newRule("shoeSize", entity.RuleOpEq, "42")},
	})
	assert.NotNil(t, err)
}
