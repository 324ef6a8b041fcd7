package handler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"crm/dep"
	"crm/entity"
	"crm/pkg/goutil"
)

// fakeTextGenService replies with a fixed decoded value or error.
type fakeTextGenService struct {
	reply func(out interface{}) error
}

func (s *fakeTextGenService) GenerateJSON(_ context.Context, _ string, out interface{}) error {
	return s.reply(out)
}

func (s *fakeTextGenService) Close(_ context.Context) error {
	return nil
}

func TestSuggestMessages(t *testing.T) {
	textGen := &fakeTextGenService{
		reply: func(out interface{}) error {
			suggestions := out.(*struct {
				Suggestions []*MessageSuggestion `json:"suggestions"`
			})
			suggestions.Suggestions = []*MessageSuggestion{
				{Subject: goutil.String("Big Sale"), Body: goutil.String("Hi [User Name]!")},
			}
			return nil
		},
	}
	h := NewAIHandler(textGen, newFakeCampaignRepo())

	res := new(SuggestMessagesResponse)
	err := h.SuggestMessages(context.Background(), &SuggestMessagesRequest{
		Objective: goutil.String("promote spring sale"),
		Type:      goutil.String(entity.CampaignTypeEmail),
	}, res)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(res.Suggestions))
	assert.Equal(t, "Big Sale", *res.Suggestions[0].Subject)
}

func TestSuggestMessagesMissingKey(t *testing.T) {
	textGen := &fakeTextGenService{
		reply: func(_ interface{}) error { return nil },
	}
	h := NewAIHandler(textGen, newFakeCampaignRepo())

	err := h.SuggestMessages(context.Background(), &SuggestMessagesRequest{
		Objective: goutil.String("promote spring sale"),
		Type:      goutil.String(entity.CampaignTypeEmail),
	}, new(SuggestMessagesResponse))
	assert.True(t, errors.Is(err, dep.ErrBadTextGenResponse))
}

func TestSuggestMessagesValidation(t *testing.T) {
	h := NewAIHandler(&fakeTextGenService{}, newFakeCampaignRepo())

	err := h.SuggestMessages(context.Background(), &SuggestMessagesRequest{
		Type: goutil.String("billboard"),
	}, new(SuggestMessagesResponse))
	assert.NotNil(t, err)
}

func TestConvertSegmentPrompt(t *testing.T) {
	textGen := &fakeTextGenService{
		reply: func(out interface{}) error {
			segment := out.(*entity.Segment)
			segment.Operator = goutil.String(entity.QueryOpAnd)
			segment.Rules = []*entity.Rule{
				{Field: goutil.String("totalSpend"), Op: goutil.String(entity.RuleOpGt), Value: goutil.String("10000")},
			}
			return nil
		},
	}
	h := NewAIHandler(textGen, newFakeCampaignRepo())

	res := new(ConvertSegmentPromptResponse)
	err := h.ConvertSegmentPrompt(context.Background(), &ConvertSegmentPromptRequest{
		Prompt: goutil.String("big spenders"),
	}, res)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(res.Segment.GetRules()))
	assert.Equal(t, "totalSpend", res.Segment.GetRules()[0].GetField())
}

func TestConvertSegmentPromptIncompleteReply(t *testing.T) {
	tests := []func(segment *entity.Segment){
		func(_ *entity.Segment) {},
		func(segment *entity.Segment) {
			segment.Rules = []*entity.Rule{{Field: goutil.String("totalSpend")}}
		},
		func(segment *entity.Segment) {
			segment.Operator = goutil.String(entity.QueryOpAnd)
			segment.Rules = []*entity.Rule{{Field: goutil.String("totalSpend"), Op: goutil.String(">")}}
		},
	}

	for _, fill := range tests {
		fill := fill
		textGen := &fakeTextGenService{
			reply: func(out interface{}) error {
				fill(out.(*entity.Segment))
				return nil
			},
		}
		h := NewAIHandler(textGen, newFakeCampaignRepo())

		err := h.ConvertSegmentPrompt(context.Background(), &ConvertSegmentPromptRequest{
			Prompt: goutil.String("big spenders"),
		}, new(ConvertSegmentPromptResponse))
		assert.True(t, errors.Is(err, dep.ErrBadTextGenResponse))
	}
}

func TestLookalikeSegment(t *testing.T) {
	h := NewAIHandler(&fakeTextGenService{}, newFakeCampaignRepo())

	res := new(LookalikeSegmentResponse)
	err := h.LookalikeSegment(context.Background(), &LookalikeSegmentRequest{
		Segment: &entity.Segment{
			Operator: goutil.String(entity.QueryOpAnd),
			Rules: []*entity.Rule{
				{Field: goutil.String("totalSpend"), Op: goutil.String(entity.RuleOpGt), Value: goutil.String("20000")},
				{Field: goutil.String("visitCount"), Op: goutil.String(entity.RuleOpGte), Value: goutil.String("5")},
				{Field: goutil.String("segment"), Op: goutil.String(entity.RuleOpEq), Value: goutil.String("Inactive")},
			},
		},
	}, res)
	assert.Nil(t, err)

	rules := res.Segment.GetRules()
	assert.Equal(t, 3, len(rules))

	// spend threshold relaxed by 20%
	assert.Equal(t, "totalSpend", rules[0].GetField())
	assert.Equal(t, entity.RuleOpGte, rules[0].GetOp())
	assert.Equal(t, "16000", rules[0].GetValue())

	// visit threshold lowered by one
	assert.Equal(t, "visitCount", rules[1].GetField())
	assert.Equal(t, "4", rules[1].GetValue())

	// non-active segment swapped for the active one
	assert.Equal(t, "segment", rules[2].GetField())
	assert.Equal(t, entity.CustomerSegmentActive, rules[2].GetValue())

	assert.NotEmpty(t, *res.Rationale)
}

func TestLookalikeSegmentFromCampaign(t *testing.T) {
	campaignRepo := newFakeCampaignRepo(&entity.Campaign{
		ID: goutil.Uint64(7),
		Segment: &entity.Segment{
			Operator: goutil.String(entity.QueryOpAnd),
			Rules: []*entity.Rule{
				{Field: goutil.String("segment"), Op: goutil.String(entity.RuleOpEq), Value: goutil.String("Active")},
			},
		},
	})
	h := NewAIHandler(&fakeTextGenService{}, campaignRepo)

	res := new(LookalikeSegmentResponse)
	err := h.LookalikeSegment(context.Background(), &LookalikeSegmentRequest{
		CampaignID: goutil.Uint64(7),
	}, res)
	assert.Nil(t, err)

	// an already-active segment falls back to the default visit rule
	rules := res.Segment.GetRules()
	assert.Equal(t, 1, len(rules))
	assert.Equal(t, "visitCount", rules[0].GetField())
	assert.Equal(t, entity.RuleOpGte, rules[0].GetOp())
	assert.Equal(t, "3", rules[0].GetValue())
}

func TestLookalikeSegmentMissingInput(t *testing.T) {
	h := NewAIHandler(&fakeTextGenService{}, newFakeCampaignRepo())

	err := h.LookalikeSegment(context.Background(), new(LookalikeSegmentRequest), new(LookalikeSegmentResponse))
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "segment data or valid campaign id is required")
}

func TestSchedulingSuggestions(t *testing.T) {
	h := NewAIHandler(&fakeTextGenService{}, newFakeCampaignRepo())

	res := new(SchedulingSuggestionsResponse)
	err := h.SchedulingSuggestions(context.Background(), new(SchedulingSuggestionsRequest), res)
	assert.Nil(t, err)
	assert.Equal(t, "Tuesday", *res.SuggestedDay)
	assert.Equal(t, "10:30 AM", *res.SuggestedTime)
}
