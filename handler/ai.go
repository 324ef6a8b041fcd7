package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"crm/dep"
	"crm/entity"
	"crm/pkg/errutil"
	"crm/pkg/goutil"
	"crm/pkg/validator"
	"crm/repo"
)

type AIHandler interface {
	SuggestMessages(ctx context.Context, req *SuggestMessagesRequest, res *SuggestMessagesResponse) error
	ConvertSegmentPrompt(ctx context.Context, req *ConvertSegmentPromptRequest, res *ConvertSegmentPromptResponse) error
	LookalikeSegment(ctx context.Context, req *LookalikeSegmentRequest, res *LookalikeSegmentResponse) error
	SchedulingSuggestions(ctx context.Context, req *SchedulingSuggestionsRequest, res *SchedulingSuggestionsResponse) error
}

type aiHandler struct {
	textGenService dep.TextGenService
	campaignRepo   repo.CampaignRepo
}

func NewAIHandler(textGenService dep.TextGenService, campaignRepo repo.CampaignRepo) AIHandler {
	return &aiHandler{
		textGenService: textGenService,
		campaignRepo:   campaignRepo,
	}
}

type MessageSuggestion struct {
	Subject *string `json:"subject,omitempty"`
	Body    *string `json:"body,omitempty"`
}

type SuggestMessagesRequest struct {
	Objective *string `json:"objective,omitempty"`
	Type      *string `json:"type,omitempty"`
}

func (r *SuggestMessagesRequest) GetObjective() string {
	if r != nil && r.Objective != nil {
		return *r.Objective
	}
	return ""
}

func (r *SuggestMessagesRequest) GetType() string {
	if r != nil && r.Type != nil {
		return *r.Type
	}
	return ""
}

type SuggestMessagesResponse struct {
	Suggestions []*MessageSuggestion `json:"suggestions"`
}

var SuggestMessagesValidator = validator.MustForm(map[string]validator.Validator{
	"objective": &validator.String{
		MinLen: 1,
		MaxLen: 500,
	},
	"type": &validator.String{
		In: entity.CampaignTypes,
	},
})

func (h *aiHandler) SuggestMessages(ctx context.Context, req *SuggestMessagesRequest, res *SuggestMessagesResponse) error {
	if err := SuggestMessagesValidator.Validate(req); err != nil {
		return err
	}

	var prompt string
	switch req.GetType() {
	case entity.CampaignTypeEmail:
		prompt = fmt.Sprintf(`Generate 3 distinct email marketing message suggestions for a campaign with the objective: %q. Each suggestion should include a subject line and email body. The email body should be professional and include placeholders like [User Name] and [Your Company Name]. Provide the response in JSON format with a top-level key "suggestions" which is an array of JSON objects, each having "subject" and "body" keys.`, req.GetObjective())
	case entity.CampaignTypeSocial:
		prompt = fmt.Sprintf(`Generate 3 distinct social media post suggestions for a campaign with the objective: %q. Each suggestion should include a catchy headline and engaging post content. The content should be concise, social-friendly, and include placeholders like [Your Company Name]. Provide the response in JSON format with a top-level key "suggestions" which is an array of JSON objects, each having "subject" (headline) and "body" (post content) keys.`, req.GetObjective())
	default:
		prompt = fmt.Sprintf(`Generate 3 distinct display ad suggestions for a campaign with the objective: %q. Each suggestion should include a headline and ad copy. The copy should be concise, attention-grabbing, and include placeholders like [Your Company Name]. Provide the response in JSON format with a top-level key "suggestions" which is an array of JSON objects, each having "subject" (headline) and "body" (ad copy) keys.`, req.GetObjective())
	}

	var out struct {
		Suggestions []*MessageSuggestion `json:"suggestions"`
	}
	if err := h.textGenService.GenerateJSON(ctx, prompt, &out); err != nil {
		log.Ctx(ctx).Error().Msgf("suggest messages failed, err: %v", err)
		return err
	}

	if out.Suggestions == nil {
		return fmt.Errorf("%w: missing suggestions key", dep.ErrBadTextGenResponse)
	}

	res.Suggestions = out.Suggestions

	return nil
}

type ConvertSegmentPromptRequest struct {
	Prompt *string `json:"prompt,omitempty"`
}

func (r *ConvertSegmentPromptRequest) GetPrompt() string {
	if r != nil && r.Prompt != nil {
		return *r.Prompt
	}
	return ""
}

type ConvertSegmentPromptResponse struct {
	Segment *entity.Segment `json:"segment"`
}

var ConvertSegmentPromptValidator = validator.MustForm(map[string]validator.Validator{
	"prompt": &validator.String{
		MinLen: 1,
		MaxLen: 500,
	},
})

// ConvertSegmentPrompt turns a natural-language audience description
// into segment rules. The model output is untrusted: it must parse as
// JSON and carry the expected shape before it is returned.
func (h *aiHandler) ConvertSegmentPrompt(ctx context.Context, req *ConvertSegmentPromptRequest, res *ConvertSegmentPromptResponse) error {
	if err := ConvertSegmentPromptValidator.Validate(req); err != nil {
		return err
	}

	prompt := fmt.Sprintf(`Convert the following customer segment description into a logical segment rule structure. The description is: %q

Available fields are:
- totalSpend (numeric)
- visitCount (numeric)
- segment (string: 'Active', 'Inactive', 'New')
- lastVisit (numeric, months since last visit, ordering operators only)

Available operators are: '>', '<', '>=', '<=', '=='

Return the response in JSON format with this structure:
{
  "rules": [
    {
      "field": "field_name",
      "operator": "operator",
      "value": "value"
    }
  ],
  "operator": "AND" or "OR"
}`, req.GetPrompt())

	segment := new(entity.Segment)
	if err := h.textGenService.GenerateJSON(ctx, prompt, segment); err != nil {
		log.Ctx(ctx).Error().Msgf("convert segment prompt failed, err: %v", err)
		return err
	}

	if len(segment.GetRules()) == 0 || segment.GetOperator() == "" {
		return fmt.Errorf("%w: missing rules or operator", dep.ErrBadTextGenResponse)
	}

	for _, rule := range segment.GetRules() {
		if rule.GetField() == "" || rule.GetOp() == "" || rule.Value == nil {
			return fmt.Errorf("%w: incomplete rule", dep.ErrBadTextGenResponse)
		}
	}

	res.Segment = segment

	return nil
}

type LookalikeSegmentRequest struct {
	Segment    *entity.Segment `json:"segment,omitempty"`
	CampaignID *uint64         `json:"campaign_id,omitempty"`
}

func (r *LookalikeSegmentRequest) GetCampaignID() uint64 {
	if r != nil && r.CampaignID != nil {
		return *r.CampaignID
	}
	return 0
}

type LookalikeSegmentResponse struct {
	Segment   *entity.Segment `json:"segment"`
	Rationale *string         `json:"rationale"`
}

// LookalikeSegment suggests a broader segment resembling the target
// one: spend and visit thresholds are relaxed and the whole Active
// segment stands in for narrow high-value audiences.
func (h *aiHandler) LookalikeSegment(ctx context.Context, req *LookalikeSegmentRequest, res *LookalikeSegmentResponse) error {
	segment := req.Segment
	if segment == nil && req.GetCampaignID() > 0 {
		campaign, err := h.campaignRepo.GetByID(ctx, req.GetCampaignID())
		if err != nil {
			return err
		}
		segment = campaign.GetSegment()
	}

	if err := segment.Validate(); err != nil {
		return errutil.ValidationError(errors.New("segment data or valid campaign id is required"))
	}

	var (
		suggested = make([]*entity.Rule, 0)
		seen      = make(map[string]bool)
		add       = func(field, op, value string) {
			key := field + op + value
			if seen[key] {
				return
			}
			seen[key] = true
			suggested = append(suggested, &entity.Rule{
				Field: goutil.String(field),
				Op:    goutil.String(op),
				Value: goutil.String(value),
			})
		}
	)

	for _, rule := range segment.GetRules() {
		switch rule.GetField() {
		case "totalSpend":
			if v, err := strconv.ParseFloat(rule.GetValue(), 64); err == nil && v > 0 {
				add("totalSpend", relaxedOp(rule.GetOp()), strconv.FormatFloat(v*0.8, 'f', 0, 64))
			}
		case "visitCount":
			if v, err := strconv.Atoi(rule.GetValue()); err == nil && v > 0 {
				if v > 1 {
					v--
				}
				add("visitCount", relaxedOp(rule.GetOp()), strconv.Itoa(v))
			}
		case "segment":
			if rule.GetValue() != entity.CustomerSegmentActive {
				add("segment", entity.RuleOpEq, entity.CustomerSegmentActive)
			}
		}
	}

	if len(suggested) == 0 {
		add("visitCount", entity.RuleOpGte, "3")
	}

	res.Segment = &entity.Segment{
		Rules:    suggested,
		Operator: segment.Operator,
	}
	res.Rationale = goutil.String("Suggested audience characteristics based on patterns found in the target segment.")

	return nil
}

func relaxedOp(op string) string {
	if op == entity.RuleOpGt || op == entity.RuleOpGte {
		return entity.RuleOpGte
	}
	return entity.RuleOpLte
}

type SchedulingSuggestionsRequest struct{}

type SchedulingSuggestionsResponse struct {
	SuggestedDay  *string `json:"suggested_day"`
	SuggestedTime *string `json:"suggested_time"`
	Rationale     *string `json:"rationale"`
}

// SchedulingSuggestions returns a static engagement-based suggestion.
func (h *aiHandler) SchedulingSuggestions(_ context.Context, _ *SchedulingSuggestionsRequest, res *SchedulingSuggestionsResponse) error {
	res.SuggestedDay = goutil.String("Tuesday")
	res.SuggestedTime = goutil.String("10:30 AM")
	res.Rationale = goutil.String("Historical engagement data shows higher open rates on weekday mid-mornings.")

	return nil
}
