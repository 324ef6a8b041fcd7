package entity

import (
	"crm/pkg/errutil"
	"fmt"
)

type CampaignStatus uint32

const (
	CampaignStatusUnknown CampaignStatus = iota
	CampaignStatusDraft
	CampaignStatusActive
	CampaignStatusPaused
	CampaignStatusCompleted
	CampaignStatusFailed
)

var CampaignStatuses = map[CampaignStatus]string{
	CampaignStatusDraft:     "draft",
	CampaignStatusActive:    "active",
	CampaignStatusPaused:    "paused",
	CampaignStatusCompleted: "completed",
	CampaignStatusFailed:    "failed",
}

func (s CampaignStatus) String() string {
	return CampaignStatuses[s]
}

func ToCampaignStatus(s string) (CampaignStatus, error) {
	for status, name := range CampaignStatuses {
		if name == s {
			return status, nil
		}
	}
	return CampaignStatusUnknown, errutil.ValidationError(fmt.Errorf("invalid campaign status: %s", s))
}

// campaignStatusTransitions lists the statuses a campaign may move to
// from each status. Completed and failed are terminal.
var campaignStatusTransitions = map[CampaignStatus][]CampaignStatus{
	CampaignStatusDraft:  {CampaignStatusActive},
	CampaignStatusActive: {CampaignStatusPaused, CampaignStatusCompleted, CampaignStatusFailed},
	CampaignStatusPaused: {CampaignStatusActive},
}

const (
	CampaignTypeEmail   = "email"
	CampaignTypeSocial  = "social"
	CampaignTypeDisplay = "display"
)

var CampaignTypes = []string{
	CampaignTypeEmail,
	CampaignTypeSocial,
	CampaignTypeDisplay,
}

func IsCampaignType(t string) bool {
	for _, ct := range CampaignTypes {
		if ct == t {
			return true
		}
	}
	return false
}

type DeliveryStats struct {
	Sent         *uint64  `json:"sent,omitempty"`
	Failed       *uint64  `json:"failed,omitempty"`
	AudienceSize *uint64  `json:"audience_size,omitempty"`
	OpenRate     *float64 `json:"open_rate,omitempty"`
	ClickRate    *float64 `json:"click_rate,omitempty"`
	LastUpdated  *uint64  `json:"last_updated,omitempty"`
}

func (s *DeliveryStats) GetSent() uint64 {
	if s != nil && s.Sent != nil {
		return *s.Sent
	}
	return 0
}

func (s *DeliveryStats) GetFailed() uint64 {
	if s != nil && s.Failed != nil {
		return *s.Failed
	}
	return 0
}

func (s *DeliveryStats) GetAudienceSize() uint64 {
	if s != nil && s.AudienceSize != nil {
		return *s.AudienceSize
	}
	return 0
}

func (s *DeliveryStats) GetOpenRate() float64 {
	if s != nil && s.OpenRate != nil {
		return *s.OpenRate
	}
	return 0
}

func (s *DeliveryStats) GetClickRate() float64 {
	if s != nil && s.ClickRate != nil {
		return *s.ClickRate
	}
	return 0
}

type Campaign struct {
	ID            *uint64        `json:"id,omitempty"`
	Name          *string        `json:"name,omitempty"`
	Description   *string        `json:"description,omitempty"`
	Type          *string        `json:"type,omitempty"`
	Budget        *float64       `json:"budget,omitempty"`
	CompanyName   *string        `json:"company_name,omitempty"`
	Status        CampaignStatus `json:"status"`
	CreatorID     *uint64        `json:"creator_id,omitempty"`
	Segment       *Segment       `json:"segment,omitempty"`
	DeliveryStats *DeliveryStats `json:"delivery_stats,omitempty"`
	CreateTime    *uint64        `json:"create_time,omitempty"`
	UpdateTime    *uint64        `json:"update_time,omitempty"`
}

func (e *Campaign) GetID() uint64 {
	if e != nil && e.ID != nil {
		return *e.ID
	}
	return 0
}

func (e *Campaign) GetName() string {
	if e != nil && e.Name != nil {
		return *e.Name
	}
	return ""
}

func (e *Campaign) GetDescription() string {
	if e != nil && e.Description != nil {
		return *e.Description
	}
	return ""
}

func (e *Campaign) GetType() string {
	if e != nil && e.Type != nil {
		return *e.Type
	}
	return ""
}

func (e *Campaign) GetBudget() float64 {
	if e != nil && e.Budget != nil {
		return *e.Budget
	}
	return 0
}

func (e *Campaign) GetCompanyName() string {
	if e != nil && e.CompanyName != nil {
		return *e.CompanyName
	}
	return ""
}

func (e *Campaign) GetStatus() CampaignStatus {
	if e != nil {
		return e.Status
	}
	return CampaignStatusUnknown
}

func (e *Campaign) GetCreatorID() uint64 {
	if e != nil && e.CreatorID != nil {
		return *e.CreatorID
	}
	return 0
}

func (e *Campaign) GetSegment() *Segment {
	if e != nil {
		return e.Segment
	}
	return nil
}

func (e *Campaign) GetDeliveryStats() *DeliveryStats {
	if e != nil {
		return e.DeliveryStats
	}
	return nil
}

// CanTransitionTo reports whether the campaign may move to the given
// status from its current one.
func (e *Campaign) CanTransitionTo(status CampaignStatus) bool {
	for _, allowed := range campaignStatusTransitions[e.GetStatus()] {
		if allowed == status {
			return true
		}
	}
	return false
}

// TransitionTo moves the campaign to the given status, rejecting moves
// the transition table does not allow.
func (e *Campaign) TransitionTo(status CampaignStatus, now uint64) error {
	if !e.CanTransitionTo(status) {
		return errutil.ValidationError(
			fmt.Errorf("cannot change campaign status from %s to %s", e.GetStatus(), status))
	}
	e.Status = status
	e.UpdateTime = &now
	return nil
}

// IsTerminal reports whether the campaign is in a terminal status.
func (e *Campaign) IsTerminal() bool {
	return e.GetStatus() == CampaignStatusCompleted || e.GetStatus() == CampaignStatusFailed
}
