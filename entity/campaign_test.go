package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCampaignStatusTransitions(t *testing.T) {
	tests := []struct {
		from    CampaignStatus
		to      CampaignStatus
		allowed bool
	}{
		{CampaignStatusDraft, CampaignStatusActive, true},
		{CampaignStatusDraft, CampaignStatusCompleted, false},
		{CampaignStatusActive, CampaignStatusPaused, true},
		{CampaignStatusActive, CampaignStatusCompleted, true},
		{CampaignStatusActive, CampaignStatusFailed, true},
		{CampaignStatusActive, CampaignStatusDraft, false},
		{CampaignStatusPaused, CampaignStatusActive, true},
		{CampaignStatusPaused, CampaignStatusCompleted, false},
		{CampaignStatusCompleted, CampaignStatusActive, false},
		{CampaignStatusFailed, CampaignStatusActive, false},
	}

	for _, tc := range tests {
		campaign := &Campaign{Status: tc.from}
		assert.Equal(t, tc.allowed, campaign.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestCampaignTransitionTo(t *testing.T) {
	campaign := &Campaign{Status: CampaignStatusActive}

	err := campaign.TransitionTo(CampaignStatusPaused, 100)
	assert.Nil(t, err)
	assert.Equal(t, CampaignStatusPaused, campaign.GetStatus())
	assert.Equal(t, uint64(100), *campaign.UpdateTime)

	err = campaign.TransitionTo(CampaignStatusCompleted, 200)
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "cannot change campaign status from paused to completed")
	assert.Equal(t, CampaignStatusPaused, campaign.GetStatus())
}

func TestCampaignIsTerminal(t *testing.T) {
	assert.False(t, (&Campaign{Status: CampaignStatusActive}).IsTerminal())
	assert.False(t, (&Campaign{Status: CampaignStatusPaused}).IsTerminal())
	assert.True(t, (&Campaign{Status: CampaignStatusCompleted}).IsTerminal())
	assert.True(t, (&Campaign{Status: CampaignStatusFailed}).IsTerminal())
}

func TestToCampaignStatus(t *testing.T) {
	status, err := ToCampaignStatus("active")
	assert.Nil(t, err)
	assert.Equal(t, CampaignStatusActive, status)

	_, err = ToCampaignStatus("archived")
	assert.NotNil(t, err)
}
