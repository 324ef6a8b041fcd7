package handler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"crm/entity"
	"crm/pkg/goutil"
)

func newTestCustomer(name, segment string, totalSpend float64) *entity.Customer {
	return &entity.Customer{
		ID:         goutil.String("c1"),
		Name:       goutil.String(name),
		Email:      goutil.String("jane@example.com"),
		Segment:    goutil.String(segment),
		TotalSpend: goutil.Float64(totalSpend),
	}
}

func newTestCampaign(campaignType, description, companyName string) *entity.Campaign {
	return &entity.Campaign{
		ID:          goutil.Uint64(1),
		Name:        goutil.String("Spring Sale"),
		Description: goutil.String(description),
		Type:        goutil.String(campaignType),
		CompanyName: goutil.String(companyName),
	}
}

func TestRenderMessageSubstitutesPlaceholders(t *testing.T) {
	customer := newTestCustomer("Jane Doe", entity.CustomerSegmentActive, 5000)
	campaign := newTestCampaign(entity.CampaignTypeEmail,
		"Hi [User Name], thanks for shopping with [Your Company Name]!", "Acme")

	msg := RenderMessage(customer, campaign)

	assert.Contains(t, msg, "Jane Doe")
	assert.Contains(t, msg, "Acme")
	assert.NotContains(t, msg, "[User Name]")
	assert.NotContains(t, msg, "[Your Company Name]")

	// the template already greets the customer, so no extra greeting
	assert.False(t, strings.HasPrefix(msg, "Hi Jane,"))

	// template names the company, so no closing signature
	assert.NotContains(t, msg, "Thanks,\nThe Acme Team")
}

func TestRenderMessageIsPure(t *testing.T) {
	customer := newTestCustomer("Jane Doe", entity.CustomerSegmentActive, 5000)
	campaign := newTestCampaign(entity.CampaignTypeEmail, "Big sale this week only.", "Acme")

	first := RenderMessage(customer, campaign)
	second := RenderMessage(customer, campaign)
	assert.Equal(t, first, second)
}

func TestRenderMessageEmailGreeting(t *testing.T) {
	customer := newTestCustomer("Jane Doe", entity.CustomerSegmentNew, 0)
	campaign := newTestCampaign(entity.CampaignTypeEmail, "Big sale this week only.", "Acme")

	msg := RenderMessage(customer, campaign)
	assert.True(t, strings.HasPrefix(msg, "Hi Jane,\n\n"))
	assert.Contains(t, msg, "Thanks,\nThe Acme Team")
}

func TestRenderMessagePromotionalBlocks(t *testing.T) {
	campaign := newTestCampaign(entity.CampaignTypeEmail, "Big sale this week only.", "Acme")

	// active VIP beats the plain active block
	msg := RenderMessage(newTestCustomer("Jane Doe", entity.CustomerSegmentActive, 25000), campaign)
	assert.Contains(t, msg, "VIP20")
	assert.NotContains(t, msg, "ACTIVE15")
	assert.Contains(t, msg, "priority access")

	msg = RenderMessage(newTestCustomer("Jane Doe", entity.CustomerSegmentActive, 5000), campaign)
	assert.Contains(t, msg, "ACTIVE15")
	assert.NotContains(t, msg, "VIP20")

	msg = RenderMessage(newTestCustomer("Jane Doe", entity.CustomerSegmentInactive, 1000), campaign)
	assert.Contains(t, msg, "WELCOMEBACK")

	// premium block is independent of segment
	msg = RenderMessage(newTestCustomer("Jane Doe", entity.CustomerSegmentInactive, 16000), campaign)
	assert.Contains(t, msg, "WELCOMEBACK")
	assert.Contains(t, msg, "priority access")
}

func TestRenderMessageSocialAndDisplay(t *testing.T) {
	customer := newTestCustomer("Jane Doe", entity.CustomerSegmentActive, 25000)

	for _, campaignType := range []string{entity.CampaignTypeSocial, entity.CampaignTypeDisplay} {
		campaign := newTestCampaign(campaignType, "Check out [Platform Name] deals, [User Name]!", "Acme")

		msg := RenderMessage(customer, campaign)
		assert.Contains(t, msg, "Jane Doe")
		assert.NotContains(t, msg, "[Platform Name]")
		assert.NotContains(t, msg, "VIP20")
		assert.NotContains(t, msg, "Thanks,")
		assert.False(t, strings.HasPrefix(msg, "Hi "))
	}
}

func TestRenderMessageFallbacks(t *testing.T) {
	customer := &entity.Customer{ID: goutil.String("c1")}
	campaign := &entity.Campaign{
		Description: goutil.String("Dear [User Name], greetings from [Your Company Name] on [Platform Name]."),
		Type:        goutil.String(entity.CampaignTypeEmail),
	}

	msg := RenderMessage(customer, campaign)
	assert.Contains(t, msg, "Valued Customer")
	assert.Contains(t, msg, "Your Company Name")
	assert.Contains(t, msg, "Email")
}

func TestRenderMessageCollapsesNewlines(t *testing.T) {
	customer := newTestCustomer("Jane Doe", entity.CustomerSegmentNew, 0)
	campaign := newTestCampaign(entity.CampaignTypeSocial, "Line one.\n\n\n\nLine two.", "Acme")

	msg := RenderMessage(customer, campaign)
	assert.Equal(t, "Line one.\n\nLine two.", msg)
}
