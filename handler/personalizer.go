package handler

import (
	"fmt"
	"regexp"
	"strings"

	"crm/entity"
)

const (
	placeholderUserName    = "[User Name]"
	placeholderCompanyName = "[Your Company Name]"
	placeholderPlatform    = "[Platform Name]"
)

var multiNewline = regexp.MustCompile(`\n{2,}`)

// RenderMessage builds the personalized message body for one customer.
// It is a pure function of its inputs: the campaign description is the
// template, placeholders are substituted, and email campaigns get
// segment-driven promotional blocks appended.
func RenderMessage(customer *entity.Customer, campaign *entity.Campaign) string {
	var (
		template       = campaign.GetDescription()
		campaignType   = campaign.GetType()
		hasUserName    = strings.Contains(template, placeholderUserName)
		hasCompanyName = strings.Contains(template, placeholderCompanyName)
		isEmail        = campaignType == entity.CampaignTypeEmail
	)

	var b strings.Builder

	if isEmail && !hasUserName {
		b.WriteString(fmt.Sprintf("Hi %s,\n\n", customer.FirstName()))
	}

	name := customer.GetName()
	if name == "" {
		name = "Valued Customer"
	}

	companyName := campaign.GetCompanyName()
	if companyName == "" {
		companyName = "Your Company Name"
	}

	body := strings.ReplaceAll(template, placeholderUserName, name)
	body = strings.ReplaceAll(body, placeholderCompanyName, companyName)
	body = strings.ReplaceAll(body, placeholderPlatform, platformLabel(campaignType))
	body = strings.TrimSpace(multiNewline.ReplaceAllString(body, "\n\n"))

	// Social and display use the substituted body alone, with no
	// greeting or promotional blocks.
	if campaignType == entity.CampaignTypeSocial || campaignType == entity.CampaignTypeDisplay {
		return body
	}

	b.WriteString(body)

	if isEmail {
		switch {
		case customer.GetSegment() == entity.CustomerSegmentActive && customer.GetTotalSpend() > 20000:
			b.WriteString("\n\nAs a valued VIP customer, you get exclusive benefits. Use code VIP20 for an exclusive 20% discount!")
		case customer.GetSegment() == entity.CustomerSegmentActive:
			b.WriteString("\n\nAs an active customer, enjoy 15% off your next purchase with code ACTIVE15!")
		case customer.GetSegment() == entity.CustomerSegmentInactive:
			b.WriteString("\n\nWe miss you! Come back and get 25% off with code WELCOMEBACK!")
		}

		if customer.GetTotalSpend() > 15000 {
			b.WriteString("\n\nAs a premium customer, you get priority access to our new collections!")
		}

		if !hasCompanyName {
			b.WriteString(fmt.Sprintf("\n\nThanks,\nThe %s Team", companyName))
		}
	}

	return strings.TrimSpace(b.String())
}

func platformLabel(campaignType string) string {
	switch campaignType {
	case entity.CampaignTypeEmail:
		return "Email"
	case entity.CampaignTypeSocial:
		return "Social Media"
	case entity.CampaignTypeDisplay:
		return "Display Ads"
	default:
		return "Platform"
	}
}
