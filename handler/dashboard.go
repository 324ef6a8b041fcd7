package handler

import (
	"context"

	"github.com/rs/zerolog/log"

	"crm/entity"
	"crm/pkg/goutil"
	"crm/repo"
)

type DashboardHandler interface {
	GetDashboardStats(ctx context.Context, req *GetDashboardStatsRequest, res *GetDashboardStatsResponse) error
}

type dashboardHandler struct {
	campaignRepo         repo.CampaignRepo
	communicationLogRepo repo.CommunicationLogRepo
	customerRepo         repo.CustomerRepo
}

func NewDashboardHandler(
	campaignRepo repo.CampaignRepo,
	communicationLogRepo repo.CommunicationLogRepo,
	customerRepo repo.CustomerRepo,
) DashboardHandler {
	return &dashboardHandler{
		campaignRepo:         campaignRepo,
		communicationLogRepo: communicationLogRepo,
		customerRepo:         customerRepo,
	}
}

type GetDashboardStatsRequest struct{}

type GetDashboardStatsResponse struct {
	TotalCustomers    *uint64           `json:"total_customers"`
	TotalCampaigns    *uint64           `json:"total_campaigns"`
	ActiveCampaigns   *uint64           `json:"active_campaigns"`
	MessagesSent      *uint64           `json:"messages_sent"`
	MessagesFailed    *uint64           `json:"messages_failed"`
	AvgBudget         *float64          `json:"avg_budget"`
	CampaignsByStatus map[string]uint64 `json:"campaigns_by_status"`
}

func (h *dashboardHandler) GetDashboardStats(ctx context.Context, _ *GetDashboardStatsRequest, res *GetDashboardStatsResponse) error {
	totalCustomers, err := h.customerRepo.Count(ctx, new(repo.CustomerFilter))
	if err != nil {
		log.Ctx(ctx).Error().Msgf("count customers failed, err: %v", err)
		return err
	}

	totalCampaigns, err := h.campaignRepo.Count(ctx, new(repo.Filter))
	if err != nil {
		log.Ctx(ctx).Error().Msgf("count campaigns failed, err: %v", err)
		return err
	}

	statusCounts, err := h.campaignRepo.CountByStatus(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("count campaigns by status failed, err: %v", err)
		return err
	}

	byStatus := make(map[string]uint64, len(statusCounts))
	for status, count := range statusCounts {
		byStatus[status.String()] = count
	}

	avgBudget, err := h.campaignRepo.AvgBudget(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("average budget failed, err: %v", err)
		return err
	}

	sent, err := h.communicationLogRepo.Count(ctx, &repo.Filter{
		Conditions: []*repo.Condition{
			{Field: "status", Op: repo.OpIn, Value: []uint32{
				uint32(entity.LogStatusSent),
				uint32(entity.LogStatusDelivered),
				uint32(entity.LogStatusOpened),
				uint32(entity.LogStatusClicked),
			}},
		},
	})
	if err != nil {
		log.Ctx(ctx).Error().Msgf("count sent messages failed, err: %v", err)
		return err
	}

	failed, err := h.communicationLogRepo.Count(ctx, &repo.Filter{
		Conditions: []*repo.Condition{
			{Field: "status", Op: repo.OpEq, Value: uint32(entity.LogStatusFailed)},
		},
	})
	if err != nil {
		log.Ctx(ctx).Error().Msgf("count failed messages failed, err: %v", err)
		return err
	}

	res.TotalCustomers = goutil.Uint64(totalCustomers)
	res.TotalCampaigns = goutil.Uint64(totalCampaigns)
	res.ActiveCampaigns = goutil.Uint64(statusCounts[entity.CampaignStatusActive])
	res.MessagesSent = goutil.Uint64(sent)
	res.MessagesFailed = goutil.Uint64(failed)
	res.AvgBudget = goutil.Float64(avgBudget)
	res.CampaignsByStatus = byStatus

	return nil
}
