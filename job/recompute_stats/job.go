package recompute_stats

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"crm/entity"
	"crm/handler"
	"crm/pkg/goutil"
	"crm/pkg/service"
	"crm/repo"
)

// RecomputeStats sweeps campaigns that saw delivery activity and
// rebuilds their stats from the full log set. It repairs campaigns
// whose inline stats updates were lost to transient store failures.
type RecomputeStats struct {
	campaignRepo repo.CampaignRepo
	statsHandler handler.StatsHandler
}

func New(campaignRepo repo.CampaignRepo, statsHandler handler.StatsHandler) service.Job {
	return &RecomputeStats{
		campaignRepo: campaignRepo,
		statsHandler: statsHandler,
	}
}

func (j *RecomputeStats) Init(_ context.Context) error {
	return nil
}

func (j *RecomputeStats) Run(ctx context.Context) error {
	var (
		page  uint32 = 1
		limit uint32 = 100
		total        = 0
	)

	for {
		campaigns, pagination, err := j.campaignRepo.GetMany(ctx, &repo.Filter{
			Conditions: []*repo.Condition{
				{Field: "status", Op: repo.OpIn, Value: []uint32{
					uint32(entity.CampaignStatusActive),
					uint32(entity.CampaignStatusPaused),
					uint32(entity.CampaignStatusCompleted),
					uint32(entity.CampaignStatusFailed),
				}},
			},
			Pagination: &repo.Pagination{
				Page:  goutil.Uint32(page),
				Limit: goutil.Uint32(limit),
			},
		})
		if err != nil {
			log.Ctx(ctx).Error().Msgf("get campaigns failed, err: %v", err)
			return err
		}

		g := new(errgroup.Group)
		g.SetLimit(10)
		for _, campaign := range campaigns {
			campaign := campaign
			g.Go(func() error {
				if _, err := j.statsHandler.RecomputeDeliveryStats(ctx, campaign.GetID()); err != nil {
					log.Ctx(ctx).Error().Msgf("recompute stats failed, campaignID: %v, err: %v",
						campaign.GetID(), err)
				}
				return nil
			})
		}
		_ = g.Wait()

		total += len(campaigns)

		if !pagination.GetHasNext() {
			break
		}
		page++
	}

	log.Ctx(ctx).Info().Msgf("recomputed stats for %d campaigns", total)

	return nil
}

func (j *RecomputeStats) CleanUp(_ context.Context) error {
	return nil
}
