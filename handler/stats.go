package handler

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"crm/entity"
	"crm/pkg/goutil"
	"crm/repo"
)

const maxStatsRetries = 3

type StatsHandler interface {
	RecomputeDeliveryStats(ctx context.Context, campaignID uint64) (*entity.DeliveryStats, error)
}

type statsHandler struct {
	campaignRepo         repo.CampaignRepo
	communicationLogRepo repo.CommunicationLogRepo
}

func NewStatsHandler(campaignRepo repo.CampaignRepo, communicationLogRepo repo.CommunicationLogRepo) StatsHandler {
	return &statsHandler{
		campaignRepo,
		communicationLogRepo,
	}
}

// ComputeDeliveryStats folds per-status log counts into aggregate stats.
// Delivered, opened and clicked all count toward sent, so a message is
// never double counted as it progresses.
func ComputeDeliveryStats(counts map[entity.LogStatus]uint64, now uint64) *entity.DeliveryStats {
	var sent, failed uint64
	for status, count := range counts {
		if status.ReachedCustomer() {
			sent += count
		}
		if status == entity.LogStatusFailed {
			failed += count
		}
	}

	var openRate, clickRate float64
	if sent > 0 {
		openRate = 100 * float64(counts[entity.LogStatusOpened]) / float64(sent)
		clickRate = 100 * float64(counts[entity.LogStatusClicked]) / float64(sent)
	}

	return &entity.DeliveryStats{
		Sent:         goutil.Uint64(sent),
		Failed:       goutil.Uint64(failed),
		AudienceSize: goutil.Uint64(sent + failed),
		OpenRate:     goutil.Float64(openRate),
		ClickRate:    goutil.Float64(clickRate),
		LastUpdated:  goutil.Uint64(now),
	}
}

// RecomputeDeliveryStats rebuilds the campaign's stats from the full log
// set. The whole aggregate is derived from canonical state on every
// call, so concurrent recomputes converge and retrying is safe.
func (h *statsHandler) RecomputeDeliveryStats(ctx context.Context, campaignID uint64) (*entity.DeliveryStats, error) {
	var stats *entity.DeliveryStats

	op := func() error {
		counts, err := h.communicationLogRepo.CountByStatus(ctx, campaignID)
		if err != nil {
			return err
		}

		stats = ComputeDeliveryStats(counts, uint64(time.Now().Unix()))

		return h.campaignRepo.Update(ctx, &entity.Campaign{
			ID:            goutil.Uint64(campaignID),
			DeliveryStats: stats,
		})
	}

	if err := backoff.Retry(op, backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxStatsRetries), ctx)); err != nil {
		log.Ctx(ctx).Error().Msgf("recompute delivery stats failed, campaignID: %v, err: %v", campaignID, err)
		return nil, err
	}

	return stats, nil
}
