package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"crm/entity"
)

func TestComputeDeliveryStats(t *testing.T) {
	counts := map[entity.LogStatus]uint64{
		entity.LogStatusSent:      4,
		entity.LogStatusDelivered: 3,
		entity.LogStatusOpened:    2,
		entity.LogStatusClicked:   1,
		entity.LogStatusFailed:    2,
		entity.LogStatusPending:   5,
	}

	stats := ComputeDeliveryStats(counts, 1000)

	assert.Equal(t, uint64(10), stats.GetSent())
	assert.Equal(t, uint64(2), stats.GetFailed())
	assert.Equal(t, uint64(12), stats.GetAudienceSize())
	assert.Equal(t, float64(20), stats.GetOpenRate())
	assert.Equal(t, float64(10), stats.GetClickRate())
	assert.Equal(t, uint64(1000), *stats.LastUpdated)
}

func TestComputeDeliveryStatsNoSends(t *testing.T) {
	stats := ComputeDeliveryStats(map[entity.LogStatus]uint64{
		entity.LogStatusFailed: 3,
	}, 1000)

	assert.Equal(t, uint64(0), stats.GetSent())
	assert.Equal(t, uint64(3), stats.GetFailed())
	assert.Equal(t, uint64(3), stats.GetAudienceSize())
	assert.Equal(t, float64(0), stats.GetOpenRate())
	assert.Equal(t, float64(0), stats.GetClickRate())
}

func TestComputeDeliveryStatsEmpty(t *testing.T) {
	stats := ComputeDeliveryStats(map[entity.LogStatus]uint64{}, 1000)

	assert.Equal(t, uint64(0), stats.GetSent())
	assert.Equal(t, uint64(0), stats.GetFailed())
	assert.Equal(t, uint64(0), stats.GetAudienceSize())
}

func TestComputeDeliveryStatsIdempotent(t *testing.T) {
	counts := map[entity.LogStatus]uint64{
		entity.LogStatusSent:   2,
		entity.LogStatusFailed: 1,
	}

	first := ComputeDeliveryStats(counts, 1000)
	second := ComputeDeliveryStats(counts, 1000)
	assert.Equal(t, first, second)
}
