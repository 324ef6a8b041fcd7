package handler

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"crm/entity"
	"crm/pkg/goutil"
	"crm/repo"
)

type SegmentHandler interface {
	PreviewAudience(ctx context.Context, req *PreviewAudienceRequest, res *PreviewAudienceResponse) error
}

type segmentHandler struct {
	customerRepo repo.CustomerRepo
	baseCache    repo.BaseCache
}

func NewSegmentHandler(customerRepo repo.CustomerRepo, baseCache repo.BaseCache) SegmentHandler {
	return &segmentHandler{
		customerRepo: customerRepo,
		baseCache:    baseCache,
	}
}

type PreviewAudienceRequest struct {
	Segment *entity.Segment `json:"segment,omitempty"`
}

type PreviewAudienceResponse struct {
	AudienceSize *uint64 `json:"audience_size"`
}

// PreviewAudience counts the customers a segment matches. Counts are
// cached briefly since operators tweak rules and re-preview rapidly.
func (h *segmentHandler) PreviewAudience(ctx context.Context, req *PreviewAudienceRequest, res *PreviewAudienceResponse) error {
	if err := req.Segment.Validate(); err != nil {
		return err
	}

	key, err := segmentCacheKey(req.Segment)
	if err != nil {
		return err
	}

	if cached, ok := h.baseCache.Get(ctx, repo.CachePrefixAudiencePreview, key); ok {
		if size, ok := cached.(uint64); ok {
			res.AudienceSize = goutil.Uint64(size)
			return nil
		}
	}

	size, err := h.customerRepo.CountBySegment(ctx, req.Segment)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("count audience failed, err: %v", err)
		return err
	}

	h.baseCache.Set(ctx, repo.CachePrefixAudiencePreview, key, size)

	res.AudienceSize = goutil.Uint64(size)

	return nil
}

func segmentCacheKey(segment *entity.Segment) (string, error) {
	b, err := json.Marshal(segment)
	if err != nil {
		return "", err
	}
	return goutil.Sha256(string(b)), nil
}
