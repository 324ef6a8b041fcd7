package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"crm/entity"
	"crm/pkg/goutil"
	"crm/repo"
)

type countingCustomerRepo struct {
	*fakeCustomerRepo
	countCalls int
}

func (r *countingCustomerRepo) CountBySegment(ctx context.Context, segment *entity.Segment) (uint64, error) {
	r.countCalls++
	return r.fakeCustomerRepo.CountBySegment(ctx, segment)
}

func TestPreviewAudience(t *testing.T) {
	customerRepo := &countingCustomerRepo{
		fakeCustomerRepo: &fakeCustomerRepo{
			customers: []*entity.Customer{
				{ID: goutil.String("c1")},
				{ID: goutil.String("c2")},
			},
		},
	}
	h := NewSegmentHandler(customerRepo, repo.NewBaseCache(context.Background()))

	req := &PreviewAudienceRequest{
		Segment: &entity.Segment{
			Operator: goutil.String(entity.QueryOpAnd),
			Rules: []*entity.Rule{
				{Field: goutil.String("segment"), Op: goutil.String(entity.RuleOpEq), Value: goutil.String("Active")},
			},
		},
	}

	res := new(PreviewAudienceResponse)
	err := h.PreviewAudience(context.Background(), req, res)
	assert.Nil(t, err)
	assert.Equal(t, uint64(2), *res.AudienceSize)
	assert.Equal(t, 1, customerRepo.countCalls)

	// same segment hits the cache
	res = new(PreviewAudienceResponse)
	err = h.PreviewAudience(context.Background(), req, res)
	assert.Nil(t, err)
	assert.Equal(t, uint64(2), *res.AudienceSize)
	assert.Equal(t, 1, customerRepo.countCalls)

	// a different segment misses
	res = new(PreviewAudienceResponse)
	err = h.PreviewAudience(context.Background(), &PreviewAudienceRequest{
		Segment: &entity.Segment{
			Operator: goutil.String(entity.QueryOpOr),
			Rules: []*entity.Rule{
				{Field: goutil.String("segment"), Op: goutil.String(entity.RuleOpEq), Value: goutil.String("Inactive")},
			},
		},
	}, res)
	assert.Nil(t, err)
	assert.Equal(t, 2, customerRepo.countCalls)
}

func TestPreviewAudienceInvalidSegment(t *testing.T) {
	h := NewSegmentHandler(&fakeCustomerRepo{}, repo.NewBaseCache(context.Background()))

	err := h.PreviewAudience(context.Background(), &PreviewAudienceRequest{
		Segment: &entity.Segment{},
	}, new(PreviewAudienceResponse))
	assert.NotNil(t, err)
}
