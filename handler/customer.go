package handler

import (
	"context"

	"github.com/rs/zerolog/log"

	"crm/entity"
	"crm/pkg/goutil"
	"crm/pkg/validator"
	"crm/repo"
)

type CustomerHandler interface {
	GetCustomers(ctx context.Context, req *GetCustomersRequest, res *GetCustomersResponse) error
	CountCustomers(ctx context.Context, req *CountCustomersRequest, res *CountCustomersResponse) error
}

type customerHandler struct {
	customerRepo repo.CustomerRepo
}

func NewCustomerHandler(customerRepo repo.CustomerRepo) CustomerHandler {
	return &customerHandler{customerRepo: customerRepo}
}

type GetCustomersRequest struct {
	Segment *string `schema:"segment,omitempty"`
	Keyword *string `schema:"keyword,omitempty"`
	Page    *uint32 `schema:"page,omitempty"`
	Limit   *uint32 `schema:"limit,omitempty"`
}

type GetCustomersResponse struct {
	Customers  []*entity.Customer `json:"customers"`
	Pagination *entity.Pagination `json:"pagination,omitempty"`
}

var GetCustomersValidator = validator.MustForm(map[string]validator.Validator{
	"segment": &validator.String{
		Optional: true,
		In:       entity.CustomerSegments,
	},
	"keyword": &validator.String{
		Optional: true,
		MaxLen:   120,
	},
	"page": &validator.UInt32{
		Optional: true,
	},
	"limit": &validator.UInt32{
		Optional: true,
	},
})

func (h *customerHandler) GetCustomers(ctx context.Context, req *GetCustomersRequest, res *GetCustomersResponse) error {
	if err := GetCustomersValidator.Validate(req); err != nil {
		return err
	}

	customers, pagination, err := h.customerRepo.GetMany(ctx, &repo.CustomerFilter{
		Segment: req.Segment,
		Keyword: req.Keyword,
		Pagination: &repo.Pagination{
			Page:  req.Page,
			Limit: req.Limit,
		},
	})
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get customers failed, err: %v", err)
		return err
	}

	res.Customers = customers
	res.Pagination = &entity.Pagination{
		Page:    pagination.Page,
		Limit:   pagination.Limit,
		HasNext: pagination.HasNext,
		Total:   pagination.Total,
	}

	return nil
}

type CountCustomersRequest struct {
	Segment *string `schema:"segment,omitempty"`
}

type CountCustomersResponse struct {
	Count *uint64 `json:"count"`
}

var CountCustomersValidator = validator.MustForm(map[string]validator.Validator{
	"segment": &validator.String{
		Optional: true,
		In:       entity.CustomerSegments,
	},
})

func (h *customerHandler) CountCustomers(ctx context.Context, req *CountCustomersRequest, res *CountCustomersResponse) error {
	if err := CountCustomersValidator.Validate(req); err != nil {
		return err
	}

	count, err := h.customerRepo.Count(ctx, &repo.CustomerFilter{
		Segment: req.Segment,
	})
	if err != nil {
		log.Ctx(ctx).Error().Msgf("count customers failed, err: %v", err)
		return err
	}

	res.Count = goutil.Uint64(count)

	return nil
}
