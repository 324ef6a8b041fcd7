package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"crm/config"
	"crm/entity"
	"crm/pkg/goutil"
	"crm/pkg/router"
	"crm/pkg/validator"
	"crm/repo"
)

type CampaignHandler interface {
	CreateCampaign(ctx context.Context, req *CreateCampaignRequest, res *CreateCampaignResponse) error
	GetCampaigns(ctx context.Context, req *GetCampaignsRequest, res *GetCampaignsResponse) error
	GetCampaign(ctx context.Context, req *GetCampaignRequest, res *GetCampaignResponse) error
	UpdateCampaignStatus(ctx context.Context, req *UpdateCampaignStatusRequest, res *UpdateCampaignStatusResponse) error
	DeleteCampaign(ctx context.Context, req *DeleteCampaignRequest, res *DeleteCampaignResponse) error
	GetCampaignLogs(ctx context.Context, req *GetCampaignLogsRequest, res *GetCampaignLogsResponse) error
}

type campaignHandler struct {
	cfg                  *config.Config
	txService            repo.TxService
	campaignRepo         repo.CampaignRepo
	communicationLogRepo repo.CommunicationLogRepo
	customerRepo         repo.CustomerRepo
	deliveryHandler      DeliveryHandler
	notifier             Notifier
}

func NewCampaignHandler(
	cfg *config.Config,
	txService repo.TxService,
	campaignRepo repo.CampaignRepo,
	communicationLogRepo repo.CommunicationLogRepo,
	customerRepo repo.CustomerRepo,
	deliveryHandler DeliveryHandler,
	notifier Notifier,
) CampaignHandler {
	return &campaignHandler{
		cfg:                  cfg,
		txService:            txService,
		campaignRepo:         campaignRepo,
		communicationLogRepo: communicationLogRepo,
		customerRepo:         customerRepo,
		deliveryHandler:      deliveryHandler,
		notifier:             notifier,
	}
}

type CreateCampaignRequest struct {
	Name        *string         `json:"name,omitempty"`
	Description *string         `json:"description,omitempty"`
	Type        *string         `json:"type,omitempty"`
	Budget      *float64        `json:"budget,omitempty"`
	CompanyName *string         `json:"company_name,omitempty"`
	Segment     *entity.Segment `json:"segment,omitempty"`
}

func (r *CreateCampaignRequest) GetCompanyName() string {
	if r != nil && r.CompanyName != nil {
		return *r.CompanyName
	}
	return ""
}

type CreateCampaignResponse struct {
	Campaign *entity.Campaign `json:"campaign"`
}

var CreateCampaignValidator = validator.MustForm(map[string]validator.Validator{
	"name": &validator.String{
		MinLen: 1,
		MaxLen: 120,
	},
	"description": &validator.String{
		MinLen: 1,
		MaxLen: 5000,
	},
	"type": &validator.String{
		In: entity.CampaignTypes,
	},
	"budget": &validator.Float64{
		Min: goutil.Float64(0),
	},
	"company_name": &validator.String{
		MinLen: 1,
		MaxLen: 120,
	},
})

// CreateCampaign validates and persists the campaign, snapshots the
// audience size, and kicks off delivery in the background. The call
// returns as soon as the campaign is saved; delivery failures surface
// through the campaign status, not through this call.
func (h *campaignHandler) CreateCampaign(ctx context.Context, req *CreateCampaignRequest, res *CreateCampaignResponse) error {
	if err := CreateCampaignValidator.Validate(req); err != nil {
		return err
	}

	if err := req.Segment.Validate(); err != nil {
		return err
	}

	// Snapshot the audience size now. Once delivery starts, stats are
	// recomputed from logs and may diverge from this snapshot.
	audienceSize, err := h.customerRepo.CountBySegment(ctx, req.Segment)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("count audience failed, err: %v", err)
		return err
	}

	var creatorID *uint64
	if user, ok := router.GetUserFromContext(ctx); ok {
		creatorID = goutil.Uint64(user.GetID())
	}

	now := uint64(time.Now().Unix())
	campaign := &entity.Campaign{
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		Budget:      req.Budget,
		CompanyName: req.CompanyName,
		Status:      entity.CampaignStatusActive,
		CreatorID:   creatorID,
		Segment:     req.Segment,
		DeliveryStats: &entity.DeliveryStats{
			Sent:         goutil.Uint64(0),
			Failed:       goutil.Uint64(0),
			AudienceSize: goutil.Uint64(audienceSize),
			OpenRate:     goutil.Float64(0),
			ClickRate:    goutil.Float64(0),
			LastUpdated:  goutil.Uint64(now),
		},
		CreateTime: goutil.Uint64(now),
		UpdateTime: goutil.Uint64(now),
	}

	if _, err := h.campaignRepo.Create(ctx, campaign); err != nil {
		log.Ctx(ctx).Error().Msgf("create campaign failed, err: %v", err)
		return err
	}

	if creatorID != nil {
		h.notifier.Notify(ctx, *creatorID, entity.NotificationTypeCampaign,
			"New Campaign Created",
			fmt.Sprintf("Campaign %q has been created successfully.", campaign.GetName()))
	}

	// Delivery outlives the request.
	deliveryCtx := context.WithoutCancel(ctx)
	go func() {
		if err := h.deliveryHandler.InitiateCampaignDelivery(deliveryCtx, campaign); err != nil {
			log.Ctx(deliveryCtx).Error().Msgf("campaign delivery failed, campaignID: %v, err: %v",
				campaign.GetID(), err)
		}
	}()

	res.Campaign = campaign

	return nil
}

type GetCampaignsRequest struct {
	Status *string `schema:"status,omitempty"`
	Page   *uint32 `schema:"page,omitempty"`
	Limit  *uint32 `schema:"limit,omitempty"`
}

func (r *GetCampaignsRequest) GetStatus() string {
	if r != nil && r.Status != nil {
		return *r.Status
	}
	return ""
}

type GetCampaignsResponse struct {
	Campaigns  []*entity.Campaign `json:"campaigns"`
	Pagination *entity.Pagination `json:"pagination,omitempty"`
}

var GetCampaignsValidator = validator.MustForm(map[string]validator.Validator{
	"status": &validator.String{
		Optional: true,
	},
	"page": &validator.UInt32{
		Optional: true,
	},
	"limit": &validator.UInt32{
		Optional: true,
	},
})

func (h *campaignHandler) GetCampaigns(ctx context.Context, req *GetCampaignsRequest, res *GetCampaignsResponse) error {
	if err := GetCampaignsValidator.Validate(req); err != nil {
		return err
	}

	conditions := make([]*repo.Condition, 0)
	if req.GetStatus() != "" {
		status, err := entity.ToCampaignStatus(req.GetStatus())
		if err != nil {
			return err
		}
		conditions = append(conditions, &repo.Condition{
			Field: "status",
			Op:    repo.OpEq,
			Value: uint32(status),
		})
	}

	campaigns, pagination, err := h.campaignRepo.GetMany(ctx, &repo.Filter{
		Conditions: conditions,
		Pagination: &repo.Pagination{
			Page:  req.Page,
			Limit: req.Limit,
		},
	})
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get campaigns failed, err: %v", err)
		return err
	}

	res.Campaigns = campaigns
	res.Pagination = &entity.Pagination{
		Page:    pagination.Page,
		Limit:   pagination.Limit,
		HasNext: pagination.HasNext,
		Total:   pagination.Total,
	}

	return nil
}

type GetCampaignRequest struct {
	ID *uint64 `schema:"id,omitempty"`
}

func (r *GetCampaignRequest) GetID() uint64 {
	if r != nil && r.ID != nil {
		return *r.ID
	}
	return 0
}

type GetCampaignResponse struct {
	Campaign *entity.Campaign `json:"campaign"`
}

var GetCampaignValidator = validator.MustForm(map[string]validator.Validator{
	"id": &validator.UInt64{},
})

func (h *campaignHandler) GetCampaign(ctx context.Context, req *GetCampaignRequest, res *GetCampaignResponse) error {
	if err := GetCampaignValidator.Validate(req); err != nil {
		return err
	}

	campaign, err := h.campaignRepo.GetByID(ctx, req.GetID())
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get campaign failed, campaignID: %v, err: %v", req.GetID(), err)
		return err
	}

	res.Campaign = campaign

	return nil
}

type UpdateCampaignStatusRequest struct {
	ID     *uint64 `json:"id,omitempty"`
	Status *string `json:"status,omitempty"`
}

func (r *UpdateCampaignStatusRequest) GetID() uint64 {
	if r != nil && r.ID != nil {
		return *r.ID
	}
	return 0
}

func (r *UpdateCampaignStatusRequest) GetStatus() string {
	if r != nil && r.Status != nil {
		return *r.Status
	}
	return ""
}

type UpdateCampaignStatusResponse struct {
	Campaign *entity.Campaign `json:"campaign"`
}

var UpdateCampaignStatusValidator = validator.MustForm(map[string]validator.Validator{
	"id":     &validator.UInt64{},
	"status": &validator.String{},
})

func (h *campaignHandler) UpdateCampaignStatus(ctx context.Context, req *UpdateCampaignStatusRequest, res *UpdateCampaignStatusResponse) error {
	if err := UpdateCampaignStatusValidator.Validate(req); err != nil {
		return err
	}

	status, err := entity.ToCampaignStatus(req.GetStatus())
	if err != nil {
		return err
	}

	campaign, err := h.campaignRepo.GetByID(ctx, req.GetID())
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get campaign failed, campaignID: %v, err: %v", req.GetID(), err)
		return err
	}

	if err := campaign.TransitionTo(status, uint64(time.Now().Unix())); err != nil {
		return err
	}

	if err := h.campaignRepo.Update(ctx, campaign); err != nil {
		log.Ctx(ctx).Error().Msgf("update campaign failed, campaignID: %v, err: %v", req.GetID(), err)
		return err
	}

	res.Campaign = campaign

	return nil
}

type DeleteCampaignRequest struct {
	ID *uint64 `json:"id,omitempty"`
}

func (r *DeleteCampaignRequest) GetID() uint64 {
	if r != nil && r.ID != nil {
		return *r.ID
	}
	return 0
}

type DeleteCampaignResponse struct{}

var DeleteCampaignValidator = validator.MustForm(map[string]validator.Validator{
	"id": &validator.UInt64{},
})

func (h *campaignHandler) DeleteCampaign(ctx context.Context, req *DeleteCampaignRequest, res *DeleteCampaignResponse) error {
	if err := DeleteCampaignValidator.Validate(req); err != nil {
		return err
	}

	if _, err := h.campaignRepo.GetByID(ctx, req.GetID()); err != nil {
		return err
	}

	// The campaign and its logs go together.
	return h.txService.RunTx(ctx, func(ctx context.Context) error {
		if err := h.communicationLogRepo.DeleteByCampaignID(ctx, req.GetID()); err != nil {
			log.Ctx(ctx).Error().Msgf("delete campaign logs failed, campaignID: %v, err: %v", req.GetID(), err)
			return err
		}

		if err := h.campaignRepo.Delete(ctx, req.GetID()); err != nil {
			log.Ctx(ctx).Error().Msgf("delete campaign failed, campaignID: %v, err: %v", req.GetID(), err)
			return err
		}

		return nil
	})
}

type GetCampaignLogsRequest struct {
	CampaignID *uint64 `schema:"campaign_id,omitempty"`
	Page       *uint32 `schema:"page,omitempty"`
	Limit      *uint32 `schema:"limit,omitempty"`
}

func (r *GetCampaignLogsRequest) GetCampaignID() uint64 {
	if r != nil && r.CampaignID != nil {
		return *r.CampaignID
	}
	return 0
}

type GetCampaignLogsResponse struct {
	Logs       []*entity.CommunicationLog `json:"logs"`
	Pagination *entity.Pagination         `json:"pagination,omitempty"`
}

var GetCampaignLogsValidator = validator.MustForm(map[string]validator.Validator{
	"campaign_id": &validator.UInt64{},
	"page": &validator.UInt32{
		Optional: true,
	},
	"limit": &validator.UInt32{
		Optional: true,
	},
})

func (h *campaignHandler) GetCampaignLogs(ctx context.Context, req *GetCampaignLogsRequest, res *GetCampaignLogsResponse) error {
	if err := GetCampaignLogsValidator.Validate(req); err != nil {
		return err
	}

	logs, pagination, err := h.communicationLogRepo.GetMany(ctx, &repo.Filter{
		Conditions: []*repo.Condition{
			{Field: "campaign_id", Op: repo.OpEq, Value: req.GetCampaignID()},
		},
		Pagination: &repo.Pagination{
			Page:  req.Page,
			Limit: req.Limit,
		},
	})
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get campaign logs failed, campaignID: %v, err: %v", req.GetCampaignID(), err)
		return err
	}

	res.Logs = logs
	res.Pagination = &entity.Pagination{
		Page:    pagination.Page,
		Limit:   pagination.Limit,
		HasNext: pagination.HasNext,
		Total:   pagination.Total,
	}

	return nil
}
