package repo

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"crm/entity"
	"crm/pkg/errutil"
	"crm/pkg/goutil"
)

var (
	ErrCampaignNotFound = errutil.NotFoundError(errors.New("campaign not found"))
)

type Campaign struct {
	ID            *uint64
	Name          *string
	CampaignDesc  *string
	CampaignType  *string
	Budget        *float64
	CompanyName   *string
	Status        *uint32
	CreatorID     *uint64
	Segment       *string
	DeliveryStats *string
	CreateTime    *uint64
	UpdateTime    *uint64
}

func (m *Campaign) TableName() string {
	return "campaign_tab"
}

func (m *Campaign) GetID() uint64 {
	if m != nil && m.ID != nil {
		return *m.ID
	}
	return 0
}

func (m *Campaign) GetSegment() string {
	if m != nil && m.Segment != nil {
		return *m.Segment
	}
	return ""
}

func (m *Campaign) GetDeliveryStats() string {
	if m != nil && m.DeliveryStats != nil {
		return *m.DeliveryStats
	}
	return ""
}

type CampaignRepo interface {
	Create(ctx context.Context, campaign *entity.Campaign) (uint64, error)
	GetByID(ctx context.Context, id uint64) (*entity.Campaign, error)
	GetMany(ctx context.Context, f *Filter) ([]*entity.Campaign, *Pagination, error)
	Update(ctx context.Context, campaign *entity.Campaign) error
	Delete(ctx context.Context, id uint64) error
	Count(ctx context.Context, f *Filter) (uint64, error)
	CountByStatus(ctx context.Context) (map[entity.CampaignStatus]uint64, error)
	AvgBudget(ctx context.Context) (float64, error)
	Close(ctx context.Context) error
}

type campaignRepo struct {
	baseRepo BaseRepo
}

func NewCampaignRepo(_ context.Context, baseRepo BaseRepo) CampaignRepo {
	return &campaignRepo{baseRepo: baseRepo}
}

func (r *campaignRepo) Create(ctx context.Context, campaign *entity.Campaign) (uint64, error) {
	campaignModel, err := ToCampaignModel(campaign)
	if err != nil {
		return 0, err
	}

	if err := r.baseRepo.Create(ctx, campaignModel); err != nil {
		return 0, err
	}

	campaign.ID = campaignModel.ID

	return campaignModel.GetID(), nil
}

func (r *campaignRepo) GetByID(ctx context.Context, id uint64) (*entity.Campaign, error) {
	campaignModel := new(Campaign)
	if err := r.baseRepo.Get(ctx, campaignModel, &Filter{
		Conditions: []*Condition{
			{Field: "id", Op: OpEq, Value: id},
		},
	}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}

	return ToCampaign(campaignModel)
}

func (r *campaignRepo) GetMany(ctx context.Context, f *Filter) ([]*entity.Campaign, *Pagination, error) {
	res, pagination, err := r.baseRepo.GetMany(ctx, new(Campaign), f)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]*entity.Campaign, 0, len(res))
	for _, m := range res {
		campaign, err := ToCampaign(m.(*Campaign))
		if err != nil {
			return nil, nil, err
		}
		campaigns = append(campaigns, campaign)
	}

	return campaigns, pagination, nil
}

func (r *campaignRepo) Update(ctx context.Context, campaign *entity.Campaign) error {
	campaignModel, err := ToCampaignModel(campaign)
	if err != nil {
		return err
	}
	return r.baseRepo.Update(ctx, campaignModel)
}

func (r *campaignRepo) Delete(ctx context.Context, id uint64) error {
	return r.baseRepo.Delete(ctx, new(Campaign), &Filter{
		Conditions: []*Condition{
			{Field: "id", Op: OpEq, Value: id},
		},
	})
}

func (r *campaignRepo) Count(ctx context.Context, f *Filter) (uint64, error) {
	return r.baseRepo.Count(ctx, new(Campaign), f)
}

type campaignStatusCount struct {
	Status *uint32
	Count  *uint64
}

func (r *campaignRepo) CountByStatus(ctx context.Context) (map[entity.CampaignStatus]uint64, error) {
	rows, err := r.baseRepo.GroupBy(ctx, new(Campaign), new(campaignStatusCount),
		[]string{"status"}, map[string]string{"count": "count(*)"}, new(Filter))
	if err != nil {
		return nil, err
	}

	counts := make(map[entity.CampaignStatus]uint64, len(rows))
	for _, row := range rows {
		c := row.(*campaignStatusCount)
		if c.Status == nil || c.Count == nil {
			continue
		}
		counts[entity.CampaignStatus(*c.Status)] = *c.Count
	}

	return counts, nil
}

func (r *campaignRepo) AvgBudget(ctx context.Context) (float64, error) {
	return r.baseRepo.Avg(ctx, new(Campaign), "budget", new(Filter))
}

func (r *campaignRepo) Close(ctx context.Context) error {
	return r.baseRepo.Close(ctx)
}

func ToCampaign(campaignModel *Campaign) (*entity.Campaign, error) {
	var segment *entity.Segment
	if campaignModel.GetSegment() != "" {
		segment = new(entity.Segment)
		if err := json.Unmarshal([]byte(campaignModel.GetSegment()), segment); err != nil {
			return nil, err
		}
	}

	var deliveryStats *entity.DeliveryStats
	if campaignModel.GetDeliveryStats() != "" {
		deliveryStats = new(entity.DeliveryStats)
		if err := json.Unmarshal([]byte(campaignModel.GetDeliveryStats()), deliveryStats); err != nil {
			return nil, err
		}
	}

	var status entity.CampaignStatus
	if campaignModel.Status != nil {
		status = entity.CampaignStatus(*campaignModel.Status)
	}

	return &entity.Campaign{
		ID:            campaignModel.ID,
		Name:          campaignModel.Name,
		Description:   campaignModel.CampaignDesc,
		Type:          campaignModel.CampaignType,
		Budget:        campaignModel.Budget,
		CompanyName:   campaignModel.CompanyName,
		Status:        status,
		CreatorID:     campaignModel.CreatorID,
		Segment:       segment,
		DeliveryStats: deliveryStats,
		CreateTime:    campaignModel.CreateTime,
		UpdateTime:    campaignModel.UpdateTime,
	}, nil
}

func ToCampaignModel(campaign *entity.Campaign) (*Campaign, error) {
	var segment *string
	if campaign.Segment != nil {
		b, err := json.Marshal(campaign.Segment)
		if err != nil {
			return nil, err
		}
		segment = goutil.String(string(b))
	}

	var deliveryStats *string
	if campaign.DeliveryStats != nil {
		b, err := json.Marshal(campaign.DeliveryStats)
		if err != nil {
			return nil, err
		}
		deliveryStats = goutil.String(string(b))
	}

	// An unknown status means the caller is not touching status, e.g. a
	// stats-only update. Leave it nil so it is not written.
	var status *uint32
	if campaign.Status != entity.CampaignStatusUnknown {
		status = goutil.Uint32(uint32(campaign.Status))
	}

	return &Campaign{
		ID:            campaign.ID,
		Name:          campaign.Name,
		CampaignDesc:  campaign.Description,
		CampaignType:  campaign.Type,
		Budget:        campaign.Budget,
		CompanyName:   campaign.CompanyName,
		Status:        status,
		CreatorID:     campaign.CreatorID,
		Segment:       segment,
		DeliveryStats: deliveryStats,
		CreateTime:    campaign.CreateTime,
		UpdateTime:    campaign.UpdateTime,
	}, nil
}
