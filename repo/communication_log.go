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
	ErrCommunicationLogNotFound = errutil.NotFoundError(errors.New("communication log not found"))
)

type CommunicationLog struct {
	ID             *uint64
	CampaignID     *uint64
	CustomerID     *string
	Content        *string
	Status         *uint32
	VendorResponse *string
	Error          *string
	SentAt         *uint64
	DeliveredAt    *uint64
	OpenedAt       *uint64
	ClickedAt      *uint64
	CreateTime     *uint64
	UpdateTime     *uint64
}

func (m *CommunicationLog) TableName() string {
	return "communication_log_tab"
}

func (m *CommunicationLog) GetID() uint64 {
	if m != nil && m.ID != nil {
		return *m.ID
	}
	return 0
}

func (m *CommunicationLog) GetVendorResponse() string {
	if m != nil && m.VendorResponse != nil {
		return *m.VendorResponse
	}
	return ""
}

type CommunicationLogRepo interface {
	Create(ctx context.Context, log *entity.CommunicationLog) (uint64, error)
	Update(ctx context.Context, log *entity.CommunicationLog) error
	GetByVendorMessageID(ctx context.Context, customerID, messageID string) (*entity.CommunicationLog, error)
	GetMany(ctx context.Context, f *Filter) ([]*entity.CommunicationLog, *Pagination, error)
	CountByStatus(ctx context.Context, campaignID uint64) (map[entity.LogStatus]uint64, error)
	Count(ctx context.Context, f *Filter) (uint64, error)
	DeleteByCampaignID(ctx context.Context, campaignID uint64) error
	Close(ctx context.Context) error
}

type communicationLogRepo struct {
	baseRepo BaseRepo
}

func NewCommunicationLogRepo(_ context.Context, baseRepo BaseRepo) CommunicationLogRepo {
	return &communicationLogRepo{baseRepo: baseRepo}
}

func (r *communicationLogRepo) Create(ctx context.Context, log *entity.CommunicationLog) (uint64, error) {
	logModel, err := ToCommunicationLogModel(log)
	if err != nil {
		return 0, err
	}

	if err := r.baseRepo.Create(ctx, logModel); err != nil {
		return 0, err
	}

	log.ID = logModel.ID

	return logModel.GetID(), nil
}

func (r *communicationLogRepo) Update(ctx context.Context, log *entity.CommunicationLog) error {
	logModel, err := ToCommunicationLogModel(log)
	if err != nil {
		return err
	}
	return r.baseRepo.Update(ctx, logModel)
}

// GetByVendorMessageID looks up a log by the customer and vendor message
// it was sent as. Receipts carry only these two identifiers.
func (r *communicationLogRepo) GetByVendorMessageID(ctx context.Context, customerID, messageID string) (*entity.CommunicationLog, error) {
	logModel := new(CommunicationLog)
	if err := r.baseRepo.Get(ctx, logModel, &Filter{
		Conditions: []*Condition{
			{Field: "customer_id", Op: OpEq, Value: customerID, NextLogicalOp: And},
			{Field: "vendor_response", Op: OpLike, Value: "%" + messageID + "%"},
		},
	}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommunicationLogNotFound
		}
		return nil, err
	}

	log, err := ToCommunicationLog(logModel)
	if err != nil {
		return nil, err
	}

	if log.GetVendorResponse().GetMessageID() != messageID {
		return nil, ErrCommunicationLogNotFound
	}

	return log, nil
}

func (r *communicationLogRepo) GetMany(ctx context.Context, f *Filter) ([]*entity.CommunicationLog, *Pagination, error) {
	res, pagination, err := r.baseRepo.GetMany(ctx, new(CommunicationLog), f)
	if err != nil {
		return nil, nil, err
	}

	logs := make([]*entity.CommunicationLog, 0, len(res))
	for _, m := range res {
		log, err := ToCommunicationLog(m.(*CommunicationLog))
		if err != nil {
			return nil, nil, err
		}
		logs = append(logs, log)
	}

	return logs, pagination, nil
}

type logStatusCount struct {
	Status *uint32
	Count  *uint64
}

func (r *communicationLogRepo) CountByStatus(ctx context.Context, campaignID uint64) (map[entity.LogStatus]uint64, error) {
	rows, err := r.baseRepo.GroupBy(ctx, new(CommunicationLog), new(logStatusCount),
		[]string{"status"}, map[string]string{"count": "count(*)"}, &Filter{
			Conditions: []*Condition{
				{Field: "campaign_id", Op: OpEq, Value: campaignID},
			},
		})
	if err != nil {
		return nil, err
	}

	counts := make(map[entity.LogStatus]uint64, len(rows))
	for _, row := range rows {
		c := row.(*logStatusCount)
		if c.Status == nil || c.Count == nil {
			continue
		}
		counts[entity.LogStatus(*c.Status)] = *c.Count
	}

	return counts, nil
}

func (r *communicationLogRepo) Count(ctx context.Context, f *Filter) (uint64, error) {
	return r.baseRepo.Count(ctx, new(CommunicationLog), f)
}

func (r *communicationLogRepo) DeleteByCampaignID(ctx context.Context, campaignID uint64) error {
	return r.baseRepo.Delete(ctx, new(CommunicationLog), &Filter{
		Conditions: []*Condition{
			{Field: "campaign_id", Op: OpEq, Value: campaignID},
		},
	})
}

func (r *communicationLogRepo) Close(ctx context.Context) error {
	return r.baseRepo.Close(ctx)
}

func ToCommunicationLog(logModel *CommunicationLog) (*entity.CommunicationLog, error) {
	var vendorResponse *entity.VendorResponse
	if logModel.GetVendorResponse() != "" {
		vendorResponse = new(entity.VendorResponse)
		if err := json.Unmarshal([]byte(logModel.GetVendorResponse()), vendorResponse); err != nil {
			return nil, err
		}
	}

	var status entity.LogStatus
	if logModel.Status != nil {
		status = entity.LogStatus(*logModel.Status)
	}

	return &entity.CommunicationLog{
		ID:             logModel.ID,
		CampaignID:     logModel.CampaignID,
		CustomerID:     logModel.CustomerID,
		Content:        logModel.Content,
		Status:         status,
		VendorResponse: vendorResponse,
		Error:          logModel.Error,
		SentAt:         logModel.SentAt,
		DeliveredAt:    logModel.DeliveredAt,
		OpenedAt:       logModel.OpenedAt,
		ClickedAt:      logModel.ClickedAt,
		CreateTime:     logModel.CreateTime,
		UpdateTime:     logModel.UpdateTime,
	}, nil
}

func ToCommunicationLogModel(log *entity.CommunicationLog) (*CommunicationLog, error) {
	var vendorResponse *string
	if log.VendorResponse != nil {
		b, err := json.Marshal(log.VendorResponse)
		if err != nil {
			return nil, err
		}
		vendorResponse = goutil.String(string(b))
	}

	var status *uint32
	if log.Status != entity.LogStatusUnknown {
		status = goutil.Uint32(uint32(log.Status))
	}

	return &CommunicationLog{
		ID:             log.ID,
		CampaignID:     log.CampaignID,
		CustomerID:     log.CustomerID,
		Content:        log.Content,
		Status:         status,
		VendorResponse: vendorResponse,
		Error:          log.Error,
		SentAt:         log.SentAt,
		DeliveredAt:    log.DeliveredAt,
		OpenedAt:       log.OpenedAt,
		ClickedAt:      log.ClickedAt,
		CreateTime:     log.CreateTime,
		UpdateTime:     log.UpdateTime,
	}, nil
}
