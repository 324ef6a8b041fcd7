package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"crm/config"
	"crm/dep"
	"crm/entity"
	"crm/pkg/goutil"
	"crm/pkg/validator"
	"crm/repo"
)

type DeliveryHandler interface {
	InitiateCampaignDelivery(ctx context.Context, campaign *entity.Campaign) error
	RecordDeliveryReceipt(ctx context.Context, req *RecordDeliveryReceiptRequest, res *RecordDeliveryReceiptResponse) error
}

type deliveryHandler struct {
	cfg                  *config.Config
	campaignRepo         repo.CampaignRepo
	communicationLogRepo repo.CommunicationLogRepo
	customerRepo         repo.CustomerRepo
	vendorService        dep.VendorService
	statsHandler         StatsHandler
}

func NewDeliveryHandler(
	cfg *config.Config,
	campaignRepo repo.CampaignRepo,
	communicationLogRepo repo.CommunicationLogRepo,
	customerRepo repo.CustomerRepo,
	vendorService dep.VendorService,
	statsHandler StatsHandler,
) DeliveryHandler {
	return &deliveryHandler{
		cfg:                  cfg,
		campaignRepo:         campaignRepo,
		communicationLogRepo: communicationLogRepo,
		customerRepo:         customerRepo,
		vendorService:        vendorService,
		statsHandler:         statsHandler,
	}
}

// InitiateCampaignDelivery fans personalized messages out to the vendor,
// one batch of customers at a time. Customers within a batch are sent
// concurrently and the next batch starts only when the whole batch has
// reached sent or failed, which bounds in-flight vendor calls.
//
// Per-customer failures are absorbed: they mark the log failed and show
// up in aggregate stats. Only a failure to resolve the audience marks
// the campaign failed and propagates to the caller.
func (h *deliveryHandler) InitiateCampaignDelivery(ctx context.Context, campaign *entity.Campaign) error {
	var (
		batchSize = h.cfg.Delivery.BatchSize
		from      = 0
		total     = 0
	)

	for {
		customers, err := h.customerRepo.GetBySegment(ctx, campaign.GetSegment(), from, batchSize)
		if err != nil {
			log.Ctx(ctx).Error().Msgf("resolve audience failed, campaignID: %v, err: %v", campaign.GetID(), err)
			h.markCampaignStatus(ctx, campaign.GetID(), entity.CampaignStatusFailed)
			return err
		}

		// An empty first page means an empty audience. The campaign
		// completes without creating any logs.
		if len(customers) == 0 {
			break
		}

		g := new(errgroup.Group)
		for _, customer := range customers {
			customer := customer
			g.Go(func() error {
				h.deliverToCustomer(ctx, campaign, customer)
				return nil
			})
		}
		_ = g.Wait()

		total += len(customers)
		from += batchSize

		// An operator may pause the campaign mid-delivery. Check after
		// every batch, the final partial one included, so a persisted
		// pause is never overwritten with completed.
		current, err := h.campaignRepo.GetByID(ctx, campaign.GetID())
		if err == nil && current.GetStatus() == entity.CampaignStatusPaused {
			log.Ctx(ctx).Info().Msgf("campaign paused, stopping delivery, campaignID: %v", campaign.GetID())
			return nil
		}

		if len(customers) < batchSize {
			break
		}
	}

	log.Ctx(ctx).Info().Msgf("campaign delivery done, campaignID: %v, customers: %d", campaign.GetID(), total)
	h.markCampaignStatus(ctx, campaign.GetID(), entity.CampaignStatusCompleted)

	return nil
}

func (h *deliveryHandler) deliverToCustomer(ctx context.Context, campaign *entity.Campaign, customer *entity.Customer) {
	var (
		now     = uint64(time.Now().Unix())
		content = RenderMessage(customer, campaign)
		clog    = &entity.CommunicationLog{
			CampaignID: campaign.ID,
			CustomerID: customer.ID,
			Content:    goutil.String(content),
			Status:     entity.LogStatusPending,
			CreateTime: goutil.Uint64(now),
			UpdateTime: goutil.Uint64(now),
		}
	)

	if _, err := h.communicationLogRepo.Create(ctx, clog); err != nil {
		log.Ctx(ctx).Error().Msgf("create communication log failed, campaignID: %v, customerID: %v, err: %v",
			campaign.GetID(), customer.GetID(), err)

		// Write a catch-all failed log so the customer still counts
		// towards failed and audience size.
		clog.ApplyStatus(entity.LogStatusFailed, now)
		clog.Error = goutil.String(fmt.Sprintf("failed to record message: %v", err))
		if _, err := h.communicationLogRepo.Create(ctx, clog); err != nil {
			log.Ctx(ctx).Error().Msgf("create failed communication log failed, campaignID: %v, customerID: %v, err: %v",
				campaign.GetID(), customer.GetID(), err)
			return
		}

		if _, err := h.statsHandler.RecomputeDeliveryStats(ctx, campaign.GetID()); err != nil {
			log.Ctx(ctx).Error().Msgf("recompute stats failed, campaignID: %v, err: %v", campaign.GetID(), err)
		}
		return
	}

	result := h.vendorService.Send(ctx, customer, content)

	now = uint64(time.Now().Unix())
	if !result.Success {
		clog.ApplyStatus(entity.LogStatusFailed, now)
		clog.Error = goutil.String(result.Error)
		clog.VendorResponse = &entity.VendorResponse{
			Timestamp: goutil.String(result.Timestamp),
			Status:    goutil.String(entity.LogStatusFailed.String()),
			Error:     goutil.String(result.Error),
		}
	} else {
		clog.ApplyStatus(entity.LogStatusSent, now)
		clog.VendorResponse = &entity.VendorResponse{
			MessageID: goutil.String(result.MessageID),
			Timestamp: goutil.String(result.Timestamp),
			Status:    goutil.String(entity.LogStatusSent.String()),
		}
	}

	if err := h.communicationLogRepo.Update(ctx, clog); err != nil {
		log.Ctx(ctx).Error().Msgf("update communication log failed, logID: %v, err: %v", clog.GetID(), err)
		return
	}

	if _, err := h.statsHandler.RecomputeDeliveryStats(ctx, campaign.GetID()); err != nil {
		log.Ctx(ctx).Error().Msgf("recompute stats failed, campaignID: %v, err: %v", campaign.GetID(), err)
	}

	// Receipts only follow successful sends.
	if result.Success {
		h.vendorService.ScheduleDeliveryReceipt(ctx, customer.GetID(), result.MessageID, h.applyReceipt)
	}
}

// applyReceipt handles the vendor's asynchronous receipt callback. A
// failure in the receipt pipeline marks the log failed with an error
// that distinguishes it from a send failure.
func (h *deliveryHandler) applyReceipt(ctx context.Context, customerID, messageID string, status entity.LogStatus) {
	if err := h.recordReceipt(ctx, customerID, messageID, status, ""); err != nil {
		log.Ctx(ctx).Error().Msgf("apply delivery receipt failed, customerID: %v, messageID: %v, err: %v",
			customerID, messageID, err)
	}
}

type RecordDeliveryReceiptRequest struct {
	CustomerID *string `json:"customer_id,omitempty"`
	MessageID  *string `json:"message_id,omitempty"`
	Status     *string `json:"status,omitempty"`
	Error      *string `json:"error,omitempty"`
}

func (r *RecordDeliveryReceiptRequest) GetCustomerID() string {
	if r != nil && r.CustomerID != nil {
		return *r.CustomerID
	}
	return ""
}

func (r *RecordDeliveryReceiptRequest) GetMessageID() string {
	if r != nil && r.MessageID != nil {
		return *r.MessageID
	}
	return ""
}

func (r *RecordDeliveryReceiptRequest) GetStatus() string {
	if r != nil && r.Status != nil {
		return *r.Status
	}
	return ""
}

func (r *RecordDeliveryReceiptRequest) GetError() string {
	if r != nil && r.Error != nil {
		return *r.Error
	}
	return ""
}

type RecordDeliveryReceiptResponse struct {
	Log *entity.CommunicationLog `json:"log"`
}

var RecordDeliveryReceiptValidator = validator.MustForm(map[string]validator.Validator{
	"customer_id": &validator.String{},
	"message_id":  &validator.String{},
	"status": &validator.String{
		In: []string{
			entity.LogStatusDelivered.String(),
			entity.LogStatusOpened.String(),
			entity.LogStatusClicked.String(),
			entity.LogStatusFailed.String(),
		},
	},
	"error": &validator.String{
		Optional: true,
	},
})

// RecordDeliveryReceipt is idempotent per (customerID, messageID):
// replaying a receipt re-applies the same status and first-write-wins
// timestamps keep the original stamp.
func (h *deliveryHandler) RecordDeliveryReceipt(ctx context.Context, req *RecordDeliveryReceiptRequest, res *RecordDeliveryReceiptResponse) error {
	if err := RecordDeliveryReceiptValidator.Validate(req); err != nil {
		return err
	}

	status, err := entity.ToLogStatus(req.GetStatus())
	if err != nil {
		return err
	}

	if err := h.recordReceipt(ctx, req.GetCustomerID(), req.GetMessageID(), status, req.GetError()); err != nil {
		return err
	}

	clog, err := h.communicationLogRepo.GetByVendorMessageID(ctx, req.GetCustomerID(), req.GetMessageID())
	if err != nil {
		return err
	}

	res.Log = clog

	return nil
}

func (h *deliveryHandler) recordReceipt(ctx context.Context, customerID, messageID string, status entity.LogStatus, errMsg string) error {
	clog, err := h.communicationLogRepo.GetByVendorMessageID(ctx, customerID, messageID)
	if err != nil {
		return err
	}

	now := uint64(time.Now().Unix())
	if status == entity.LogStatusFailed || errMsg != "" {
		clog.ApplyStatus(entity.LogStatusFailed, now)
		if errMsg == "" {
			errMsg = "delivery receipt reported failure"
		}
		clog.Error = goutil.String(fmt.Sprintf("receipt error: %s", errMsg))
	} else {
		clog.ApplyStatus(status, now)
	}

	if err := h.communicationLogRepo.Update(ctx, clog); err != nil {
		log.Ctx(ctx).Error().Msgf("update communication log failed, logID: %v, err: %v", clog.GetID(), err)
		return err
	}

	if _, err := h.statsHandler.RecomputeDeliveryStats(ctx, clog.GetCampaignID()); err != nil {
		return err
	}

	return nil
}

// markCampaignStatus re-fetches the campaign so the transition is
// validated against the persisted status, not the goroutine's copy. An
// operator pause landing mid-delivery then rejects the terminal mark
// instead of being overwritten.
func (h *deliveryHandler) markCampaignStatus(ctx context.Context, campaignID uint64, status entity.CampaignStatus) {
	campaign, err := h.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get campaign failed, campaignID: %v, err: %v", campaignID, err)
		return
	}

	if err := campaign.TransitionTo(status, uint64(time.Now().Unix())); err != nil {
		log.Ctx(ctx).Error().Msgf("campaign status transition rejected, campaignID: %v, err: %v", campaignID, err)
		return
	}

	if err := h.campaignRepo.Update(ctx, campaign); err != nil {
		log.Ctx(ctx).Error().Msgf("update campaign status failed, campaignID: %v, err: %v", campaignID, err)
	}
}
