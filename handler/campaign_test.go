package handler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"crm/config"
	"crm/entity"
	"crm/pkg/goutil"
)

type fakeTxService struct{}

func (s *fakeTxService) RunTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeNotifier struct {
	mu     sync.Mutex
	titles []string
}

func (n *fakeNotifier) Notify(_ context.Context, _ uint64, _, title, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, title)
}

// fakeDeliveryHandler records delivery starts and signals on a channel
// so tests can wait for the async kickoff.
type fakeDeliveryHandler struct {
	started chan *entity.Campaign
}

func newFakeDeliveryHandler() *fakeDeliveryHandler {
	return &fakeDeliveryHandler{started: make(chan *entity.Campaign, 1)}
}

func (h *fakeDeliveryHandler) InitiateCampaignDelivery(_ context.Context, campaign *entity.Campaign) error {
	h.started <- campaign
	return nil
}

func (h *fakeDeliveryHandler) RecordDeliveryReceipt(_ context.Context, _ *RecordDeliveryReceiptRequest, _ *RecordDeliveryReceiptResponse) error {
	return nil
}

func newCreateCampaignRequest() *CreateCampaignRequest {
	return &CreateCampaignRequest{
		Name:        goutil.String("Spring Sale"),
		Description: goutil.String("Big sale this week only."),
		Type:        goutil.String(entity.CampaignTypeEmail),
		Budget:      goutil.Float64(1000),
		CompanyName: goutil.String("Acme"),
		Segment: &entity.Segment{
			Operator: goutil.String(entity.QueryOpAnd),
			Rules: []*entity.Rule{
				{Field: goutil.String("segment"), Op: goutil.String(entity.RuleOpEq), Value: goutil.String("Active")},
			},
		},
	}
}

func newCampaignFixture(customers ...*entity.Customer) (*fakeCampaignRepo, *fakeDeliveryHandler, *fakeNotifier, CampaignHandler) {
	var (
		cfg             = &config.Config{Delivery: config.Delivery{BatchSize: 2}}
		campaignRepo    = newFakeCampaignRepo()
		logRepo         = new(fakeCommunicationLogRepo)
		customerRepo    = &fakeCustomerRepo{customers: customers}
		deliveryHandler = newFakeDeliveryHandler()
		notifier        = new(fakeNotifier)
	)

	h := NewCampaignHandler(cfg, new(fakeTxService), campaignRepo, logRepo, customerRepo, deliveryHandler, notifier)
	return campaignRepo, deliveryHandler, notifier, h
}

func TestCreateCampaign(t *testing.T) {
	customers := []*entity.Customer{
		{ID: goutil.String("c1")},
		{ID: goutil.String("c2")},
	}
	campaignRepo, deliveryHandler, _, h := newCampaignFixture(customers...)

	res := new(CreateCampaignResponse)
	err := h.CreateCampaign(context.Background(), newCreateCampaignRequest(), res)
	assert.Nil(t, err)

	campaign := res.Campaign
	assert.NotEqual(t, uint64(0), campaign.GetID())
	assert.Equal(t, entity.CampaignStatusActive, campaign.GetStatus())
	assert.Equal(t, uint64(2), campaign.GetDeliveryStats().GetAudienceSize())
	assert.Equal(t, uint64(0), campaign.GetDeliveryStats().GetSent())

	// delivery kicks off in the background
	select {
	case delivered := <-deliveryHandler.started:
		assert.Equal(t, campaign.GetID(), delivered.GetID())
	case <-time.After(time.Second):
		t.Fatal("delivery was not initiated")
	}

	stored, err := campaignRepo.GetByID(context.Background(), campaign.GetID())
	assert.Nil(t, err)
	assert.Equal(t, "Spring Sale", stored.GetName())
}

func TestCreateCampaignValidation(t *testing.T) {
	_, _, _, h := newCampaignFixture()

	req := newCreateCampaignRequest()
	req.Type = goutil.String("billboard")
	err := h.CreateCampaign(context.Background(), req, new(CreateCampaignResponse))
	assert.NotNil(t, err)

	req = newCreateCampaignRequest()
	req.Segment = &entity.Segment{}
	err = h.CreateCampaign(context.Background(), req, new(CreateCampaignResponse))
	assert.NotNil(t, err)

	req = newCreateCampaignRequest()
	req.Budget = goutil.Float64(-5)
	err = h.CreateCampaign(context.Background(), req, new(CreateCampaignResponse))
	assert.NotNil(t, err)
}

func TestUpdateCampaignStatus(t *testing.T) {
	campaignRepo, _, _, h := newCampaignFixture()
	campaignRepo.campaigns[1] = &entity.Campaign{
		ID:     goutil.Uint64(1),
		Status: entity.CampaignStatusActive,
	}

	res := new(UpdateCampaignStatusResponse)
	err := h.UpdateCampaignStatus(context.Background(), &UpdateCampaignStatusRequest{
		ID:     goutil.Uint64(1),
		Status: goutil.String("paused"),
	}, res)
	assert.Nil(t, err)
	assert.Equal(t, entity.CampaignStatusPaused, res.Campaign.GetStatus())

	// terminal states reject further transitions
	err = h.UpdateCampaignStatus(context.Background(), &UpdateCampaignStatusRequest{
		ID:     goutil.Uint64(1),
		Status: goutil.String("completed"),
	}, new(UpdateCampaignStatusResponse))
	assert.NotNil(t, err)

	err = h.UpdateCampaignStatus(context.Background(), &UpdateCampaignStatusRequest{
		ID:     goutil.Uint64(1),
		Status: goutil.String("bogus"),
	}, new(UpdateCampaignStatusResponse))
	assert.NotNil(t, err)
}

func TestDeleteCampaign(t *testing.T) {
	campaignRepo, _, _, h := newCampaignFixture()
	campaignRepo.campaigns[1] = &entity.Campaign{
		ID:     goutil.Uint64(1),
		Status: entity.CampaignStatusCompleted,
	}

	err := h.DeleteCampaign(context.Background(), &DeleteCampaignRequest{ID: goutil.Uint64(1)}, new(DeleteCampaignResponse))
	assert.Nil(t, err)

	_, err = campaignRepo.GetByID(context.Background(), 1)
	assert.NotNil(t, err)

	// deleting again fails, the campaign is gone
	err = h.DeleteCampaign(context.Background(), &DeleteCampaignRequest{ID: goutil.Uint64(1)}, new(DeleteCampaignResponse))
	assert.NotNil(t, err)
}
