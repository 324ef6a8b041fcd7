package dep

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"crm/config"
	"crm/entity"
)

const vendorFailureMessage = "vendor API failed to send message"

type SendResult struct {
	Success   bool
	MessageID string
	Timestamp string
	Error     string
}

// ReceiptFunc is invoked when the vendor reports the fate of a sent
// message. Implementations must tolerate receipts for unknown messages.
type ReceiptFunc func(ctx context.Context, customerID, messageID string, status entity.LogStatus)

// VendorService simulates a third-party message vendor. Sends succeed
// with a configured probability, and successful sends are followed by
// an asynchronous delivery receipt after a configured delay.
type VendorService interface {
	Send(ctx context.Context, customer *entity.Customer, content string) *SendResult
	ScheduleDeliveryReceipt(ctx context.Context, customerID, messageID string, fn ReceiptFunc)
	Close(ctx context.Context) error
}

type vendorService struct {
	cfg  config.Vendor
	mu   sync.Mutex
	rand *rand.Rand
	wg   sync.WaitGroup
}

func NewVendorService(_ context.Context, cfg config.Vendor) VendorService {
	return &vendorService{
		cfg:  cfg,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *vendorService) Send(_ context.Context, customer *entity.Customer, _ string) *SendResult {
	if s.draw() >= s.cfg.SuccessRate {
		return &SendResult{
			Success:   false,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Error:     vendorFailureMessage,
		}
	}

	return &SendResult{
		Success:   true,
		MessageID: uuid.New().String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func (s *vendorService) ScheduleDeliveryReceipt(ctx context.Context, customerID, messageID string, fn ReceiptFunc) {
	status := s.drawReceiptStatus()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		time.Sleep(time.Duration(s.cfg.ReceiptDelayMillis) * time.Millisecond)

		log.Ctx(ctx).Debug().Msgf("vendor receipt, messageID: %s, status: %s", messageID, status)
		fn(ctx, customerID, messageID, status)
	}()
}

// Close waits for in-flight receipts to land.
func (s *vendorService) Close(_ context.Context) error {
	s.wg.Wait()
	return nil
}

func (s *vendorService) draw() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rand.Float64()
}

// drawReceiptStatus picks delivered, opened or clicked by cumulative
// weight.
func (s *vendorService) drawReceiptStatus() entity.LogStatus {
	var (
		weights = []struct {
			status entity.LogStatus
			weight float64
		}{
			{entity.LogStatusDelivered, s.cfg.DeliveredWeight},
			{entity.LogStatusOpened, s.cfg.OpenedWeight},
			{entity.LogStatusClicked, s.cfg.ClickedWeight},
		}
		total float64
	)
	for _, w := range weights {
		total += w.weight
	}
	if total == 0 {
		return entity.LogStatusDelivered
	}

	var (
		r   = s.draw() * total
		acc float64
	)
	for _, w := range weights {
		acc += w.weight
		if r < acc {
			return w.status
		}
	}
	return weights[len(weights)-1].status
}
