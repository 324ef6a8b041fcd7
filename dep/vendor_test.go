package dep

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"crm/config"
	"crm/entity"
	"crm/pkg/goutil"
)

func TestVendorSendAlwaysSucceeds(t *testing.T) {
	svc := NewVendorService(context.Background(), config.Vendor{SuccessRate: 1})
	customer := &entity.Customer{ID: goutil.String("c1")}

	for i := 0; i < 20; i++ {
		result := svc.Send(context.Background(), customer, "hello")
		assert.True(t, result.Success)
		assert.NotEmpty(t, result.MessageID)
		assert.NotEmpty(t, result.Timestamp)
		assert.Empty(t, result.Error)
	}
}

func TestVendorSendAlwaysFails(t *testing.T) {
	svc := NewVendorService(context.Background(), config.Vendor{SuccessRate: 0})
	customer := &entity.Customer{ID: goutil.String("c1")}

	for i := 0; i < 20; i++ {
		result := svc.Send(context.Background(), customer, "hello")
		assert.False(t, result.Success)
		assert.Empty(t, result.MessageID)
		assert.Equal(t, "vendor API failed to send message", result.Error)
	}
}

func TestVendorReceiptStatusByWeight(t *testing.T) {
	tests := []struct {
		cfg    config.Vendor
		status entity.LogStatus
	}{
		{config.Vendor{DeliveredWeight: 1}, entity.LogStatusDelivered},
		{config.Vendor{OpenedWeight: 1}, entity.LogStatusOpened},
		{config.Vendor{ClickedWeight: 1}, entity.LogStatusClicked},
		// no weights at all falls back to delivered
		{config.Vendor{}, entity.LogStatusDelivered},
	}

	for _, tc := range tests {
		svc := NewVendorService(context.Background(), tc.cfg)

		received := make(chan entity.LogStatus, 1)
		svc.ScheduleDeliveryReceipt(context.Background(), "c1", "m1",
			func(_ context.Context, customerID, messageID string, status entity.LogStatus) {
				assert.Equal(t, "c1", customerID)
				assert.Equal(t, "m1", messageID)
				received <- status
			})

		assert.Nil(t, svc.Close(context.Background()))
		assert.Equal(t, tc.status, <-received)
	}
}
