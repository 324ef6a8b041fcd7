package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyStatusStampsTimestamps(t *testing.T) {
	clog := &CommunicationLog{Status: LogStatusPending}

	clog.ApplyStatus(LogStatusSent, 100)
	assert.Equal(t, LogStatusSent, clog.GetStatus())
	assert.Equal(t, uint64(100), *clog.SentAt)

	clog.ApplyStatus(LogStatusDelivered, 200)
	assert.Equal(t, LogStatusDelivered, clog.GetStatus())
	assert.Equal(t, uint64(200), *clog.DeliveredAt)
	assert.Equal(t, uint64(100), *clog.SentAt)
}

func TestApplyStatusFirstWriteWins(t *testing.T) {
	clog := &CommunicationLog{Status: LogStatusSent}

	clog.ApplyStatus(LogStatusOpened, 100)
	clog.ApplyStatus(LogStatusOpened, 500)

	// replayed receipts keep the original stamp
	assert.Equal(t, uint64(100), *clog.OpenedAt)
	assert.Equal(t, uint64(500), *clog.UpdateTime)
}

func TestReachedCustomer(t *testing.T) {
	assert.True(t, LogStatusSent.ReachedCustomer())
	assert.True(t, LogStatusDelivered.ReachedCustomer())
	assert.True(t, LogStatusOpened.ReachedCustomer())
	assert.True(t, LogStatusClicked.ReachedCustomer())
	assert.False(t, LogStatusPending.ReachedCustomer())
	assert.False(t, LogStatusFailed.ReachedCustomer())
}

func TestToLogStatus(t *testing.T) {
	status, err := ToLogStatus("delivered")
	assert.Nil(t, err)
	assert.Equal(t, LogStatusDelivered, status)

	_, err = ToLogStatus("bounced")
	assert.NotNil(t, err)
}
