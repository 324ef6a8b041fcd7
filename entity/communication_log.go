package entity

import (
	"crm/pkg/errutil"
	"fmt"
)

type LogStatus uint32

const (
	LogStatusUnknown LogStatus = iota
	LogStatusPending
	LogStatusSent
	LogStatusFailed
	LogStatusDelivered
	LogStatusOpened
	LogStatusClicked
)

var LogStatuses = map[LogStatus]string{
	LogStatusPending:   "pending",
	LogStatusSent:      "sent",
	LogStatusFailed:    "failed",
	LogStatusDelivered: "delivered",
	LogStatusOpened:    "opened",
	LogStatusClicked:   "clicked",
}

func (s LogStatus) String() string {
	return LogStatuses[s]
}

func ToLogStatus(s string) (LogStatus, error) {
	for status, name := range LogStatuses {
		if name == s {
			return status, nil
		}
	}
	return LogStatusUnknown, errutil.ValidationError(fmt.Errorf("invalid log status: %s", s))
}

// ReachedCustomer reports whether the log status means the message left
// the vendor successfully. Delivered, opened and clicked imply sent.
func (s LogStatus) ReachedCustomer() bool {
	switch s {
	case LogStatusSent, LogStatusDelivered, LogStatusOpened, LogStatusClicked:
		return true
	}
	return false
}

type VendorResponse struct {
	MessageID *string `json:"message_id,omitempty"`
	Timestamp *string `json:"timestamp,omitempty"`
	Status    *string `json:"status,omitempty"`
	Error     *string `json:"error,omitempty"`
}

func (r *VendorResponse) GetMessageID() string {
	if r != nil && r.MessageID != nil {
		return *r.MessageID
	}
	return ""
}

type CommunicationLog struct {
	ID             *uint64         `json:"id,omitempty"`
	CampaignID     *uint64         `json:"campaign_id,omitempty"`
	CustomerID     *string         `json:"customer_id,omitempty"`
	Content        *string         `json:"content,omitempty"`
	Status         LogStatus       `json:"status"`
	VendorResponse *VendorResponse `json:"vendor_response,omitempty"`
	Error          *string         `json:"error,omitempty"`
	SentAt         *uint64         `json:"sent_at,omitempty"`
	DeliveredAt    *uint64         `json:"delivered_at,omitempty"`
	OpenedAt       *uint64         `json:"opened_at,omitempty"`
	ClickedAt      *uint64         `json:"clicked_at,omitempty"`
	CreateTime     *uint64         `json:"create_time,omitempty"`
	UpdateTime     *uint64         `json:"update_time,omitempty"`
}

func (e *CommunicationLog) GetID() uint64 {
	if e != nil && e.ID != nil {
		return *e.ID
	}
	return 0
}

func (e *CommunicationLog) GetCampaignID() uint64 {
	if e != nil && e.CampaignID != nil {
		return *e.CampaignID
	}
	return 0
}

func (e *CommunicationLog) GetCustomerID() string {
	if e != nil && e.CustomerID != nil {
		return *e.CustomerID
	}
	return ""
}

func (e *CommunicationLog) GetContent() string {
	if e != nil && e.Content != nil {
		return *e.Content
	}
	return ""
}

func (e *CommunicationLog) GetStatus() LogStatus {
	if e != nil {
		return e.Status
	}
	return LogStatusUnknown
}

func (e *CommunicationLog) GetVendorResponse() *VendorResponse {
	if e != nil {
		return e.VendorResponse
	}
	return nil
}

// ApplyStatus moves the log to the given status and stamps the matching
// timestamp if it has not been stamped before. Receipts can arrive out
// of order, so an earlier stamp is never overwritten.
func (e *CommunicationLog) ApplyStatus(status LogStatus, now uint64) {
	e.Status = status
	e.UpdateTime = &now

	switch status {
	case LogStatusSent:
		if e.SentAt == nil {
			e.SentAt = &now
		}
	case LogStatusDelivered:
		if e.DeliveredAt == nil {
			e.DeliveredAt = &now
		}
	case LogStatusOpened:
		if e.OpenedAt == nil {
			e.OpenedAt = &now
		}
	case LogStatusClicked:
		if e.ClickedAt == nil {
			e.ClickedAt = &now
		}
	}
}
