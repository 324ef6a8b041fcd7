package mq

type Payload uint32

const (
	PayloadUnknown Payload = iota
	PayloadCreateNotification
)

var Payloads = map[Payload]string{
	PayloadCreateNotification: "create_notification",
}

type CreateNotification struct {
	UserID           *uint64 `json:"user_id,omitempty"`
	NotificationType *string `json:"notification_type,omitempty"`
	Title            *string `json:"title,omitempty"`
	Message          *string `json:"message,omitempty"`
}

func (m *CreateNotification) GetUserID() uint64 {
	if m != nil && m.UserID != nil {
		return *m.UserID
	}
	return 0
}

func (m *CreateNotification) GetNotificationType() string {
	if m != nil && m.NotificationType != nil {
		return *m.NotificationType
	}
	return ""
}

func (m *CreateNotification) GetTitle() string {
	if m != nil && m.Title != nil {
		return *m.Title
	}
	return ""
}

func (m *CreateNotification) GetMessage() string {
	if m != nil && m.Message != nil {
		return *m.Message
	}
	return ""
}
