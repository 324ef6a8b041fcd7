package entity

const (
	NotificationTypeCampaign = "campaign"
	NotificationTypeSystem   = "system"
)

type Notification struct {
	ID               *uint64 `json:"id,omitempty"`
	UserID           *uint64 `json:"user_id,omitempty"`
	NotificationType *string `json:"notification_type,omitempty"`
	Title            *string `json:"title,omitempty"`
	Message          *string `json:"message,omitempty"`
	Read             *bool   `json:"read,omitempty"`
	CreateTime       *uint64 `json:"create_time,omitempty"`
	UpdateTime       *uint64 `json:"update_time,omitempty"`
}

func (e *Notification) GetID() uint64 {
	if e != nil && e.ID != nil {
		return *e.ID
	}
	return 0
}

func (e *Notification) GetUserID() uint64 {
	if e != nil && e.UserID != nil {
		return *e.UserID
	}
	return 0
}

func (e *Notification) GetNotificationType() string {
	if e != nil && e.NotificationType != nil {
		return *e.NotificationType
	}
	return ""
}

func (e *Notification) GetTitle() string {
	if e != nil && e.Title != nil {
		return *e.Title
	}
	return ""
}

func (e *Notification) GetMessage() string {
	if e != nil && e.Message != nil {
		return *e.Message
	}
	return ""
}

func (e *Notification) IsRead() bool {
	if e != nil && e.Read != nil {
		return *e.Read
	}
	return false
}
