package handler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"crm/entity"
	"crm/pkg/goutil"
	"crm/pkg/validator"
	"crm/repo"
)

type NotificationHandler interface {
	CreateNotification(ctx context.Context, req *CreateNotificationRequest, res *CreateNotificationResponse) error
	GetNotifications(ctx context.Context, req *GetNotificationsRequest, res *GetNotificationsResponse) error
	MarkNotificationRead(ctx context.Context, req *MarkNotificationReadRequest, res *MarkNotificationReadResponse) error
	MarkAllNotificationsRead(ctx context.Context, req *MarkAllNotificationsReadRequest, res *MarkAllNotificationsReadResponse) error
	DeleteNotification(ctx context.Context, req *DeleteNotificationRequest, res *DeleteNotificationResponse) error
}

type notificationHandler struct {
	notificationRepo repo.NotificationRepo
}

func NewNotificationHandler(notificationRepo repo.NotificationRepo) NotificationHandler {
	return &notificationHandler{notificationRepo: notificationRepo}
}

type CreateNotificationRequest struct {
	UserID           *uint64 `json:"user_id,omitempty"`
	NotificationType *string `json:"notification_type,omitempty"`
	Title            *string `json:"title,omitempty"`
	Message          *string `json:"message,omitempty"`
}

type CreateNotificationResponse struct {
	Notification *entity.Notification `json:"notification"`
}

var CreateNotificationValidator = validator.MustForm(map[string]validator.Validator{
	"user_id": &validator.UInt64{},
	"notification_type": &validator.String{
		In: []string{entity.NotificationTypeCampaign, entity.NotificationTypeSystem},
	},
	"title": &validator.String{
		MinLen: 1,
		MaxLen: 120,
	},
	"message": &validator.String{
		MinLen: 1,
		MaxLen: 1000,
	},
})

func (h *notificationHandler) CreateNotification(ctx context.Context, req *CreateNotificationRequest, res *CreateNotificationResponse) error {
	if err := CreateNotificationValidator.Validate(req); err != nil {
		return err
	}

	now := uint64(time.Now().Unix())
	notification := &entity.Notification{
		UserID:           req.UserID,
		NotificationType: req.NotificationType,
		Title:            req.Title,
		Message:          req.Message,
		Read:             goutil.Bool(false),
		CreateTime:       goutil.Uint64(now),
		UpdateTime:       goutil.Uint64(now),
	}

	if _, err := h.notificationRepo.Create(ctx, notification); err != nil {
		log.Ctx(ctx).Error().Msgf("create notification failed, err: %v", err)
		return err
	}

	res.Notification = notification

	return nil
}

type GetNotificationsRequest struct {
	UserID *uint64 `schema:"user_id,omitempty"`
	Page   *uint32 `schema:"page,omitempty"`
	Limit  *uint32 `schema:"limit,omitempty"`
}

func (r *GetNotificationsRequest) GetUserID() uint64 {
	if r != nil && r.UserID != nil {
		return *r.UserID
	}
	return 0
}

type GetNotificationsResponse struct {
	Notifications []*entity.Notification `json:"notifications"`
	UnreadCount   *uint64                `json:"unread_count"`
	Pagination    *entity.Pagination     `json:"pagination,omitempty"`
}

var GetNotificationsValidator = validator.MustForm(map[string]validator.Validator{
	"user_id": &validator.UInt64{},
	"page": &validator.UInt32{
		Optional: true,
	},
	"limit": &validator.UInt32{
		Optional: true,
	},
})

func (h *notificationHandler) GetNotifications(ctx context.Context, req *GetNotificationsRequest, res *GetNotificationsResponse) error {
	if err := GetNotificationsValidator.Validate(req); err != nil {
		return err
	}

	notifications, pagination, err := h.notificationRepo.GetMany(ctx, &repo.Filter{
		Conditions: []*repo.Condition{
			{Field: "user_id", Op: repo.OpEq, Value: req.GetUserID()},
		},
		Pagination: &repo.Pagination{
			Page:  req.Page,
			Limit: req.Limit,
		},
	})
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get notifications failed, userID: %v, err: %v", req.GetUserID(), err)
		return err
	}

	unread, err := h.notificationRepo.CountUnread(ctx, req.GetUserID())
	if err != nil {
		log.Ctx(ctx).Error().Msgf("count unread notifications failed, userID: %v, err: %v", req.GetUserID(), err)
		return err
	}

	res.Notifications = notifications
	res.UnreadCount = goutil.Uint64(unread)
	res.Pagination = &entity.Pagination{
		Page:    pagination.Page,
		Limit:   pagination.Limit,
		HasNext: pagination.HasNext,
		Total:   pagination.Total,
	}

	return nil
}

type MarkNotificationReadRequest struct {
	ID *uint64 `json:"id,omitempty"`
}

func (r *MarkNotificationReadRequest) GetID() uint64 {
	if r != nil && r.ID != nil {
		return *r.ID
	}
	return 0
}

type MarkNotificationReadResponse struct{}

var MarkNotificationReadValidator = validator.MustForm(map[string]validator.Validator{
	"id": &validator.UInt64{},
})

func (h *notificationHandler) MarkNotificationRead(ctx context.Context, req *MarkNotificationReadRequest, res *MarkNotificationReadResponse) error {
	if err := MarkNotificationReadValidator.Validate(req); err != nil {
		return err
	}

	if _, err := h.notificationRepo.GetByID(ctx, req.GetID()); err != nil {
		return err
	}

	return h.notificationRepo.MarkRead(ctx, req.GetID())
}

type MarkAllNotificationsReadRequest struct {
	UserID *uint64 `json:"user_id,omitempty"`
}

func (r *MarkAllNotificationsReadRequest) GetUserID() uint64 {
	if r != nil && r.UserID != nil {
		return *r.UserID
	}
	return 0
}

type MarkAllNotificationsReadResponse struct{}

var MarkAllNotificationsReadValidator = validator.MustForm(map[string]validator.Validator{
	"user_id": &validator.UInt64{},
})

func (h *notificationHandler) MarkAllNotificationsRead(ctx context.Context, req *MarkAllNotificationsReadRequest, res *MarkAllNotificationsReadResponse) error {
	if err := MarkAllNotificationsReadValidator.Validate(req); err != nil {
		return err
	}

	return h.notificationRepo.MarkAllRead(ctx, req.GetUserID())
}

type DeleteNotificationRequest struct {
	ID *uint64 `json:"id,omitempty"`
}

func (r *DeleteNotificationRequest) GetID() uint64 {
	if r != nil && r.ID != nil {
		return *r.ID
	}
	return 0
}

type DeleteNotificationResponse struct{}

var DeleteNotificationValidator = validator.MustForm(map[string]validator.Validator{
	"id": &validator.UInt64{},
})

func (h *notificationHandler) DeleteNotification(ctx context.Context, req *DeleteNotificationRequest, res *DeleteNotificationResponse) error {
	if err := DeleteNotificationValidator.Validate(req); err != nil {
		return err
	}

	if _, err := h.notificationRepo.GetByID(ctx, req.GetID()); err != nil {
		return err
	}

	return h.notificationRepo.Delete(ctx, req.GetID())
}
