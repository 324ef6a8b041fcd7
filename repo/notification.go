package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"crm/entity"
	"crm/pkg/errutil"
	"crm/pkg/goutil"
)

var (
	ErrNotificationNotFound = errutil.NotFoundError(errors.New("notification not found"))
)

type Notification struct {
	ID               *uint64
	UserID           *uint64
	NotificationType *string
	Title            *string
	Message          *string
	IsRead           *bool
	CreateTime       *uint64
	UpdateTime       *uint64
}

func (m *Notification) TableName() string {
	return "notification_tab"
}

func (m *Notification) GetID() uint64 {
	if m != nil && m.ID != nil {
		return *m.ID
	}
	return 0
}

type NotificationRepo interface {
	Create(ctx context.Context, notification *entity.Notification) (uint64, error)
	GetByID(ctx context.Context, id uint64) (*entity.Notification, error)
	GetMany(ctx context.Context, f *Filter) ([]*entity.Notification, *Pagination, error)
	CountUnread(ctx context.Context, userID uint64) (uint64, error)
	MarkRead(ctx context.Context, id uint64) error
	MarkAllRead(ctx context.Context, userID uint64) error
	Delete(ctx context.Context, id uint64) error
	Close(ctx context.Context) error
}

type notificationRepo struct {
	baseRepo BaseRepo
}

func NewNotificationRepo(_ context.Context, baseRepo BaseRepo) NotificationRepo {
	return &notificationRepo{baseRepo: baseRepo}
}

func (r *notificationRepo) Create(ctx context.Context, notification *entity.Notification) (uint64, error) {
	notificationModel := ToNotificationModel(notification)
	if err := r.baseRepo.Create(ctx, notificationModel); err != nil {
		return 0, err
	}

	notification.ID = notificationModel.ID

	return notificationModel.GetID(), nil
}

func (r *notificationRepo) GetByID(ctx context.Context, id uint64) (*entity.Notification, error) {
	notificationModel := new(Notification)
	if err := r.baseRepo.Get(ctx, notificationModel, &Filter{
		Conditions: []*Condition{
			{Field: "id", Op: OpEq, Value: id},
		},
	}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}

	return ToNotification(notificationModel), nil
}

func (r *notificationRepo) GetMany(ctx context.Context, f *Filter) ([]*entity.Notification, *Pagination, error) {
	res, pagination, err := r.baseRepo.GetMany(ctx, new(Notification), f)
	if err != nil {
		return nil, nil, err
	}

	notifications := make([]*entity.Notification, 0, len(res))
	for _, m := range res {
		notifications = append(notifications, ToNotification(m.(*Notification)))
	}

	return notifications, pagination, nil
}

func (r *notificationRepo) CountUnread(ctx context.Context, userID uint64) (uint64, error) {
	return r.baseRepo.Count(ctx, new(Notification), &Filter{
		Conditions: []*Condition{
			{Field: "user_id", Op: OpEq, Value: userID, NextLogicalOp: And},
			{Field: "is_read", Op: OpEq, Value: false},
		},
	})
}

func (r *notificationRepo) MarkRead(ctx context.Context, id uint64) error {
	return r.baseRepo.UpdateWhere(ctx, &Notification{
		IsRead:     goutil.Bool(true),
		UpdateTime: goutil.Uint64(uint64(time.Now().Unix())),
	}, &Filter{
		Conditions: []*Condition{
			{Field: "id", Op: OpEq, Value: id},
		},
	})
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, userID uint64) error {
	return r.baseRepo.UpdateWhere(ctx, &Notification{
		IsRead:     goutil.Bool(true),
		UpdateTime: goutil.Uint64(uint64(time.Now().Unix())),
	}, &Filter{
		Conditions: []*Condition{
			{Field: "user_id", Op: OpEq, Value: userID, NextLogicalOp: And},
			{Field: "is_read", Op: OpEq, Value: false},
		},
	})
}

func (r *notificationRepo) Delete(ctx context.Context, id uint64) error {
	return r.baseRepo.Delete(ctx, new(Notification), &Filter{
		Conditions: []*Condition{
			{Field: "id", Op: OpEq, Value: id},
		},
	})
}

func (r *notificationRepo) Close(ctx context.Context) error {
	return r.baseRepo.Close(ctx)
}

func ToNotification(notificationModel *Notification) *entity.Notification {
	return &entity.Notification{
		ID:               notificationModel.ID,
		UserID:           notificationModel.UserID,
		NotificationType: notificationModel.NotificationType,
		Title:            notificationModel.Title,
		Message:          notificationModel.Message,
		Read:             notificationModel.IsRead,
		CreateTime:       notificationModel.CreateTime,
		UpdateTime:       notificationModel.UpdateTime,
	}
}

func ToNotificationModel(notification *entity.Notification) *Notification {
	return &Notification{
		ID:               notification.ID,
		UserID:           notification.UserID,
		NotificationType: notification.NotificationType,
		Title:            notification.Title,
		Message:          notification.Message,
		IsRead:           notification.Read,
		CreateTime:       notification.CreateTime,
		UpdateTime:       notification.UpdateTime,
	}
}
