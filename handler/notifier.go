package handler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"crm/entity"
	"crm/pkg/goutil"
	"crm/pkg/mq"
	"crm/repo"
)

// Notifier delivers best-effort notifications to a user. Failures are
// logged and swallowed, a lost notification never fails the operation
// that produced it.
type Notifier interface {
	Notify(ctx context.Context, userID uint64, notificationType, title, message string)
}

type directNotifier struct {
	notificationRepo repo.NotificationRepo
}

// NewDirectNotifier writes notifications straight to the store. Used
// when no message broker is configured.
func NewDirectNotifier(notificationRepo repo.NotificationRepo) Notifier {
	return &directNotifier{notificationRepo: notificationRepo}
}

func (n *directNotifier) Notify(ctx context.Context, userID uint64, notificationType, title, message string) {
	now := uint64(time.Now().Unix())
	if _, err := n.notificationRepo.Create(ctx, &entity.Notification{
		UserID:           goutil.Uint64(userID),
		NotificationType: goutil.String(notificationType),
		Title:            goutil.String(title),
		Message:          goutil.String(message),
		Read:             goutil.Bool(false),
		CreateTime:       goutil.Uint64(now),
		UpdateTime:       goutil.Uint64(now),
	}); err != nil {
		log.Ctx(ctx).Error().Msgf("create notification failed, userID: %v, err: %v", userID, err)
	}
}

type mqNotifier struct {
	producer *mq.Producer
}

// NewMQNotifier publishes notifications to the broker. A consumer picks
// them up and writes them to the store.
func NewMQNotifier(producer *mq.Producer) Notifier {
	return &mqNotifier{producer: producer}
}

func (n *mqNotifier) Notify(ctx context.Context, userID uint64, notificationType, title, message string) {
	if err := n.producer.SendMessage(&mq.Message{
		Payload: mq.PayloadCreateNotification,
		Body: &mq.CreateNotification{
			UserID:           goutil.Uint64(userID),
			NotificationType: goutil.String(notificationType),
			Title:            goutil.String(title),
			Message:          goutil.String(message),
		},
	}); err != nil {
		log.Ctx(ctx).Error().Msgf("publish notification failed, userID: %v, err: %v", userID, err)
	}
}
