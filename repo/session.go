package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"crm/entity"
	"crm/pkg/errutil"
)

var (
	ErrSessionNotFound = errutil.NotFoundError(errors.New("session not found"))
)

type Session struct {
	ID         *uint64
	UserID     *uint64
	TokenHash  *string
	ExpireTime *uint64
	CreateTime *uint64
}

func (m *Session) TableName() string {
	return "session_tab"
}

func (m *Session) GetID() uint64 {
	if m != nil && m.ID != nil {
		return *m.ID
	}
	return 0
}

type SessionRepo interface {
	Create(ctx context.Context, session *entity.Session) (uint64, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (*entity.Session, error)
	DeleteByUserID(ctx context.Context, userID uint64) error
	Close(ctx context.Context) error
}

type sessionRepo struct {
	baseRepo BaseRepo
}

func NewSessionRepo(_ context.Context, baseRepo BaseRepo) SessionRepo {
	return &sessionRepo{baseRepo: baseRepo}
}

func (r *sessionRepo) Create(ctx context.Context, session *entity.Session) (uint64, error) {
	sessionModel := ToSessionModel(session)
	if err := r.baseRepo.Create(ctx, sessionModel); err != nil {
		return 0, err
	}

	session.ID = sessionModel.ID

	return sessionModel.GetID(), nil
}

func (r *sessionRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*entity.Session, error) {
	sessionModel := new(Session)
	if err := r.baseRepo.Get(ctx, sessionModel, &Filter{
		Conditions: []*Condition{
			{Field: "token_hash", Op: OpEq, Value: tokenHash},
		},
	}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	return ToSession(sessionModel), nil
}

func (r *sessionRepo) DeleteByUserID(ctx context.Context, userID uint64) error {
	return r.baseRepo.Delete(ctx, new(Session), &Filter{
		Conditions: []*Condition{
			{Field: "user_id", Op: OpEq, Value: userID},
		},
	})
}

func (r *sessionRepo) Close(ctx context.Context) error {
	return r.baseRepo.Close(ctx)
}

func ToSession(sessionModel *Session) *entity.Session {
	return &entity.Session{
		ID:         sessionModel.ID,
		UserID:     sessionModel.UserID,
		TokenHash:  sessionModel.TokenHash,
		ExpireTime: sessionModel.ExpireTime,
		CreateTime: sessionModel.CreateTime,
	}
}

func ToSessionModel(session *entity.Session) *Session {
	return &Session{
		ID:         session.ID,
		UserID:     session.UserID,
		TokenHash:  session.TokenHash,
		ExpireTime: session.ExpireTime,
		CreateTime: session.CreateTime,
	}
}
