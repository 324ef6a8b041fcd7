package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"crm/entity"
	"crm/pkg/errutil"
	"crm/pkg/goutil"
)

var (
	ErrUserNotFound = errutil.NotFoundError(errors.New("user not found"))
)

type User struct {
	ID          *uint64
	Email       *string
	Username    *string
	Password    *string
	DisplayName *string
	Status      *uint32
	CreateTime  *uint64
	UpdateTime  *uint64
}

func (m *User) TableName() string {
	return "user_tab"
}

func (m *User) GetID() uint64 {
	if m != nil && m.ID != nil {
		return *m.ID
	}
	return 0
}

type UserRepo interface {
	Create(ctx context.Context, user *entity.User) (uint64, error)
	GetByID(ctx context.Context, id uint64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Close(ctx context.Context) error
}

type userRepo struct {
	baseRepo BaseRepo
}

func NewUserRepo(_ context.Context, baseRepo BaseRepo) UserRepo {
	return &userRepo{baseRepo: baseRepo}
}

func (r *userRepo) Create(ctx context.Context, user *entity.User) (uint64, error) {
	userModel := ToUserModel(user)
	if err := r.baseRepo.Create(ctx, userModel); err != nil {
		return 0, err
	}

	user.ID = userModel.ID

	return userModel.GetID(), nil
}

func (r *userRepo) GetByID(ctx context.Context, id uint64) (*entity.User, error) {
	return r.get(ctx, &Filter{
		Conditions: []*Condition{
			{Field: "id", Op: OpEq, Value: id},
		},
	})
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.get(ctx, &Filter{
		Conditions: []*Condition{
			{Field: "email", Op: OpEq, Value: email},
		},
	})
}

func (r *userRepo) get(ctx context.Context, f *Filter) (*entity.User, error) {
	userModel := new(User)
	if err := r.baseRepo.Get(ctx, userModel, f); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return ToUser(userModel), nil
}

func (r *userRepo) Close(ctx context.Context) error {
	return r.baseRepo.Close(ctx)
}

func ToUser(userModel *User) *entity.User {
	var status entity.UserStatus
	if userModel.Status != nil {
		status = entity.UserStatus(*userModel.Status)
	}

	return &entity.User{
		ID:          userModel.ID,
		Email:       userModel.Email,
		Username:    userModel.Username,
		Password:    userModel.Password,
		DisplayName: userModel.DisplayName,
		Status:      status,
		CreateTime:  userModel.CreateTime,
		UpdateTime:  userModel.UpdateTime,
	}
}

func ToUserModel(user *entity.User) *User {
	var status *uint32
	if user.Status != entity.UserStatusUnknown {
		status = goutil.Uint32(uint32(user.Status))
	}

	return &User{
		ID:          user.ID,
		Email:       user.Email,
		Username:    user.Username,
		Password:    user.Password,
		DisplayName: user.DisplayName,
		Status:      status,
		CreateTime:  user.CreateTime,
		UpdateTime:  user.UpdateTime,
	}
}
