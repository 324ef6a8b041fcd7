package handler

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"crm/entity"
	"crm/pkg/errutil"
	"crm/pkg/goutil"
	"crm/pkg/router"
	"crm/pkg/validator"
	"crm/repo"
)

type UserHandler interface {
	Login(ctx context.Context, req *LoginRequest, res *LoginResponse) error
	Logout(ctx context.Context, req *LogoutRequest, res *LogoutResponse) error
	Me(ctx context.Context, req *MeRequest, res *MeResponse) error
}

type userHandler struct {
	userRepo    repo.UserRepo
	sessionRepo repo.SessionRepo
}

func NewUserHandler(userRepo repo.UserRepo, sessionRepo repo.SessionRepo) UserHandler {
	return &userHandler{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
	}
}

type LoginRequest struct {
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

func (r *LoginRequest) GetEmail() string {
	if r != nil && r.Email != nil {
		return *r.Email
	}
	return ""
}

func (r *LoginRequest) GetPassword() string {
	if r != nil && r.Password != nil {
		return *r.Password
	}
	return ""
}

type LoginResponse struct {
	User  *entity.User `json:"user"`
	Token *string      `json:"token"`
}

var LoginValidator = validator.MustForm(map[string]validator.Validator{
	"email": &validator.String{
		MinLen: 3,
		MaxLen: 120,
	},
	"password": &validator.String{
		MinLen: 8,
		MaxLen: 120,
	},
})

func (h *userHandler) Login(ctx context.Context, req *LoginRequest, res *LoginResponse) error {
	if err := LoginValidator.Validate(req); err != nil {
		return err
	}

	user, err := h.userRepo.GetByEmail(ctx, req.GetEmail())
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return errutil.UnauthorizedError(errors.New("invalid credentials"))
		}
		log.Ctx(ctx).Error().Msgf("get user failed, err: %v", err)
		return err
	}

	if !user.IsNormal() {
		return errutil.UnauthorizedError(errors.New("user is disabled"))
	}

	if err := user.ComparePassword(req.GetPassword()); err != nil {
		return err
	}

	session, token, err := entity.NewSession(user.GetID())
	if err != nil {
		log.Ctx(ctx).Error().Msgf("new session failed, err: %v", err)
		return err
	}

	if _, err := h.sessionRepo.Create(ctx, session); err != nil {
		log.Ctx(ctx).Error().Msgf("create session failed, err: %v", err)
		return err
	}

	res.User = user
	res.Token = goutil.String(token)

	return nil
}

type LogoutRequest struct{}

type LogoutResponse struct{}

func (h *userHandler) Logout(ctx context.Context, _ *LogoutRequest, _ *LogoutResponse) error {
	user, ok := router.GetUserFromContext(ctx)
	if !ok {
		return errutil.UnauthorizedError(errors.New("invalid session"))
	}

	return h.sessionRepo.DeleteByUserID(ctx, user.GetID())
}

type MeRequest struct{}

type MeResponse struct {
	User *entity.User `json:"user"`
}

func (h *userHandler) Me(ctx context.Context, _ *MeRequest, res *MeResponse) error {
	user, ok := router.GetUserFromContext(ctx)
	if !ok {
		return errutil.UnauthorizedError(errors.New("invalid session"))
	}

	res.User = user

	return nil
}
