package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"crm/entity"
	"crm/pkg/goutil"
	"crm/repo"
)

type fakeUserRepo struct {
	users map[string]*entity.User
}

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) (uint64, error) {
	user.ID = goutil.Uint64(uint64(len(r.users) + 1))
	r.users[user.GetEmail()] = user
	return user.GetID(), nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uint64) (*entity.User, error) {
	for _, user := range r.users {
		if user.GetID() == id {
			return user, nil
		}
	}
	return nil, repo.ErrUserNotFound
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	user, ok := r.users[email]
	if !ok {
		return nil, repo.ErrUserNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) Close(_ context.Context) error {
	return nil
}

type fakeSessionRepo struct {
	sessions []*entity.Session
}

func (r *fakeSessionRepo) Create(_ context.Context, session *entity.Session) (uint64, error) {
	session.ID = goutil.Uint64(uint64(len(r.sessions) + 1))
	r.sessions = append(r.sessions, session)
	return session.GetID(), nil
}

func (r *fakeSessionRepo) GetByTokenHash(_ context.Context, tokenHash string) (*entity.Session, error) {
	for _, session := range r.sessions {
		if session.GetTokenHash() == tokenHash {
			return session, nil
		}
	}
	return nil, repo.ErrSessionNotFound
}

func (r *fakeSessionRepo) DeleteByUserID(_ context.Context, userID uint64) error {
	kept := r.sessions[:0]
	for _, session := range r.sessions {
		if session.GetUserID() != userID {
			kept = append(kept, session)
		}
	}
	r.sessions = kept
	return nil
}

func (r *fakeSessionRepo) Close(_ context.Context) error {
	return nil
}

func newLoginFixture(t *testing.T) (*fakeUserRepo, *fakeSessionRepo, UserHandler) {
	user, err := entity.NewUser("admin@example.com", "admin", "changeme123", "Admin User")
	assert.Nil(t, err)
	user.ID = goutil.Uint64(1)

	userRepo := &fakeUserRepo{users: map[string]*entity.User{user.GetEmail(): user}}
	sessionRepo := new(fakeSessionRepo)
	return userRepo, sessionRepo, NewUserHandler(userRepo, sessionRepo)
}

func TestLogin(t *testing.T) {
	_, sessionRepo, h := newLoginFixture(t)

	res := new(LoginResponse)
	err := h.Login(context.Background(), &LoginRequest{
		Email:    goutil.String("admin@example.com"),
		Password: goutil.String("changeme123"),
	}, res)
	assert.Nil(t, err)
	assert.Equal(t, "admin@example.com", res.User.GetEmail())
	assert.NotEmpty(t, *res.Token)
	assert.Equal(t, 1, len(sessionRepo.sessions))

	// the stored session holds a hash, never the token itself
	session := sessionRepo.sessions[0]
	assert.Equal(t, goutil.Sha256(*res.Token), session.GetTokenHash())
	assert.Equal(t, uint64(1), session.GetUserID())
}

func TestLoginWrongPassword(t *testing.T) {
	_, sessionRepo, h := newLoginFixture(t)

	err := h.Login(context.Background(), &LoginRequest{
		Email:    goutil.String("admin@example.com"),
		Password: goutil.String("wrong-password"),
	}, new(LoginResponse))
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "invalid credentials")
	assert.Equal(t, 0, len(sessionRepo.sessions))
}

func TestLoginUnknownUser(t *testing.T) {
	_, _, h := newLoginFixture(t)

	err := h.Login(context.Background(), &LoginRequest{
		Email:    goutil.String("nobody@example.com"),
		Password: goutil.String("changeme123"),
	}, new(LoginResponse))
	assert.NotNil(t, err)

	// unknown user and bad password are indistinguishable to the caller
	assert.Contains(t, err.Error(), "invalid credentials")
}

func TestLoginDisabledUser(t *testing.T) {
	userRepo, _, h := newLoginFixture(t)
	userRepo.users["admin@example.com"].Status = entity.UserStatusDisabled

	err := h.Login(context.Background(), &LoginRequest{
		Email:    goutil.String("admin@example.com"),
		Password: goutil.String("changeme123"),
	}, new(LoginResponse))
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "user is disabled")
}

func TestLoginValidation(t *testing.T) {
	_, _, h := newLoginFixture(t)

	err := h.Login(context.Background(), &LoginRequest{
		Email:    goutil.String("admin@example.com"),
		Password: goutil.String("short"),
	}, new(LoginResponse))
	assert.NotNil(t, err)
}
