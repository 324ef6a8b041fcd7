package entity

import (
	"crm/pkg/errutil"
	"crm/pkg/goutil"
	"errors"
	"time"
)

type UserStatus uint32

const (
	UserStatusUnknown UserStatus = iota
	UserStatusNormal
	UserStatusDisabled
)

type User struct {
	ID          *uint64    `json:"id,omitempty"`
	Email       *string    `json:"email,omitempty"`
	Username    *string    `json:"username,omitempty"`
	Password    *string    `json:"-"`
	DisplayName *string    `json:"display_name,omitempty"`
	Status      UserStatus `json:"status"`
	CreateTime  *uint64    `json:"create_time,omitempty"`
	UpdateTime  *uint64    `json:"update_time,omitempty"`
}

func NewUser(email, username, password, displayName string) (*User, error) {
	hash, err := goutil.BCrypt(password)
	if err != nil {
		return nil, err
	}

	now := uint64(time.Now().Unix())
	return &User{
		Email:       goutil.String(email),
		Username:    goutil.String(username),
		Password:    goutil.String(hash),
		DisplayName: goutil.String(displayName),
		Status:      UserStatusNormal,
		CreateTime:  goutil.Uint64(now),
		UpdateTime:  goutil.Uint64(now),
	}, nil
}

func (e *User) GetID() uint64 {
	if e != nil && e.ID != nil {
		return *e.ID
	}
	return 0
}

func (e *User) GetEmail() string {
	if e != nil && e.Email != nil {
		return *e.Email
	}
	return ""
}

func (e *User) GetUsername() string {
	if e != nil && e.Username != nil {
		return *e.Username
	}
	return ""
}

func (e *User) GetPassword() string {
	if e != nil && e.Password != nil {
		return *e.Password
	}
	return ""
}

func (e *User) GetDisplayName() string {
	if e != nil && e.DisplayName != nil {
		return *e.DisplayName
	}
	return ""
}

func (e *User) IsNormal() bool {
	return e != nil && e.Status == UserStatusNormal
}

// ComparePassword checks a plaintext password against the stored hash.
func (e *User) ComparePassword(password string) error {
	if err := goutil.CompareBCrypt(e.GetPassword(), password); err != nil {
		return errutil.UnauthorizedError(errors.New("invalid credentials"))
	}
	return nil
}
