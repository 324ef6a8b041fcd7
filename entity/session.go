package entity

import (
	"crm/pkg/goutil"
	"time"
)

const sessionTTL = 30 * 24 * time.Hour

type Session struct {
	ID         *uint64 `json:"id,omitempty"`
	UserID     *uint64 `json:"user_id,omitempty"`
	TokenHash  *string `json:"-"`
	ExpireTime *uint64 `json:"expire_time,omitempty"`
	CreateTime *uint64 `json:"create_time,omitempty"`
}

// NewSession issues a session for the user and returns the plaintext
// token. Only the token hash is stored.
func NewSession(userID uint64) (*Session, string, error) {
	token, err := goutil.GenerateSecureRandString(32)
	if err != nil {
		return nil, "", err
	}

	now := time.Now()
	s := &Session{
		UserID:     goutil.Uint64(userID),
		TokenHash:  goutil.String(goutil.Sha256(token)),
		ExpireTime: goutil.Uint64(uint64(now.Add(sessionTTL).Unix())),
		CreateTime: goutil.Uint64(uint64(now.Unix())),
	}
	return s, token, nil
}

func (e *Session) GetID() uint64 {
	if e != nil && e.ID != nil {
		return *e.ID
	}
	return 0
}

func (e *Session) GetUserID() uint64 {
	if e != nil && e.UserID != nil {
		return *e.UserID
	}
	return 0
}

func (e *Session) GetTokenHash() string {
	if e != nil && e.TokenHash != nil {
		return *e.TokenHash
	}
	return ""
}

func (e *Session) GetExpireTime() uint64 {
	if e != nil && e.ExpireTime != nil {
		return *e.ExpireTime
	}
	return 0
}

func (e *Session) IsExpired() bool {
	return uint64(time.Now().Unix()) >= e.GetExpireTime()
}
