package auth

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type resetRepoMock struct {
	mock.Mock
}

func (m *resetRepoMock) Create(ctx context.Context, pr model.PasswordReset) (model.PasswordReset, error) {
	args := m.Called(ctx, pr)
	return args.Get(0).(model.PasswordReset), args.Error(1)
}

func (m *resetRepoMock) FindByToken(ctx context.Context, token string) (model.PasswordReset, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.PasswordReset), args.Error(1)
}

func (m *resetRepoMock) DeleteByUserID(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type resetMailerMock struct {
	mock.Mock
}

func (m *resetMailerMock) SendPasswordReset(to string, name string, link string) error {
	args := m.Called(to, name, link)
	return args.Error(0)
}

func TestPasswordReset_Forgot_SendsLink(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	users := new(userRepoMock)
	resets := new(resetRepoMock)
	mail := new(resetMailerMock)

	users.On("FindByEmail", mock.Anything, "taro@example.com").Return(model.User{
		ID:    7,
		Name:  "Taro",
		Email: "taro@example.com",
	}, true, nil)

	//古いトークンは先に消す
	resets.On("DeleteByUserID", mock.Anything, int64(7)).Return(nil)

	var createdToken string
	resets.On("Create", mock.Anything, mock.MatchedBy(func(pr model.PasswordReset) bool {
		createdToken = pr.Token
		return pr.UserID == 7 && pr.Token != "" && pr.ExpiresAt.Equal(now.Add(time.Hour))
	})).Return(model.PasswordReset{ID: 1}, nil)

	mail.On("SendPasswordReset", "taro@example.com", "Taro", mock.MatchedBy(func(link string) bool {
		return link == "https://shop.example.com/reset-password?token="+createdToken
	})).Return(nil)

	uc := NewPasswordResetUsecase(users, resets, &hasherMock{}, mail, &fixedClock{now: now}, "https://shop.example.com")

	err := uc.Forgot(ctx, "taro@example.com")
	assert.NoError(t, err)

	resets.AssertExpectations(t)
	mail.AssertExpectations(t)
}

func TestPasswordReset_Forgot_UnknownEmail_NoLeak(t *testing.T) {
	ctx := context.Background()

	users := new(userRepoMock)
	resets := new(resetRepoMock)
	mail := new(resetMailerMock)

	users.On("FindByEmail", mock.Anything, "nobody@example.com").Return(model.User{}, false, nil)

	uc := NewPasswordResetUsecase(users, resets, &hasherMock{}, mail, &fixedClock{now: time.Now()}, "https://shop.example.com")

	//存在しないemailでも応答は同じnil
	err := uc.Forgot(ctx, "nobody@example.com")
	assert.NoError(t, err)

	resets.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	mail.AssertNotCalled(t, "SendPasswordReset", mock.Anything, mock.Anything, mock.Anything)
}

func TestPasswordReset_Reset_Success(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	users := new(userRepoMock)
	resets := new(resetRepoMock)

	resets.On("FindByToken", mock.Anything, "tok-1").Return(model.PasswordReset{
		ID:        1,
		UserID:    7,
		Token:     "tok-1",
		ExpiresAt: now.Add(30 * time.Minute),
	}, nil)
	users.On("UpdatePasswordHash", mock.Anything, int64(7), "hashed:new-password-value").Return(nil)

	//使い終わったトークンは消える
	resets.On("DeleteByUserID", mock.Anything, int64(7)).Return(nil)

	uc := NewPasswordResetUsecase(users, resets, &hasherMock{}, new(resetMailerMock), &fixedClock{now: now}, "https://shop.example.com")

	err := uc.Reset(ctx, "tok-1", "new-password-value")
	assert.NoError(t, err)

	resets.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestPasswordReset_Reset_ExpiredToken(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	users := new(userRepoMock)
	resets := new(resetRepoMock)

	resets.On("FindByToken", mock.Anything, "tok-old").Return(model.PasswordReset{
		ID:        1,
		UserID:    7,
		Token:     "tok-old",
		ExpiresAt: now.Add(-time.Minute),
	}, nil)

	uc := NewPasswordResetUsecase(users, resets, &hasherMock{}, new(resetMailerMock), &fixedClock{now: now}, "https://shop.example.com")

	err := uc.Reset(ctx, "tok-old", "new-password-value")
	assert.ErrorIs(t, err, ErrResetTokenExpired)

	users.AssertNotCalled(t, "UpdatePasswordHash", mock.Anything, mock.Anything, mock.Anything)
}

func TestPasswordReset_Reset_UnknownToken(t *testing.T) {
	ctx := context.Background()

	resets := new(resetRepoMock)
	resets.On("FindByToken", mock.Anything, "tok-missing").
		Return(model.PasswordReset{}, repository.ErrNotFound)

	uc := NewPasswordResetUsecase(new(userRepoMock), resets, &hasherMock{}, new(resetMailerMock), &fixedClock{now: time.Now()}, "https://shop.example.com")

	err := uc.Reset(ctx, "tok-missing", "new-password-value")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestPasswordReset_Reset_WeakPassword(t *testing.T) {
	uc := NewPasswordResetUsecase(new(userRepoMock), new(resetRepoMock), &hasherMock{}, new(resetMailerMock), &fixedClock{now: time.Now()}, "https://shop.example.com")

	err := uc.Reset(context.Background(), "tok-1", "123456789012")
	assert.ErrorIs(t, err, ErrWeakPassword)
}
