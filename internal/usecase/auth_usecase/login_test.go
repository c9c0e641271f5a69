package auth

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type verifierMock struct {
	ok bool
}

func (v *verifierMock) Verify(plain string, hashed string) bool {
	return v.ok
}

type issuerMock struct {
	token string
	ttl   time.Duration
}

func (i *issuerMock) Issue(userID int64, now time.Time) (string, time.Time, error) {
	return i.token, now.Add(i.ttl), nil
}

func TestLogin_Success(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	users := new(userRepoMock)
	users.On("FindByEmail", mock.Anything, "taro@example.com").Return(model.User{
		ID:           7,
		Email:        "taro@example.com",
		PasswordHash: "stored-hash",
	}, true, nil)

	uc := NewLoginUsecase(users, &verifierMock{ok: true}, &issuerMock{token: "tok", ttl: 15 * time.Minute}, &fixedClock{now: now})

	out, err := uc.Execute(ctx, LoginInput{Email: "taro@example.com", Password: "correct-horse-battery"})
	assert.NoError(t, err)

	assert.Equal(t, "tok", out.Token.AccessToken)
	assert.Equal(t, 15*60, out.Token.ExpiresIn)
	assert.Equal(t, "", out.User.PasswordHash)
}

func TestLogin_WrongPassword(t *testing.T) {
	ctx := context.Background()

	users := new(userRepoMock)
	users.On("FindByEmail", mock.Anything, "taro@example.com").Return(model.User{
		ID:           7,
		PasswordHash: "stored-hash",
	}, true, nil)

	uc := NewLoginUsecase(users, &verifierMock{ok: false}, &issuerMock{token: "tok", ttl: time.Minute}, &fixedClock{now: time.Now()})

	_, err := uc.Execute(ctx, LoginInput{Email: "taro@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownEmail_SameError(t *testing.T) {
	ctx := context.Background()

	users := new(userRepoMock)
	users.On("FindByEmail", mock.Anything, "nobody@example.com").Return(model.User{}, false, nil)

	uc := NewLoginUsecase(users, &verifierMock{ok: true}, &issuerMock{token: "tok", ttl: time.Minute}, &fixedClock{now: time.Now()})

	//存在しないemailでもエラーは同じ
	_, err := uc.Execute(ctx, LoginInput{Email: "nobody@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestBcryptHasherAndVerifier_RoundTrip(t *testing.T) {
	h := NewBcryptPasswordHasher(4)
	v := NewBcryptPasswordVerifier()

	hashed, err := h.Hash("correct-horse-battery")
	assert.NoError(t, err)
	assert.NotEqual(t, "correct-horse-battery", hashed)

	assert.True(t, v.Verify("correct-horse-battery", hashed))
	assert.False(t, v.Verify("wrong-password", hashed))
}
