package repository

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain/model"
	auth "storefront/internal/usecase/auth_usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 会員登録はUser作成とGuestロール付与が同じトランザクション。
// 付与が落ちたらユーザー行ごと巻き戻る。
func TestRegisterUser_AttachFailureRollsBackUserRow(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	//pivotを消してロール付与を確実に失敗させる
	require.NoError(t, db.Migrator().DropTable("user_roles"))

	clock := &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	uc := auth.NewRegisterUserUsecase(NewTxManagerGorm(db), auth.NewBcryptPasswordHasher(4), clock)

	_, err := uc.Execute(ctx, auth.RegisterUserInput{
		Name:     "Taro",
		Email:    "taro@example.com",
		Password: "correct-horse-battery",
	})
	assert.Error(t, err)

	var userCount int64
	require.NoError(t, db.Model(&model.User{}).Count(&userCount).Error)
	assert.Equal(t, int64(0), userCount)
}

// 正常系はUser行とpivot行が両方残る
func TestRegisterUser_PersistsUserWithGuestRole(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	clock := &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	uc := auth.NewRegisterUserUsecase(NewTxManagerGorm(db), auth.NewBcryptPasswordHasher(4), clock)

	out, err := uc.Execute(ctx, auth.RegisterUserInput{
		Name:     "Taro",
		Email:    "taro@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	userRepo := NewUserGormRepository(db)
	saved, err := userRepo.FindByIDWithRoles(ctx, out.User.ID)
	require.NoError(t, err)

	if assert.Len(t, saved.Roles, 1) {
		assert.Equal(t, model.RoleNameGuest, saved.Roles[0].Name)
	}
}
