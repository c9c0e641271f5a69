package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/logger"
	"storefront/internal/repository"

	"go.uber.org/zap"
)

const resetTokenTTL = time.Hour

var (
	// トークンが無い・使用済み
	ErrResetTokenInvalid = errors.New("invalid reset token")
	// トークンが期限切れ
	ErrResetTokenExpired = errors.New("reset token expired")
)

// 再設定メールを送る約束
type ResetMailer interface {
	SendPasswordReset(to string, name string, link string) error
}

type PasswordResetUsecase struct {
	userRepo  repository.UserRepository
	resetRepo repository.PasswordResetRepository
	hasher    PasswordHasher
	mailer    ResetMailer
	clock     Clock

	appBaseURL string
}

func NewPasswordResetUsecase(
	userRepo repository.UserRepository,
	resetRepo repository.PasswordResetRepository,
	hasher PasswordHasher,
	mailer ResetMailer,
	clock Clock,
	appBaseURL string,
) *PasswordResetUsecase {
	return &PasswordResetUsecase{
		userRepo:   userRepo,
		resetRepo:  resetRepo,
		hasher:     hasher,
		mailer:     mailer,
		clock:      clock,
		appBaseURL: appBaseURL,
	}
}

// 再設定メール送信。emailの存在有無を漏らさないため、
// 見つからなくても同じ応答（nil）を返す。
func (u *PasswordResetUsecase) Forgot(ctx context.Context, email string) error {
	user, exists, err := u.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	//古いトークンは無効にする
	if err := u.resetRepo.DeleteByUserID(ctx, user.ID); err != nil {
		return err
	}

	token, err := generateSecureToken(32)
	if err != nil {
		return err
	}

	now := u.clock.Now()
	_, err = u.resetRepo.Create(ctx, model.PasswordReset{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: now.Add(resetTokenTTL),
		CreatedAt: now,
	})
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", u.appBaseURL, token)
	if err := u.mailer.SendPasswordReset(user.Email, user.Name, link); err != nil {
		//送信失敗はログに残すがクライアントには漏らさない
		logger.Logger.Error("reset mail send failed", zap.Error(err), zap.Int64("user_id", user.ID))
	}
	return nil
}

// トークンと新パスワードで再設定する
func (u *PasswordResetUsecase) Reset(ctx context.Context, token string, newPassword string) error {
	if token == "" {
		return ErrResetTokenInvalid
	}
	if len(newPassword) < 12 {
		return ErrPasswordTooShort
	}
	if isWeakPassword(newPassword) {
		return ErrWeakPassword
	}

	pr, err := u.resetRepo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return err
	}

	if u.clock.Now().After(pr.ExpiresAt) {
		return ErrResetTokenExpired
	}

	hashed, err := u.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := u.userRepo.UpdatePasswordHash(ctx, pr.UserID, hashed); err != nil {
		return err
	}

	//使い終わったトークンは消す（使い回し防止）
	return u.resetRepo.DeleteByUserID(ctx, pr.UserID)
}

func generateSecureToken(bytesLen int) (string, error) {
	if bytesLen <= 0 {
		return "", fmt.Errorf("bytesLen must be positive")
	}

	// ランダムなバイト列を作る（OSが持つ安全な乱数）
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
