package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type PasswordResetRepository interface {
	Create(ctx context.Context, pr model.PasswordReset) (model.PasswordReset, error)
	FindByToken(ctx context.Context, token string) (model.PasswordReset, error)
	DeleteByUserID(ctx context.Context, userID int64) error
}
