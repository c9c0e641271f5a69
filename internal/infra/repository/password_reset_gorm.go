package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type PasswordResetGormRepository struct {
	db *gorm.DB
}

func NewPasswordResetGormRepository(db *gorm.DB) *PasswordResetGormRepository {
	return &PasswordResetGormRepository{db: db}
}

func (r *PasswordResetGormRepository) Create(ctx context.Context, pr model.PasswordReset) (model.PasswordReset, error) {
	if err := r.db.WithContext(ctx).Create(&pr).Error; err != nil {
		return model.PasswordReset{}, err
	}
	return pr, nil
}

func (r *PasswordResetGormRepository) FindByToken(ctx context.Context, token string) (model.PasswordReset, error) {
	var pr model.PasswordReset
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&pr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.PasswordReset{}, repo.ErrNotFound
	}
	if err != nil {
		return model.PasswordReset{}, err
	}
	return pr, nil
}

func (r *PasswordResetGormRepository) DeleteByUserID(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.PasswordReset{}).Error
}
