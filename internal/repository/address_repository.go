package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type AddressRepository interface {
	Create(ctx context.Context, a model.Address) (model.Address, error)
	FindByID(ctx context.Context, id int64) (model.Address, error)
	ListByUserID(ctx context.Context, userID int64) ([]model.Address, error)

	//配送・請求書に使う「最初の住所」
	FindFirstByUserID(ctx context.Context, userID int64) (model.Address, error)

	Update(ctx context.Context, a model.Address) error
	Delete(ctx context.Context, id int64) error
}
