package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type ReviewRepository interface {
	Create(ctx context.Context, rv model.Review) (model.Review, error)
	FindByID(ctx context.Context, id int64) (model.Review, error)
	ListByProductID(ctx context.Context, productID int64) ([]model.Review, error)
	ExistsByUserAndProduct(ctx context.Context, userID int64, productID int64) (bool, error)
	Delete(ctx context.Context, id int64) error
}
