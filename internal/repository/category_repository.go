package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CategoryRepository interface {
	Create(ctx context.Context, c model.Category) (model.Category, error)
	FindByID(ctx context.Context, id int64) (model.Category, error)

	//親カテゴリ（Children込み）を返す
	ListTree(ctx context.Context) ([]model.Category, error)

	Update(ctx context.Context, c model.Category) error
	Delete(ctx context.Context, id int64) error
}
