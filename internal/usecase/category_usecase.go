package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/logger"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

type CategoryUsecase struct {
	categories repo.CategoryRepository
}

func NewCategoryUsecase(categories repo.CategoryRepository) *CategoryUsecase {
	return &CategoryUsecase{categories: categories}
}

type CategoryInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	ParentID *int64 `json:"parent_id"`
}

type CategoryOutput struct {
	ID        int64            `json:"id"`
	Name      string           `json:"name"`
	ParentID  *int64           `json:"parent_id"`
	Children  []CategoryOutput `json:"children,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

func (u *CategoryUsecase) Create(ctx context.Context, in CategoryInput) (CategoryOutput, error) {
	name := strings.TrimSpace(in.Name)

	//親は1階層まで。孫カテゴリは作らせない。
	if in.ParentID != nil {
		parent, err := u.categories.FindByID(ctx, *in.ParentID)
		if errors.Is(err, repo.ErrNotFound) {
			return CategoryOutput{}, NewHTTPError(http.StatusBadRequest, "unknown parent category")
		}
		if err != nil {
			return CategoryOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if parent.ParentID != nil {
			return CategoryOutput{}, NewHTTPError(http.StatusBadRequest, "nested categories are limited to one level")
		}
	}

	created, err := u.categories.Create(ctx, model.Category{
		Name:     name,
		ParentID: in.ParentID,
	})
	if err != nil {
		logger.Logger.Error("category create failed", zap.Error(err), zap.String("name", name))
		return CategoryOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toCategoryOutput(created), nil
}

func (u *CategoryUsecase) Get(ctx context.Context, id int64) (CategoryOutput, error) {
	if id <= 0 {
		return CategoryOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	c, err := u.categories.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return CategoryOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return CategoryOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toCategoryOutput(c), nil
}

// 親カテゴリをChildren込みで返す
func (u *CategoryUsecase) ListTree(ctx context.Context) ([]CategoryOutput, error) {
	cats, err := u.categories.ListTree(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	outs := make([]CategoryOutput, 0, len(cats))
	for _, c := range cats {
		outs = append(outs, toCategoryOutput(c))
	}
	return outs, nil
}

func (u *CategoryUsecase) Update(ctx context.Context, id int64, in CategoryInput) (CategoryOutput, error) {
	if id <= 0 {
		return CategoryOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	name := strings.TrimSpace(in.Name)

	c, err := u.categories.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return CategoryOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return CategoryOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if in.ParentID != nil {
		if *in.ParentID == id {
			return CategoryOutput{}, NewHTTPError(http.StatusBadRequest, "category cannot be its own parent")
		}
		parent, err := u.categories.FindByID(ctx, *in.ParentID)
		if errors.Is(err, repo.ErrNotFound) {
			return CategoryOutput{}, NewHTTPError(http.StatusBadRequest, "unknown parent category")
		}
		if err != nil {
			return CategoryOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if parent.ParentID != nil {
			return CategoryOutput{}, NewHTTPError(http.StatusBadRequest, "nested categories are limited to one level")
		}
	}

	c.Name = name
	c.ParentID = in.ParentID
	if err := u.categories.Update(ctx, c); err != nil {
		logger.Logger.Error("category update failed", zap.Error(err), zap.Int64("category_id", id))
		return CategoryOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toCategoryOutput(c), nil
}

// 削除すると子カテゴリは親なし（トップレベル）になる
func (u *CategoryUsecase) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if _, err := u.categories.FindByID(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if err := u.categories.Delete(ctx, id); err != nil {
		logger.Logger.Error("category delete failed", zap.Error(err), zap.Int64("category_id", id))
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func toCategoryOutput(c model.Category) CategoryOutput {
	out := CategoryOutput{
		ID:        c.ID,
		Name:      c.Name,
		ParentID:  c.ParentID,
		CreatedAt: c.CreatedAt,
	}
	for _, ch := range c.Children {
		out.Children = append(out.Children, toCategoryOutput(ch))
	}
	return out
}
