package usecase

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/logger"
	repo "storefront/internal/repository"
	"storefront/internal/storage"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProductUsecase struct {
	products   repo.ProductRepository
	categories repo.CategoryRepository
	store      storage.FileStorage
	idGen      IDGenerator
}

func NewProductUsecase(
	products repo.ProductRepository,
	categories repo.CategoryRepository,
	store storage.FileStorage,
	idGen IDGenerator,
) *ProductUsecase {
	return &ProductUsecase{
		products:   products,
		categories: categories,
		store:      store,
		idGen:      idGen,
	}
}

type ProductListInput struct {
	Page       int
	Limit      int
	Q          string
	CategoryID *int64
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Sort       string
}

type ProductImageOutput struct {
	ID   int64  `json:"id"`
	Path string `json:"path"`
}

type ProductOutput struct {
	ID          int64                `json:"id"`
	CategoryID  int64                `json:"category_id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Price       decimal.Decimal      `json:"price"`
	Stock       int64                `json:"stock"`
	IsActive    bool                 `json:"is_active"`
	Images      []ProductImageOutput `json:"images"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

type ProductListOutput struct {
	Products []ProductOutput `json:"products"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	Limit    int             `json:"limit"`
}

var allowedSorts = map[string]bool{
	"":           true,
	"price_asc":  true,
	"price_desc": true,
	"newest":     true,
}

// 公開一覧。is_active=trueのみ。
func (u *ProductUsecase) ListPublic(ctx context.Context, in ProductListInput) (ProductListOutput, error) {
	if in.Page <= 0 {
		in.Page = 1
	}
	if in.Limit <= 0 || in.Limit > 100 {
		in.Limit = 20
	}
	if !allowedSorts[in.Sort] {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid sort")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && in.MinPrice.GreaterThan(*in.MaxPrice) {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid price range")
	}

	products, total, err := u.products.ListPublic(ctx, repo.ProductListQuery{
		Page:       in.Page,
		Limit:      in.Limit,
		Q:          in.Q,
		CategoryID: in.CategoryID,
		MinPrice:   in.MinPrice,
		MaxPrice:   in.MaxPrice,
		Sort:       in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outs := make([]ProductOutput, 0, len(products))
	for _, p := range products {
		outs = append(outs, toProductOutput(p))
	}
	return ProductListOutput{
		Products: outs,
		Total:    total,
		Page:     in.Page,
		Limit:    in.Limit,
	}, nil
}

// 公開詳細。非公開商品は存在しない扱い。
func (u *ProductUsecase) GetPublic(ctx context.Context, id int64) (ProductOutput, error) {
	if id <= 0 {
		return ProductOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := u.products.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ProductOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return ProductOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsActive {
		return ProductOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return toProductOutput(p), nil
}

type ProductInput struct {
	CategoryID  int64            `json:"category_id" validate:"required,gt=0"`
	Name        string           `json:"name" validate:"required,max=255"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	Stock       int64            `json:"stock" validate:"gte=0"`
	IsActive    bool             `json:"is_active"`
}

func (u *ProductUsecase) Create(ctx context.Context, adminID int64, in ProductInput) (ProductOutput, error) {
	if err := u.validateProductInput(ctx, in); err != nil {
		return ProductOutput{}, err
	}

	created, err := u.products.Create(ctx, model.Product{
		UserID:      &adminID,
		CategoryID:  in.CategoryID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price.Round(2),
		Stock:       in.Stock,
		IsActive:    in.IsActive,
	})
	if err != nil {
		logger.Logger.Error("product create failed", zap.Error(err))
		return ProductOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toProductOutput(created), nil
}

func (u *ProductUsecase) Update(ctx context.Context, id int64, in ProductInput) (ProductOutput, error) {
	if id <= 0 {
		return ProductOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := u.validateProductInput(ctx, in); err != nil {
		return ProductOutput{}, err
	}

	p, err := u.products.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ProductOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return ProductOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	p.CategoryID = in.CategoryID
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Price = in.Price.Round(2)
	p.Stock = in.Stock
	p.IsActive = in.IsActive

	if err := u.products.Update(ctx, p); err != nil {
		logger.Logger.Error("product update failed", zap.Error(err), zap.Int64("product_id", id))
		return ProductOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toProductOutput(p), nil
}

// ソフトデリート。既存の注文明細はスナップショットを持つので影響しない。
func (u *ProductUsecase) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if _, err := u.products.FindByID(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if err := u.products.SoftDelete(ctx, id); err != nil {
		logger.Logger.Error("product delete failed", zap.Error(err), zap.Int64("product_id", id))
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

const maxImageSize = 5 << 20

// 画像アップロード。ファイルはストレージへ、DBにはパスだけ。
func (u *ProductUsecase) UploadImage(ctx context.Context, productID int64, file *multipart.FileHeader) (ProductImageOutput, error) {
	if productID <= 0 {
		return ProductImageOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if file == nil {
		return ProductImageOutput{}, NewHTTPError(http.StatusBadRequest, "image is required")
	}
	if file.Size > maxImageSize {
		return ProductImageOutput{}, NewHTTPError(http.StatusBadRequest, "image too large")
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExts[ext] {
		return ProductImageOutput{}, NewHTTPError(http.StatusBadRequest, "unsupported image type")
	}

	if _, err := u.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ProductImageOutput{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return ProductImageOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	path := fmt.Sprintf("products/%d/%s%s", productID, u.idGen.NewID(), ext)
	stored, err := u.store.UploadFile(file, path)
	if err != nil {
		logger.Logger.Error("image upload failed", zap.Error(err), zap.Int64("product_id", productID))
		return ProductImageOutput{}, NewHTTPError(http.StatusInternalServerError, "upload error")
	}

	img, err := u.products.AddImage(ctx, model.ProductImage{
		ProductID: productID,
		Path:      stored,
	})
	if err != nil {
		//DBに載らなかった画像ファイルは掃除する
		if derr := u.store.DeleteFile(stored); derr != nil {
			logger.Logger.Warn("orphan image cleanup failed", zap.Error(derr), zap.String("path", stored))
		}
		return ProductImageOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ProductImageOutput{ID: img.ID, Path: img.Path}, nil
}

func (u *ProductUsecase) validateProductInput(ctx context.Context, in ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if in.Price == nil {
		return NewHTTPError(http.StatusBadRequest, "price is required")
	}
	if in.Price.IsNegative() {
		return NewHTTPError(http.StatusBadRequest, "price must not be negative")
	}
	if in.Stock < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock must not be negative")
	}
	if in.CategoryID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid category_id")
	}
	if _, err := u.categories.FindByID(ctx, in.CategoryID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusBadRequest, "unknown category")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func toProductOutput(p model.Product) ProductOutput {
	imgs := make([]ProductImageOutput, 0, len(p.Images))
	for _, img := range p.Images {
		imgs = append(imgs, ProductImageOutput{ID: img.ID, Path: img.Path})
	}
	return ProductOutput{
		ID:          p.ID,
		CategoryID:  p.CategoryID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		IsActive:    p.IsActive,
		Images:      imgs,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
