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

type ReviewUsecase struct {
	reviews  repo.ReviewRepository
	products repo.ProductRepository
	users    repo.UserRepository
}

func NewReviewUsecase(
	reviews repo.ReviewRepository,
	products repo.ProductRepository,
	users repo.UserRepository,
) *ReviewUsecase {
	return &ReviewUsecase{
		reviews:  reviews,
		products: products,
		users:    users,
	}
}

type ReviewInput struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

type ReviewOutput struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ProductID int64     `json:"product_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// 1ユーザー1商品につき1件。2件目は409。
func (u *ReviewUsecase) Create(ctx context.Context, userID int64, productID int64, in ReviewInput) (ReviewOutput, error) {
	if userID <= 0 {
		return ReviewOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return ReviewOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return ReviewOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return ReviewOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsActive {
		return ReviewOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	exists, err := u.reviews.ExistsByUserAndProduct(ctx, userID, productID)
	if err != nil {
		return ReviewOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if exists {
		return ReviewOutput{}, NewHTTPError(http.StatusConflict, "review already exists")
	}

	created, err := u.reviews.Create(ctx, model.Review{
		UserID:    userID,
		ProductID: productID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
	})
	if err != nil {
		//ユニーク制約の同時突破はここで弾かれる
		logger.Logger.Error("review create failed", zap.Error(err),
			zap.Int64("user_id", userID), zap.Int64("product_id", productID))
		return ReviewOutput{}, NewHTTPError(http.StatusConflict, "review already exists")
	}
	return toReviewOutput(created), nil
}

func (u *ReviewUsecase) ListByProduct(ctx context.Context, productID int64) ([]ReviewOutput, error) {
	if productID <= 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if _, err := u.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewHTTPError(http.StatusNotFound, "not found")
		}
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	reviews, err := u.reviews.ListByProductID(ctx, productID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	outs := make([]ReviewOutput, 0, len(reviews))
	for _, rv := range reviews {
		outs = append(outs, toReviewOutput(rv))
	}
	return outs, nil
}

// 本人か管理者だけ消せる
func (u *ReviewUsecase) Delete(ctx context.Context, requesterID int64, reviewID int64) error {
	if requesterID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if reviewID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	rv, err := u.reviews.FindByID(ctx, reviewID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if rv.UserID != requesterID {
		requester, err := u.users.FindByIDWithRoles(ctx, requesterID)
		if err != nil {
			return NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		if !requester.HasAdminRole() {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}
	}

	if err := u.reviews.Delete(ctx, reviewID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func toReviewOutput(rv model.Review) ReviewOutput {
	return ReviewOutput{
		ID:        rv.ID,
		UserID:    rv.UserID,
		ProductID: rv.ProductID,
		Rating:    rv.Rating,
		Comment:   rv.Comment,
		CreatedAt: rv.CreatedAt,
	}
}
