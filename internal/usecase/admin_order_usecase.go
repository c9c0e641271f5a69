package usecase

import (
	"context"
	"errors"
	"net/http"

	"storefront/internal/domain/model"
	"storefront/internal/logger"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// 管理者向けの注文操作。ロールの確認はmiddleware側で済んでいる前提。
type AdminOrderUsecase struct {
	tx    repo.TransactionManager
	clock Clock
}

func NewAdminOrderUsecase(tx repo.TransactionManager, clock Clock) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, clock: clock}
}

type AdminOrderListInput struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
}

type AdminOrderListOutput struct {
	Orders []OrderOutput `json:"orders"`
	Total  int64         `json:"total"`
	Page   int           `json:"page"`
	Limit  int           `json:"limit"`
}

func (u *AdminOrderUsecase) List(ctx context.Context, in AdminOrderListInput) (AdminOrderListOutput, error) {
	if in.Page <= 0 {
		in.Page = 1
	}
	if in.Limit <= 0 || in.Limit > 100 {
		in.Limit = 20
	}
	if in.Status != "" && !validOrderStatus(in.Status) {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var out AdminOrderListOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListAdmin(ctx, repo.AdminOrderListFilter{
			Page:   in.Page,
			Limit:  in.Limit,
			Status: in.Status,
			UserID: in.UserID,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs := make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toOrderOutput(o, items))
		}

		out = AdminOrderListOutput{
			Orders: outs,
			Total:  total,
			Page:   in.Page,
			Limit:  in.Limit,
		}
		return nil
	})

	if err != nil {
		return AdminOrderListOutput{}, err
	}
	return out, nil
}

// PAID→DELIVERED。支払い前の注文は配達済みにできない。
func (u *AdminOrderUsecase) Deliver(ctx context.Context, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if o.IsDelivered {
			return NewStateTransitionError("order already delivered")
		}
		if o.Status != model.OrderStatusPaid {
			return NewStateTransitionError("order is not paid")
		}

		now := u.clock.Now()
		if err := r.Orders().MarkDelivered(ctx, orderID, now); err != nil {
			logger.Logger.Error("mark delivered failed", zap.Error(err), zap.Int64("order_id", orderID))
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o.IsDelivered = true
		o.DeliveredAt = &now
		o.Status = model.OrderStatusDelivered

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 終端でなければCANCELLEDへ
func (u *AdminOrderUsecase) Cancel(ctx context.Context, orderID int64) (OrderOutput, error) {
	return u.moveToTerminal(ctx, orderID, model.OrderStatusCancelled)
}

// 終端でなければFAILEDへ
func (u *AdminOrderUsecase) Fail(ctx context.Context, orderID int64) (OrderOutput, error) {
	return u.moveToTerminal(ctx, orderID, model.OrderStatusFailed)
}

func (u *AdminOrderUsecase) moveToTerminal(ctx context.Context, orderID int64, to model.OrderStatus) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//終端状態からは動かさない
		if o.Status.Terminal() {
			return NewStateTransitionError("order is in a terminal state")
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, to); err != nil {
			logger.Logger.Error("status update failed", zap.Error(err),
				zap.Int64("order_id", orderID), zap.String("to", string(to)))
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o.Status = to

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// ハードデリート。明細→ヘッダの順でひとつのトランザクション。
func (u *AdminOrderUsecase) Delete(ctx context.Context, orderID int64) error {
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		_, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.OrderItems().DeleteByOrderID(ctx, orderID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.Orders().Delete(ctx, orderID); err != nil {
			logger.Logger.Error("order delete failed", zap.Error(err), zap.Int64("order_id", orderID))
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
}

type OrderStatsOutput struct {
	Year             int                 `json:"year"`
	PaidCountByMonth [12]int64           `json:"paid_count_by_month"`
	SalesByMonth     [12]decimal.Decimal `json:"sales_by_month"`
	TotalSales       decimal.Decimal     `json:"total_sales"`
	AverageOrder     decimal.Decimal     `json:"average_order"`
}

// ダッシュボード集計。月別の配列は常に12要素で、データのない月は0。
func (u *AdminOrderUsecase) Stats(ctx context.Context, year int) (OrderStatsOutput, error) {
	if year < 2000 || year > 2100 {
		return OrderStatsOutput{}, NewHTTPError(http.StatusBadRequest, "invalid year")
	}

	var out OrderStatsOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		counts, err := r.Orders().CountPaidByMonth(ctx, year)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		sums, err := r.Orders().SumTotalByMonth(ctx, year)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		total, err := r.Orders().SumTotal(ctx)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		avg, err := r.Orders().AvgTotal(ctx)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = OrderStatsOutput{
			Year:             year,
			PaidCountByMonth: counts,
			SalesByMonth:     sums,
			TotalSales:       total,
			AverageOrder:     avg,
		}
		return nil
	})

	if err != nil {
		return OrderStatsOutput{}, err
	}
	return out, nil
}

func validOrderStatus(s string) bool {
	switch model.OrderStatus(s) {
	case model.OrderStatusPending, model.OrderStatusPaid, model.OrderStatusDelivered,
		model.OrderStatusCancelled, model.OrderStatusFailed:
		return true
	}
	return false
}
