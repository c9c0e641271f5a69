package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	Create(ctx context.Context, order model.Order) (int64, error)
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)

	//遷移。タイムスタンプとフラグとstatusを同時に更新する。
	MarkPaid(ctx context.Context, orderID int64, at time.Time) error
	MarkDelivered(ctx context.Context, orderID int64, at time.Time) error
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error

	//ハードデリート（pivotは先に消す）
	Delete(ctx context.Context, orderID int64) error

	//ダッシュボード用の集計。行を全部ロードせずSQL側で集計する。
	CountPaidByMonth(ctx context.Context, year int) ([12]int64, error)
	SumTotalByMonth(ctx context.Context, year int) ([12]decimal.Decimal, error)
	SumTotal(ctx context.Context) (decimal.Decimal, error)
	AvgTotal(ctx context.Context) (decimal.Decimal, error)
}

type OrderItemRepository interface {
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
	DeleteByOrderID(ctx context.Context, orderID int64) error
}
