package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/logger"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OrderUsecase struct {
	tx        repo.TransactionManager
	addresses repo.AddressRepository
	users     repo.UserRepository
	idGen     IDGenerator
	clock     Clock
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	addresses repo.AddressRepository,
	users repo.UserRepository,
	idGen IDGenerator,
	clock Clock,
) *OrderUsecase {
	return &OrderUsecase{
		tx:        tx,
		addresses: addresses,
		users:     users,
		idGen:     idGen,
		clock:     clock,
	}
}

// カート確定ペイロードの明細1行
type OrderLineInput struct {
	ProductID int64
	Qty       int64
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
}

// 5つの金額は全部必須（nilなら validation error）
type PlaceOrderInput struct {
	AddressID             int64
	ProductsPrice         *decimal.Decimal
	ProductsDiscountPrice *decimal.Decimal
	ShippingPrice         *decimal.Decimal
	TaxPrice              *decimal.Decimal
	TotalPrice            *decimal.Decimal
	Items                 []OrderLineInput
}

type OrderItemOutput struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount"`
	Qty       int64           `json:"qty"`
}

type OrderOutput struct {
	ID                    int64             `json:"id"`
	OrderID               string            `json:"order_id"`
	UserID                *int64            `json:"user_id"`
	Status                string            `json:"status"`
	ProductsPrice         decimal.Decimal   `json:"products_price"`
	ProductsDiscountPrice decimal.Decimal   `json:"products_discount_price"`
	ShippingPrice         decimal.Decimal   `json:"shipping_price"`
	TaxPrice              decimal.Decimal   `json:"tax_price"`
	TotalPrice            decimal.Decimal   `json:"total_price"`
	IsPaid                bool              `json:"is_paid"`
	PaidAt                *time.Time        `json:"paid_at"`
	IsDelivered           bool              `json:"is_delivered"`
	DeliveredAt           *time.Time        `json:"delivered_at"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
	Items                 []OrderItemOutput `json:"items"`
}

func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.AddressID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid address_id")
	}

	//5つの金額は必須かつ非負
	prices := map[string]*decimal.Decimal{
		"products_price":          in.ProductsPrice,
		"products_discount_price": in.ProductsDiscountPrice,
		"shipping_price":          in.ShippingPrice,
		"tax_price":               in.TaxPrice,
		"total_price":             in.TotalPrice,
	}
	for name, p := range prices {
		if p == nil {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, name+" is required")
		}
		if p.IsNegative() {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, name+" must not be negative")
		}
	}

	if len(in.Items) == 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "cart_items is required")
	}
	for _, it := range in.Items {
		if it.ProductID <= 0 || it.Qty <= 0 {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid cart item")
		}
		if it.UnitPrice.IsNegative() || it.Discount.IsNegative() {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid cart item price")
		}
	}

	//合計はサーバー側で確定する。クライアント値と食い違ったら422。
	total := in.ProductsPrice.
		Sub(*in.ProductsDiscountPrice).
		Add(*in.ShippingPrice).
		Add(*in.TaxPrice).
		Round(2)
	if !total.Equal(in.TotalPrice.Round(2)) {
		return OrderOutput{}, NewHTTPError(http.StatusUnprocessableEntity, "total_price mismatch")
	}

	//address_idの存在確認＋所有チェック
	addr, err := u.addresses.FindByID(ctx, in.AddressID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return OrderOutput{}, NewHTTPError(http.StatusNotFound, "address not found")
		}
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if addr.UserID != userID {
		return OrderOutput{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}

	var out OrderOutput

	//ヘッダと明細はひとつのトランザクションで入れる。片方だけ残さない。
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		now := u.clock.Now()

		orderItems := make([]model.OrderItem, 0, len(in.Items))
		for _, it := range in.Items {
			p, err := r.Products().FindByID(ctx, it.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusBadRequest, "unknown product")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !p.IsActive {
				return NewHTTPError(http.StatusBadRequest, "product not available")
			}

			orderItems = append(orderItems, model.OrderItem{
				ProductID:           it.ProductID,
				ProductNameSnapshot: p.Name,
				UnitPrice:           it.UnitPrice,
				Discount:            it.Discount,
				Qty:                 it.Qty,
				CreatedAt:           now,
			})
		}

		order := model.Order{
			OrderID:               u.idGen.NewID(),
			UserID:                &userID,
			AddressID:             in.AddressID,
			Status:                model.OrderStatusPending,
			ProductsPrice:         *in.ProductsPrice,
			ProductsDiscountPrice: *in.ProductsDiscountPrice,
			ShippingPrice:         *in.ShippingPrice,
			TaxPrice:              *in.TaxPrice,
			TotalPrice:            total,
			IsPaid:                false,
			IsDelivered:           false,
			CreatedAt:             now,
			UpdatedAt:             now,
		}

		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			logger.Logger.Error("order create failed", zap.Error(err))
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			logger.Logger.Error("order items create failed", zap.Error(err), zap.Int64("order_id", orderID))
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		order.ID = orderID
		out = toOrderOutput(order, orderItems)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// PENDING→PAID。トランザクション内で行を読み直してから遷移する
// （同時の二重payはここの前提チェックで弾く）。
func (u *OrderUsecase) Pay(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
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

		//他人の注文は「存在しない扱い」にする
		if o.UserID == nil || *o.UserID != userID {
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		if o.IsPaid {
			return NewStateTransitionError("order already paid")
		}
		if o.Status != model.OrderStatusPending {
			return NewStateTransitionError("order is not pending")
		}

		now := u.clock.Now()
		if err := r.Orders().MarkPaid(ctx, orderID, now); err != nil {
			logger.Logger.Error("mark paid failed", zap.Error(err), zap.Int64("order_id", orderID))
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o.IsPaid = true
		o.PaidAt = &now
		o.Status = model.OrderStatusPaid

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

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByUserID(ctx, userID, 1, 50)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

// 所有者か管理者だけ見られる
func (u *OrderUsecase) GetOrderDetail(ctx context.Context, requesterID int64, orderID int64) (OrderOutput, error) {
	if requesterID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	requester, err := u.users.FindByIDWithRoles(ctx, requesterID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	var out OrderOutput

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		owner := o.UserID != nil && *o.UserID == requesterID
		if !owner && !requester.HasAdminRole() {
			return NewHTTPError(http.StatusNotFound, "not found")
		}

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

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			UnitPrice: it.UnitPrice,
			Discount:  it.Discount,
			Qty:       it.Qty,
		})
	}

	return OrderOutput{
		ID:                    o.ID,
		OrderID:               o.OrderID,
		UserID:                o.UserID,
		Status:                string(o.Status),
		ProductsPrice:         o.ProductsPrice,
		ProductsDiscountPrice: o.ProductsDiscountPrice,
		ShippingPrice:         o.ShippingPrice,
		TaxPrice:              o.TaxPrice,
		TotalPrice:            o.TotalPrice,
		IsPaid:                o.IsPaid,
		PaidAt:                o.PaidAt,
		IsDelivered:           o.IsDelivered,
		DeliveredAt:           o.DeliveredAt,
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
		Items:                 outItems,
	}
}
