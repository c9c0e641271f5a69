package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/logger"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// 請求書レンダラに渡すデータ。組み立てはこちら、描画は外部。
type InvoiceData struct {
	OrderID      string
	Status       string
	CreatedAt    time.Time
	CustomerName string
	AddressLine  string

	Items []InvoiceItem

	ProductsPrice         decimal.Decimal
	ProductsDiscountPrice decimal.Decimal
	ShippingPrice         decimal.Decimal
	TaxPrice              decimal.Decimal
	TotalPrice            decimal.Decimal
}

type InvoiceItem struct {
	Name      string
	Qty       int64
	UnitPrice decimal.Decimal
	Amount    decimal.Decimal
}

type InvoiceRenderer interface {
	Render(data InvoiceData) ([]byte, error)
}

// 決済プロバイダとの境界。金額は最小通貨単位で渡す。
type PaymentIntentCreator interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string, orderID string) (string, error)
}

type OrderExportUsecase struct {
	tx        repo.TransactionManager
	users     repo.UserRepository
	addresses repo.AddressRepository
	renderer  InvoiceRenderer
	intents   PaymentIntentCreator
}

func NewOrderExportUsecase(
	tx repo.TransactionManager,
	users repo.UserRepository,
	addresses repo.AddressRepository,
	renderer InvoiceRenderer,
	intents PaymentIntentCreator,
) *OrderExportUsecase {
	return &OrderExportUsecase{
		tx:        tx,
		users:     users,
		addresses: addresses,
		renderer:  renderer,
		intents:   intents,
	}
}

type InvoicePDFOutput struct {
	Filename string
	Bytes    []byte
}

// 注文＋ユーザー＋最初の住所＋明細を揃えてレンダラに渡し、できたPDFを返す。
func (u *OrderExportUsecase) RenderInvoicePDF(ctx context.Context, requesterID int64, orderID int64) (InvoicePDFOutput, error) {
	if requesterID <= 0 {
		return InvoicePDFOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return InvoicePDFOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	requester, err := u.users.FindByIDWithRoles(ctx, requesterID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return InvoicePDFOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		return InvoicePDFOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	var data InvoiceData

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

		data = u.buildInvoiceData(ctx, o, items)
		return nil
	})
	if err != nil {
		return InvoicePDFOutput{}, err
	}

	pdfBytes, err := u.renderer.Render(data)
	if err != nil {
		logger.Logger.Error("invoice render failed", zap.Error(err), zap.Int64("order_id", orderID))
		return InvoicePDFOutput{}, NewHTTPError(http.StatusInternalServerError, "render error")
	}

	return InvoicePDFOutput{
		Filename: fmt.Sprintf("invoice-%s.pdf", data.OrderID),
		Bytes:    pdfBytes,
	}, nil
}

func (u *OrderExportUsecase) buildInvoiceData(ctx context.Context, o model.Order, items []model.OrderItem) InvoiceData {
	data := InvoiceData{
		OrderID:               o.OrderID,
		Status:                string(o.Status),
		CreatedAt:             o.CreatedAt,
		ProductsPrice:         o.ProductsPrice,
		ProductsDiscountPrice: o.ProductsDiscountPrice,
		ShippingPrice:         o.ShippingPrice,
		TaxPrice:              o.TaxPrice,
		TotalPrice:            o.TotalPrice,
	}

	for _, it := range items {
		line := it.UnitPrice.Sub(it.Discount).Mul(decimal.NewFromInt(it.Qty)).Round(2)
		data.Items = append(data.Items, InvoiceItem{
			Name:      it.ProductNameSnapshot,
			Qty:       it.Qty,
			UnitPrice: it.UnitPrice,
			Amount:    line,
		})
	}

	//宛先。ユーザーが消えていても請求書自体は出せる。
	if o.UserID != nil {
		if user, err := u.users.FindByID(ctx, *o.UserID); err == nil {
			data.CustomerName = user.Name

			//配送・請求書はユーザーの最初の住所
			if addr, err := u.addresses.FindFirstByUserID(ctx, *o.UserID); err == nil {
				data.AddressLine = formatAddressLine(addr)
			}
		}
	}

	return data
}

func formatAddressLine(a model.Address) string {
	parts := []string{a.Street, a.City, a.PostalCode, a.Country}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

type PaymentIntentOutput struct {
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// total_priceを最小通貨単位にしてプロバイダへ。client secretを返すだけ。
func (u *OrderExportUsecase) CreatePaymentIntent(ctx context.Context, userID int64, orderID int64) (PaymentIntentOutput, error) {
	if userID <= 0 {
		return PaymentIntentOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return PaymentIntentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var order model.Order

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID == nil || *o.UserID != userID {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if o.IsPaid {
			return NewStateTransitionError("order already paid")
		}
		order = o
		return nil
	})
	if err != nil {
		return PaymentIntentOutput{}, err
	}

	amountMinor := order.TotalPrice.Mul(decimal.NewFromInt(100)).IntPart()

	secret, err := u.intents.CreateIntent(ctx, amountMinor, "usd", order.OrderID)
	if err != nil {
		logger.Logger.Error("payment intent failed", zap.Error(err), zap.String("order_id", order.OrderID))
		return PaymentIntentOutput{}, NewHTTPError(http.StatusBadGateway, "payment provider error")
	}

	return PaymentIntentOutput{
		ClientSecret: secret,
		Amount:       amountMinor,
		Currency:     "usd",
	}, nil
}
