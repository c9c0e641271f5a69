package repository

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testIDGen struct{}

func (g *testIDGen) NewID() string {
	return "order-uuid-1"
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

// 実DB（sqlite）＋実リポジトリで作成→支払い→配達まで通す
func TestOrderFlow_CreatePayDeliver(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	userRepo := NewUserGormRepository(db)
	addressRepo := NewAddressGormRepository(db)
	categoryRepo := NewCategoryGormRepository(db)
	productRepo := NewProductGormRepository(db)
	txManager := NewTxManagerGorm(db)

	u, err := userRepo.Create(ctx, model.User{Name: "Taro", Email: "taro@example.com", PasswordHash: "x"})
	require.NoError(t, err)

	addr, err := addressRepo.Create(ctx, model.Address{
		UserID:     u.ID,
		Name:       "Taro",
		Surname:    "Yamada",
		Country:    "JP",
		City:       "Tokyo",
		Street:     "1-2-3 Chiyoda",
		PostalCode: "100-0001",
	})
	require.NoError(t, err)

	cat, err := categoryRepo.Create(ctx, model.Category{Name: "Peripherals"})
	require.NoError(t, err)

	p, err := productRepo.Create(ctx, model.Product{
		CategoryID: cat.ID,
		Name:       "Keyboard",
		Price:      mustDec(t, "100.00"),
		Stock:      10,
		IsActive:   true,
	})
	require.NoError(t, err)

	clock := &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	orderUC := usecase.NewOrderUsecase(txManager, addressRepo, userRepo, &testIDGen{}, clock)
	adminUC := usecase.NewAdminOrderUsecase(txManager, clock)

	//100 - 10 + 5 + 8.50 = 103.50
	in := usecase.PlaceOrderInput{
		AddressID:             addr.ID,
		ProductsPrice:         decPtrFlow(t, "100.00"),
		ProductsDiscountPrice: decPtrFlow(t, "10.00"),
		ShippingPrice:         decPtrFlow(t, "5.00"),
		TaxPrice:              decPtrFlow(t, "8.50"),
		TotalPrice:            decPtrFlow(t, "103.50"),
		Items: []usecase.OrderLineInput{
			{ProductID: p.ID, Qty: 1, UnitPrice: mustDec(t, "100.00"), Discount: mustDec(t, "10.00")},
		},
	}

	created, err := orderUC.PlaceOrder(ctx, u.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "order-uuid-1", created.OrderID)
	assert.Equal(t, string(model.OrderStatusPending), created.Status)
	assert.True(t, created.TotalPrice.Equal(mustDec(t, "103.50")))
	require.Equal(t, 1, len(created.Items))
	assert.Equal(t, "Keyboard", created.Items[0].Name)

	//支払い前に配達はできない
	_, err = adminUC.Deliver(ctx, created.ID)
	require.Error(t, err)
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, 409, he.Status)

	clock.now = clock.now.Add(time.Hour)
	paid, err := orderUC.Pay(ctx, u.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusPaid), paid.Status)
	assert.True(t, paid.IsPaid)
	require.NotNil(t, paid.PaidAt)

	//二重payは409
	_, err = orderUC.Pay(ctx, u.ID, created.ID)
	require.Error(t, err)
	he, ok = usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, 409, he.Status)

	clock.now = clock.now.Add(24 * time.Hour)
	delivered, err := adminUC.Deliver(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusDelivered), delivered.Status)
	assert.True(t, delivered.IsDelivered)
	require.NotNil(t, delivered.DeliveredAt)

	//支払い側のフィールドは配達で動かない
	assert.True(t, delivered.IsPaid)

	//DBの行も突き合わせる
	orderRepo := NewOrderGormRepository(db)
	row, err := orderRepo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDelivered, row.Status)
	require.NotNil(t, row.PaidAt)
	require.NotNil(t, row.DeliveredAt)
	assert.True(t, row.DeliveredAt.After(*row.PaidAt))
}

func TestOrderFlow_TotalMismatchRejected(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	userRepo := NewUserGormRepository(db)
	addressRepo := NewAddressGormRepository(db)
	txManager := NewTxManagerGorm(db)

	u, err := userRepo.Create(ctx, model.User{Name: "Taro", Email: "taro@example.com", PasswordHash: "x"})
	require.NoError(t, err)

	addr, err := addressRepo.Create(ctx, model.Address{
		UserID: u.ID, Name: "Taro", Surname: "Yamada", Country: "JP",
		City: "Tokyo", Street: "1-2-3", PostalCode: "100-0001",
	})
	require.NoError(t, err)

	clock := &testClock{now: time.Now().UTC()}
	orderUC := usecase.NewOrderUsecase(txManager, addressRepo, userRepo, &testIDGen{}, clock)

	in := usecase.PlaceOrderInput{
		AddressID:             addr.ID,
		ProductsPrice:         decPtrFlow(t, "100.00"),
		ProductsDiscountPrice: decPtrFlow(t, "10.00"),
		ShippingPrice:         decPtrFlow(t, "5.00"),
		TaxPrice:              decPtrFlow(t, "8.50"),
		TotalPrice:            decPtrFlow(t, "999.99"),
		Items: []usecase.OrderLineInput{
			{ProductID: 1, Qty: 1, UnitPrice: mustDec(t, "100.00")},
		},
	}

	_, err = orderUC.PlaceOrder(ctx, u.ID, in)
	require.Error(t, err)
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, 422, he.Status)

	//注文は一切作られない
	var count int64
	require.NoError(t, db.Model(&model.Order{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func decPtrFlow(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d := mustDec(t, s)
	return &d
}
