package repository

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// テストはsqliteのin-memoryで回す（本番はpostgres）
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Role{},
		&model.Permission{},
		&model.Address{},
		&model.Category{},
		&model.Product{},
		&model.ProductImage{},
		&model.Review{},
		&model.Order{},
		&model.OrderItem{},
		&model.PasswordReset{},
	))

	return db
}

func seedOrder(t *testing.T, db *gorm.DB, userID *int64, status model.OrderStatus, isPaid bool, total string, createdAt time.Time) model.Order {
	t.Helper()

	o := model.Order{
		OrderID:    "o-" + createdAt.Format("20060102150405.000000000"),
		UserID:     userID,
		Status:     status,
		TotalPrice: mustDec(t, total),
		IsPaid:     isPaid,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
	require.NoError(t, db.Create(&o).Error)
	return o
}

func mustDec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestOrderGormRepository_MarkPaid(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	r := NewOrderGormRepository(db)

	o := seedOrder(t, db, nil, model.OrderStatusPending, false, "100.00", time.Now().UTC())

	paidAt := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, r.MarkPaid(ctx, o.ID, paidAt))

	got, err := r.FindByID(ctx, o.ID)
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusPaid, got.Status)
	assert.True(t, got.IsPaid)
	require.NotNil(t, got.PaidAt)
	assert.Equal(t, paidAt.Unix(), got.PaidAt.UTC().Unix())

	//配達側は触られない
	assert.False(t, got.IsDelivered)
	assert.Nil(t, got.DeliveredAt)
}

func TestOrderGormRepository_MarkPaid_MissingOrder(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	r := NewOrderGormRepository(db)

	err := r.MarkPaid(ctx, 999, time.Now())
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestOrderGormRepository_CountPaidByMonth_ZeroFilled(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	r := NewOrderGormRepository(db)

	//1月に2件、6月に1件の支払い済み。3月は未払いのみ。
	seedOrder(t, db, nil, model.OrderStatusPaid, true, "100.00", time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC))
	seedOrder(t, db, nil, model.OrderStatusPaid, true, "50.00", time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC))
	seedOrder(t, db, nil, model.OrderStatusPaid, true, "25.00", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	seedOrder(t, db, nil, model.OrderStatusPending, false, "10.00", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC))

	//別年のデータは混ざらない
	seedOrder(t, db, nil, model.OrderStatusPaid, true, "999.00", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))

	counts, err := r.CountPaidByMonth(ctx, 2025)
	require.NoError(t, err)

	assert.Equal(t, int64(2), counts[0])
	assert.Equal(t, int64(0), counts[2])
	assert.Equal(t, int64(1), counts[5])
	for _, m := range []int{1, 3, 4, 6, 7, 8, 9, 10, 11} {
		assert.Equal(t, int64(0), counts[m], "month index %d", m)
	}
}

func TestOrderGormRepository_SumTotalByMonth_ZeroFilled(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	r := NewOrderGormRepository(db)

	seedOrder(t, db, nil, model.OrderStatusPaid, true, "100.00", time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC))
	seedOrder(t, db, nil, model.OrderStatusPaid, true, "50.50", time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC))
	seedOrder(t, db, nil, model.OrderStatusPending, false, "25.00", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	sums, err := r.SumTotalByMonth(ctx, 2025)
	require.NoError(t, err)

	assert.True(t, sums[0].Equal(mustDec(t, "150.50")), "got %s", sums[0])
	assert.True(t, sums[5].Equal(mustDec(t, "25.00")), "got %s", sums[5])
	assert.True(t, sums[2].IsZero())
}

func TestOrderGormRepository_SumAndAvg_EmptyTable(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	r := NewOrderGormRepository(db)

	//空テーブルでもエラーにせず0を返す
	sum, err := r.SumTotal(ctx)
	require.NoError(t, err)
	assert.True(t, sum.IsZero())

	avg, err := r.AvgTotal(ctx)
	require.NoError(t, err)
	assert.True(t, avg.IsZero())
}

func TestOrderGormRepository_ListAdmin_StatusFilter(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	r := NewOrderGormRepository(db)

	seedOrder(t, db, nil, model.OrderStatusPending, false, "10.00", time.Now().UTC())
	seedOrder(t, db, nil, model.OrderStatusPaid, true, "20.00", time.Now().UTC())
	seedOrder(t, db, nil, model.OrderStatusPaid, true, "30.00", time.Now().UTC())

	items, total, err := r.ListAdmin(ctx, repo.AdminOrderListFilter{
		Page:   1,
		Limit:  10,
		Status: string(model.OrderStatusPaid),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2), total)
	assert.Equal(t, 2, len(items))
	for _, o := range items {
		assert.Equal(t, model.OrderStatusPaid, o.Status)
	}
}

func TestOrderGormRepository_DeleteWithItems(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	r := NewOrderGormRepository(db)
	itemsRepo := NewOrderItemGormRepository(db)

	o := seedOrder(t, db, nil, model.OrderStatusPending, false, "100.00", time.Now().UTC())
	require.NoError(t, itemsRepo.CreateBulk(ctx, o.ID, []model.OrderItem{
		{ProductID: 1, ProductNameSnapshot: "Keyboard", Qty: 1, UnitPrice: mustDec(t, "100.00")},
	}))

	//明細→ヘッダの順で消す
	require.NoError(t, itemsRepo.DeleteByOrderID(ctx, o.ID))
	require.NoError(t, r.Delete(ctx, o.ID))

	_, err := r.FindByID(ctx, o.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	left, err := itemsRepo.ListByOrderID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, len(left))
}

func TestUserGormRepository_Delete_KeepsOrdersWithNullUser(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	userRepo := NewUserGormRepository(db)
	orderRepo := NewOrderGormRepository(db)

	u, err := userRepo.Create(ctx, model.User{Name: "Taro", Email: "taro@example.com", PasswordHash: "x"})
	require.NoError(t, err)

	o := seedOrder(t, db, &u.ID, model.OrderStatusPaid, true, "100.00", time.Now().UTC())

	require.NoError(t, userRepo.Delete(ctx, u.ID))

	//注文は残り、user_idだけNULLになる
	got, err := orderRepo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Nil(t, got.UserID)
}
