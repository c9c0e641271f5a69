package usecase

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// Deliver tests
// =====================

func TestAdminOrderUsecase_Deliver_Success(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

	tx := new(TxManagerMock)
	ordersRepo := new(OrderRepoMock)
	itemsRepo := new(OrderItemRepoMock)

	tx.Repos = &TxReposMock{orders: ordersRepo, orderItems: itemsRepo}
	tx.On("WithinTx", mock.Anything).Return(nil)

	paidAt := now.Add(-24 * time.Hour)
	ordersRepo.On("FindByID", mock.Anything, int64(42)).Return(model.Order{
		ID:     42,
		Status: model.OrderStatusPaid,
		IsPaid: true,
		PaidAt: &paidAt,
	}, nil)
	ordersRepo.On("MarkDelivered", mock.Anything, int64(42), now).Return(nil)
	itemsRepo.On("ListByOrderID", mock.Anything, int64(42)).Return([]model.OrderItem{}, nil)

	uc := NewAdminOrderUsecase(tx, &fixedClock{now: now})

	out, err := uc.Deliver(ctx, 42)
	assert.NoError(t, err)

	assert.Equal(t, string(model.OrderStatusDelivered), out.Status)
	assert.True(t, out.IsDelivered)
	if assert.NotNil(t, out.DeliveredAt) {
		assert.Equal(t, now, *out.DeliveredAt)
	}

	//支払い側のフィールドはそのまま
	assert.True(t, out.IsPaid)

	ordersRepo.AssertExpectations(t)
}

func TestAdminOrderUsecase_Deliver_UnpaidOrder(t *testing.T) {
	ctx := context.Background()

	tx := new(TxManagerMock)
	ordersRepo := new(OrderRepoMock)

	tx.Repos = &TxReposMock{orders: ordersRepo}
	tx.On("WithinTx", mock.Anything).Return(nil)

	ordersRepo.On("FindByID", mock.Anything, int64(42)).Return(model.Order{
		ID:     42,
		Status: model.OrderStatusPending,
	}, nil)

	uc := NewAdminOrderUsecase(tx, &fixedClock{now: time.Now()})

	//PENDINGからDELIVEREDへは飛べない
	_, err := uc.Deliver(ctx, 42)
	assertErrContains(t, err, "not paid")

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 409, he.Status)

	//MarkDeliveredは呼ばれない
	ordersRepo.AssertNotCalled(t, "MarkDelivered", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminOrderUsecase_Deliver_AlreadyDelivered(t *testing.T) {
	ctx := context.Background()

	tx := new(TxManagerMock)
	ordersRepo := new(OrderRepoMock)

	tx.Repos = &TxReposMock{orders: ordersRepo}
	tx.On("WithinTx", mock.Anything).Return(nil)

	ordersRepo.On("FindByID", mock.Anything, int64(42)).Return(model.Order{
		ID:          42,
		Status:      model.OrderStatusDelivered,
		IsDelivered: true,
	}, nil)

	uc := NewAdminOrderUsecase(tx, &fixedClock{now: time.Now()})

	_, err := uc.Deliver(ctx, 42)
	assertErrContains(t, err, "already delivered")
}

// =====================
// Cancel / Fail tests
// =====================

func TestAdminOrderUsecase_Cancel_FromPending(t *testing.T) {
	ctx := context.Background()

	tx := new(TxManagerMock)
	ordersRepo := new(OrderRepoMock)
	itemsRepo := new(OrderItemRepoMock)

	tx.Repos = &TxReposMock{orders: ordersRepo, orderItems: itemsRepo}
	tx.On("WithinTx", mock.Anything).Return(nil)

	ordersRepo.On("FindByID", mock.Anything, int64(42)).Return(model.Order{
		ID:     42,
		Status: model.OrderStatusPending,
	}, nil)
	ordersRepo.On("UpdateStatus", mock.Anything, int64(42), model.OrderStatusCancelled).Return(nil)
	itemsRepo.On("ListByOrderID", mock.Anything, int64(42)).Return([]model.OrderItem{}, nil)

	uc := NewAdminOrderUsecase(tx, &fixedClock{now: time.Now()})

	out, err := uc.Cancel(ctx, 42)
	assert.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusCancelled), out.Status)
}

func TestAdminOrderUsecase_Cancel_TerminalState(t *testing.T) {
	ctx := context.Background()

	tx := new(TxManagerMock)
	ordersRepo := new(OrderRepoMock)

	tx.Repos = &TxReposMock{orders: ordersRepo}
	tx.On("WithinTx", mock.Anything).Return(nil)

	//FAILEDは終端。そこからCANCELLEDへは動かさない。
	ordersRepo.On("FindByID", mock.Anything, int64(42)).Return(model.Order{
		ID:     42,
		Status: model.OrderStatusFailed,
	}, nil)

	uc := NewAdminOrderUsecase(tx, &fixedClock{now: time.Now()})

	_, err := uc.Cancel(ctx, 42)
	assertErrContains(t, err, "terminal")

	ordersRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminOrderUsecase_Fail_FromPaid(t *testing.T) {
	ctx := context.Background()

	tx := new(TxManagerMock)
	ordersRepo := new(OrderRepoMock)
	itemsRepo := new(OrderItemRepoMock)

	tx.Repos = &TxReposMock{orders: ordersRepo, orderItems: itemsRepo}
	tx.On("WithinTx", mock.Anything).Return(nil)

	ordersRepo.On("FindByID", mock.Anything, int64(42)).Return(model.Order{
		ID:     42,
		Status: model.OrderStatusPaid,
		IsPaid: true,
	}, nil)
	ordersRepo.On("UpdateStatus", mock.Anything, int64(42), model.OrderStatusFailed).Return(nil)
	itemsRepo.On("ListByOrderID", mock.Anything, int64(42)).Return([]model.OrderItem{}, nil)

	uc := NewAdminOrderUsecase(tx, &fixedClock{now: time.Now()})

	out, err := uc.Fail(ctx, 42)
	assert.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusFailed), out.Status)
}

// =====================
// Delete tests
// =====================

func TestAdminOrderUsecase_Delete_RemovesItemsFirst(t *testing.T) {
	ctx := context.Background()

	tx := new(TxManagerMock)
	ordersRepo := new(OrderRepoMock)
	itemsRepo := new(OrderItemRepoMock)

	tx.Repos = &TxReposMock{orders: ordersRepo, orderItems: itemsRepo}
	tx.On("WithinTx", mock.Anything).Return(nil)

	ordersRepo.On("FindByID", mock.Anything, int64(42)).Return(model.Order{ID: 42}, nil)
	itemsRepo.On("DeleteByOrderID", mock.Anything, int64(42)).Return(nil)
	ordersRepo.On("Delete", mock.Anything, int64(42)).Return(nil)

	uc := NewAdminOrderUsecase(tx, &fixedClock{now: time.Now()})

	err := uc.Delete(ctx, 42)
	assert.NoError(t, err)

	ordersRepo.AssertExpectations(t)
	itemsRepo.AssertExpectations(t)
}

func TestAdminOrderUsecase_Delete_NotFound(t *testing.T) {
	ctx := context.Background()

	tx := new(TxManagerMock)
	ordersRepo := new(OrderRepoMock)

	tx.Repos = &TxReposMock{orders: ordersRepo}
	tx.On("WithinTx", mock.Anything).Return(nil)

	ordersRepo.On("FindByID", mock.Anything, int64(99)).Return(model.Order{}, repo.ErrNotFound)

	uc := NewAdminOrderUsecase(tx, &fixedClock{now: time.Now()})

	err := uc.Delete(ctx, 99)
	assertErrContains(t, err, "not found")
}

// =====================
// Stats tests
// =====================

func TestAdminOrderUsecase_Stats_ZeroFilledMonths(t *testing.T) {
	ctx := context.Background()

	tx := new(TxManagerMock)
	ordersRepo := new(OrderRepoMock)

	tx.Repos = &TxReposMock{orders: ordersRepo}
	tx.On("WithinTx", mock.Anything).Return(nil)

	//1月と6月だけデータあり。他の月は0のまま返る。
	var counts [12]int64
	counts[0] = 3
	counts[5] = 1

	var sums [12]decimal.Decimal
	sums[0] = dec("300.00")
	sums[5] = dec("50.00")

	ordersRepo.On("CountPaidByMonth", mock.Anything, 2025).Return(counts, nil)
	ordersRepo.On("SumTotalByMonth", mock.Anything, 2025).Return(sums, nil)
	ordersRepo.On("SumTotal", mock.Anything).Return(dec("350.00"), nil)
	ordersRepo.On("AvgTotal", mock.Anything).Return(dec("87.50"), nil)

	uc := NewAdminOrderUsecase(tx, &fixedClock{now: time.Now()})

	out, err := uc.Stats(ctx, 2025)
	assert.NoError(t, err)

	assert.Equal(t, 2025, out.Year)
	assert.Equal(t, 12, len(out.PaidCountByMonth))
	assert.Equal(t, 12, len(out.SalesByMonth))

	assert.Equal(t, int64(3), out.PaidCountByMonth[0])
	assert.Equal(t, int64(0), out.PaidCountByMonth[2])
	assert.True(t, out.SalesByMonth[2].IsZero())
	assert.True(t, out.TotalSales.Equal(dec("350.00")))
	assert.True(t, out.AverageOrder.Equal(dec("87.50")))
}

func TestAdminOrderUsecase_Stats_InvalidYear(t *testing.T) {
	tx := new(TxManagerMock)
	uc := NewAdminOrderUsecase(tx, &fixedClock{now: time.Now()})

	_, err := uc.Stats(context.Background(), 123)
	assertErrContains(t, err, "invalid year")
}

func TestAdminOrderUsecase_List_InvalidStatus(t *testing.T) {
	tx := new(TxManagerMock)
	uc := NewAdminOrderUsecase(tx, &fixedClock{now: time.Now()})

	_, err := uc.List(context.Background(), AdminOrderListInput{Page: 1, Limit: 20, Status: "SHIPPED"})
	assertErrContains(t, err, "invalid status")
}
