package repository

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		return 0, err
	}
	return order.ID, nil
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

func (r *OrderGormRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}

	q := r.db.WithContext(ctx).Model(&model.Order{})

	//status 絞り込み
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	//user_id 絞り込み
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}

	//期間絞り込み
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (f.Page - 1) * f.Limit
	if err := q.Order("id desc").Limit(f.Limit).Offset(offset).Find(&items).Error; err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

// is_paid/paid_at/statusを1回のUPDATEで確定する。
// 二重払い防止はusecase側が遷移前に行を読み直して判定する。
func (r *OrderGormRepository) MarkPaid(ctx context.Context, orderID int64, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"is_paid": true,
			"paid_at": at,
			"status":  model.OrderStatusPaid,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *OrderGormRepository) MarkDelivered(ctx context.Context, orderID int64, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"is_delivered": true,
			"delivered_at": at,
			"status":       model.OrderStatusDelivered,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *OrderGormRepository) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Update("status", status)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *OrderGormRepository) Delete(ctx context.Context, orderID int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", orderID).Delete(&model.Order{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 月の取り出しだけ方言差がある（本番postgres / テストsqlite）
func (r *OrderGormRepository) monthExpr() string {
	if r.db.Dialector.Name() == "sqlite" {
		return "CAST(strftime('%m', created_at) AS INTEGER)"
	}
	return "EXTRACT(MONTH FROM created_at)::int"
}

func yearRange(year int) (time.Time, time.Time) {
	from := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0)
}

// 支払い済み注文の件数を月別に。12要素固定、該当なしの月は0。
func (r *OrderGormRepository) CountPaidByMonth(ctx context.Context, year int) ([12]int64, error) {
	var out [12]int64

	from, to := yearRange(year)

	var rows []struct {
		Month int
		Cnt   int64
	}
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select(r.monthExpr()+" AS month, COUNT(*) AS cnt").
		Where("is_paid = ?", true).
		Where("created_at >= ? AND created_at < ?", from, to).
		Group("1").
		Scan(&rows).Error
	if err != nil {
		return out, err
	}

	for _, row := range rows {
		if row.Month >= 1 && row.Month <= 12 {
			out[row.Month-1] = row.Cnt
		}
	}
	return out, nil
}

func (r *OrderGormRepository) SumTotalByMonth(ctx context.Context, year int) ([12]decimal.Decimal, error) {
	var out [12]decimal.Decimal
	for i := range out {
		out[i] = decimal.Zero
	}

	from, to := yearRange(year)

	var rows []struct {
		Month int
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select(r.monthExpr()+" AS month, SUM(total_price) AS total").
		Where("created_at >= ? AND created_at < ?", from, to).
		Group("1").
		Scan(&rows).Error
	if err != nil {
		return out, err
	}

	for _, row := range rows {
		if row.Month >= 1 && row.Month <= 12 {
			out[row.Month-1] = row.Total
		}
	}
	return out, nil
}

func (r *OrderGormRepository) SumTotal(ctx context.Context) (decimal.Decimal, error) {
	var row struct {
		Total decimal.NullDecimal
	}
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select("SUM(total_price) AS total").
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !row.Total.Valid {
		return decimal.Zero, nil
	}
	return row.Total.Decimal, nil
}

func (r *OrderGormRepository) AvgTotal(ctx context.Context) (decimal.Decimal, error) {
	var row struct {
		Avg decimal.NullDecimal
	}
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select("AVG(total_price) AS avg").
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !row.Avg.Valid {
		return decimal.Zero, nil
	}
	return row.Avg.Decimal.Round(2), nil
}
