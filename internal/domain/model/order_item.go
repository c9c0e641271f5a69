package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文と商品の中間テーブル。数量と確定時点の価格を持つ。
// 作成後は変更しない（明細の更新APIはない）。
type OrderItem struct {
	ID        int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64 `gorm:"not null;index" json:"order_id"`
	ProductID int64 `gorm:"not null;index" json:"product_id"`

	Qty int64 `gorm:"not null" json:"qty"`

	//カート確定時点のスナップショット
	ProductNameSnapshot string          `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	UnitPrice           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Discount            decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
