package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusFailed    OrderStatus = "FAILED"
)

// CANCELLED/FAILEDは終端。以降の遷移は不可。
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusFailed
}

type Order struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//数値PKとは別の公開用注文番号（UUID）
	OrderID string `gorm:"type:varchar(64);not null;uniqueIndex" json:"order_id"`

	//ユーザー削除時はNULL
	UserID *int64 `gorm:"index" json:"user_id"`

	AddressID int64       `gorm:"not null" json:"address_id"`
	Status    OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	ProductsPrice         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"products_price"`
	ProductsDiscountPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"products_discount_price"`
	ShippingPrice         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"shipping_price"`
	TaxPrice              decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax_price"`

	//作成時に products - discount + shipping + tax で確定。以後自動再計算しない。
	TotalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`

	IsPaid bool       `gorm:"not null;default:false" json:"is_paid"`
	PaidAt *time.Time `json:"paid_at"`

	IsDelivered bool       `gorm:"not null;default:false" json:"is_delivered"`
	DeliveredAt *time.Time `json:"delivered_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE" json:"items,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
