package model

import "time"

// 配送先住所。請求書や配送はユーザーの最初の住所を使う。
type Address struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;index" json:"user_id"`

	Name    string `gorm:"type:varchar(255);not null" json:"name"`
	Surname string `gorm:"type:varchar(255);not null" json:"surname"`
	Country string `gorm:"type:varchar(100);not null" json:"country"`
	City    string `gorm:"type:varchar(255);not null" json:"city"`
	Street  string `gorm:"type:varchar(255);not null" json:"street"`

	//郵便番号
	PostalCode string `gorm:"type:varchar(20);not null" json:"postal_code"`

	//電話番号
	Phone string `gorm:"type:varchar(30)" json:"phone"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
