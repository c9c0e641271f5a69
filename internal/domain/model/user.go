package model

import "time"

type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"type:varchar(255);not null" json:"name"`
	Email        string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"column:password_hash;not null" json:"-"`

	//多対多。中間テーブルはuser_roles
	Roles []Role `gorm:"many2many:user_roles;" json:"roles,omitempty"`

	Addresses []Address `gorm:"constraint:OnDelete:CASCADE" json:"addresses,omitempty"`

	//ユーザー削除時はuser_idをNULLにする（注文は残す）
	Orders []Order `gorm:"constraint:OnDelete:SET NULL" json:"-"`

	Reviews  []Review  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Products []Product `gorm:"constraint:OnDelete:SET NULL" json:"-"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// ロードしたRolesのどれかにis_adminがあれば管理者。
// 先頭ロールだけ見て即returnしない（多ロールで誤判定するため）。
func (u *User) HasAdminRole() bool {
	for _, r := range u.Roles {
		if r.IsAdmin {
			return true
		}
	}
	return false
}

// ロール越しの権限名を重複なしで返す
func (u *User) PermissionNames() []string {
	seen := map[string]struct{}{}
	names := make([]string, 0)
	for _, r := range u.Roles {
		for _, p := range r.Permissions {
			if _, ok := seen[p.Name]; ok {
				continue
			}
			seen[p.Name] = struct{}{}
			names = append(names, p.Name)
		}
	}
	return names
}
