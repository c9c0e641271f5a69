package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type RoleRepository interface {
	//名前でlookup-or-insert。重複エラー（同時登録の競合）は再検索で解決する。
	GetOrCreate(ctx context.Context, name string) (model.Role, error)

	FindByID(ctx context.Context, id int64) (model.Role, error)
	FindByName(ctx context.Context, name string) (model.Role, bool, error)
	List(ctx context.Context) ([]model.Role, error)

	Create(ctx context.Context, r model.Role) (model.Role, error)
	Update(ctx context.Context, r model.Role) error

	//先にrole_permissions/user_rolesのpivotを外してから行を消す
	Delete(ctx context.Context, id int64) error

	AttachToUser(ctx context.Context, userID int64, roleID int64) error
	DetachFromUser(ctx context.Context, userID int64, roleID int64) error

	ReplacePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error
}

type PermissionRepository interface {
	Create(ctx context.Context, p model.Permission) (model.Permission, error)
	FindByID(ctx context.Context, id int64) (model.Permission, error)
	List(ctx context.Context) ([]model.Permission, error)
	Update(ctx context.Context, p model.Permission) error
	Delete(ctx context.Context, id int64) error
}
