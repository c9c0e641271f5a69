package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// ユーザーの永続化だけを約束。
type UserRepository interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	FindByID(ctx context.Context, id int64) (model.User, error)

	//Roles（とその権限）も一緒にロードする
	FindByIDWithRoles(ctx context.Context, id int64) (model.User, error)

	FindByEmail(ctx context.Context, email string) (model.User, bool, error)
	List(ctx context.Context, page int, limit int) ([]model.User, int64, error)

	//パスワード再設定で使う
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error

	//削除。注文のuser_idはDB側でNULLになる。
	Delete(ctx context.Context, id int64) error
}
