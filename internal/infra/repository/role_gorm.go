package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoleGormRepository struct {
	db *gorm.DB
}

func NewRoleGormRepository(db *gorm.DB) *RoleGormRepository {
	return &RoleGormRepository{db: db}
}

// lookup-or-insert。同名の同時INSERTはDO NOTHINGで潰して読み直す。
func (r *RoleGormRepository) GetOrCreate(ctx context.Context, name string) (model.Role, error) {
	var role model.Role
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Role{}, err
	}

	role = model.Role{Name: name, IsAdmin: false}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&role).Error
	if err != nil {
		return model.Role{}, err
	}

	//DO NOTHINGに倒れた場合はIDが入らないので読み直す
	if role.ID == 0 {
		if err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
			return model.Role{}, err
		}
	}
	return role, nil
}

func (r *RoleGormRepository) FindByID(ctx context.Context, id int64) (model.Role, error) {
	var role model.Role
	err := r.db.WithContext(ctx).
		Preload("Permissions").
		Where("id = ?", id).
		First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Role{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Role{}, err
	}
	return role, nil
}

func (r *RoleGormRepository) FindByName(ctx context.Context, name string) (model.Role, bool, error) {
	var role model.Role
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Role{}, false, nil
	}
	if err != nil {
		return model.Role{}, false, err
	}
	return role, true, nil
}

func (r *RoleGormRepository) List(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	err := r.db.WithContext(ctx).
		Preload("Permissions").
		Order("id asc").
		Find(&roles).Error
	if err != nil {
		return []model.Role{}, err
	}
	return roles, nil
}

func (r *RoleGormRepository) Create(ctx context.Context, role model.Role) (model.Role, error) {
	if err := r.db.WithContext(ctx).Create(&role).Error; err != nil {
		return model.Role{}, err
	}
	return role, nil
}

func (r *RoleGormRepository) Update(ctx context.Context, role model.Role) error {
	res := r.db.WithContext(ctx).Model(&model.Role{}).
		Where("id = ?", role.ID).
		Updates(map[string]interface{}{
			"name":     role.Name,
			"is_admin": role.IsAdmin,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// pivot（role_permissions / user_roles）を外してから行を消す。
// 孤児pivotを残さない。
func (r *RoleGormRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var role model.Role
		err := tx.Where("id = ?", id).First(&role).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repo.ErrNotFound
		}
		if err != nil {
			return err
		}

		if err := tx.Model(&role).Association("Permissions").Clear(); err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM user_roles WHERE role_id = ?", id).Error; err != nil {
			return err
		}

		return tx.Delete(&role).Error
	})
}

func (r *RoleGormRepository) AttachToUser(ctx context.Context, userID int64, roleID int64) error {
	return r.db.WithContext(ctx).
		Model(&model.User{ID: userID}).
		Association("Roles").
		Append(&model.Role{ID: roleID})
}

func (r *RoleGormRepository) DetachFromUser(ctx context.Context, userID int64, roleID int64) error {
	return r.db.WithContext(ctx).
		Model(&model.User{ID: userID}).
		Association("Roles").
		Delete(&model.Role{ID: roleID})
}

func (r *RoleGormRepository) ReplacePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	perms := make([]model.Permission, 0, len(permissionIDs))
	for _, id := range permissionIDs {
		perms = append(perms, model.Permission{ID: id})
	}
	return r.db.WithContext(ctx).
		Model(&model.Role{ID: roleID}).
		Association("Permissions").
		Replace(perms)
}

type PermissionGormRepository struct {
	db *gorm.DB
}

func NewPermissionGormRepository(db *gorm.DB) *PermissionGormRepository {
	return &PermissionGormRepository{db: db}
}

func (r *PermissionGormRepository) Create(ctx context.Context, p model.Permission) (model.Permission, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Permission{}, err
	}
	return p, nil
}

func (r *PermissionGormRepository) FindByID(ctx context.Context, id int64) (model.Permission, error) {
	var p model.Permission
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Permission{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Permission{}, err
	}
	return p, nil
}

func (r *PermissionGormRepository) List(ctx context.Context) ([]model.Permission, error) {
	var perms []model.Permission
	if err := r.db.WithContext(ctx).Order("id asc").Find(&perms).Error; err != nil {
		return []model.Permission{}, err
	}
	return perms, nil
}

func (r *PermissionGormRepository) Update(ctx context.Context, p model.Permission) error {
	res := r.db.WithContext(ctx).Model(&model.Permission{}).
		Where("id = ?", p.ID).
		Update("name", p.Name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *PermissionGormRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.Permission
		err := tx.Where("id = ?", id).First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repo.ErrNotFound
		}
		if err != nil {
			return err
		}

		if err := tx.Exec("DELETE FROM role_permissions WHERE permission_id = ?", id).Error; err != nil {
			return err
		}

		return tx.Delete(&p).Error
	})
}
