package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	"storefront/internal/logger"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

// ロールと権限の管理。呼び出し側はAdminRoleGuardを通っている前提。
type RBACUsecase struct {
	roles       repo.RoleRepository
	permissions repo.PermissionRepository
	users       repo.UserRepository
}

func NewRBACUsecase(
	roles repo.RoleRepository,
	permissions repo.PermissionRepository,
	users repo.UserRepository,
) *RBACUsecase {
	return &RBACUsecase{
		roles:       roles,
		permissions: permissions,
		users:       users,
	}
}

type RoleInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	IsAdmin bool   `json:"is_admin"`
}

type RoleOutput struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	IsAdmin     bool     `json:"is_admin"`
	Permissions []string `json:"permissions"`
}

func (u *RBACUsecase) CreateRole(ctx context.Context, in RoleInput) (RoleOutput, error) {
	name := strings.TrimSpace(in.Name)

	if _, exists, err := u.roles.FindByName(ctx, name); err != nil {
		return RoleOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	} else if exists {
		return RoleOutput{}, NewHTTPError(http.StatusConflict, "role already exists")
	}

	created, err := u.roles.Create(ctx, model.Role{Name: name, IsAdmin: in.IsAdmin})
	if err != nil {
		logger.Logger.Error("role create failed", zap.Error(err), zap.String("name", name))
		return RoleOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toRoleOutput(created), nil
}

func (u *RBACUsecase) GetRole(ctx context.Context, id int64) (RoleOutput, error) {
	if id <= 0 {
		return RoleOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	r, err := u.roles.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return RoleOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return RoleOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toRoleOutput(r), nil
}

func (u *RBACUsecase) ListRoles(ctx context.Context) ([]RoleOutput, error) {
	roles, err := u.roles.List(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	outs := make([]RoleOutput, 0, len(roles))
	for _, r := range roles {
		outs = append(outs, toRoleOutput(r))
	}
	return outs, nil
}

func (u *RBACUsecase) UpdateRole(ctx context.Context, id int64, in RoleInput) (RoleOutput, error) {
	if id <= 0 {
		return RoleOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	name := strings.TrimSpace(in.Name)

	r, err := u.roles.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return RoleOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return RoleOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//名前の変更は他ロールと衝突しないかを見る
	if other, exists, err := u.roles.FindByName(ctx, name); err != nil {
		return RoleOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	} else if exists && other.ID != id {
		return RoleOutput{}, NewHTTPError(http.StatusConflict, "role already exists")
	}

	r.Name = name
	r.IsAdmin = in.IsAdmin
	if err := u.roles.Update(ctx, r); err != nil {
		logger.Logger.Error("role update failed", zap.Error(err), zap.Int64("role_id", id))
		return RoleOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toRoleOutput(r), nil
}

// ロール削除。pivot（user_roles / role_permissions）はリポジトリが先に外す。
func (u *RBACUsecase) DeleteRole(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if _, err := u.roles.FindByID(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if err := u.roles.Delete(ctx, id); err != nil {
		logger.Logger.Error("role delete failed", zap.Error(err), zap.Int64("role_id", id))
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

type ReplacePermissionsInput struct {
	PermissionIDs []int64 `json:"permission_ids" validate:"required"`
}

// ロールの権限を全入れ替え
func (u *RBACUsecase) ReplaceRolePermissions(ctx context.Context, roleID int64, in ReplacePermissionsInput) (RoleOutput, error) {
	if roleID <= 0 {
		return RoleOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if _, err := u.roles.FindByID(ctx, roleID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return RoleOutput{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return RoleOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//存在しない権限IDが混ざっていたら何もしない
	for _, pid := range in.PermissionIDs {
		if _, err := u.permissions.FindByID(ctx, pid); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return RoleOutput{}, NewHTTPError(http.StatusBadRequest, "unknown permission")
			}
			return RoleOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}

	if err := u.roles.ReplacePermissions(ctx, roleID, in.PermissionIDs); err != nil {
		logger.Logger.Error("permissions replace failed", zap.Error(err), zap.Int64("role_id", roleID))
		return RoleOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	r, err := u.roles.FindByID(ctx, roleID)
	if err != nil {
		return RoleOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toRoleOutput(r), nil
}

func (u *RBACUsecase) AssignRoleToUser(ctx context.Context, userID int64, roleID int64) error {
	if userID <= 0 || roleID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if _, err := u.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "user not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if _, err := u.roles.FindByID(ctx, roleID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "role not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if err := u.roles.AttachToUser(ctx, userID, roleID); err != nil {
		logger.Logger.Error("role attach failed", zap.Error(err),
			zap.Int64("user_id", userID), zap.Int64("role_id", roleID))
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *RBACUsecase) RemoveRoleFromUser(ctx context.Context, userID int64, roleID int64) error {
	if userID <= 0 || roleID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := u.roles.DetachFromUser(ctx, userID, roleID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// ユーザーの全ロール分の権限名（重複なし）
func (u *RBACUsecase) PermissionNamesForUser(ctx context.Context, userID int64) ([]string, error) {
	if userID <= 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	user, err := u.users.FindByIDWithRoles(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return user.PermissionNames(), nil
}

type PermissionInput struct {
	Name string `json:"name" validate:"required,max=100"`
}

type PermissionOutput struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (u *RBACUsecase) CreatePermission(ctx context.Context, in PermissionInput) (PermissionOutput, error) {
	name := strings.TrimSpace(in.Name)
	created, err := u.permissions.Create(ctx, model.Permission{Name: name})
	if err != nil {
		logger.Logger.Error("permission create failed", zap.Error(err), zap.String("name", name))
		return PermissionOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return PermissionOutput{ID: created.ID, Name: created.Name}, nil
}

func (u *RBACUsecase) ListPermissions(ctx context.Context) ([]PermissionOutput, error) {
	perms, err := u.permissions.List(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	outs := make([]PermissionOutput, 0, len(perms))
	for _, p := range perms {
		outs = append(outs, PermissionOutput{ID: p.ID, Name: p.Name})
	}
	return outs, nil
}

func (u *RBACUsecase) UpdatePermission(ctx context.Context, id int64, in PermissionInput) (PermissionOutput, error) {
	if id <= 0 {
		return PermissionOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	name := strings.TrimSpace(in.Name)

	p, err := u.permissions.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return PermissionOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return PermissionOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	p.Name = name
	if err := u.permissions.Update(ctx, p); err != nil {
		return PermissionOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return PermissionOutput{ID: p.ID, Name: p.Name}, nil
}

func (u *RBACUsecase) DeletePermission(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if _, err := u.permissions.FindByID(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if err := u.permissions.Delete(ctx, id); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func toRoleOutput(r model.Role) RoleOutput {
	perms := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, p.Name)
	}
	return RoleOutput{
		ID:          r.ID,
		Name:        r.Name,
		IsAdmin:     r.IsAdmin,
		Permissions: perms,
	}
}
