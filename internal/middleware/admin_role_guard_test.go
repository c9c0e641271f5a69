package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

// FindByIDWithRolesだけ返すstub
type stubUserRepo struct {
	users map[int64]model.User
}

func (s *stubUserRepo) Create(ctx context.Context, u model.User) (model.User, error) {
	panic("not used in guard tests")
}

func (s *stubUserRepo) FindByID(ctx context.Context, id int64) (model.User, error) {
	panic("not used in guard tests")
}

func (s *stubUserRepo) FindByIDWithRoles(ctx context.Context, id int64) (model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return model.User{}, repo.ErrNotFound
	}
	return u, nil
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (model.User, bool, error) {
	panic("not used in guard tests")
}

func (s *stubUserRepo) List(ctx context.Context, page int, limit int) ([]model.User, int64, error) {
	panic("not used in guard tests")
}

func (s *stubUserRepo) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	panic("not used in guard tests")
}

func (s *stubUserRepo) Delete(ctx context.Context, id int64) error {
	panic("not used in guard tests")
}

func runGuard(t *testing.T, users map[int64]model.User, userID interface{}) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != nil {
		c.Set(CtxUserIDKey, userID)
	}

	next := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	guard := AdminRoleGuard(&stubUserRepo{users: users})
	err := guard(next)(c)
	assert.NoError(t, err)
	return rec
}

func TestAdminRoleGuard_AdminPasses(t *testing.T) {
	users := map[int64]model.User{
		1: {ID: 1, Roles: []model.Role{{ID: 2, Name: "Admin", IsAdmin: true}}},
	}

	rec := runGuard(t, users, int64(1))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminRoleGuard_NonAdminForbidden(t *testing.T) {
	users := map[int64]model.User{
		1: {ID: 1, Roles: []model.Role{{ID: 1, Name: "Guest", IsAdmin: false}}},
	}

	rec := runGuard(t, users, int64(1))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "admin only")
}

// 並び順の回帰テスト。管理者ロールが2番目でも通ること。
// （先頭ロールだけ見て判定する実装だとここで落ちる）
func TestAdminRoleGuard_AdminRoleSecondInList(t *testing.T) {
	users := map[int64]model.User{
		1: {ID: 1, Roles: []model.Role{
			{ID: 1, Name: "Guest", IsAdmin: false},
			{ID: 2, Name: "Admin", IsAdmin: true},
		}},
	}

	rec := runGuard(t, users, int64(1))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminRoleGuard_NoRoles(t *testing.T) {
	users := map[int64]model.User{
		1: {ID: 1, Roles: nil},
	}

	rec := runGuard(t, users, int64(1))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminRoleGuard_MissingUserID(t *testing.T) {
	rec := runGuard(t, map[int64]model.User{}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoleGuard_UnknownUser(t *testing.T) {
	rec := runGuard(t, map[int64]model.User{}, int64(42))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
