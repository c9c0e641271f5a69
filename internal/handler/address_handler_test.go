package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

// ハンドラ単体テスト用のバリデータ。serverパッケージと同じくvalidator/v10を包む。
type testValidator struct {
	v *validator.Validate
}

func (t *testValidator) Validate(i interface{}) error {
	return t.v.Struct(i)
}

type addressRepoStub struct {
	created []model.Address
}

func (s *addressRepoStub) Create(_ context.Context, a model.Address) (model.Address, error) {
	a.ID = int64(len(s.created) + 1)
	s.created = append(s.created, a)
	return a, nil
}

func (s *addressRepoStub) FindByID(context.Context, int64) (model.Address, error) {
	panic("not used in address handler tests")
}

func (s *addressRepoStub) ListByUserID(context.Context, int64) ([]model.Address, error) {
	panic("not used in address handler tests")
}

func (s *addressRepoStub) FindFirstByUserID(context.Context, int64) (model.Address, error) {
	panic("not used in address handler tests")
}

func (s *addressRepoStub) Update(context.Context, model.Address) error {
	panic("not used in address handler tests")
}

func (s *addressRepoStub) Delete(context.Context, int64) error {
	panic("not used in address handler tests")
}

func newAddressTestContext(t *testing.T, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = &testValidator{v: validator.New()}
	req := httptest.NewRequest(http.MethodPost, "/addresses", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", int64(1))
	return c, rec
}

func TestAddressHandler_Create_RejectsOverlongName(t *testing.T) {
	repo := &addressRepoStub{}
	h := NewAddressHandler(usecase.NewAddressUsecase(repo))

	//max=255を超える名前はバインド直後に弾く
	body := `{"name":"` + strings.Repeat("a", 5000) + `","surname":"Yamada","country":"JP","city":"Tokyo","street":"1-2-3","postal_code":"100-0001"}`
	c, rec := newAddressTestContext(t, body)

	err := h.create(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, repo.created)
}

func TestAddressHandler_Create_RejectsMissingRequiredField(t *testing.T) {
	repo := &addressRepoStub{}
	h := NewAddressHandler(usecase.NewAddressUsecase(repo))

	body := `{"name":"Taro","surname":"Yamada","country":"JP","city":"Tokyo","street":"1-2-3"}`
	c, rec := newAddressTestContext(t, body)

	err := h.create(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "PostalCode")
	assert.Empty(t, repo.created)
}

func TestAddressHandler_Create_ValidBody(t *testing.T) {
	repo := &addressRepoStub{}
	h := NewAddressHandler(usecase.NewAddressUsecase(repo))

	body := `{"name":"Taro","surname":"Yamada","country":"JP","city":"Tokyo","street":"1-2-3","postal_code":"100-0001","phone":"090-0000-0000"}`
	c, rec := newAddressTestContext(t, body)

	err := h.create(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)
	if assert.Len(t, repo.created, 1) {
		assert.Equal(t, int64(1), repo.created[0].UserID)
		assert.Equal(t, "Taro", repo.created[0].Name)
	}
}
