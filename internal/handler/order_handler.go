package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/config"
	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type OrderHandler struct {
	uc     *usecase.OrderUsecase
	export *usecase.OrderExportUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase, export *usecase.OrderExportUsecase) *OrderHandler {
	return &OrderHandler{uc: uc, export: export}
}

type orderLineRequest struct {
	ProductID int64            `json:"product_id"`
	Qty       int64            `json:"qty"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	Discount  *decimal.Decimal `json:"discount"`
}

type OrderCreateRequest struct {
	AddressID             int64              `json:"address_id"`
	ProductsPrice         *decimal.Decimal   `json:"products_price"`
	ProductsDiscountPrice *decimal.Decimal   `json:"products_discount_price"`
	ShippingPrice         *decimal.Decimal   `json:"shipping_price"`
	TaxPrice              *decimal.Decimal   `json:"tax_price"`
	TotalPrice            *decimal.Decimal   `json:"total_price"`
	CartItems             []orderLineRequest `json:"cart_items"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/orders")
	g.Use(middleware.AuthJWT(cfg))

	g.POST("", h.create)
	g.GET("/:id", h.detail)
	g.PATCH("/:id/pay", h.pay)
	g.GET("/:id/pdf", h.invoicePDF)
	g.POST("/:id/payment-intent", h.paymentIntent)

	//自分の注文一覧
	mine := e.Group("/userOrders")
	mine.Use(middleware.AuthJWT(cfg))
	mine.GET("", h.listMine)
}

func (h *OrderHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req OrderCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	items := make([]usecase.OrderLineInput, 0, len(req.CartItems))
	for _, it := range req.CartItems {
		line := usecase.OrderLineInput{
			ProductID: it.ProductID,
			Qty:       it.Qty,
		}
		if it.UnitPrice != nil {
			line.UnitPrice = *it.UnitPrice
		}
		if it.Discount != nil {
			line.Discount = *it.Discount
		}
		items = append(items, line)
	}

	out, err := h.uc.PlaceOrder(c.Request().Context(), userID, usecase.PlaceOrderInput{
		AddressID:             req.AddressID,
		ProductsPrice:         req.ProductsPrice,
		ProductsDiscountPrice: req.ProductsDiscountPrice,
		ShippingPrice:         req.ShippingPrice,
		TaxPrice:              req.TaxPrice,
		TotalPrice:            req.TotalPrice,
		Items:                 items,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) listMine(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.ListMyOrders(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.GetOrderDetail(c.Request().Context(), userID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) pay(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.Pay(c.Request().Context(), userID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// 請求書PDFをそのまま返す
func (h *OrderHandler) invoicePDF(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.export.RenderInvoicePDF(c.Request().Context(), userID, id)
	if err != nil {
		return writeError(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+out.Filename+`"`)
	return c.Blob(http.StatusOK, "application/pdf", out.Bytes)
}

func (h *OrderHandler) paymentIntent(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.export.CreatePaymentIntent(c.Request().Context(), userID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get("user_id")
	if v == nil {
		return 0, false
	}

	id, ok := v.(int64)
	if !ok {
		return 0, false
	}

	return id, true
}
