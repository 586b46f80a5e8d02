package handler

import (
	"net/http"
	"strconv"
	"time"

	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	checkout *usecase.CheckoutUsecase
	payments *usecase.PaymentUsecase
	orders   *usecase.OrderUsecase
}

func NewOrderHandler(
	checkout *usecase.CheckoutUsecase,
	payments *usecase.PaymentUsecase,
	orders *usecase.OrderUsecase,
) *OrderHandler {
	return &OrderHandler{checkout: checkout, payments: payments, orders: orders}
}

func (h *OrderHandler) RegisterRoutes(authed *echo.Group, admin *echo.Group) {
	authed.POST("/orders", h.Create)
	authed.POST("/orders/verify-payment", h.VerifyPayment)
	authed.GET("/orders", h.ListMine)
	authed.GET("/orders/:id", h.Get)

	admin.GET("/orders", h.ListAdmin)
	admin.PATCH("/orders/:id/status", h.UpdateStatus)
}

func (h *OrderHandler) Create(c echo.Context) error {
	var in usecase.CreateOrderInput
	if err := c.Bind(&in); err != nil {
		return writeError(c, usecase.NewHTTPError(http.StatusBadRequest, usecase.CodeValidation, "invalid request body"))
	}

	result, err := h.checkout.CreateOrder(c.Request().Context(), getUserIDFromContext(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *OrderHandler) VerifyPayment(c echo.Context) error {
	var in usecase.VerifyPaymentInput
	if err := c.Bind(&in); err != nil {
		return writeError(c, usecase.NewHTTPError(http.StatusBadRequest, usecase.CodeValidation, "invalid request body"))
	}

	order, err := h.payments.VerifyPayment(c.Request().Context(), getUserIDFromContext(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ListMine(c echo.Context) error {
	page, err := h.orders.ListMyOrders(c.Request().Context(), getUserIDFromContext(c),
		queryInt(c, "page", 1), queryInt(c, "limit", 10))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *OrderHandler) Get(c echo.Context) error {
	id, err := paramInt64(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	detail, err := h.orders.GetOrderDetail(c.Request().Context(), id, getUserIDFromContext(c), isAdmin(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *OrderHandler) ListAdmin(c echo.Context) error {
	f := repo.AdminOrderListFilter{
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 20),
		Status: c.QueryParam("status"),
	}
	if raw := c.QueryParam("user_id"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			f.UserID = &v
		}
	}
	if raw := c.QueryParam("from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			f.From = &t
		}
	}
	if raw := c.QueryParam("to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			f.To = &t
		}
	}

	page, err := h.orders.ListAdmin(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	id, err := paramInt64(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var in usecase.UpdateOrderStatusInput
	if err := c.Bind(&in); err != nil {
		return writeError(c, usecase.NewHTTPError(http.StatusBadRequest, usecase.CodeValidation, "invalid request body"))
	}

	order, err := h.orders.UpdateStatus(c.Request().Context(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}
