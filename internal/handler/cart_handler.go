package handler

import (
	"net/http"

	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CartHandler struct {
	cart *usecase.CartUsecase
}

func NewCartHandler(cart *usecase.CartUsecase) *CartHandler {
	return &CartHandler{cart: cart}
}

func (h *CartHandler) RegisterRoutes(authed *echo.Group) {
	authed.GET("/cart", h.Get)
	authed.POST("/cart", h.AddItem)
	authed.PATCH("/cart/items/:productId", h.UpdateItem)
	authed.DELETE("/cart/items/:productId", h.RemoveItem)
	authed.DELETE("/cart", h.Clear)

	authed.POST("/cart/coupon", h.ApplyCoupon)
	authed.DELETE("/cart/coupon", h.RemoveCoupon)
}

func (h *CartHandler) Get(c echo.Context) error {
	view, err := h.cart.GetCart(c.Request().Context(), getUserIDFromContext(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHandler) AddItem(c echo.Context) error {
	var req struct {
		ProductID int64 `json:"product_id"`
		Quantity  int64 `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return writeError(c, usecase.NewHTTPError(http.StatusBadRequest, usecase.CodeValidation, "invalid request body"))
	}

	view, err := h.cart.AddToCart(c.Request().Context(), getUserIDFromContext(c), req.ProductID, req.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHandler) UpdateItem(c echo.Context) error {
	productID, err := paramInt64(c, "productId")
	if err != nil {
		return writeError(c, err)
	}

	var req struct {
		Quantity int64 `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return writeError(c, usecase.NewHTTPError(http.StatusBadRequest, usecase.CodeValidation, "invalid request body"))
	}

	view, err := h.cart.UpdateItem(c.Request().Context(), getUserIDFromContext(c), productID, req.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	productID, err := paramInt64(c, "productId")
	if err != nil {
		return writeError(c, err)
	}

	view, err := h.cart.RemoveItem(c.Request().Context(), getUserIDFromContext(c), productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHandler) Clear(c echo.Context) error {
	view, err := h.cart.ClearCart(c.Request().Context(), getUserIDFromContext(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHandler) ApplyCoupon(c echo.Context) error {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.Bind(&req); err != nil {
		return writeError(c, usecase.NewHTTPError(http.StatusBadRequest, usecase.CodeValidation, "invalid request body"))
	}

	view, err := h.cart.ApplyCoupon(c.Request().Context(), getUserIDFromContext(c), req.Code)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHandler) RemoveCoupon(c echo.Context) error {
	view, err := h.cart.RemoveCoupon(c.Request().Context(), getUserIDFromContext(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}
