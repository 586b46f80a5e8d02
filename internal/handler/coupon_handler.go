package handler

import (
	"net/http"

	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CouponHandler struct {
	coupons *usecase.CouponUsecase
}

func NewCouponHandler(coupons *usecase.CouponUsecase) *CouponHandler {
	return &CouponHandler{coupons: coupons}
}

func (h *CouponHandler) RegisterRoutes(authed *echo.Group, admin *echo.Group) {
	authed.POST("/coupons/validate", h.Validate)

	admin.POST("/coupons", h.Create)
	admin.GET("/coupons", h.List)
	admin.GET("/coupons/:id", h.Get)
	admin.PUT("/coupons/:id", h.Update)
	admin.DELETE("/coupons/:id", h.Deactivate)
	admin.POST("/coupons/generate", h.GenerateRandom)
}

// 購入前の適用可否チェック（状態は変えない）
func (h *CouponHandler) Validate(c echo.Context) error {
	var req struct {
		Code        string  `json:"code"`
		OrderAmount float64 `json:"order_amount"`
	}
	if err := c.Bind(&req); err != nil {
		return writeError(c, usecase.NewHTTPError(http.StatusBadRequest, usecase.CodeValidation, "invalid request body"))
	}

	result, err := h.coupons.Validate(c.Request().Context(), getUserIDFromContext(c), req.Code, req.OrderAmount)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *CouponHandler) Create(c echo.Context) error {
	var in usecase.CouponInput
	if err := c.Bind(&in); err != nil {
		return writeError(c, usecase.NewHTTPError(http.StatusBadRequest, usecase.CodeValidation, "invalid request body"))
	}

	coupon, err := h.coupons.Create(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, coupon)
}

func (h *CouponHandler) List(c echo.Context) error {
	activeOnly := c.QueryParam("active") == "true"

	coupons, err := h.coupons.List(c.Request().Context(), activeOnly)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"coupons": coupons})
}

func (h *CouponHandler) Get(c echo.Context) error {
	id, err := paramInt64(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	coupon, err := h.coupons.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, coupon)
}

func (h *CouponHandler) Update(c echo.Context) error {
	id, err := paramInt64(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var in usecase.CouponInput
	if err := c.Bind(&in); err != nil {
		return writeError(c, usecase.NewHTTPError(http.StatusBadRequest, usecase.CodeValidation, "invalid request body"))
	}

	coupon, err := h.coupons.Update(c.Request().Context(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, coupon)
}

// DELETEは無効化。レコードは残る
func (h *CouponHandler) Deactivate(c echo.Context) error {
	id, err := paramInt64(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	if err := h.coupons.Deactivate(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CouponHandler) GenerateRandom(c echo.Context) error {
	var in usecase.GenerateCouponInput
	if err := c.Bind(&in); err != nil {
		return writeError(c, usecase.NewHTTPError(http.StatusBadRequest, usecase.CodeValidation, "invalid request body"))
	}

	coupon, err := h.coupons.GenerateRandom(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, coupon)
}
