package handler

import (
	"net/http"
	"strconv"

	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ProductHandler struct {
	products *usecase.ProductUsecase
}

func NewProductHandler(products *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{products: products}
}

func (h *ProductHandler) RegisterRoutes(e *echo.Echo, admin *echo.Group) {
	e.GET("/products", h.List)
	e.GET("/products/:id", h.Get)

	admin.POST("/products", h.Create)
	admin.PUT("/products/:id", h.Update)
	admin.PATCH("/products/:id/stock", h.SetStock)
	admin.DELETE("/products/:id", h.Delete)
}

func (h *ProductHandler) List(c echo.Context) error {
	q := repo.ProductListQuery{
		Page:  queryInt(c, "page", 1),
		Limit: queryInt(c, "limit", 10),
		Q:     c.QueryParam("q"),
		Sort:  c.QueryParam("sort"),
	}
	if raw := c.QueryParam("min_price"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			q.MinPrice = &v
		}
	}
	if raw := c.QueryParam("max_price"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			q.MaxPrice = &v
		}
	}

	page, err := h.products.List(c.Request().Context(), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *ProductHandler) Get(c echo.Context) error {
	id, err := paramInt64(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	p, err := h.products.GetPublic(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) Create(c echo.Context) error {
	var in usecase.ProductInput
	if err := c.Bind(&in); err != nil {
		return writeError(c, usecase.NewHTTPError(http.StatusBadRequest, usecase.CodeValidation, "invalid request body"))
	}

	p, err := h.products.Create(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *ProductHandler) Update(c echo.Context) error {
	id, err := paramInt64(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var in usecase.ProductInput
	if err := c.Bind(&in); err != nil {
		return writeError(c, usecase.NewHTTPError(http.StatusBadRequest, usecase.CodeValidation, "invalid request body"))
	}

	p, err := h.products.Update(c.Request().Context(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) SetStock(c echo.Context) error {
	id, err := paramInt64(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var req struct {
		Stock int64 `json:"stock"`
	}
	if err := c.Bind(&req); err != nil {
		return writeError(c, usecase.NewHTTPError(http.StatusBadRequest, usecase.CodeValidation, "invalid request body"))
	}

	if err := h.products.SetStock(c.Request().Context(), id, req.Stock); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := paramInt64(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	if err := h.products.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
