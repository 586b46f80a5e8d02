package middleware

import (
	"net/http"

	"app/internal/domain/model"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// AdminOnly はADMINロール以外を弾く。AuthJWTの後ろに置くこと。
func AdminOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextRoleKey).(string)
			if role != string(model.RoleAdmin) {
				return c.JSON(http.StatusForbidden, map[string]string{
					"code":  usecase.CodeForbidden,
					"error": "admin access required",
				})
			}
			return next(c)
		}
	}
}
