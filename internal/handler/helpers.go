package handler

import (
	"net/http"
	"strconv"

	"app/internal/domain/model"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// usecaseのHTTPErrorはそのまま、その他は500に丸めて返す。
// 500の原因はログにだけ出す（レスポンスには載せない）。
func writeError(c echo.Context, err error) error {
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, map[string]string{
			"error": he.Message,
			"code":  he.Code,
		})
	}

	zap.L().Error("unhandled error",
		zap.String("method", c.Request().Method),
		zap.String("path", c.Path()),
		zap.Error(err))

	return c.JSON(http.StatusInternalServerError, map[string]string{
		"error": "internal error",
		"code":  usecase.CodeInternal,
	})
}

// AuthJWTが積んだuser_idを取り出す
func getUserIDFromContext(c echo.Context) int64 {
	id, _ := c.Get(middleware.ContextUserIDKey).(int64)
	return id
}

func isAdmin(c echo.Context) bool {
	role, _ := c.Get(middleware.ContextRoleKey).(string)
	return role == string(model.RoleAdmin)
}

func paramInt64(c echo.Context, name string) (int64, error) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || v < 1 {
		return 0, usecase.NewHTTPError(http.StatusBadRequest, usecase.CodeValidation, "invalid "+name)
	}
	return v, nil
}

func queryInt(c echo.Context, name string, def int) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return def
	}
	return v
}
