package middleware

import (
	"net/http"
	"strings"

	"app/internal/usecase"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// echoコンテキストに入れるキー
const (
	ContextUserIDKey = "user_id"
	ContextRoleKey   = "role"
)

// AuthJWT はAuthorization: Bearer <token> を検証して
// user_idとroleをコンテキストに積む。
func AuthJWT(secret string) echo.MiddlewareFunc {
	secretBytes := []byte(secret)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authz := c.Request().Header.Get(echo.HeaderAuthorization)
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"code":  usecase.CodeUnauthorized,
					"error": "missing bearer token",
				})
			}
			raw := strings.TrimPrefix(authz, "Bearer ")

			claims := &usecase.Claims{}
			token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
				//alg none攻撃対策：HMAC以外は拒否
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return secretBytes, nil
			})
			if err != nil || !token.Valid {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"code":  usecase.CodeUnauthorized,
					"error": "invalid or expired token",
				})
			}

			c.Set(ContextUserIDKey, claims.UserID)
			c.Set(ContextRoleKey, claims.Role)
			return next(c)
		}
	}
}
