package server

import (
	"context"

	"app/internal/config"
	"app/internal/handler"
	"app/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	Product *handler.ProductHandler
	Cart    *handler.CartHandler
	Coupon  *handler.CouponHandler
	Order   *handler.OrderHandler
}

type Server struct {
	echo *echo.Echo
	cfg  config.Config
	log  *zap.Logger
}

func New(cfg config.Config, h Handlers, log *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(requestLogger(log))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	authed := e.Group("", middleware.AuthJWT(cfg.JWTSecret))
	admin := e.Group("/admin", middleware.AuthJWT(cfg.JWTSecret), middleware.AdminOnly())

	h.Auth.RegisterRoutes(e, authed)
	h.Product.RegisterRoutes(e, admin)
	h.Cart.RegisterRoutes(authed)
	h.Coupon.RegisterRoutes(authed, admin)
	h.Order.RegisterRoutes(authed, admin)

	return &Server{echo: e, cfg: cfg, log: log}
}

func (s *Server) Start() error {
	s.log.Info("server starting", zap.String("port", s.cfg.Port))
	return s.echo.Start(":" + s.cfg.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// 1リクエスト1行のアクセスログ
func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	})
}
