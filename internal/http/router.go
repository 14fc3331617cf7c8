package http

import (
	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Rajbabu19/phonepev2/internal/http/handlers"
	"github.com/Rajbabu19/phonepev2/internal/http/middleware"
	"github.com/Rajbabu19/phonepev2/internal/orders"
	"github.com/Rajbabu19/phonepev2/internal/phonepe"
	"github.com/Rajbabu19/phonepev2/internal/shared/apperr"
)

// request bodies larger than this fail mid-read
const maxBodyBytes = 10 << 20

// Deps carries everything the routes need.
type Deps struct {
	Logger          *slog.Logger
	Gateway         phonepe.Gateway
	Orders          orders.Store
	WebhookUsername string
	WebhookPassword string
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.ErrorHandler(d.Logger))
	r.Use(middleware.Recovery(d.Logger))

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	r.Use(cors.New(corsCfg))

	r.Use(middleware.BodyLimit(maxBodyBytes))

	r.NoRoute(func(c *gin.Context) {
		middleware.Fail(c, apperr.NotFoundErr("Route not found"))
	})

	r.GET("/healthz", handlers.Health)

	pay := handlers.NewPaymentHandler(d.Logger, d.Gateway)
	wh := handlers.NewWebhookHandler(d.Logger, d.Gateway, d.Orders, d.WebhookUsername, d.WebhookPassword)

	api := r.Group("/api/phonepe")
	{
		api.POST("/pay", pay.Pay)
		api.POST("/webhook", wh.Handle)
	}

	return r
}
