// Package http builds the gin router for the billing API.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumahq/luma/internal/interfaces/container"
	"github.com/lumahq/luma/internal/interfaces/http/handlers"
	"github.com/lumahq/luma/internal/interfaces/http/middleware"
)

// Router holds the configured gin engine.
type Router struct {
	engine *gin.Engine
}

// NewRouter builds the engine and registers all billing routes.
func NewRouter(c *container.Container) *Router {
	if c.Config.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger(c.Logger))

	billingHandler := handlers.NewBillingHandler(
		c.GetSubscriptionUC,
		c.RequestCancellationUC,
		c.AcceptOfferUC,
		c.FinalizeCancellationUC,
		c.ReactivateUC,
		c.SubscriptionRepo,
		c.PlanRepo,
		c.Logger,
	)
	webhookHandler := handlers.NewStripeWebhookHandler(
		&c.Config.Stripe,
		c.SubscriptionRepo,
		c.HandlePaymentFailureUC,
		c.Logger,
	)

	engine.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	engine.POST("/webhooks/stripe", webhookHandler.HandleWebhook)

	api := engine.Group("/api/v1")
	{
		subs := api.Group("/subscriptions/:sid")
		{
			subs.GET("", billingHandler.GetSubscription)
			subs.POST("/cancellation", billingHandler.RequestCancellation)
			subs.POST("/cancellation/accept-offer", billingHandler.AcceptOffer)
			subs.POST("/cancellation/finalize", billingHandler.FinalizeCancellation)
			subs.POST("/reactivate", billingHandler.Reactivate)
		}
	}

	return &Router{engine: engine}
}

// Engine exposes the underlying gin engine.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// Run starts the HTTP server on the given address.
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}
