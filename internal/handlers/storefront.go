package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/karinderya/go-storefront/internal/catalog"
	"github.com/karinderya/go-storefront/internal/export"
	"github.com/karinderya/go-storefront/internal/lifecycle"
	"github.com/karinderya/go-storefront/internal/orders"
	"github.com/karinderya/go-storefront/internal/queue"
	"github.com/karinderya/go-storefront/internal/status"
	"github.com/karinderya/go-storefront/internal/systemlog"
	"github.com/karinderya/go-storefront/internal/validation"
)

// HandlerConfig groups dependencies for the storefront routes.
type HandlerConfig struct {
	Manager       *lifecycle.Manager
	Drainer       *queue.Drainer
	Gate          *status.Gate
	Catalog       *catalog.Loader
	Recorder      *systemlog.Recorder
	Importer      *export.Importer
	AdminPassword string
}

// RequestID tags every request with a correlation id, honoring one supplied
// by the caller.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-Id", id)
		c.Set("request_id", id)
		c.Next()
	}
}

// RegisterStorefrontRoutes registers the public storefront surface.
func RegisterStorefrontRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()

	r.GET("/products", func(c *gin.Context) {
		menu, err := cfg.Catalog.Load(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "catalog_unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": menu, "online": cfg.Gate.Online(c.Request.Context())})
	})

	r.POST("/checkout", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.CheckoutRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		order, err := cfg.Manager.CreateOrder(ctx, req.Cart, req.CustomerEmail, orders.Fulfillment{
			DeliveryAddress: req.DeliveryAddress,
			ContactNumber:   req.ContactNumber,
			Notes:           req.Notes,
		})
		switch {
		case errors.Is(err, lifecycle.ErrEmptyCart):
			c.JSON(http.StatusBadRequest, gin.H{"error": "empty_cart"})
			return
		case errors.Is(err, lifecycle.ErrInvalidEmail):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_email"})
			return
		case errors.Is(err, lifecycle.ErrInvalidQuantity):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_quantity"})
			return
		case err != nil:
			// Generic retry message; details stay in the server log.
			logrus.WithFields(logrus.Fields{
				"request_id": c.GetString("request_id"),
				"error":      err,
			}).Error("checkout failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": "checkout_failed", "msg": "please try again"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"order_id":     order.OrderID,
			"status":       order.Status,
			"total_amount": order.TotalAmount,
			"queued_at":    order.QueuedAt,
		})
	})

	// Tracking lookup by email; no matches is an empty list, not an error.
	r.GET("/orders/track", func(c *gin.Context) {
		email := c.Query("email")
		if email == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing_email"})
			return
		}
		list, err := cfg.Manager.OrdersByEmail(c.Request.Context(), email)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "tracking_unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": list})
	})
}
