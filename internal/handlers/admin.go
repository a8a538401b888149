package handlers

import (
	"bytes"
	"crypto/subtle"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/karinderya/go-storefront/internal/export"
	"github.com/karinderya/go-storefront/internal/orders"
	"github.com/karinderya/go-storefront/internal/validation"
)

// adminAuth gates the /admin surface behind the shared password header.
func adminAuth(password string) gin.HandlerFunc {
	return func(c *gin.Context) {
		supplied := c.GetHeader("X-Admin-Password")
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(password)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// RegisterAdminRoutes registers the admin surface: availability toggle, queue
// drain, order dashboard, export/import and the system log.
func RegisterAdminRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()
	admin := r.Group("/admin", adminAuth(cfg.AdminPassword))

	admin.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, cfg.Gate.Current(c.Request.Context()))
	})

	admin.PUT("/status", func(c *gin.Context) {
		var req validation.SetStatusRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		if err := cfg.Gate.Set(c.Request.Context(), req.Online, req.Actor); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "status_write_failed", "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"online": req.Online})
	})

	admin.POST("/drain", func(c *gin.Context) {
		res, err := cfg.Drainer.Drain(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "drain_failed", "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, res)
	})

	admin.GET("/orders", func(c *gin.Context) {
		list, err := cfg.Manager.OperationalOrders(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "orders_unavailable"})
			return
		}
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].QueuedAt.After(list[j].QueuedAt)
		})
		c.JSON(http.StatusOK, gin.H{"orders": list})
	})

	admin.PUT("/orders/:id/status", func(c *gin.Context) {
		var req validation.UpdateOrderRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		next := orders.Status(req.Status)
		if !next.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_status"})
			return
		}
		ok := cfg.Manager.UpdateOrderStatus(c.Request.Context(), c.Param("id"), next, req.Actor)
		if !ok {
			c.JSON(http.StatusBadGateway, gin.H{"error": "status_update_failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"order_id": c.Param("id"), "status": next})
	})

	admin.GET("/orders/export", func(c *gin.Context) {
		list, err := cfg.Manager.OperationalOrders(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "orders_unavailable"})
			return
		}
		var buf bytes.Buffer
		if err := export.Write(&buf, list); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export_failed"})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="orders.tsv"`)
		c.Data(http.StatusOK, "text/tab-separated-values", buf.Bytes())
	})

	admin.POST("/orders/import", func(c *gin.Context) {
		added, err := cfg.Importer.Import(c.Request.Context(), c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "import_failed", "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"imported": added})
	})

	admin.POST("/tracking/repair", func(c *gin.Context) {
		added, err := cfg.Manager.RepairTracking(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "repair_failed", "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"repaired": added})
	})

	admin.GET("/log", func(c *gin.Context) {
		entries, err := cfg.Recorder.Entries(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "log_unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"entries": entries})
	})
}
