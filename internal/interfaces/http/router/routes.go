package router

import (
	"github.com/gin-gonic/gin"

	"github.com/channelsync/backend/internal/interfaces/http/handler"
)

// Handlers bundles the HTTP handlers the route table needs.
type Handlers struct {
	Connection *handler.ConnectionHandler
	Sync       *handler.SyncHandler
	Webhook    *handler.WebhookHandler
	System     *handler.SystemHandler
}

// SchedulerMiddleware guards the worker trigger route.
type SchedulerMiddleware = gin.HandlerFunc

// BuildRoutes assembles the API route table. Seller-facing routes expect
// the JWT middleware to run on the engine; the worker trigger carries its
// own scheduler auth and webhooks verify their own signatures.
func BuildRoutes(h Handlers, schedulerAuth SchedulerMiddleware) []RouteRegistrar {
	channels := NewDomainGroup("channels", "/channels")
	channels.POST("/connections", h.Connection.Connect)
	channels.GET("/connections", h.Connection.List)
	channels.GET("/connections/:id", h.Connection.Get)
	channels.DELETE("/connections/:id", h.Connection.Disconnect)

	sync := NewDomainGroup("sync", "/sync")
	sync.POST("/jobs", h.Sync.EnqueueJob)
	sync.GET("/jobs", h.Sync.ListJobs)
	sync.GET("/jobs/:id", h.Sync.GetJob)
	sync.GET("/runs", h.Sync.ListRuns)
	sync.GET("/orders", h.Sync.ListOrders)
	sync.GET("/products", h.Sync.ListProducts)
	if schedulerAuth != nil {
		sync.POST("/worker/run", schedulerAuth, h.Sync.RunWorker)
	} else {
		sync.POST("/worker/run", h.Sync.RunWorker)
	}

	webhooks := NewDomainGroup("webhooks", "/webhooks")
	webhooks.POST("/shopify", h.Webhook.Shopify)

	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.System.GetSystemInfo)

	return []RouteRegistrar{channels, sync, webhooks, system}
}
