package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appsync "github.com/channelsync/backend/internal/application/sync"
	"github.com/channelsync/backend/internal/domain/channel"
	syncdomain "github.com/channelsync/backend/internal/domain/sync"
	"github.com/channelsync/backend/internal/infrastructure/signing"
	"github.com/channelsync/backend/internal/interfaces/http/dto"
)

// Shopify webhook headers
const (
	ShopifyHMACHeader   = "X-Shopify-Hmac-Sha256"
	ShopifyTopicHeader  = "X-Shopify-Topic"
	ShopifyDomainHeader = "X-Shopify-Shop-Domain"
)

// WebhookHandler handles inbound channel webhooks
type WebhookHandler struct {
	BaseHandler
	shopifySecret string
	connections   *appsync.ConnectionService
	jobs          *appsync.JobService
	logger        *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(
	shopifySecret string,
	connections *appsync.ConnectionService,
	jobs *appsync.JobService,
	logger *zap.Logger,
) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{
		shopifySecret: shopifySecret,
		connections:   connections,
		jobs:          jobs,
		logger:        logger,
	}
}

// Shopify handles POST /webhooks/shopify. The signature is verified over
// the raw body before anything else; an invalid or missing signature is a
// 401 with no hint which check failed. A verified order event enqueues an
// orders_sync job for the connection matching the shop domain. Unknown
// shops are acknowledged with 200 so Shopify stops redelivering.
func (h *WebhookHandler) Shopify(c *gin.Context) {
	if h.shopifySecret == "" {
		h.Error(c, http.StatusNotImplemented, dto.ErrCodeInvalidState, "Shopify webhooks are not configured")
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}

	topic := c.GetHeader(ShopifyTopicHeader)
	shopDomain := c.GetHeader(ShopifyDomainHeader)

	signature := c.GetHeader(ShopifyHMACHeader)
	if !signing.VerifyShopifyWebhook(body, signature, h.shopifySecret) {
		h.logger.Warn("rejected shopify webhook",
			zap.String("topic", topic),
			zap.String("shop_domain", shopDomain),
		)
		h.Unauthorized(c, "Webhook signature verification failed")
		return
	}

	h.logger.Info("received shopify webhook",
		zap.String("topic", topic),
		zap.String("shop_domain", shopDomain),
		zap.Int("body_bytes", len(body)),
	)

	if !strings.HasPrefix(topic, "orders/") {
		h.Success(c, gin.H{"received": true})
		return
	}

	ctx := c.Request.Context()
	conn, err := h.connections.ResolveShopifyConnection(ctx, shopDomain)
	if err != nil {
		if errors.Is(err, channel.ErrConnectionNotFound) {
			h.logger.Warn("shopify webhook for unknown shop",
				zap.String("shop_domain", shopDomain),
			)
			h.Success(c, gin.H{"received": true})
			return
		}
		h.HandleError(c, err)
		return
	}

	job, err := h.jobs.Enqueue(ctx, appsync.EnqueueJobInput{
		SellerID:     conn.SellerID,
		ConnectionID: conn.ID,
		Type:         syncdomain.JobTypeOrdersSync,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"received": true, "job_id": job.ID})
}
