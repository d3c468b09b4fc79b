package channels

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/channelsync/backend/internal/domain/channel"
	"github.com/channelsync/backend/internal/infrastructure/httpclient"
)

// Shopify configuration errors
var (
	// ErrShopifyConfigMissingToken indicates the access token is required
	ErrShopifyConfigMissingToken = errors.New("shopify: access token is required")
	// ErrShopifyConfigMissingShop indicates the shop domain is required
	ErrShopifyConfigMissingShop = errors.New("shopify: shop domain is required")
)

// ShopifyAPIVersion is the pinned Admin API version.
const ShopifyAPIVersion = "2024-01"

// ShopifyConfig configures one shop connection.
type ShopifyConfig struct {
	AccessToken string `json:"access_token"`
	// ShopDomain is the myshopify domain, e.g. "acme.myshopify.com"
	ShopDomain string `json:"shop_domain"`
	// WebhookSecret verifies inbound webhook signatures when set
	WebhookSecret string `json:"webhook_secret,omitempty"`
	// APIBaseURL overrides https://{shop_domain}, used in tests
	APIBaseURL string `json:"api_base_url,omitempty"`
	PageSize   int    `json:"page_size,omitempty"`
}

// Validate checks required fields and fills defaults.
func (c *ShopifyConfig) Validate() error {
	if c.AccessToken == "" {
		return ErrShopifyConfigMissingToken
	}
	if c.ShopDomain == "" {
		return ErrShopifyConfigMissingShop
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = "https://" + c.ShopDomain
	}
	c.APIBaseURL = strings.TrimSuffix(c.APIBaseURL, "/")
	if c.PageSize <= 0 {
		c.PageSize = defaultPageSize
	}
	return nil
}

// shopifyProduct is the Admin REST product wire shape.
type shopifyProduct struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Variants []struct {
		ID                int64  `json:"id"`
		SKU               string `json:"sku"`
		Price             string `json:"price"`
		InventoryQuantity int    `json:"inventory_quantity"`
	} `json:"variants"`
}

// shopifyOrder is the Admin REST order wire shape.
type shopifyOrder struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	TotalPrice        string `json:"total_price"`
	Currency          string `json:"currency"`
	FinancialStatus   string `json:"financial_status"`
	FulfillmentStatus string `json:"fulfillment_status"`
	CancelledAt       string `json:"cancelled_at"`
	CreatedAt         string `json:"created_at"`
	LineItems         []struct {
		SKU      string `json:"sku"`
		Title    string `json:"title"`
		Quantity int    `json:"quantity"`
		Price    string `json:"price"`
	} `json:"line_items"`
}

// ShopifyAdapter syncs a Shopify shop through the Admin REST API using a
// limit/since_id loop; a short page ends the loop.
type ShopifyAdapter struct {
	config *ShopifyConfig
	client *httpclient.Client
}

var _ channel.Adapter = (*ShopifyAdapter)(nil)

// NewShopifyAdapter creates an adapter for one shop.
func NewShopifyAdapter(config *ShopifyConfig, client *httpclient.Client) (*ShopifyAdapter, error) {
	if config == nil {
		return nil, ErrShopifyConfigMissingToken
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &ShopifyAdapter{config: config, client: client}, nil
}

// ChannelType returns the channel this adapter serves
func (a *ShopifyAdapter) ChannelType() channel.Type {
	return channel.TypeShopify
}

// FetchProducts pages with since_id until a short page, flattening one
// normalized record per variant.
func (a *ShopifyAdapter) FetchProducts(ctx context.Context) ([]channel.Product, error) {
	var products []channel.Product
	sinceID := int64(0)
	for {
		var envelope struct {
			Products []shopifyProduct `json:"products"`
		}
		path := fmt.Sprintf("/admin/api/%s/products.json?limit=%d&since_id=%d",
			ShopifyAPIVersion, a.config.PageSize, sinceID)
		if err := a.get(ctx, path, &envelope); err != nil {
			return nil, opError(channel.TypeShopify, "fetch products", err)
		}
		for _, p := range envelope.Products {
			converted, err := a.convertProduct(p)
			if err != nil {
				return nil, opError(channel.TypeShopify, "fetch products", err)
			}
			products = append(products, converted...)
			sinceID = p.ID
		}
		if len(envelope.Products) < a.config.PageSize {
			return products, nil
		}
	}
}

// FetchOrders pages with since_id until a short page.
func (a *ShopifyAdapter) FetchOrders(ctx context.Context) ([]channel.Order, error) {
	var orders []channel.Order
	sinceID := int64(0)
	for {
		var envelope struct {
			Orders []shopifyOrder `json:"orders"`
		}
		path := fmt.Sprintf("/admin/api/%s/orders.json?status=any&limit=%d&since_id=%d",
			ShopifyAPIVersion, a.config.PageSize, sinceID)
		if err := a.get(ctx, path, &envelope); err != nil {
			return nil, opError(channel.TypeShopify, "fetch orders", err)
		}
		for _, o := range envelope.Orders {
			order, err := a.convertOrder(o)
			if err != nil {
				return nil, opError(channel.TypeShopify, "fetch orders", err)
			}
			orders = append(orders, order)
			sinceID = o.ID
		}
		if len(envelope.Orders) < a.config.PageSize {
			return orders, nil
		}
	}
}

func (a *ShopifyAdapter) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.config.APIBaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", channel.ErrChannelUnavailable, err)
	}
	req.Header.Set("X-Shopify-Access-Token", a.config.AccessToken)
	req.Header.Set("Accept", "application/json")
	return fetchJSON(ctx, a.client, req, out)
}

// convertProduct flattens variants into one normalized record each.
func (a *ShopifyAdapter) convertProduct(p shopifyProduct) ([]channel.Product, error) {
	if len(p.Variants) == 0 {
		return []channel.Product{{
			SKU:   fmt.Sprintf("%d", p.ID),
			Title: p.Title,
			Raw:   rawMessage(p),
		}}, nil
	}
	products := make([]channel.Product, 0, len(p.Variants))
	for _, variant := range p.Variants {
		price, err := parseDecimalString(variant.Price)
		if err != nil {
			return nil, fmt.Errorf("parsing product %d price: %v", p.ID, err)
		}
		sku := variant.SKU
		if sku == "" {
			sku = fmt.Sprintf("%d", variant.ID)
		}
		products = append(products, channel.Product{
			SKU:   sku,
			Title: p.Title,
			Price: price,
			Stock: variant.InventoryQuantity,
			Raw:   rawMessage(p),
		})
	}
	return products, nil
}

func (a *ShopifyAdapter) convertOrder(o shopifyOrder) (channel.Order, error) {
	total, err := parseDecimalString(o.TotalPrice)
	if err != nil {
		return channel.Order{}, fmt.Errorf("parsing order %d total: %v", o.ID, err)
	}

	orderID := o.Name
	if orderID == "" {
		orderID = fmt.Sprintf("%d", o.ID)
	}

	order := channel.Order{
		OrderID:  orderID,
		Total:    total,
		Currency: o.Currency,
		Status:   mapShopifyOrderStatus(o),
		Raw:      rawMessage(o),
	}
	if o.CreatedAt != "" {
		if placedAt, parseErr := time.Parse(time.RFC3339, o.CreatedAt); parseErr == nil {
			order.PlacedAt = placedAt.UTC()
		}
	}
	for _, item := range o.LineItems {
		unitPrice, priceErr := parseDecimalString(item.Price)
		if priceErr != nil {
			unitPrice = decimalFromFloat(0)
		}
		order.Items = append(order.Items, channel.OrderItem{
			SKU:       item.SKU,
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: unitPrice,
		})
	}
	return order, nil
}

func mapShopifyOrderStatus(o shopifyOrder) channel.OrderStatus {
	if o.CancelledAt != "" {
		return channel.OrderStatusCancelled
	}
	switch o.FulfillmentStatus {
	case "fulfilled":
		return channel.OrderStatusCompleted
	case "partial":
		return channel.OrderStatusShipped
	}
	switch o.FinancialStatus {
	case "pending":
		return channel.OrderStatusPending
	case "paid", "partially_paid", "authorized":
		return channel.OrderStatusPaid
	case "refunded", "partially_refunded":
		return channel.OrderStatusRefunded
	default:
		return channel.OrderStatusUnknown
	}
}
