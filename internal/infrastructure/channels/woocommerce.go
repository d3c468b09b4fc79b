package channels

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/channelsync/backend/internal/domain/channel"
	"github.com/channelsync/backend/internal/infrastructure/httpclient"
)

// WooCommerce configuration errors
var (
	// ErrWooConfigMissingStoreURL indicates the store URL is required
	ErrWooConfigMissingStoreURL = errors.New("woocommerce: store url is required")
	// ErrWooConfigMissingConsumerKey indicates the consumer key is required
	ErrWooConfigMissingConsumerKey = errors.New("woocommerce: consumer key is required")
	// ErrWooConfigMissingConsumerSecret indicates the consumer secret is required
	ErrWooConfigMissingConsumerSecret = errors.New("woocommerce: consumer secret is required")
)

// WooCommerceConfig configures one store connection. The REST API lives
// under {store_url}/wp-json/wc/v3 with consumer key/secret query auth.
type WooCommerceConfig struct {
	StoreURL       string `json:"store_url"`
	ConsumerKey    string `json:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret"`
	PageSize       int    `json:"page_size,omitempty"`
}

// Validate checks required fields and fills defaults.
func (c *WooCommerceConfig) Validate() error {
	if c.StoreURL == "" {
		return ErrWooConfigMissingStoreURL
	}
	if c.ConsumerKey == "" {
		return ErrWooConfigMissingConsumerKey
	}
	if c.ConsumerSecret == "" {
		return ErrWooConfigMissingConsumerSecret
	}
	c.StoreURL = strings.TrimSuffix(c.StoreURL, "/")
	if c.PageSize <= 0 {
		c.PageSize = defaultPageSize
	}
	return nil
}

// wooProduct is the wc/v3 product wire shape.
type wooProduct struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	SKU           string `json:"sku"`
	Price         string `json:"price"`
	StockQuantity *int   `json:"stock_quantity"`
}

// wooOrder is the wc/v3 order wire shape.
type wooOrder struct {
	ID          int    `json:"id"`
	Number      string `json:"number"`
	Status      string `json:"status"`
	Total       string `json:"total"`
	Currency    string `json:"currency"`
	DateCreated string `json:"date_created_gmt"`
	LineItems   []struct {
		Name     string `json:"name"`
		SKU      string `json:"sku"`
		Quantity int    `json:"quantity"`
		Price    string `json:"price"`
	} `json:"line_items"`
}

// WooCommerceAdapter syncs a WooCommerce store. Both endpoints return bare
// arrays paginated with page/per_page; a short page ends the loop.
type WooCommerceAdapter struct {
	config *WooCommerceConfig
	client *httpclient.Client
}

var _ channel.Adapter = (*WooCommerceAdapter)(nil)

// NewWooCommerceAdapter creates an adapter for one store.
func NewWooCommerceAdapter(config *WooCommerceConfig, client *httpclient.Client) (*WooCommerceAdapter, error) {
	if config == nil {
		return nil, ErrWooConfigMissingStoreURL
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &WooCommerceAdapter{config: config, client: client}, nil
}

// ChannelType returns the channel this adapter serves
func (a *WooCommerceAdapter) ChannelType() channel.Type {
	return channel.TypeWooCommerce
}

// FetchProducts pages through /products until a short page.
func (a *WooCommerceAdapter) FetchProducts(ctx context.Context) ([]channel.Product, error) {
	var products []channel.Product
	for page := 1; ; page++ {
		var pageProducts []wooProduct
		if err := a.get(ctx, "/products", page, &pageProducts); err != nil {
			return nil, opError(channel.TypeWooCommerce, "fetch products", err)
		}
		for _, p := range pageProducts {
			product, err := a.convertProduct(p)
			if err != nil {
				return nil, opError(channel.TypeWooCommerce, "fetch products", err)
			}
			products = append(products, product)
		}
		if len(pageProducts) < a.config.PageSize {
			return products, nil
		}
	}
}

// FetchOrders pages through /orders until a short page.
func (a *WooCommerceAdapter) FetchOrders(ctx context.Context) ([]channel.Order, error) {
	var orders []channel.Order
	for page := 1; ; page++ {
		var pageOrders []wooOrder
		if err := a.get(ctx, "/orders", page, &pageOrders); err != nil {
			return nil, opError(channel.TypeWooCommerce, "fetch orders", err)
		}
		for _, o := range pageOrders {
			order, err := a.convertOrder(o)
			if err != nil {
				return nil, opError(channel.TypeWooCommerce, "fetch orders", err)
			}
			orders = append(orders, order)
		}
		if len(pageOrders) < a.config.PageSize {
			return orders, nil
		}
	}
}

func (a *WooCommerceAdapter) get(ctx context.Context, path string, page int, out any) error {
	query := url.Values{}
	query.Set("consumer_key", a.config.ConsumerKey)
	query.Set("consumer_secret", a.config.ConsumerSecret)
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(a.config.PageSize))

	endpoint := a.config.StoreURL + "/wp-json/wc/v3" + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", channel.ErrChannelUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	return fetchJSON(ctx, a.client, req, out)
}

func (a *WooCommerceAdapter) convertProduct(p wooProduct) (channel.Product, error) {
	price, err := parseDecimalString(p.Price)
	if err != nil {
		return channel.Product{}, fmt.Errorf("parsing product %d price: %v", p.ID, err)
	}
	stock := 0
	if p.StockQuantity != nil {
		stock = *p.StockQuantity
	}
	sku := p.SKU
	if sku == "" {
		sku = strconv.Itoa(p.ID)
	}
	return channel.Product{
		SKU:   sku,
		Title: p.Name,
		Price: price,
		Stock: stock,
		Raw:   rawMessage(p),
	}, nil
}

func (a *WooCommerceAdapter) convertOrder(o wooOrder) (channel.Order, error) {
	total, err := parseDecimalString(o.Total)
	if err != nil {
		return channel.Order{}, fmt.Errorf("parsing order %d total: %v", o.ID, err)
	}

	orderID := o.Number
	if orderID == "" {
		orderID = strconv.Itoa(o.ID)
	}

	order := channel.Order{
		OrderID:  orderID,
		Total:    total,
		Currency: o.Currency,
		Status:   mapWooOrderStatus(o.Status),
		Raw:      rawMessage(o),
	}
	if o.DateCreated != "" {
		if placedAt, parseErr := time.Parse("2006-01-02T15:04:05", o.DateCreated); parseErr == nil {
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
			Title:     item.Name,
			Quantity:  item.Quantity,
			UnitPrice: unitPrice,
		})
	}
	return order, nil
}

func mapWooOrderStatus(status string) channel.OrderStatus {
	switch status {
	case "pending", "on-hold":
		return channel.OrderStatusPending
	case "processing":
		return channel.OrderStatusPaid
	case "completed":
		return channel.OrderStatusCompleted
	case "cancelled", "failed":
		return channel.OrderStatusCancelled
	case "refunded":
		return channel.OrderStatusRefunded
	default:
		return channel.OrderStatusUnknown
	}
}
