package channels

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/channelsync/backend/internal/domain/channel"
	"github.com/channelsync/backend/internal/infrastructure/httpclient"
)

// BigCommerce configuration errors
var (
	// ErrBigCommerceConfigMissingToken indicates the access token is required
	ErrBigCommerceConfigMissingToken = errors.New("bigcommerce: access token is required")
	// ErrBigCommerceConfigMissingStoreHash indicates the store hash is required
	ErrBigCommerceConfigMissingStoreHash = errors.New("bigcommerce: store hash is required")
)

// BigCommerceAPIBaseURL is the production API host.
const BigCommerceAPIBaseURL = "https://api.bigcommerce.com"

// BigCommerceConfig configures one store connection.
type BigCommerceConfig struct {
	AccessToken string `json:"access_token"`
	StoreHash   string `json:"store_hash"`
	// APIBaseURL overrides the production host, used in tests
	APIBaseURL string `json:"api_base_url,omitempty"`
	PageSize   int    `json:"page_size,omitempty"`
}

// Validate checks required fields and fills defaults.
func (c *BigCommerceConfig) Validate() error {
	if c.AccessToken == "" {
		return ErrBigCommerceConfigMissingToken
	}
	if c.StoreHash == "" {
		return ErrBigCommerceConfigMissingStoreHash
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = BigCommerceAPIBaseURL
	}
	if c.PageSize <= 0 {
		c.PageSize = defaultPageSize
	}
	return nil
}

// bigCommerceProduct is the v3 catalog wire shape.
type bigCommerceProduct struct {
	ID             int     `json:"id"`
	Name           string  `json:"name"`
	SKU            string  `json:"sku"`
	Price          float64 `json:"price"`
	InventoryLevel int     `json:"inventory_level"`
}

// bigCommerceOrder is the v2 orders wire shape.
type bigCommerceOrder struct {
	ID           int    `json:"id"`
	Status       string `json:"status"`
	TotalIncTax  string `json:"total_inc_tax"`
	CurrencyCode string `json:"currency_code"`
	DateCreated  string `json:"date_created"`
	ItemsTotal   int    `json:"items_total"`
}

// BigCommerceAdapter syncs a BigCommerce store. Products come from the v3
// catalog API (data envelope), orders from the v2 API (bare array); both
// paginate with page/limit and stop on a short page.
type BigCommerceAdapter struct {
	config *BigCommerceConfig
	client *httpclient.Client
}

var _ channel.Adapter = (*BigCommerceAdapter)(nil)

// NewBigCommerceAdapter creates an adapter for one store.
func NewBigCommerceAdapter(config *BigCommerceConfig, client *httpclient.Client) (*BigCommerceAdapter, error) {
	if config == nil {
		return nil, ErrBigCommerceConfigMissingToken
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &BigCommerceAdapter{config: config, client: client}, nil
}

// ChannelType returns the channel this adapter serves
func (a *BigCommerceAdapter) ChannelType() channel.Type {
	return channel.TypeBigCommerce
}

// FetchProducts pages through the v3 catalog until a short page.
func (a *BigCommerceAdapter) FetchProducts(ctx context.Context) ([]channel.Product, error) {
	var products []channel.Product
	for page := 1; ; page++ {
		var envelope struct {
			Data []bigCommerceProduct `json:"data"`
		}
		path := fmt.Sprintf("/stores/%s/v3/catalog/products?limit=%d&page=%d",
			a.config.StoreHash, a.config.PageSize, page)
		if err := a.get(ctx, path, &envelope); err != nil {
			return nil, opError(channel.TypeBigCommerce, "fetch products", err)
		}
		for _, p := range envelope.Data {
			products = append(products, a.convertProduct(p))
		}
		if len(envelope.Data) < a.config.PageSize {
			return products, nil
		}
	}
}

// FetchOrders pages through the v2 orders API until a short page.
func (a *BigCommerceAdapter) FetchOrders(ctx context.Context) ([]channel.Order, error) {
	var orders []channel.Order
	for page := 1; ; page++ {
		var pageOrders []bigCommerceOrder
		path := fmt.Sprintf("/stores/%s/v2/orders?limit=%d&page=%d",
			a.config.StoreHash, a.config.PageSize, page)
		if err := a.get(ctx, path, &pageOrders); err != nil {
			return nil, opError(channel.TypeBigCommerce, "fetch orders", err)
		}
		for _, o := range pageOrders {
			order, err := a.convertOrder(o)
			if err != nil {
				return nil, opError(channel.TypeBigCommerce, "fetch orders", err)
			}
			orders = append(orders, order)
		}
		if len(pageOrders) < a.config.PageSize {
			return orders, nil
		}
	}
}

func (a *BigCommerceAdapter) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.config.APIBaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", channel.ErrChannelUnavailable, err)
	}
	req.Header.Set("X-Auth-Token", a.config.AccessToken)
	req.Header.Set("Accept", "application/json")
	return fetchJSON(ctx, a.client, req, out)
}

func (a *BigCommerceAdapter) convertProduct(p bigCommerceProduct) channel.Product {
	sku := p.SKU
	if sku == "" {
		sku = strconv.Itoa(p.ID)
	}
	return channel.Product{
		SKU:   sku,
		Title: p.Name,
		Price: decimalFromFloat(p.Price),
		Stock: p.InventoryLevel,
		Raw:   rawMessage(p),
	}
}

func (a *BigCommerceAdapter) convertOrder(o bigCommerceOrder) (channel.Order, error) {
	total, err := parseDecimalString(o.TotalIncTax)
	if err != nil {
		return channel.Order{}, fmt.Errorf("parsing order %d total: %v", o.ID, err)
	}
	return channel.Order{
		OrderID:  strconv.Itoa(o.ID),
		Total:    total,
		Currency: o.CurrencyCode,
		Status:   mapBigCommerceOrderStatus(o.Status),
		Items:    nil,
		Raw:      rawMessage(o),
	}, nil
}

func mapBigCommerceOrderStatus(status string) channel.OrderStatus {
	switch status {
	case "Pending", "Awaiting Payment":
		return channel.OrderStatusPending
	case "Awaiting Fulfillment", "Awaiting Shipment":
		return channel.OrderStatusPaid
	case "Shipped", "Partially Shipped":
		return channel.OrderStatusShipped
	case "Completed":
		return channel.OrderStatusCompleted
	case "Cancelled", "Declined":
		return channel.OrderStatusCancelled
	case "Refunded", "Partially Refunded":
		return channel.OrderStatusRefunded
	default:
		return channel.OrderStatusUnknown
	}
}
