package channels

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/channelsync/backend/internal/domain/channel"
	"github.com/channelsync/backend/internal/infrastructure/httpclient"
)

// eBay configuration errors
var (
	// ErrEbayConfigMissingToken indicates the access token is required
	ErrEbayConfigMissingToken = errors.New("ebay: access token is required")
	// ErrEbayConfigMissingMarketplace indicates the marketplace id is required
	ErrEbayConfigMissingMarketplace = errors.New("ebay: marketplace id is required")
)

// EbayAPIBaseURL is the production API host.
const EbayAPIBaseURL = "https://api.ebay.com"

// EbayConfig configures one seller connection.
type EbayConfig struct {
	AccessToken   string `json:"access_token"`
	MarketplaceID string `json:"marketplace_id"`
	// APIBaseURL overrides the production host, used in tests
	APIBaseURL string `json:"api_base_url,omitempty"`
	PageSize   int    `json:"page_size,omitempty"`
}

// Validate checks required fields and fills defaults.
func (c *EbayConfig) Validate() error {
	if c.AccessToken == "" {
		return ErrEbayConfigMissingToken
	}
	if c.MarketplaceID == "" {
		return ErrEbayConfigMissingMarketplace
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = EbayAPIBaseURL
	}
	if c.PageSize <= 0 {
		c.PageSize = defaultPageSize
	}
	return nil
}

// ebayInventoryItem is the sell/inventory wire shape.
type ebayInventoryItem struct {
	SKU     string `json:"sku"`
	Product struct {
		Title string `json:"title"`
	} `json:"product"`
	Availability struct {
		ShipToLocationAvailability struct {
			Quantity int `json:"quantity"`
		} `json:"shipToLocationAvailability"`
	} `json:"availability"`
	// Offers are not part of the inventory item response; price comes from
	// the first offer summary when eBay includes one
	Price struct {
		Value    string `json:"value"`
		Currency string `json:"currency"`
	} `json:"price"`
}

// ebayOrder is the sell/fulfillment wire shape.
type ebayOrder struct {
	OrderID            string `json:"orderId"`
	OrderFulfillStatus string `json:"orderFulfillmentStatus"`
	OrderPaymentStatus string `json:"orderPaymentStatus"`
	CreationDate       string `json:"creationDate"`
	PricingSummary     struct {
		Total struct {
			Value    string `json:"value"`
			Currency string `json:"currency"`
		} `json:"total"`
	} `json:"pricingSummary"`
	LineItems []struct {
		SKU      string `json:"sku"`
		Title    string `json:"title"`
		Quantity int    `json:"quantity"`
		LineItemCost struct {
			Value string `json:"value"`
		} `json:"lineItemCost"`
	} `json:"lineItems"`
}

// EbayAdapter syncs an eBay seller account. Both APIs paginate with
// limit/offset and wrap results in inventoryItems / orders envelope keys;
// a short page ends the loop.
type EbayAdapter struct {
	config *EbayConfig
	client *httpclient.Client
}

var _ channel.Adapter = (*EbayAdapter)(nil)

// NewEbayAdapter creates an adapter for one seller.
func NewEbayAdapter(config *EbayConfig, client *httpclient.Client) (*EbayAdapter, error) {
	if config == nil {
		return nil, ErrEbayConfigMissingToken
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &EbayAdapter{config: config, client: client}, nil
}

// ChannelType returns the channel this adapter serves
func (a *EbayAdapter) ChannelType() channel.Type {
	return channel.TypeEbay
}

// FetchProducts pages through sell/inventory until a short page,
// unwrapping the inventoryItems envelope.
func (a *EbayAdapter) FetchProducts(ctx context.Context) ([]channel.Product, error) {
	var products []channel.Product
	for offset := 0; ; offset += a.config.PageSize {
		var envelope struct {
			InventoryItems []ebayInventoryItem `json:"inventoryItems"`
		}
		path := fmt.Sprintf("/sell/inventory/v1/inventory_item?limit=%d&offset=%d",
			a.config.PageSize, offset)
		if err := a.get(ctx, path, &envelope); err != nil {
			return nil, opError(channel.TypeEbay, "fetch products", err)
		}
		for _, item := range envelope.InventoryItems {
			product, err := a.convertProduct(item)
			if err != nil {
				return nil, opError(channel.TypeEbay, "fetch products", err)
			}
			products = append(products, product)
		}
		if len(envelope.InventoryItems) < a.config.PageSize {
			return products, nil
		}
	}
}

// FetchOrders pages through sell/fulfillment until a short page,
// unwrapping the orders envelope.
func (a *EbayAdapter) FetchOrders(ctx context.Context) ([]channel.Order, error) {
	var orders []channel.Order
	for offset := 0; ; offset += a.config.PageSize {
		var envelope struct {
			Orders []ebayOrder `json:"orders"`
		}
		path := fmt.Sprintf("/sell/fulfillment/v1/order?limit=%d&offset=%d",
			a.config.PageSize, offset)
		if err := a.get(ctx, path, &envelope); err != nil {
			return nil, opError(channel.TypeEbay, "fetch orders", err)
		}
		for _, o := range envelope.Orders {
			order, err := a.convertOrder(o)
			if err != nil {
				return nil, opError(channel.TypeEbay, "fetch orders", err)
			}
			orders = append(orders, order)
		}
		if len(envelope.Orders) < a.config.PageSize {
			return orders, nil
		}
	}
}

func (a *EbayAdapter) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.config.APIBaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", channel.ErrChannelUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+a.config.AccessToken)
	req.Header.Set("X-EBAY-C-MARKETPLACE-ID", a.config.MarketplaceID)
	req.Header.Set("Accept", "application/json")
	return fetchJSON(ctx, a.client, req, out)
}

func (a *EbayAdapter) convertProduct(item ebayInventoryItem) (channel.Product, error) {
	price, err := parseDecimalString(item.Price.Value)
	if err != nil {
		return channel.Product{}, fmt.Errorf("parsing item %s price: %v", item.SKU, err)
	}
	return channel.Product{
		SKU:   item.SKU,
		Title: item.Product.Title,
		Price: price,
		Stock: item.Availability.ShipToLocationAvailability.Quantity,
		Raw:   rawMessage(item),
	}, nil
}

func (a *EbayAdapter) convertOrder(o ebayOrder) (channel.Order, error) {
	total, err := parseDecimalString(o.PricingSummary.Total.Value)
	if err != nil {
		return channel.Order{}, fmt.Errorf("parsing order %s total: %v", o.OrderID, err)
	}
	order := channel.Order{
		OrderID:  o.OrderID,
		Total:    total,
		Currency: o.PricingSummary.Total.Currency,
		Status:   mapEbayOrderStatus(o.OrderFulfillStatus, o.OrderPaymentStatus),
		Raw:      rawMessage(o),
	}
	if o.CreationDate != "" {
		if placedAt, parseErr := time.Parse(time.RFC3339, o.CreationDate); parseErr == nil {
			order.PlacedAt = placedAt.UTC()
		}
	}
	for _, item := range o.LineItems {
		unitPrice, priceErr := parseDecimalString(item.LineItemCost.Value)
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

func mapEbayOrderStatus(fulfillment, payment string) channel.OrderStatus {
	switch fulfillment {
	case "FULFILLED":
		return channel.OrderStatusCompleted
	case "IN_PROGRESS":
		return channel.OrderStatusShipped
	}
	switch payment {
	case "PAID":
		return channel.OrderStatusPaid
	case "PENDING":
		return channel.OrderStatusPending
	case "REFUNDED", "PARTIALLY_REFUNDED":
		return channel.OrderStatusRefunded
	}
	return channel.OrderStatusUnknown
}
