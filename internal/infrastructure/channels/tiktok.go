package channels

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/channelsync/backend/internal/domain/channel"
	"github.com/channelsync/backend/internal/infrastructure/httpclient"
)

// TikTok Shop configuration errors
var (
	// ErrTikTokConfigMissingToken indicates the access token is required
	ErrTikTokConfigMissingToken = errors.New("tiktok: access token is required")
	// ErrTikTokConfigMissingShopID indicates the shop id is required
	ErrTikTokConfigMissingShopID = errors.New("tiktok: shop id is required")
)

// TikTokAPIBaseURL is the production open-platform host.
const TikTokAPIBaseURL = "https://open-api.tiktokglobalshop.com"

// TikTokConfig configures one shop connection.
type TikTokConfig struct {
	AccessToken string `json:"access_token"`
	ShopID      string `json:"shop_id"`
	// APIBaseURL overrides the production host, used in tests
	APIBaseURL string `json:"api_base_url,omitempty"`
	PageSize   int    `json:"page_size,omitempty"`
}

// Validate checks required fields and fills defaults.
func (c *TikTokConfig) Validate() error {
	if c.AccessToken == "" {
		return ErrTikTokConfigMissingToken
	}
	if c.ShopID == "" {
		return ErrTikTokConfigMissingShopID
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = TikTokAPIBaseURL
	}
	if c.PageSize <= 0 {
		c.PageSize = defaultPageSize
	}
	return nil
}

// tikTokProduct is the product search wire shape.
type tikTokProduct struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	SKUs  []struct {
		SellerSKU string `json:"seller_sku"`
		Price     struct {
			Amount   string `json:"original_price"`
			Currency string `json:"currency"`
		} `json:"price"`
		StockInfos []struct {
			AvailableStock int `json:"available_stock"`
		} `json:"stock_infos"`
	} `json:"skus"`
}

// tikTokOrder is the order list wire shape.
type tikTokOrder struct {
	OrderID     string `json:"order_id"`
	OrderStatus int    `json:"order_status"`
	PaymentInfo struct {
		TotalAmount string `json:"total_amount"`
		Currency    string `json:"currency"`
	} `json:"payment_info"`
	CreateTime int64 `json:"create_time"`
	ItemList   []struct {
		SellerSKU   string `json:"seller_sku"`
		ProductName string `json:"product_name"`
		Quantity    int    `json:"quantity"`
		SKUPrice    string `json:"sku_original_price"`
	} `json:"item_list"`
}

// TikTokAdapter syncs a TikTok Shop. Both endpoints paginate with an
// opaque next_cursor token inside a data envelope; an absent cursor ends
// the loop.
type TikTokAdapter struct {
	config *TikTokConfig
	client *httpclient.Client
}

var _ channel.Adapter = (*TikTokAdapter)(nil)

// NewTikTokAdapter creates an adapter for one shop.
func NewTikTokAdapter(config *TikTokConfig, client *httpclient.Client) (*TikTokAdapter, error) {
	if config == nil {
		return nil, ErrTikTokConfigMissingToken
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &TikTokAdapter{config: config, client: client}, nil
}

// ChannelType returns the channel this adapter serves
func (a *TikTokAdapter) ChannelType() channel.Type {
	return channel.TypeTikTokShop
}

// FetchProducts follows the product cursor until exhausted.
func (a *TikTokAdapter) FetchProducts(ctx context.Context) ([]channel.Product, error) {
	var products []channel.Product
	cursor := ""
	for {
		var envelope struct {
			Data struct {
				Products   []tikTokProduct `json:"products"`
				NextCursor string          `json:"next_cursor"`
			} `json:"data"`
		}
		if err := a.get(ctx, "/api/products/search", cursor, &envelope); err != nil {
			return nil, opError(channel.TypeTikTokShop, "fetch products", err)
		}
		for _, p := range envelope.Data.Products {
			converted, err := a.convertProduct(p)
			if err != nil {
				return nil, opError(channel.TypeTikTokShop, "fetch products", err)
			}
			products = append(products, converted...)
		}
		if envelope.Data.NextCursor == "" {
			return products, nil
		}
		cursor = envelope.Data.NextCursor
	}
}

// FetchOrders follows the order cursor until exhausted.
func (a *TikTokAdapter) FetchOrders(ctx context.Context) ([]channel.Order, error) {
	var orders []channel.Order
	cursor := ""
	for {
		var envelope struct {
			Data struct {
				OrderList  []tikTokOrder `json:"order_list"`
				NextCursor string        `json:"next_cursor"`
			} `json:"data"`
		}
		if err := a.get(ctx, "/api/orders/search", cursor, &envelope); err != nil {
			return nil, opError(channel.TypeTikTokShop, "fetch orders", err)
		}
		for _, o := range envelope.Data.OrderList {
			order, err := a.convertOrder(o)
			if err != nil {
				return nil, opError(channel.TypeTikTokShop, "fetch orders", err)
			}
			orders = append(orders, order)
		}
		if envelope.Data.NextCursor == "" {
			return orders, nil
		}
		cursor = envelope.Data.NextCursor
	}
}

func (a *TikTokAdapter) get(ctx context.Context, path, cursor string, out any) error {
	query := url.Values{}
	query.Set("shop_id", a.config.ShopID)
	query.Set("page_size", strconv.Itoa(a.config.PageSize))
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	endpoint := a.config.APIBaseURL + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", channel.ErrChannelUnavailable, err)
	}
	req.Header.Set("x-tts-access-token", a.config.AccessToken)
	req.Header.Set("Accept", "application/json")
	return fetchJSON(ctx, a.client, req, out)
}

// convertProduct flattens one product into one normalized record per SKU.
func (a *TikTokAdapter) convertProduct(p tikTokProduct) ([]channel.Product, error) {
	if len(p.SKUs) == 0 {
		return []channel.Product{{
			SKU:   p.ID,
			Title: p.Title,
			Raw:   rawMessage(p),
		}}, nil
	}
	products := make([]channel.Product, 0, len(p.SKUs))
	for _, sku := range p.SKUs {
		price, err := parseDecimalString(sku.Price.Amount)
		if err != nil {
			return nil, fmt.Errorf("parsing product %s price: %v", p.ID, err)
		}
		stock := 0
		for _, info := range sku.StockInfos {
			stock += info.AvailableStock
		}
		skuCode := sku.SellerSKU
		if skuCode == "" {
			skuCode = p.ID
		}
		products = append(products, channel.Product{
			SKU:   skuCode,
			Title: p.Title,
			Price: price,
			Stock: stock,
			Raw:   rawMessage(p),
		})
	}
	return products, nil
}

func (a *TikTokAdapter) convertOrder(o tikTokOrder) (channel.Order, error) {
	total, err := parseDecimalString(o.PaymentInfo.TotalAmount)
	if err != nil {
		return channel.Order{}, fmt.Errorf("parsing order %s total: %v", o.OrderID, err)
	}
	order := channel.Order{
		OrderID:  o.OrderID,
		Total:    total,
		Currency: o.PaymentInfo.Currency,
		Status:   mapTikTokOrderStatus(o.OrderStatus),
		Raw:      rawMessage(o),
	}
	if o.CreateTime > 0 {
		order.PlacedAt = time.Unix(o.CreateTime, 0).UTC()
	}
	for _, item := range o.ItemList {
		unitPrice, priceErr := parseDecimalString(item.SKUPrice)
		if priceErr != nil {
			unitPrice = decimalFromFloat(0)
		}
		order.Items = append(order.Items, channel.OrderItem{
			SKU:       item.SellerSKU,
			Title:     item.ProductName,
			Quantity:  item.Quantity,
			UnitPrice: unitPrice,
		})
	}
	return order, nil
}

// TikTok order status codes per the open platform docs.
func mapTikTokOrderStatus(status int) channel.OrderStatus {
	switch status {
	case 100: // unpaid
		return channel.OrderStatusPending
	case 111, 112: // awaiting shipment / awaiting collection
		return channel.OrderStatusPaid
	case 121, 122: // in transit / delivered
		return channel.OrderStatusShipped
	case 130: // completed
		return channel.OrderStatusCompleted
	case 140: // cancelled
		return channel.OrderStatusCancelled
	default:
		return channel.OrderStatusUnknown
	}
}
