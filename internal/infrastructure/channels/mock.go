package channels

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/channelsync/backend/internal/domain/channel"
)

// Mock channel configuration errors
var (
	// ErrMockConfigMissingStoreName indicates the store name is required
	ErrMockConfigMissingStoreName = errors.New("mock: store name is required")
)

// MockConfig configures the mock channel used for development and
// end-to-end tests. No network access is involved.
type MockConfig struct {
	StoreName string `json:"store_name"`
	// ProductCount overrides the synthetic catalog size, default 3
	ProductCount int `json:"product_count,omitempty"`
	// OrderCount overrides the synthetic order count, default 2
	OrderCount int `json:"order_count,omitempty"`
}

// Validate checks required fields and fills defaults.
func (c *MockConfig) Validate() error {
	if c.StoreName == "" {
		return ErrMockConfigMissingStoreName
	}
	if c.ProductCount <= 0 {
		c.ProductCount = 3
	}
	if c.OrderCount <= 0 {
		c.OrderCount = 2
	}
	return nil
}

// MockAdapter produces a deterministic synthetic catalog and order list
// derived from the store name, so repeated syncs are stable.
type MockAdapter struct {
	config *MockConfig
}

var _ channel.Adapter = (*MockAdapter)(nil)

// NewMockAdapter creates a mock adapter.
func NewMockAdapter(config *MockConfig) (*MockAdapter, error) {
	if config == nil {
		return nil, ErrMockConfigMissingStoreName
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &MockAdapter{config: config}, nil
}

// ChannelType returns the channel this adapter serves
func (a *MockAdapter) ChannelType() channel.Type {
	return channel.TypeMock
}

// FetchProducts returns the synthetic catalog.
func (a *MockAdapter) FetchProducts(ctx context.Context) ([]channel.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seed := a.seed()
	products := make([]channel.Product, 0, a.config.ProductCount)
	for i := 1; i <= a.config.ProductCount; i++ {
		price := decimal.NewFromInt(int64(seed%90+10)).
			Add(decimal.NewFromInt(int64(i)).Div(decimal.NewFromInt(100)))
		products = append(products, channel.Product{
			SKU:   fmt.Sprintf("%s-SKU-%03d", a.storePrefix(), i),
			Title: fmt.Sprintf("%s Sample Product %d", a.config.StoreName, i),
			Price: price,
			Stock: int(seed%50) + i,
		})
	}
	return products, nil
}

// FetchOrders returns the synthetic order list.
func (a *MockAdapter) FetchOrders(ctx context.Context) ([]channel.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seed := a.seed()
	placedAt := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	orders := make([]channel.Order, 0, a.config.OrderCount)
	for i := 1; i <= a.config.OrderCount; i++ {
		unitPrice := decimal.NewFromInt(int64(seed%90 + 10))
		quantity := int(seed%3) + 1
		orders = append(orders, channel.Order{
			OrderID:  fmt.Sprintf("%s-ORD-%04d", a.storePrefix(), i),
			Total:    unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
			Currency: "USD",
			Status:   channel.OrderStatusPaid,
			PlacedAt: placedAt.Add(time.Duration(i) * time.Hour),
			Items: []channel.OrderItem{
				{
					SKU:       fmt.Sprintf("%s-SKU-%03d", a.storePrefix(), i),
					Title:     fmt.Sprintf("%s Sample Product %d", a.config.StoreName, i),
					Quantity:  quantity,
					UnitPrice: unitPrice,
				},
			},
		})
	}
	return orders, nil
}

func (a *MockAdapter) seed() uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(a.config.StoreName))
	return h.Sum32()
}

func (a *MockAdapter) storePrefix() string {
	return fmt.Sprintf("MOCK-%04X", a.seed()&0xFFFF)
}
