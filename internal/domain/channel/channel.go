package channel

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Domain errors for channel integration
var (
	// ErrUnsupportedChannel indicates the channel type has no registered adapter
	ErrUnsupportedChannel = errors.New("channel: unsupported channel type")
	// ErrConnectionNotFound indicates the channel connection does not exist
	ErrConnectionNotFound = errors.New("channel: connection not found")
	// ErrConnectionExists indicates the seller already has an active connection for this channel
	ErrConnectionExists = errors.New("channel: connection already exists")
	// ErrConnectionInactive indicates the connection has been disconnected
	ErrConnectionInactive = errors.New("channel: connection is not active")
	// ErrInvalidCredentials indicates the channel rejected the stored credentials
	ErrInvalidCredentials = errors.New("channel: invalid credentials")
	// ErrFetchFailed indicates a terminal failure fetching from the channel API
	ErrFetchFailed = errors.New("channel: fetch failed")
	// ErrChannelUnavailable indicates the channel API could not be reached
	ErrChannelUnavailable = errors.New("channel: channel unavailable")
	// ErrRateLimited indicates the channel API throttled the request
	ErrRateLimited = errors.New("channel: rate limited")
)

// Type identifies an external marketplace a seller can connect to.
type Type string

const (
	TypeMock        Type = "mock"
	TypeShopify     Type = "shopify"
	TypeEbay        Type = "ebay"
	TypeTikTokShop  Type = "tiktok_shop"
	TypeBigCommerce Type = "bigcommerce"
	TypeWooCommerce Type = "woocommerce"
	TypeAmazon      Type = "amazon"
)

// IsValid checks if the channel type is a known value
func (t Type) IsValid() bool {
	switch t {
	case TypeMock, TypeShopify, TypeEbay, TypeTikTokShop,
		TypeBigCommerce, TypeWooCommerce, TypeAmazon:
		return true
	}
	return false
}

// String returns the string representation
func (t Type) String() string {
	return string(t)
}

// DisplayName returns a human-readable channel name
func (t Type) DisplayName() string {
	switch t {
	case TypeMock:
		return "Mock Channel"
	case TypeShopify:
		return "Shopify"
	case TypeEbay:
		return "eBay"
	case TypeTikTokShop:
		return "TikTok Shop"
	case TypeBigCommerce:
		return "BigCommerce"
	case TypeWooCommerce:
		return "WooCommerce"
	case TypeAmazon:
		return "Amazon"
	default:
		return "Unknown"
	}
}

// OrderStatus is the channel-agnostic order state. Each adapter maps its
// source API's status vocabulary onto this set.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunded  OrderStatus = "refunded"
	OrderStatusUnknown   OrderStatus = "unknown"
)

// Product is the normalized product shape produced by every adapter.
type Product struct {
	// SKU is the seller's stock keeping unit on the channel
	SKU string
	// Title is the product display name
	Title string
	// Price is the listed unit price in the channel's currency
	Price decimal.Decimal
	// Stock is the available quantity
	Stock int
	// Raw retains the source payload for audit and debugging
	Raw json.RawMessage
}

// OrderItem is one line item of a normalized order.
type OrderItem struct {
	SKU       string
	Title     string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Order is the normalized order shape produced by every adapter.
type Order struct {
	// OrderID is the channel's order identifier
	OrderID string
	// Total is the order grand total
	Total decimal.Decimal
	// Currency is the ISO currency code, empty when the source omits it
	Currency string
	// Status is the mapped channel-agnostic status
	Status OrderStatus
	// PlacedAt is when the buyer placed the order, zero when unknown
	PlacedAt time.Time
	// Items are the order line items
	Items []OrderItem
	// Raw retains the source payload for audit and debugging
	Raw json.RawMessage
}

// Adapter normalizes one external channel's product and order APIs.
// Implementations are constructed from an explicit per-channel config
// struct and hold no shared mutable state.
type Adapter interface {
	// ChannelType returns the channel this adapter serves
	ChannelType() Type

	// FetchProducts retrieves the full normalized product catalog,
	// following the channel's pagination until exhausted.
	FetchProducts(ctx context.Context) ([]Product, error)

	// FetchOrders retrieves all normalized orders, following the
	// channel's pagination until exhausted.
	FetchOrders(ctx context.Context) ([]Order, error)
}
