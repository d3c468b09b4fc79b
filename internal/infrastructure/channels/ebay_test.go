package channels

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/channelsync/backend/internal/domain/channel"
)

func TestEbayConfig_Validate(t *testing.T) {
	assert.ErrorIs(t, (&EbayConfig{MarketplaceID: "EBAY_US"}).Validate(), ErrEbayConfigMissingToken)
	assert.ErrorIs(t, (&EbayConfig{AccessToken: "tok"}).Validate(), ErrEbayConfigMissingMarketplace)

	c := &EbayConfig{AccessToken: "tok", MarketplaceID: "EBAY_US"}
	require.NoError(t, c.Validate())
	assert.Equal(t, EbayAPIBaseURL, c.APIBaseURL)
}

func TestEbayAdapter_FetchProducts_PagesWithOffset(t *testing.T) {
	var offsets []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "EBAY_US", r.Header.Get("X-EBAY-C-MARKETPLACE-ID"))
		assert.Equal(t, "/sell/inventory/v1/inventory_item", r.URL.Path)

		offset := r.URL.Query().Get("offset")
		offsets = append(offsets, offset)

		if offset == "0" {
			_, _ = w.Write([]byte(`{"inventoryItems":[
				{"sku":"CAM-1","product":{"title":"Camera"},
				 "availability":{"shipToLocationAvailability":{"quantity":7}},
				 "price":{"value":"199.00","currency":"USD"}},
				{"sku":"CAM-2","product":{"title":"Camera Pro"},
				 "availability":{"shipToLocationAvailability":{"quantity":2}},
				 "price":{"value":"299.00","currency":"USD"}}
			]}`))
			return
		}
		_, _ = w.Write([]byte(`{"inventoryItems":[
			{"sku":"TRIPOD","product":{"title":"Tripod"},
			 "availability":{"shipToLocationAvailability":{"quantity":11}},
			 "price":{"value":"35.00","currency":"USD"}}
		]}`))
	}))
	defer server.Close()

	adapter, err := NewEbayAdapter(&EbayConfig{
		AccessToken:   "tok",
		MarketplaceID: "EBAY_US",
		APIBaseURL:    server.URL,
		PageSize:      2,
	}, newChannelTestClient())
	require.NoError(t, err)

	products, err := adapter.FetchProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "2"}, offsets)

	require.Len(t, products, 3)
	assert.Equal(t, "CAM-1", products[0].SKU)
	assert.Equal(t, "Camera", products[0].Title)
	assert.Equal(t, "199", products[0].Price.String())
	assert.Equal(t, 7, products[0].Stock)
	assert.Equal(t, "TRIPOD", products[2].SKU)
}

func TestEbayAdapter_FetchOrders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sell/fulfillment/v1/order", r.URL.Path)
		_, _ = w.Write([]byte(`{"orders":[
			{"orderId":"12-09871-22931","orderFulfillmentStatus":"NOT_STARTED",
			 "orderPaymentStatus":"PAID","creationDate":"2026-02-10T08:00:00Z",
			 "pricingSummary":{"total":{"value":"234.00","currency":"USD"}},
			 "lineItems":[{"sku":"CAM-1","title":"Camera","quantity":1,
			               "lineItemCost":{"value":"199.00"}}]},
			{"orderId":"12-09871-22932","orderFulfillmentStatus":"FULFILLED",
			 "orderPaymentStatus":"PAID",
			 "pricingSummary":{"total":{"value":"35.00","currency":"USD"}},
			 "lineItems":[]}
		]}`))
	}))
	defer server.Close()

	adapter, err := NewEbayAdapter(&EbayConfig{
		AccessToken:   "tok",
		MarketplaceID: "EBAY_US",
		APIBaseURL:    server.URL,
	}, newChannelTestClient())
	require.NoError(t, err)

	orders, err := adapter.FetchOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, "12-09871-22931", orders[0].OrderID)
	assert.Equal(t, "234", orders[0].Total.String())
	assert.Equal(t, channel.OrderStatusPaid, orders[0].Status)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, "CAM-1", orders[0].Items[0].SKU)

	assert.Equal(t, channel.OrderStatusCompleted, orders[1].Status)
}

func TestEbayAdapter_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	adapter, err := NewEbayAdapter(&EbayConfig{
		AccessToken:   "tok",
		MarketplaceID: "EBAY_US",
		APIBaseURL:    server.URL,
	}, newChannelTestClient())
	require.NoError(t, err)

	_, err = adapter.FetchOrders(context.Background())
	assert.ErrorIs(t, err, channel.ErrRateLimited)
}
