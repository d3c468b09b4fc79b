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

func TestBigCommerceConfig_Validate(t *testing.T) {
	assert.ErrorIs(t, (&BigCommerceConfig{StoreHash: "abc123"}).Validate(),
		ErrBigCommerceConfigMissingToken)
	assert.ErrorIs(t, (&BigCommerceConfig{AccessToken: "tok"}).Validate(),
		ErrBigCommerceConfigMissingStoreHash)
}

func TestBigCommerceAdapter_FetchProducts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok", r.Header.Get("X-Auth-Token"))
		assert.Equal(t, "/stores/abc123/v3/catalog/products", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[
			{"id":77,"name":"Kettle","sku":"KETTLE-1","price":39.95,"inventory_level":14},
			{"id":78,"name":"Toaster","sku":"","price":25.0,"inventory_level":3}
		]}`))
	}))
	defer server.Close()

	adapter, err := NewBigCommerceAdapter(&BigCommerceConfig{
		AccessToken: "tok",
		StoreHash:   "abc123",
		APIBaseURL:  server.URL,
	}, newChannelTestClient())
	require.NoError(t, err)

	products, err := adapter.FetchProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, "KETTLE-1", products[0].SKU)
	assert.Equal(t, "39.95", products[0].Price.String())
	assert.Equal(t, 14, products[0].Stock)
	assert.Equal(t, "78", products[1].SKU)
}

func TestBigCommerceAdapter_FetchOrders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stores/abc123/v2/orders", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"id":301,"status":"Awaiting Shipment","total_inc_tax":"44.95","currency_code":"USD"},
			{"id":302,"status":"Declined","total_inc_tax":"25.00","currency_code":"USD"}
		]`))
	}))
	defer server.Close()

	adapter, err := NewBigCommerceAdapter(&BigCommerceConfig{
		AccessToken: "tok",
		StoreHash:   "abc123",
		APIBaseURL:  server.URL,
	}, newChannelTestClient())
	require.NoError(t, err)

	orders, err := adapter.FetchOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, "301", orders[0].OrderID)
	assert.Equal(t, channel.OrderStatusPaid, orders[0].Status)
	assert.Equal(t, channel.OrderStatusCancelled, orders[1].Status)
}

func TestBigCommerceAdapter_ServerErrorSurfacesAsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	adapter, err := NewBigCommerceAdapter(&BigCommerceConfig{
		AccessToken: "tok",
		StoreHash:   "abc123",
		APIBaseURL:  server.URL,
	}, newChannelTestClient())
	require.NoError(t, err)

	_, err = adapter.FetchProducts(context.Background())
	assert.ErrorIs(t, err, channel.ErrChannelUnavailable)
}
