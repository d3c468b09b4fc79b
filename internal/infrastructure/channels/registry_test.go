package channels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/channelsync/backend/internal/domain/channel"
)

func TestRegistry_Build(t *testing.T) {
	registry := NewRegistry(newChannelTestClient(), nil)

	t.Run("builds a mock adapter", func(t *testing.T) {
		adapter, err := registry.Build(channel.TypeMock, []byte(`{"store_name":"Acme"}`))
		require.NoError(t, err)
		assert.Equal(t, channel.TypeMock, adapter.ChannelType())
	})

	t.Run("builds a shopify adapter", func(t *testing.T) {
		adapter, err := registry.Build(channel.TypeShopify,
			[]byte(`{"access_token":"shpat_x","shop_domain":"acme.myshopify.com"}`))
		require.NoError(t, err)
		assert.Equal(t, channel.TypeShopify, adapter.ChannelType())
	})

	t.Run("builds an amazon adapter with a nil token cache", func(t *testing.T) {
		adapter, err := registry.Build(channel.TypeAmazon, []byte(`{
			"refresh_token":"Atzr|r","client_id":"c","client_secret":"s",
			"access_key":"ak","secret_key":"sk","marketplace_id":"ATVPDKIKX0DER"}`))
		require.NoError(t, err)
		assert.Equal(t, channel.TypeAmazon, adapter.ChannelType())
	})

	t.Run("unknown channel type", func(t *testing.T) {
		_, err := registry.Build(channel.Type("fax"), []byte(`{}`))
		assert.ErrorIs(t, err, channel.ErrUnsupportedChannel)
	})

	t.Run("malformed credential json", func(t *testing.T) {
		_, err := registry.Build(channel.TypeShopify, []byte(`{not json`))
		assert.ErrorIs(t, err, channel.ErrInvalidCredentials)
	})

	t.Run("incomplete credentials", func(t *testing.T) {
		_, err := registry.Build(channel.TypeShopify, []byte(`{"shop_domain":"acme.myshopify.com"}`))
		assert.ErrorIs(t, err, channel.ErrInvalidCredentials)

		_, err = registry.Build(channel.TypeWooCommerce, []byte(`{"store_url":"https://shop.example"}`))
		assert.ErrorIs(t, err, channel.ErrInvalidCredentials)

		_, err = registry.Build(channel.TypeAmazon, []byte(`{"refresh_token":"r"}`))
		assert.ErrorIs(t, err, channel.ErrInvalidCredentials)
	})
}
