package channels

import (
	"encoding/json"
	"fmt"

	"github.com/channelsync/backend/internal/domain/channel"
	"github.com/channelsync/backend/internal/infrastructure/httpclient"
	"github.com/channelsync/backend/internal/infrastructure/signing"
)

// Registry builds channel adapters from decrypted credential JSON. Each
// build returns a fresh adapter bound to one connection; adapters share
// only the resilient HTTP client and the LWA token cache.
type Registry struct {
	client     *httpclient.Client
	tokenCache signing.TokenCache
}

// NewRegistry creates a registry. tokenCache may be nil.
func NewRegistry(client *httpclient.Client, tokenCache signing.TokenCache) *Registry {
	return &Registry{client: client, tokenCache: tokenCache}
}

// Build constructs the adapter for the channel type from credential JSON.
// Unknown types return ErrUnsupportedChannel; malformed or incomplete
// credentials return ErrInvalidCredentials.
func (r *Registry) Build(channelType channel.Type, credentialJSON []byte) (channel.Adapter, error) {
	switch channelType {
	case channel.TypeMock:
		var config MockConfig
		if err := unmarshalConfig(credentialJSON, &config); err != nil {
			return nil, err
		}
		return wrapBuild(NewMockAdapter(&config))

	case channel.TypeShopify:
		var config ShopifyConfig
		if err := unmarshalConfig(credentialJSON, &config); err != nil {
			return nil, err
		}
		return wrapBuild(NewShopifyAdapter(&config, r.client))

	case channel.TypeEbay:
		var config EbayConfig
		if err := unmarshalConfig(credentialJSON, &config); err != nil {
			return nil, err
		}
		return wrapBuild(NewEbayAdapter(&config, r.client))

	case channel.TypeTikTokShop:
		var config TikTokConfig
		if err := unmarshalConfig(credentialJSON, &config); err != nil {
			return nil, err
		}
		return wrapBuild(NewTikTokAdapter(&config, r.client))

	case channel.TypeBigCommerce:
		var config BigCommerceConfig
		if err := unmarshalConfig(credentialJSON, &config); err != nil {
			return nil, err
		}
		return wrapBuild(NewBigCommerceAdapter(&config, r.client))

	case channel.TypeWooCommerce:
		var config WooCommerceConfig
		if err := unmarshalConfig(credentialJSON, &config); err != nil {
			return nil, err
		}
		return wrapBuild(NewWooCommerceAdapter(&config, r.client))

	case channel.TypeAmazon:
		var config AmazonConfig
		if err := unmarshalConfig(credentialJSON, &config); err != nil {
			return nil, err
		}
		return wrapBuild(NewAmazonAdapter(&config, r.client, r.tokenCache))

	default:
		return nil, fmt.Errorf("%w: %s", channel.ErrUnsupportedChannel, channelType)
	}
}

func unmarshalConfig(credentialJSON []byte, out any) error {
	if err := json.Unmarshal(credentialJSON, out); err != nil {
		return fmt.Errorf("%w: %v", channel.ErrInvalidCredentials, err)
	}
	return nil
}

func wrapBuild[T channel.Adapter](adapter T, err error) (channel.Adapter, error) {
	if err != nil {
		return nil, fmt.Errorf("%w: %v", channel.ErrInvalidCredentials, err)
	}
	return adapter, nil
}
