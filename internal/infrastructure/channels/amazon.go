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
	"github.com/channelsync/backend/internal/infrastructure/signing"
)

// Amazon SP-API configuration errors
var (
	// ErrAmazonConfigMissingLWA indicates LWA credentials are required
	ErrAmazonConfigMissingLWA = errors.New("amazon: refresh token, client id and client secret are required")
	// ErrAmazonConfigMissingKeys indicates AWS signing keys are required
	ErrAmazonConfigMissingKeys = errors.New("amazon: aws access key and secret key are required")
	// ErrAmazonConfigMissingMarketplace indicates the marketplace id is required
	ErrAmazonConfigMissingMarketplace = errors.New("amazon: marketplace id is required")
	// ErrAmazonConfigBadRegion indicates an unknown SP-API region
	ErrAmazonConfigBadRegion = errors.New("amazon: unknown region")
)

// SP-API regional endpoints.
var amazonEndpoints = map[string]struct {
	host      string
	awsRegion string
}{
	"na": {"https://sellingpartnerapi-na.amazon.com", "us-east-1"},
	"eu": {"https://sellingpartnerapi-eu.amazon.com", "eu-west-1"},
	"fe": {"https://sellingpartnerapi-fe.amazon.com", "us-west-2"},
}

// AmazonConfig configures one SP-API seller connection. Requests carry an
// LWA access token (exchanged from the refresh token) and a SigV4
// signature over the execute-api service.
type AmazonConfig struct {
	RefreshToken string `json:"refresh_token"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	// Region is the SP-API region: na, eu or fe
	Region        string `json:"region"`
	AccessKey     string `json:"access_key"`
	SecretKey     string `json:"secret_key"`
	SessionToken  string `json:"session_token,omitempty"`
	MarketplaceID string `json:"marketplace_id"`
	// APIBaseURL overrides the regional endpoint, used in tests
	APIBaseURL string `json:"api_base_url,omitempty"`
	// LWATokenURL overrides the token endpoint, used in tests
	LWATokenURL string `json:"lwa_token_url,omitempty"`
	PageSize    int    `json:"page_size,omitempty"`

	awsRegion string
}

// Validate checks required fields and resolves the regional endpoint.
func (c *AmazonConfig) Validate() error {
	if c.RefreshToken == "" || c.ClientID == "" || c.ClientSecret == "" {
		return ErrAmazonConfigMissingLWA
	}
	if c.AccessKey == "" || c.SecretKey == "" {
		return ErrAmazonConfigMissingKeys
	}
	if c.MarketplaceID == "" {
		return ErrAmazonConfigMissingMarketplace
	}
	if c.Region == "" {
		c.Region = "na"
	}
	endpoint, ok := amazonEndpoints[c.Region]
	if !ok {
		return ErrAmazonConfigBadRegion
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = endpoint.host
	}
	c.awsRegion = endpoint.awsRegion
	if c.PageSize <= 0 {
		c.PageSize = defaultPageSize
	}
	return nil
}

// amazonInventorySummary is the fba/inventory wire shape.
type amazonInventorySummary struct {
	SellerSKU       string `json:"sellerSku"`
	ProductName     string `json:"productName"`
	TotalQuantity   int    `json:"totalQuantity"`
	InventoryDetails struct {
		FulfillableQuantity int `json:"fulfillableQuantity"`
	} `json:"inventoryDetails"`
}

// amazonOrder is the orders/v0 wire shape.
type amazonOrder struct {
	AmazonOrderID string `json:"AmazonOrderId"`
	OrderStatus   string `json:"OrderStatus"`
	PurchaseDate  string `json:"PurchaseDate"`
	OrderTotal    struct {
		Amount       string `json:"Amount"`
		CurrencyCode string `json:"CurrencyCode"`
	} `json:"OrderTotal"`
}

// AmazonAdapter syncs an Amazon seller through SP-API. Both endpoints
// paginate with a NextToken cursor; the LWA access token is refreshed
// transparently when expired and every request is SigV4-signed.
type AmazonAdapter struct {
	config      *AmazonConfig
	client      *httpclient.Client
	tokenSource *signing.LWATokenSource
}

var _ channel.Adapter = (*AmazonAdapter)(nil)

// NewAmazonAdapter creates an adapter for one seller. cache may be nil.
func NewAmazonAdapter(config *AmazonConfig, client *httpclient.Client, cache signing.TokenCache) (*AmazonAdapter, error) {
	if config == nil {
		return nil, ErrAmazonConfigMissingLWA
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	tokenSource, err := signing.NewLWATokenSource(signing.LWAConfig{
		RefreshToken: config.RefreshToken,
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		TokenURL:     config.LWATokenURL,
	}, client, cache)
	if err != nil {
		return nil, err
	}
	return &AmazonAdapter{config: config, client: client, tokenSource: tokenSource}, nil
}

// ChannelType returns the channel this adapter serves
func (a *AmazonAdapter) ChannelType() channel.Type {
	return channel.TypeAmazon
}

// FetchProducts follows the inventory summaries NextToken cursor.
func (a *AmazonAdapter) FetchProducts(ctx context.Context) ([]channel.Product, error) {
	var products []channel.Product
	nextToken := ""
	for {
		query := url.Values{}
		query.Set("granularityType", "Marketplace")
		query.Set("granularityId", a.config.MarketplaceID)
		query.Set("marketplaceIds", a.config.MarketplaceID)
		query.Set("maxResultsPerPage", strconv.Itoa(a.config.PageSize))
		if nextToken != "" {
			query.Set("nextToken", nextToken)
		}

		var envelope struct {
			Payload struct {
				InventorySummaries []amazonInventorySummary `json:"inventorySummaries"`
			} `json:"payload"`
			Pagination struct {
				NextToken string `json:"nextToken"`
			} `json:"pagination"`
		}
		if err := a.get(ctx, "/fba/inventory/v1/summaries", query, &envelope); err != nil {
			return nil, opError(channel.TypeAmazon, "fetch products", err)
		}
		for _, summary := range envelope.Payload.InventorySummaries {
			products = append(products, channel.Product{
				SKU:   summary.SellerSKU,
				Title: summary.ProductName,
				Stock: summary.TotalQuantity,
				Raw:   rawMessage(summary),
			})
		}
		if envelope.Pagination.NextToken == "" {
			return products, nil
		}
		nextToken = envelope.Pagination.NextToken
	}
}

// FetchOrders follows the orders/v0 NextToken cursor.
func (a *AmazonAdapter) FetchOrders(ctx context.Context) ([]channel.Order, error) {
	var orders []channel.Order
	nextToken := ""
	for {
		query := url.Values{}
		query.Set("MarketplaceIds", a.config.MarketplaceID)
		query.Set("MaxResultsPerPage", strconv.Itoa(a.config.PageSize))
		if nextToken != "" {
			query.Set("NextToken", nextToken)
		} else {
			query.Set("CreatedAfter", time.Now().AddDate(0, -1, 0).UTC().Format(time.RFC3339))
		}

		var envelope struct {
			Payload struct {
				Orders    []amazonOrder `json:"Orders"`
				NextToken string        `json:"NextToken"`
			} `json:"payload"`
		}
		if err := a.get(ctx, "/orders/v0/orders", query, &envelope); err != nil {
			return nil, opError(channel.TypeAmazon, "fetch orders", err)
		}
		for _, o := range envelope.Payload.Orders {
			order, err := a.convertOrder(o)
			if err != nil {
				return nil, opError(channel.TypeAmazon, "fetch orders", err)
			}
			orders = append(orders, order)
		}
		if envelope.Payload.NextToken == "" {
			return orders, nil
		}
		nextToken = envelope.Payload.NextToken
	}
}

// get builds, authorizes and signs one SP-API request.
func (a *AmazonAdapter) get(ctx context.Context, path string, query url.Values, out any) error {
	accessToken, err := a.tokenSource.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", channel.ErrInvalidCredentials, err)
	}

	endpoint := a.config.APIBaseURL + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", channel.ErrChannelUnavailable, err)
	}
	req.Header.Set("x-amz-access-token", accessToken)
	req.Header.Set("Accept", "application/json")

	if err := signing.SignSigV4(req, signing.SigV4Input{
		AccessKey:    a.config.AccessKey,
		SecretKey:    a.config.SecretKey,
		SessionToken: a.config.SessionToken,
		Region:       a.config.awsRegion,
		Service:      "execute-api",
	}, time.Now()); err != nil {
		return fmt.Errorf("%w: %v", channel.ErrInvalidCredentials, err)
	}
	return fetchJSON(ctx, a.client, req, out)
}

func (a *AmazonAdapter) convertOrder(o amazonOrder) (channel.Order, error) {
	total, err := parseDecimalString(o.OrderTotal.Amount)
	if err != nil {
		return channel.Order{}, fmt.Errorf("parsing order %s total: %v", o.AmazonOrderID, err)
	}
	order := channel.Order{
		OrderID:  o.AmazonOrderID,
		Total:    total,
		Currency: o.OrderTotal.CurrencyCode,
		Status:   mapAmazonOrderStatus(o.OrderStatus),
		Raw:      rawMessage(o),
	}
	if o.PurchaseDate != "" {
		if placedAt, parseErr := time.Parse(time.RFC3339, o.PurchaseDate); parseErr == nil {
			order.PlacedAt = placedAt.UTC()
		}
	}
	return order, nil
}

func mapAmazonOrderStatus(status string) channel.OrderStatus {
	switch status {
	case "Pending", "PendingAvailability":
		return channel.OrderStatusPending
	case "Unshipped", "PartiallyShipped":
		return channel.OrderStatusPaid
	case "Shipped", "InvoiceUnconfirmed":
		return channel.OrderStatusShipped
	case "Canceled":
		return channel.OrderStatusCancelled
	default:
		return channel.OrderStatusUnknown
	}
}
