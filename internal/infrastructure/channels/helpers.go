package channels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/channelsync/backend/internal/domain/channel"
	"github.com/channelsync/backend/internal/infrastructure/httpclient"
)

// defaultPageSize is the fixed page size for every paginated channel.
const defaultPageSize = 50

// fetchJSON executes the request through the resilient client and decodes
// the JSON response. Errors are translated to the channel taxonomy:
// rate limiting and 5xx surface as ErrRateLimited / ErrChannelUnavailable,
// other 4xx as ErrFetchFailed with status and body attached.
func fetchJSON(ctx context.Context, client *httpclient.Client, req *http.Request, out any) error {
	resp, err := client.Do(ctx, req)
	if err != nil {
		return translateFetchError(err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", channel.ErrFetchFailed, err)
	}
	return nil
}

func translateFetchError(err error) error {
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Status == http.StatusTooManyRequests {
			return fmt.Errorf("%w: %v", channel.ErrRateLimited, err)
		}
		if statusErr.Status >= 500 {
			return fmt.Errorf("%w: %v", channel.ErrChannelUnavailable, err)
		}
		return fmt.Errorf("%w: %v", channel.ErrFetchFailed, err)
	}
	return fmt.Errorf("%w: %v", channel.ErrChannelUnavailable, err)
}

// opError tags a terminal adapter failure with the channel and operation.
func opError(channelType channel.Type, operation string, err error) error {
	return fmt.Errorf("%s %s: %w", channelType, operation, err)
}

// parseDecimalString converts a wire price string, zero on empty input.
func parseDecimalString(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// decimalFromFloat converts a wire float price.
func decimalFromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// rawMessage marshals a wire struct back to JSON for the Raw audit field.
func rawMessage(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}
