package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/lotterynft/lottery-client/pkg/currency"
	"github.com/lotterynft/lottery-client/pkg/metrics"
	"github.com/lotterynft/lottery-client/pkg/retry"
	"github.com/lotterynft/lottery-client/pkg/retry/backoff"
)

const (
	metricsStructName = "currency.coingecko.client"
)

const (
	DefaultBaseUrl = "https://api.coingecko.com/api"

	latestPathFormat = "/v3/coins/%s?localization=false&tickers=false&community_data=false&developer_data=false&sparkline=false"
)

type client struct {
	baseUrl    string
	httpClient *http.Client
	retrier    retry.Retrier
}

func NewClient() currency.Client {
	return NewClientWithBaseUrl(DefaultBaseUrl)
}

// NewClientWithBaseUrl returns a client against a CoinGecko compatible API.
func NewClientWithBaseUrl(baseUrl string) currency.Client {
	return &client{
		baseUrl: strings.TrimSuffix(baseUrl, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		retrier: retry.NewRetrier(
			retry.NonRetriableErrors(context.Canceled, currency.ErrInvalidBase),
			retry.Limit(3),
			retry.BackoffWithJitter(backoff.BinaryExponential(time.Second), 10*time.Second, 0.1),
		),
	}
}

// GetCurrentRates implements currency.Client.GetCurrentRates
func (c *client) GetCurrentRates(ctx context.Context, base string) (*currency.ExchangeData, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetCurrentRates")
	defer tracer.End()

	var resp coinResponse
	url := c.baseUrl + fmt.Sprintf(latestPathFormat, base)
	_, err := c.retrier.Retry(func() error {
		return c.submitRequest(ctx, url, &resp)
	})
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}

	return resp.toExchangeData(base), nil
}

func (c *client) submitRequest(ctx context.Context, url string, resp interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to make request")
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode == http.StatusNotFound {
		return currency.ErrInvalidBase
	} else if httpResp.StatusCode != http.StatusOK {
		return errors.Errorf("received non-200 status code: %d", httpResp.StatusCode)
	}

	err = json.NewDecoder(httpResp.Body).Decode(resp)
	if err != nil {
		return errors.Wrap(err, "failed to decode response")
	}

	return nil
}

// coinResponse is the subset of the coin endpoint used for quotes.
type coinResponse struct {
	Id         string `json:"id"`
	MarketData struct {
		CurrentPrice map[string]float64 `json:"current_price"`
	} `json:"market_data"`
	LastUpdated time.Time `json:"last_updated"`
}

// toExchangeData keeps positive prices of fiat style, three letter quotes.
// Other coin quotes come and go and are not relied on.
func (r *coinResponse) toExchangeData(base string) *currency.ExchangeData {
	data := &currency.ExchangeData{
		Base:      base,
		Rates:     make(map[string]float64, len(r.MarketData.CurrentPrice)),
		Timestamp: r.LastUpdated,
	}
	for symbol, rate := range r.MarketData.CurrentPrice {
		if len(symbol) == 3 && rate > 0 {
			data.Rates[strings.ToLower(symbol)] = rate
		}
	}
	return data
}
