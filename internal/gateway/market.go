package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	yahooChartEndpoint  = "https://query1.finance.yahoo.com/v8/finance/chart"
	quoteRequestTimeout = 15 * time.Second
)

// Quote is a point-in-time price for one ticker symbol.
type Quote struct {
	Symbol      string
	Price       float64
	Currency    string
	DisplayName string
}

// QuoteProvider fetches market quotes for ticker symbols.
type QuoteProvider interface {
	Quote(ctx context.Context, symbol string) (*Quote, error)
}

// YahooQuoteProvider implements QuoteProvider against the Yahoo Finance
// chart API, which needs no API key.
type YahooQuoteProvider struct {
	endpoint string
	client   *http.Client
}

// NewYahooQuoteProvider creates a quote provider with the default endpoint.
func NewYahooQuoteProvider() *YahooQuoteProvider {
	return &YahooQuoteProvider{
		endpoint: yahooChartEndpoint,
		client:   &http.Client{Timeout: quoteRequestTimeout},
	}
}

// NewYahooQuoteProviderWithEndpoint overrides the endpoint. Used in tests.
func NewYahooQuoteProviderWithEndpoint(endpoint string) *YahooQuoteProvider {
	return &YahooQuoteProvider{
		endpoint: endpoint,
		client:   &http.Client{Timeout: quoteRequestTimeout},
	}
}

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ShortName          string  `json:"shortName"`
				LongName           string  `json:"longName"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Quote fetches the latest regular market price for a symbol.
func (y *YahooQuoteProvider) Quote(ctx context.Context, symbol string) (*Quote, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol cannot be empty")
	}

	url := fmt.Sprintf("%s/%s?interval=1d&range=1d", y.endpoint, symbol)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create quote request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; genaibot/1.0)")

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read quote response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote API error for %s (status %d)", symbol, resp.StatusCode)
	}

	var parsed yahooChartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse quote response: %w", err)
	}
	if parsed.Chart.Error != nil {
		return nil, fmt.Errorf("quote lookup failed for %s: %s", symbol, parsed.Chart.Error.Description)
	}
	if len(parsed.Chart.Result) == 0 {
		return nil, fmt.Errorf("no quote data for symbol %s", symbol)
	}

	meta := parsed.Chart.Result[0].Meta
	name := meta.LongName
	if name == "" {
		name = meta.ShortName
	}
	if name == "" {
		name = meta.Symbol
	}

	return &Quote{
		Symbol:      meta.Symbol,
		Price:       meta.RegularMarketPrice,
		Currency:    meta.Currency,
		DisplayName: name,
	}, nil
}
