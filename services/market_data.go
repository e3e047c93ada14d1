package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"discount-screener/models"
	"discount-screener/observability"
)

// MarketDataService handles communication with the Yahoo Finance API
type MarketDataService struct {
	baseURL      string
	symbolSuffix string
	windowYears  int
	httpClient   *http.Client
	retry        RetryConfig
}

// NewMarketDataService creates a new MarketDataService instance. The suffix
// is appended to every exchange symbol before querying, e.g. ".NS";
// windowYears bounds the history range requested from the chart endpoint.
func NewMarketDataService(baseURL, symbolSuffix string, windowYears int) *MarketDataService {
	if windowYears <= 0 {
		windowYears = 5
	}
	return &MarketDataService{
		baseURL:      baseURL,
		symbolSuffix: symbolSuffix,
		windowYears:  windowYears,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		retry:        DefaultRetryConfig,
	}
}

// yahooQuoteResponse represents the v7 quote endpoint payload
type yahooQuoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol             string  `json:"symbol"`
			RegularMarketPrice float64 `json:"regularMarketPrice"`
			TrailingPE         float64 `json:"trailingPE"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteResponse"`
}

// yahooChartResponse represents the v8 chart endpoint payload
type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetQuote fetches the current price and trailing P/E for a symbol.
func (s *MarketDataService) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	return WithCircuitBreaker(ctx, BreakerMarketData, func() (*models.Quote, error) {
		var quote *models.Quote

		err := WithRetry(ctx, s.retry, func() error {
			params := url.Values{}
			params.Set("symbols", symbol+s.symbolSuffix)
			reqURL := s.baseURL + "/v7/finance/quote?" + params.Encode()

			timer := observability.GetMetrics().NewTimer()
			observability.GetMetrics().RecordExternalAPIRequest("market-data", "quote")

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
			if err != nil {
				return fmt.Errorf("failed to create quote request: %w", err)
			}

			resp, err := s.httpClient.Do(req)
			if err != nil {
				observability.GetMetrics().RecordExternalAPIError("market-data", "quote")
				return fmt.Errorf("failed to fetch quote: %w", err)
			}
			defer resp.Body.Close()
			timer.ObserveExternalAPI("market-data", "quote")

			if resp.StatusCode != http.StatusOK {
				observability.GetMetrics().RecordExternalAPIError("market-data", "quote")
				return fmt.Errorf("quote API returned status %d", resp.StatusCode)
			}

			var quoteResp yahooQuoteResponse
			if err := json.NewDecoder(resp.Body).Decode(&quoteResp); err != nil {
				return fmt.Errorf("failed to decode quote response: %w", err)
			}

			if quoteResp.QuoteResponse.Error != nil {
				return fmt.Errorf("quote API error: %s", quoteResp.QuoteResponse.Error.Description)
			}
			if len(quoteResp.QuoteResponse.Result) == 0 {
				return fmt.Errorf("no quote data for symbol %s", symbol)
			}

			r := quoteResp.QuoteResponse.Result[0]
			quote = &models.Quote{
				Symbol:     symbol,
				Price:      decimal.NewFromFloat(r.RegularMarketPrice),
				TrailingPE: r.TrailingPE,
			}

			return nil
		})

		if err != nil {
			return nil, &FetchError{Source: "market-data", Item: symbol, Err: err}
		}

		return quote, nil
	})
}

// GetPriceHistory fetches the configured window of monthly closes for a
// symbol.
// Months where the exchange reported no close are dropped.
func (s *MarketDataService) GetPriceHistory(ctx context.Context, symbol string) ([]models.PricePoint, error) {
	return WithCircuitBreaker(ctx, BreakerMarketData, func() ([]models.PricePoint, error) {
		var history []models.PricePoint

		err := WithRetry(ctx, s.retry, func() error {
			params := url.Values{}
			params.Set("range", fmt.Sprintf("%dy", s.windowYears))
			params.Set("interval", "1mo")
			reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s",
				s.baseURL, url.PathEscape(symbol+s.symbolSuffix), params.Encode())

			timer := observability.GetMetrics().NewTimer()
			observability.GetMetrics().RecordExternalAPIRequest("market-data", "chart")

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
			if err != nil {
				return fmt.Errorf("failed to create chart request: %w", err)
			}

			resp, err := s.httpClient.Do(req)
			if err != nil {
				observability.GetMetrics().RecordExternalAPIError("market-data", "chart")
				return fmt.Errorf("failed to fetch price history: %w", err)
			}
			defer resp.Body.Close()
			timer.ObserveExternalAPI("market-data", "chart")

			if resp.StatusCode != http.StatusOK {
				observability.GetMetrics().RecordExternalAPIError("market-data", "chart")
				return fmt.Errorf("chart API returned status %d", resp.StatusCode)
			}

			var chartResp yahooChartResponse
			if err := json.NewDecoder(resp.Body).Decode(&chartResp); err != nil {
				return fmt.Errorf("failed to decode chart response: %w", err)
			}

			if chartResp.Chart.Error != nil {
				return fmt.Errorf("chart API error: %s", chartResp.Chart.Error.Description)
			}
			if len(chartResp.Chart.Result) == 0 {
				return fmt.Errorf("no chart data for symbol %s", symbol)
			}

			result := chartResp.Chart.Result[0]
			if len(result.Indicators.Quote) == 0 {
				return fmt.Errorf("chart response missing quote indicators for %s", symbol)
			}

			closes := result.Indicators.Quote[0].Close
			history = make([]models.PricePoint, 0, len(result.Timestamp))
			for i, ts := range result.Timestamp {
				if i >= len(closes) || closes[i] == nil {
					continue
				}
				history = append(history, models.PricePoint{
					Date:  time.Unix(ts, 0).UTC(),
					Close: *closes[i],
				})
			}

			if len(history) == 0 {
				return fmt.Errorf("chart response contained no closes for %s", symbol)
			}

			return nil
		})

		if err != nil {
			return nil, &FetchError{Source: "market-data", Item: symbol, Err: err}
		}

		return history, nil
	})
}

// SetRetryConfig overrides the retry policy, mainly to shrink backoff in tests.
func (s *MarketDataService) SetRetryConfig(cfg RetryConfig) {
	s.retry = cfg
}

// Compile-time interface verification
var _ MarketDataInterface = (*MarketDataService)(nil)
