package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMarketDataService_GetQuote(t *testing.T) {
	resetBreakers()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v7/finance/quote" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbols"); got != "RELIANCE.NS" {
			t.Errorf("expected symbols=RELIANCE.NS, got %q", got)
		}
		fmt.Fprint(w, `{"quoteResponse":{"result":[{"symbol":"RELIANCE.NS","regularMarketPrice":2850.50,"trailingPE":27.4}],"error":null}}`)
	}))
	defer server.Close()

	svc := NewMarketDataService(server.URL, ".NS", 5)
	svc.SetRetryConfig(testRetryConfig())

	quote, err := svc.GetQuote(context.Background(), "RELIANCE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.Symbol != "RELIANCE" {
		t.Errorf("expected symbol RELIANCE, got %q", quote.Symbol)
	}
	if quote.Price.String() != "2850.5" {
		t.Errorf("expected price 2850.5, got %s", quote.Price)
	}
	if quote.TrailingPE != 27.4 {
		t.Errorf("expected trailing P/E 27.4, got %v", quote.TrailingPE)
	}
	if !quote.HasPE() {
		t.Error("expected HasPE to be true")
	}
}

func TestMarketDataService_GetQuote_NoData(t *testing.T) {
	resetBreakers()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"quoteResponse":{"result":[],"error":null}}`)
	}))
	defer server.Close()

	svc := NewMarketDataService(server.URL, ".NS", 5)
	svc.SetRetryConfig(testRetryConfig())

	_, err := svc.GetQuote(context.Background(), "UNKNOWN")
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %T: %v", err, err)
	}
	if fetchErr.Item != "UNKNOWN" {
		t.Errorf("expected item UNKNOWN, got %q", fetchErr.Item)
	}
}

func TestMarketDataService_GetPriceHistory(t *testing.T) {
	resetBreakers()

	base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v8/finance/chart/TCS.NS" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("range"); got != "5y" {
			t.Errorf("expected range=5y, got %q", got)
		}
		if got := r.URL.Query().Get("interval"); got != "1mo" {
			t.Errorf("expected interval=1mo, got %q", got)
		}
		fmt.Fprintf(w, `{"chart":{"result":[{"timestamp":[%d,%d,%d],"indicators":{"quote":[{"close":[3500.25,null,3610.75]}]}}],"error":null}}`,
			base.Unix(), base.AddDate(0, 1, 0).Unix(), base.AddDate(0, 2, 0).Unix())
	}))
	defer server.Close()

	svc := NewMarketDataService(server.URL, ".NS", 5)
	svc.SetRetryConfig(testRetryConfig())

	history, err := svc.GetPriceHistory(context.Background(), "TCS")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The null close in the middle month is dropped
	if len(history) != 2 {
		t.Fatalf("expected 2 price points, got %d", len(history))
	}
	if history[0].Close != 3500.25 {
		t.Errorf("expected first close 3500.25, got %v", history[0].Close)
	}
	if !history[0].Date.Equal(base) {
		t.Errorf("expected first date %v, got %v", base, history[0].Date)
	}
	if history[1].Close != 3610.75 {
		t.Errorf("expected second close 3610.75, got %v", history[1].Close)
	}
}

func TestMarketDataService_GetPriceHistory_WindowYears(t *testing.T) {
	resetBreakers()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("range"); got != "10y" {
			t.Errorf("expected range=10y, got %q", got)
		}
		fmt.Fprint(w, `{"chart":{"result":[{"timestamp":[1700000000],"indicators":{"quote":[{"close":[100.0]}]}}],"error":null}}`)
	}))
	defer server.Close()

	svc := NewMarketDataService(server.URL, ".NS", 10)
	svc.SetRetryConfig(testRetryConfig())

	if _, err := svc.GetPriceHistory(context.Background(), "ANY"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMarketDataService_GetPriceHistory_APIError(t *testing.T) {
	resetBreakers()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[],"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	}))
	defer server.Close()

	svc := NewMarketDataService(server.URL, ".NS", 5)
	svc.SetRetryConfig(testRetryConfig())

	_, err := svc.GetPriceHistory(context.Background(), "DELISTED")
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %T: %v", err, err)
	}
}
