package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"discount-screener/models"
	"discount-screener/observability"
)

const constituentLinkText = "index constituent"

// IndexSourceService resolves the constituent list of an index by scraping
// the index overview page for its constituent CSV download and parsing it.
type IndexSourceService struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	retry      RetryConfig
}

// NewIndexSourceService creates a new IndexSourceService instance
func NewIndexSourceService(baseURL, userAgent string) *IndexSourceService {
	return &IndexSourceService{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retry:      DefaultRetryConfig,
	}
}

// GetConstituents fetches the index page at indexPath, locates the
// constituent CSV link, downloads it and returns the parsed constituents.
func (s *IndexSourceService) GetConstituents(ctx context.Context, indexPath string) ([]models.IndexConstituent, error) {
	return WithCircuitBreaker(ctx, BreakerIndexSource, func() ([]models.IndexConstituent, error) {
		var constituents []models.IndexConstituent

		err := WithRetry(ctx, s.retry, func() error {
			csvURL, err := s.findConstituentCSV(ctx, indexPath)
			if err != nil {
				return err
			}

			constituents, err = s.downloadConstituents(ctx, csvURL)
			return err
		})

		if err != nil {
			return nil, &FetchError{Source: "index-source", Item: indexPath, Err: err}
		}

		return constituents, nil
	})
}

// findConstituentCSV scrapes the index page for the constituent download link
// and resolves it to an absolute URL.
func (s *IndexSourceService) findConstituentCSV(ctx context.Context, indexPath string) (string, error) {
	pageURL := s.baseURL + indexPath

	timer := observability.GetMetrics().NewTimer()
	observability.GetMetrics().RecordExternalAPIRequest("index-source", "index_page")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create index page request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		observability.GetMetrics().RecordExternalAPIError("index-source", "index_page")
		return "", fmt.Errorf("failed to fetch index page: %w", err)
	}
	defer resp.Body.Close()
	timer.ObserveExternalAPI("index-source", "index_page")

	if resp.StatusCode != http.StatusOK {
		observability.GetMetrics().RecordExternalAPIError("index-source", "index_page")
		return "", fmt.Errorf("index page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse index page: %w", err)
	}

	var href string
	doc.Find("a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(sel.Text()), constituentLinkText) {
			return true
		}
		if h, ok := sel.Attr("href"); ok && h != "" {
			href = h
			return false
		}
		return true
	})

	if href == "" {
		return "", fmt.Errorf("no constituent link found on index page %s", indexPath)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse page URL: %w", err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("failed to parse constituent link %q: %w", href, err)
	}

	return base.ResolveReference(ref).String(), nil
}

// downloadConstituents fetches and parses the constituent CSV. The file is
// keyed by header names so column reordering upstream does not break us.
func (s *IndexSourceService) downloadConstituents(ctx context.Context, csvURL string) ([]models.IndexConstituent, error) {
	timer := observability.GetMetrics().NewTimer()
	observability.GetMetrics().RecordExternalAPIRequest("index-source", "constituent_csv")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, csvURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		observability.GetMetrics().RecordExternalAPIError("index-source", "constituent_csv")
		return nil, fmt.Errorf("failed to fetch constituent CSV: %w", err)
	}
	defer resp.Body.Close()
	timer.ObserveExternalAPI("index-source", "constituent_csv")

	if resp.StatusCode != http.StatusOK {
		observability.GetMetrics().RecordExternalAPIError("index-source", "constituent_csv")
		return nil, fmt.Errorf("constituent CSV returned status %d", resp.StatusCode)
	}

	return parseConstituentCSV(resp.Body)
}

// parseConstituentCSV reads a constituent file with at least the columns
// Symbol, Company Name, Industry and ISIN Code.
func parseConstituentCSV(r io.Reader) ([]models.IndexConstituent, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	symbolCol, ok := cols["symbol"]
	if !ok {
		return nil, fmt.Errorf("constituent CSV missing Symbol column, got header %v", header)
	}
	nameCol := columnIndex(cols, "company name")
	industryCol := columnIndex(cols, "industry")
	isinCol := columnIndex(cols, "isin code")

	var constituents []models.IndexConstituent
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		symbol := strings.TrimSpace(fieldAt(record, symbolCol))
		if symbol == "" {
			continue
		}

		constituents = append(constituents, models.IndexConstituent{
			Symbol:      symbol,
			CompanyName: strings.TrimSpace(fieldAt(record, nameCol)),
			Industry:    strings.TrimSpace(fieldAt(record, industryCol)),
			ISIN:        strings.TrimSpace(fieldAt(record, isinCol)),
		})
	}

	if len(constituents) == 0 {
		return nil, fmt.Errorf("constituent CSV contained no rows")
	}

	return constituents, nil
}

func columnIndex(cols map[string]int, name string) int {
	if i, ok := cols[name]; ok {
		return i
	}
	return -1
}

func fieldAt(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}

// SetRetryConfig overrides the retry policy, mainly to shrink backoff in tests.
func (s *IndexSourceService) SetRetryConfig(cfg RetryConfig) {
	s.retry = cfg
}

// Compile-time interface verification
var _ IndexSourceInterface = (*IndexSourceService)(nil)
