// Package quote fetches stock quotes from an Alpha Vantage style GLOBAL_QUOTE endpoint.
package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/DIMO-Network/ticker-relay/internal/relay"
)

const (
	// DefaultBaseURL is the Alpha Vantage query endpoint.
	DefaultBaseURL = "https://www.alphavantage.co/query"
	// DefaultCurrency is used when the provider does not report one.
	DefaultCurrency = "USD"

	defaultTimeout      = 10 * time.Second
	maxResponseBodySize = 1 << 20
	maxErrorBodySize    = 1024
)

// HTTPClient describes an HTTP client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a client for the quote provider.
type Client struct {
	// baseURL is the endpoint queried for every lookup.
	baseURL string
	// apiKey is sent as the apikey query parameter.
	apiKey string
	// defaultCurrency is reported when the response does not carry a currency.
	defaultCurrency string
	httpClient      HTTPClient
}

// Option is a configuration option for the quote client.
type Option func(*Client)

// WithBaseURL sets the endpoint for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithDefaultCurrency sets the currency reported when the provider does not send one.
func WithDefaultCurrency(currency string) Option {
	return func(c *Client) {
		if currency != "" {
			c.defaultCurrency = strings.ToUpper(currency)
		}
	}
}

// NewClient creates a new quote client.
func NewClient(apiKey string, options ...Option) *Client {
	client := &Client{
		baseURL:         DefaultBaseURL,
		apiKey:          apiKey,
		defaultCurrency: DefaultCurrency,
		httpClient:      &http.Client{Timeout: defaultTimeout},
	}
	for _, option := range options {
		option(client)
	}
	return client
}

// globalQuoteResponse is the GLOBAL_QUOTE response body. Throttled calls carry Note or Information instead of data.
type globalQuoteResponse struct {
	GlobalQuote  *globalQuote `json:"Global Quote"`
	Note         string       `json:"Note,omitempty"`
	Information  string       `json:"Information,omitempty"`
	ErrorMessage string       `json:"Error Message,omitempty"`
}

type globalQuote struct {
	Symbol        string `json:"01. symbol"`
	Name          string `json:"name,omitempty"`
	Price         string `json:"05. price"`
	Change        string `json:"09. change"`
	ChangePercent string `json:"10. change percent"`
	Currency      string `json:"currency,omitempty"`
}

// FetchQuote looks up symbol. Transport and decoding failures are returned as errors wrapping relay.ErrProvider;
// a missing or empty result is reported as NotFound.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (Outcome, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: quote provider API key is not set", relay.ErrConfiguration)
	}

	reqURL, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid quote provider URL: %w", relay.ErrConfiguration, err)
	}
	query := reqURL.Query()
	query.Set("function", "GLOBAL_QUOTE")
	query.Set("symbol", symbol)
	query.Set("apikey", c.apiKey)
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create quote request: %w", relay.ErrProvider, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query quote provider: %w", relay.ErrProvider, err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, fmt.Errorf("%w: quote provider returned status code %d: %s", relay.ErrProvider, resp.StatusCode, string(respBody))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read quote response: %w", relay.ErrProvider, err)
	}

	var decoded globalQuoteResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: failed to decode quote response: %w", relay.ErrProvider, err)
	}

	return c.toOutcome(symbol, &decoded)
}

func (c *Client) toOutcome(symbol string, resp *globalQuoteResponse) (Outcome, error) {
	if note := rateLimitNote(resp); note != "" {
		return RateLimited{Message: note}, nil
	}
	if resp.GlobalQuote == nil || strings.TrimSpace(resp.GlobalQuote.Price) == "" {
		return NotFound{Symbol: symbol}, nil
	}

	raw := resp.GlobalQuote
	price, err := parseNumber(raw.Price)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid price %q for %s: %w", relay.ErrProvider, raw.Price, symbol, err)
	}
	q := Quote{
		Symbol:   symbol,
		Name:     strings.TrimSpace(raw.Name),
		Price:    price,
		Currency: c.defaultCurrency,
	}
	if raw.Symbol != "" {
		q.Symbol = raw.Symbol
	}
	if raw.Currency != "" {
		q.Currency = strings.ToUpper(raw.Currency)
	}
	if q.Change, err = parseOptionalNumber(raw.Change); err != nil {
		return nil, fmt.Errorf("%w: invalid change %q for %s: %w", relay.ErrProvider, raw.Change, symbol, err)
	}
	if q.ChangePercent, err = parseOptionalNumber(raw.ChangePercent); err != nil {
		return nil, fmt.Errorf("%w: invalid change percent %q for %s: %w", relay.ErrProvider, raw.ChangePercent, symbol, err)
	}
	return Found{Quote: q}, nil
}

func rateLimitNote(resp *globalQuoteResponse) string {
	if note := strings.TrimSpace(resp.Note); note != "" {
		return note
	}
	return strings.TrimSpace(resp.Information)
}

func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	return strconv.ParseFloat(s, 64)
}

func parseOptionalNumber(s string) (*float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	v, err := parseNumber(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
