package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"
)

// HTTPClient resolves products against the catalog service over HTTP. Calls
// go through a circuit breaker so a degraded catalog fails checkout fast
// instead of tying up the pipeline worker.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*Product]
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	breaker := gobreaker.NewCircuitBreaker[*Product](gobreaker.Settings{
		Name:    "catalog",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		breaker: breaker,
	}
}

func (c *HTTPClient) Lookup(ctx context.Context, productID, variantID string) (*Product, error) {
	return c.breaker.Execute(func() (*Product, error) {
		return c.lookup(ctx, productID, variantID)
	})
}

func (c *HTTPClient) lookup(ctx context.Context, productID, variantID string) (*Product, error) {
	endpoint := fmt.Sprintf("%s/products/%s", c.baseURL, url.PathEscape(productID))
	if variantID != "" {
		endpoint += "?variant_id=" + url.QueryEscape(variantID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrProductNotFound
	default:
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	var p Product
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Price implements cart.PriceSource.
func (c *HTTPClient) Price(ctx context.Context, productID, variantID string) (int64, error) {
	p, err := c.Lookup(ctx, productID, variantID)
	if err != nil {
		return 0, err
	}
	if !p.Active {
		return 0, ErrProductUnavailable
	}
	return p.Price, nil
}
