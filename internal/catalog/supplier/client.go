package supplier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Product is one catalogue entry as returned by the supplier feed.
type Product struct {
	APIID        string   `json:"id"`
	Code         string   `json:"code"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Price        float64  `json:"price"`
	SalePrice    float64  `json:"sale_price"`
	Stock        int64    `json:"stock"`
	Images       []string `json:"images"`
	Colors       []string `json:"colors"`
	Sizes        []string `json:"sizes"`
	OriginalLink string   `json:"original_link"`
}

type page struct {
	Products []Product `json:"products"`
	HasMore  bool      `json:"has_more"`
}

// Client fetches the supplier's paginated product feed. Authentication is two
// static headers issued per integration account.
type Client struct {
	baseURL   string
	apiKey    string
	secretKey string
	http      *http.Client
}

// NewClient builds a feed client.
func NewClient(baseURL, apiKey, secretKey string) *Client {
	return &Client{
		baseURL:   baseURL,
		apiKey:    apiKey,
		secretKey: secretKey,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchPage returns one page of supplier products. Pages are 1-based.
func (c *Client) FetchPage(ctx context.Context, pageNum int) ([]Product, bool, error) {
	endpoint, err := url.Parse(c.baseURL + "/api/v1/products")
	if err != nil {
		return nil, false, fmt.Errorf("supplier: parse endpoint: %w", err)
	}
	q := endpoint.Query()
	q.Set("page", strconv.Itoa(pageNum))
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, false, fmt.Errorf("supplier: build request: %w", err)
	}
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("secret-key", c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("supplier: fetch page %d: %w", pageNum, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("supplier: fetch page %d: unexpected status %d", pageNum, resp.StatusCode)
	}

	var body page
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, false, fmt.Errorf("supplier: decode page %d: %w", pageNum, err)
	}
	return body.Products, body.HasMore, nil
}
