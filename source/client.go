package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/Versteel/Shipping-Form-Creator-sub000/repository/models"
)

// Client reads canonical orders from the order-management gateway
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     cmtlog.Logger
}

// NewClient creates a new gateway client
func NewClient(endpoint string, timeout time.Duration, logger cmtlog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchByOrderKey returns the canonical document for one order. A missing
// order is reported as found == false with a nil error.
func (c *Client) FetchByOrderKey(ctx context.Context, key models.OrderKey) (*models.Document, bool, error) {
	u := fmt.Sprintf("%s/orders/%d/%d", c.endpoint, key.OrderNumber, key.Suffix)

	var rows OrderRows
	found, err := c.getJSON(ctx, u, &rows)
	if err != nil || !found {
		return nil, false, err
	}

	doc, err := MapOrder(rows)
	if err != nil {
		return nil, false, err
	}
	c.logger.Debug("Fetched order from gateway", "order", key.String(), "lines", len(doc.LineItems))
	return doc, true, nil
}

// FetchAllShippedOn returns the canonical documents of every order shipping on date
func (c *Client) FetchAllShippedOn(ctx context.Context, date time.Time) ([]models.Document, error) {
	q := url.Values{}
	q.Set("date", date.Format(time.DateOnly))
	u := fmt.Sprintf("%s/shipments?%s", c.endpoint, q.Encode())

	var orders []OrderRows
	if _, err := c.getJSON(ctx, u, &orders); err != nil {
		return nil, err
	}

	docs := make([]models.Document, 0, len(orders))
	for _, rows := range orders {
		doc, err := MapOrder(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	c.logger.Debug("Fetched shipments from gateway", "date", date.Format(time.DateOnly), "orders", len(docs))
	return docs, nil
}

// HealthCheck checks if the gateway is reachable
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/status", nil)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("order gateway is unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("order gateway health check failed with status: %d", resp.StatusCode)
	}
	return nil
}

// getJSON decodes a JSON body into out. 404 yields found == false.
func (c *Client) getJSON(ctx context.Context, u string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to send request to order gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read order gateway response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("order gateway returned error status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("failed to parse order gateway response: %w", err)
	}
	return true, nil
}
