// Package stats is a thin client for an SDMX-style statistics-agency API.
// It lists available dataflows and retrieves their data in CSV or JSON form.
package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/datalode/assetscout/internal/asset"
)

const defaultTimeout = 15 * time.Second

// Option configures the client.
type Option func(*Client)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// Client calls the agency's REST endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a stats client. baseURL is the root of the agency REST API.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("stats base url is required")
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

type dataflowResponse struct {
	Data struct {
		Dataflows []struct {
			ID          string `json:"id"`
			AgencyID    string `json:"agencyID"`
			Version     string `json:"version"`
			Name        string `json:"name"`
			Description string `json:"description"`
		} `json:"dataflows"`
	} `json:"data"`
}

// ListDataflows returns the dataflows whose name or description contains the
// keyword (case-insensitive). An empty keyword returns everything.
func (c *Client) ListDataflows(ctx context.Context, keyword string) ([]asset.Dataflow, error) {
	endpoint := c.baseURL + "/rest/dataflow?detail=allstubs"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build dataflow request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.sdmx.structure+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dataflow request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dataflow list returned status %d", resp.StatusCode)
	}

	var parsed dataflowResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode dataflow response: %w", err)
	}

	needle := strings.ToLower(keyword)
	flows := make([]asset.Dataflow, 0, len(parsed.Data.Dataflows))
	for _, df := range parsed.Data.Dataflows {
		if needle != "" &&
			!strings.Contains(strings.ToLower(df.Name), needle) &&
			!strings.Contains(strings.ToLower(df.Description), needle) {
			continue
		}
		flows = append(flows, asset.Dataflow{
			ID:          df.ID,
			AgencyID:    df.AgencyID,
			Version:     df.Version,
			Name:        df.Name,
			Description: df.Description,
		})
	}
	return flows, nil
}

// GetData retrieves the observations of a dataflow. format selects the
// representation: "csv" or "json".
func (c *Client) GetData(ctx context.Context, dataflowID string, format string) ([]byte, error) {
	if dataflowID == "" {
		return nil, fmt.Errorf("dataflow id is required")
	}
	endpoint := fmt.Sprintf("%s/rest/data/%s/all", c.baseURL, dataflowID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build data request: %w", err)
	}
	switch strings.ToLower(format) {
	case "csv":
		req.Header.Set("Accept", "application/vnd.sdmx.data+csv")
	default:
		req.Header.Set("Accept", "application/vnd.sdmx.data+json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("data request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("data fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read data response: %w", err)
	}
	return body, nil
}
