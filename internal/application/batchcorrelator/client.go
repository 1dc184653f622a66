package batchcorrelator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/rosklyar/prompts-volume-sub000/internal/config"
	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// TriggerItem is one per-input payload entry sent to the scraper (spec §4.4).
type TriggerItem struct {
	URL             string `json:"url,omitempty"`
	Prompt          string `json:"prompt"`
	Country         string `json:"country,omitempty"`
	WebSearch       bool   `json:"web_search"`
	RequireSources  bool   `json:"require_sources"`
	AdditionalPrompt string `json:"additional_prompt,omitempty"`
}

// Client triggers the external scraper and classifies transport failures
// per spec §4.4's taxonomy, grounded on the teacher's http.Client executor
// style (telegram_callback.go).
type Client struct {
	httpClient *http.Client
	cfg        config.BatchCorrelatorConfig
	endpoint   string
}

func NewClient(cfg config.BatchCorrelatorConfig, endpoint string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cfg:        cfg,
		endpoint:   endpoint,
	}
}

// Trigger builds and sends a batch request. webhookURL/authHeader are
// encoded as query parameters per the provider's callback wiring
// convention; the request body itself is bearer-authenticated.
func (c *Client) Trigger(ctx context.Context, batchID string, items []TriggerItem, webhookURL, authHeader string) error {
	q := url.Values{}
	q.Set("endpoint", webhookURL)
	q.Set("auth_header", authHeader)
	q.Set("format", "json")
	q.Set("dataset_id", c.cfg.DatasetID)

	reqURL := fmt.Sprintf("%s?%s", c.endpoint, q.Encode())

	body, err := json.Marshal(map[string]any{
		"batch_id": batchID,
		"input":    items,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal trigger payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build trigger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.ScraperToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return pkgmodels.ClassifyProviderError(0, true, false)
		}
		return pkgmodels.ClassifyProviderError(0, false, true)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return pkgmodels.ClassifyProviderError(resp.StatusCode, false, false)
	}
	return nil
}
