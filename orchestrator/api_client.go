package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIClient is the HTTP implementation of Backend against the dare API.
type APIClient struct {
	BaseURL string
	Client  *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *APIClient) CreateSimulated(ctx context.Context, form *DareForm) (*DareReceipt, error) {
	var out DareReceipt
	if err := c.post(ctx, "/api/bounties", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) InitDare(ctx context.Context, form *DareForm) (*InitResult, error) {
	var out InitResult
	if err := c.post(ctx, "/api/bounties/init", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) RegisterFunding(ctx context.Context, dareID, txHash string) (*DareReceipt, error) {
	payload := map[string]string{"dare_id": dareID, "tx_hash": txHash}
	var out DareReceipt
	if err := c.post(ctx, "/api/bounties/register", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// post sends JSON and decodes the {success, data|error} envelope into out.
func (c *APIClient) post(ctx context.Context, path string, payload, out interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call dare API: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("dare API returned status %d: %s", resp.StatusCode, string(body))
	}
	if !envelope.Success {
		if envelope.Error != "" {
			return fmt.Errorf("dare API error: %s", envelope.Error)
		}
		return fmt.Errorf("dare API returned status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to decode dare API response: %w", err)
		}
	}
	return nil
}
