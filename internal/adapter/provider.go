package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 10 * time.Second

// Provider is the HTTP implementation of PaymentGateway against the payment
// service: POST <base>/api/payments with a JSON body.
type Provider struct {
	httpClient *http.Client
	baseURL    string
}

// NewProvider creates a Provider for the given base URL. A nil client gets a
// default with a 10s timeout; no global client is shared.
func NewProvider(baseURL string, client *http.Client) *Provider {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Provider{httpClient: client, baseURL: baseURL}
}

// Pay performs a single round trip. Non-2xx statuses and transport failures
// come back as *ProviderError; the caller classifies and decides whether to
// retry.
func (p *Provider) Pay(ctx context.Context, req PaymentRequest) (*PaymentResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal payment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/payments", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build payment request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var paymentResp PaymentResponse
	if err := json.Unmarshal(respBody, &paymentResp); err != nil {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Body: string(respBody), Err: err}
	}
	return &paymentResp, nil
}
