// Package checkout provides the RPC client for the external atomic
// checkout procedures. The procedures own all credit mutation; this client
// only invokes them and relays the closed result enum.
package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/leadqual/backend/internal/domain/billing"
)

const (
	procedureSubscribe = "mock_checkout_subscribe"
	procedureTopup     = "mock_checkout_topup"

	defaultTimeout = 15 * time.Second
)

// Config holds checkout client configuration
type Config struct {
	Endpoint string        // Base URL of the checkout RPC endpoint
	Timeout  time.Duration // Per-call timeout; zero uses the default
}

// RPCClient implements CheckoutGateway against the checkout RPC endpoint.
type RPCClient struct {
	endpoint   string
	httpClient *http.Client
}

var _ billing.CheckoutGateway = (*RPCClient)(nil)

// NewRPCClient creates a new checkout RPC client
func NewRPCClient(cfg Config) (*RPCClient, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("checkout endpoint cannot be empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &RPCClient{
		endpoint: cfg.Endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// rpcRequest is the wire shape of a procedure invocation
type rpcRequest struct {
	Procedure      string `json:"procedure"`
	OrganizationID string `json:"organization_id"`
	ItemID         string `json:"item_id"`
}

// Subscribe invokes mock_checkout_subscribe for the organization
func (c *RPCClient) Subscribe(ctx context.Context, organizationID uuid.UUID, planID string) (billing.CheckoutResult, error) {
	return c.invoke(ctx, rpcRequest{
		Procedure:      procedureSubscribe,
		OrganizationID: organizationID.String(),
		ItemID:         planID,
	})
}

// Topup invokes mock_checkout_topup for the organization
func (c *RPCClient) Topup(ctx context.Context, organizationID uuid.UUID, packageID string) (billing.CheckoutResult, error) {
	return c.invoke(ctx, rpcRequest{
		Procedure:      procedureTopup,
		OrganizationID: organizationID.String(),
		ItemID:         packageID,
	})
}

func (c *RPCClient) invoke(ctx context.Context, reqBody rpcRequest) (billing.CheckoutResult, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return billing.CheckoutResult{}, fmt.Errorf("failed to encode checkout request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return billing.CheckoutResult{}, fmt.Errorf("failed to build checkout request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return billing.CheckoutResult{}, fmt.Errorf("checkout call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return billing.CheckoutResult{}, fmt.Errorf("failed to read checkout response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return billing.CheckoutResult{}, fmt.Errorf("checkout returned HTTP %d", resp.StatusCode)
	}

	var result billing.CheckoutResult
	if err := json.Unmarshal(body, &result); err != nil {
		return billing.CheckoutResult{}, fmt.Errorf("failed to decode checkout response: %w", err)
	}
	return result, nil
}
