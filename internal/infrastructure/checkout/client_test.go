package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadqual/backend/internal/domain/billing"
)

func TestNewRPCClient(t *testing.T) {
	t.Run("requires an endpoint", func(t *testing.T) {
		client, err := NewRPCClient(Config{})
		assert.Error(t, err)
		assert.Nil(t, client)
	})

	t.Run("applies default timeout", func(t *testing.T) {
		client, err := NewRPCClient(Config{Endpoint: "http://checkout.internal/rpc"})
		require.NoError(t, err)
		assert.Equal(t, defaultTimeout, client.httpClient.Timeout)
	})
}

func TestRPCClient_Subscribe(t *testing.T) {
	orgID := uuid.New()

	t.Run("invokes the subscribe procedure", func(t *testing.T) {
		var got rpcRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			json.NewEncoder(w).Encode(billing.CheckoutResult{Status: billing.CheckoutStatusSuccess})
		}))
		defer server.Close()

		client, err := NewRPCClient(Config{Endpoint: server.URL})
		require.NoError(t, err)

		result, err := client.Subscribe(context.Background(), orgID, "premium_monthly")
		require.NoError(t, err)
		assert.Equal(t, billing.CheckoutStatusSuccess, result.Status)
		assert.Equal(t, "mock_checkout_subscribe", got.Procedure)
		assert.Equal(t, orgID.String(), got.OrganizationID)
		assert.Equal(t, "premium_monthly", got.ItemID)
	})

	t.Run("relays failed results with reasons", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(billing.CheckoutResult{
				Status: billing.CheckoutStatusFailed,
				Reason: "payment_declined",
			})
		}))
		defer server.Close()

		client, err := NewRPCClient(Config{Endpoint: server.URL})
		require.NoError(t, err)

		result, err := client.Subscribe(context.Background(), orgID, "premium_monthly")
		require.NoError(t, err)
		assert.Equal(t, billing.CheckoutStatusFailed, result.Status)
		assert.Equal(t, "payment_declined", result.Reason)
	})

	t.Run("non-200 response is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client, err := NewRPCClient(Config{Endpoint: server.URL})
		require.NoError(t, err)

		_, err = client.Subscribe(context.Background(), orgID, "premium_monthly")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP 502")
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer server.Close()

		client, err := NewRPCClient(Config{Endpoint: server.URL})
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err = client.Subscribe(ctx, orgID, "premium_monthly")
		assert.Error(t, err)
	})
}

func TestRPCClient_Topup(t *testing.T) {
	orgID := uuid.New()

	var got rpcRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(billing.CheckoutResult{Status: billing.CheckoutStatusBlocked, Reason: "not_premium"})
	}))
	defer server.Close()

	client, err := NewRPCClient(Config{Endpoint: server.URL})
	require.NoError(t, err)

	result, err := client.Topup(context.Background(), orgID, "topup_50")
	require.NoError(t, err)
	assert.Equal(t, "mock_checkout_topup", got.Procedure)
	assert.Equal(t, "topup_50", got.ItemID)
	assert.Equal(t, billing.CheckoutStatusBlocked, result.Status)
}
