package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/linkforge/linkforge/app/services"
	"github.com/linkforge/linkforge/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registrarClientFor(server *httptest.Server) services.RegistrarService {
	return services.NewRegistrarClient(&config.RegistrarConfig{
		BaseURL:    server.URL,
		APIKey:     "test-api-key",
		PriceScale: 10000,
	})
}

func TestRegistrarClientSearch(t *testing.T) {
	t.Run("AvailableWithPrice", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/domains/search", r.URL.Path)
			assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))

			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "mybrand.com", body["query"])

			_, _ = w.Write([]byte(`{
				"success": true,
				"result": [{"name": "mybrand.com", "available": true, "price": 12000000, "currency": "USD"}]
			}`))
		}))
		defer server.Close()

		result, err := registrarClientFor(server).Search(context.Background(), "mybrand.com")
		require.NoError(t, err)
		assert.Equal(t, services.SearchOutcomeAvailable, result.Outcome)
		assert.Equal(t, "mybrand.com", result.Domain)
		assert.Equal(t, int64(1200), result.PriceCents)
		assert.Equal(t, "USD", result.Currency)
	})

	t.Run("ReservedByOther", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{
				"success": true,
				"result": [{"name": "claimed.com", "available": false, "reserved": true}]
			}`))
		}))
		defer server.Close()

		result, err := registrarClientFor(server).Search(context.Background(), "claimed.com")
		require.NoError(t, err)
		assert.Equal(t, services.SearchOutcomeReservedByOther, result.Outcome)
	})

	t.Run("EmptyResultIsTaken", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success": true, "result": []}`))
		}))
		defer server.Close()

		result, err := registrarClientFor(server).Search(context.Background(), "occupied.com")
		require.NoError(t, err)
		assert.Equal(t, services.SearchOutcomeTaken, result.Outcome)
	})

	t.Run("ServerErrorIsUnavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := registrarClientFor(server).Search(context.Background(), "mybrand.com")
		require.Error(t, err)
		assert.ErrorIs(t, err, services.ErrRegistrarUnavailable)
	})

	t.Run("MalformedBodyIsUnavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer server.Close()

		_, err := registrarClientFor(server).Search(context.Background(), "mybrand.com")
		require.Error(t, err)
		assert.ErrorIs(t, err, services.ErrRegistrarUnavailable)
	})

	t.Run("UnreachableHostIsUnavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close() // shut down before the call

		_, err := registrarClientFor(server).Search(context.Background(), "mybrand.com")
		require.Error(t, err)
		assert.ErrorIs(t, err, services.ErrRegistrarUnavailable)
	})
}

func TestRegistrarClientReserve(t *testing.T) {
	t.Run("Accepted", func(t *testing.T) {
		var got services.ReserveRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/domains/reserve", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		err := registrarClientFor(server).Reserve(context.Background(), services.ReserveRequest{
			LinkID:          "page-uuid",
			Domain:          "mybrand.com",
			ReservationType: "buy_new",
		})
		require.NoError(t, err)
		assert.Equal(t, "mybrand.com", got.Domain)
		assert.Equal(t, "page-uuid", got.LinkID)
	})

	t.Run("ConflictSurfacesServerMessage", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error": "domain was reserved moments ago"}`))
		}))
		defer server.Close()

		err := registrarClientFor(server).Reserve(context.Background(), services.ReserveRequest{Domain: "mybrand.com"})
		require.Error(t, err)

		var rejected *services.ReserveRejectedError
		require.ErrorAs(t, err, &rejected)
		assert.Equal(t, "domain was reserved moments ago", rejected.Message)
	})

	t.Run("ErrorWithoutBodyIsUnavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		err := registrarClientFor(server).Reserve(context.Background(), services.ReserveRequest{Domain: "mybrand.com"})
		require.Error(t, err)
		assert.ErrorIs(t, err, services.ErrRegistrarUnavailable)
	})
}

func TestPaymentClientSubmit(t *testing.T) {
	t.Run("RedirectHandoff", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/payments/submit", r.URL.Path)

			var body services.SubmitPaymentRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, int64(12000), body.Amount)
			assert.False(t, body.StoredMethod)

			_, _ = w.Write([]byte(`{"paid": false, "redirect_token": "tok-1", "redirect_url": "https://gateway.example.com/pay/tok-1"}`))
		}))
		defer server.Close()

		client := services.NewPaymentClient(&config.PaymentConfig{
			BaseURL: server.URL,
			APIKey:  "test-api-key",
		})
		result, err := client.Submit(context.Background(), services.SubmitPaymentRequest{
			InvoiceID: "inv-1",
			Amount:    12000,
			Currency:  "USD",
		})
		require.NoError(t, err)
		assert.False(t, result.Paid)
		assert.Equal(t, "tok-1", result.RedirectToken)
		assert.NotEmpty(t, result.RedirectURL)
	})

	t.Run("SynchronousSettlement", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body services.SubmitPaymentRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.True(t, body.StoredMethod)

			_, _ = w.Write([]byte(`{"paid": true, "reference": "ref-42"}`))
		}))
		defer server.Close()

		client := services.NewPaymentClient(&config.PaymentConfig{BaseURL: server.URL})
		result, err := client.Submit(context.Background(), services.SubmitPaymentRequest{
			InvoiceID:    "inv-2",
			Amount:       3000,
			Currency:     "USD",
			StoredMethod: true,
		})
		require.NoError(t, err)
		assert.True(t, result.Paid)
		assert.Equal(t, "ref-42", result.Reference)
		assert.Empty(t, result.RedirectToken)
	})

	t.Run("GatewayErrorIsUnavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := services.NewPaymentClient(&config.PaymentConfig{BaseURL: server.URL})
		_, err := client.Submit(context.Background(), services.SubmitPaymentRequest{InvoiceID: "inv-3"})
		require.Error(t, err)
		assert.ErrorIs(t, err, services.ErrPaymentGatewayUnavailable)
	})
}

func TestPaymentCallbackPaid(t *testing.T) {
	paid := services.PaymentCallback{Status: "paid"}
	failed := services.PaymentCallback{Status: "failed"}
	assert.True(t, paid.Paid())
	assert.False(t, failed.Paid())
}
