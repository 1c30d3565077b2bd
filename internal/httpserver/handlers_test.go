package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/KestrelPay/router/internal/config"
	"github.com/KestrelPay/router/internal/customers"
	"github.com/KestrelPay/router/internal/feedback"
	"github.com/KestrelPay/router/internal/health"
	"github.com/KestrelPay/router/internal/ingestion"
	"github.com/KestrelPay/router/internal/intelligence"
	"github.com/KestrelPay/router/internal/merchants"
	"github.com/KestrelPay/router/internal/payments"
	"github.com/KestrelPay/router/internal/precalc"
	"github.com/KestrelPay/router/internal/processors"
	"github.com/KestrelPay/router/internal/routing"
	"github.com/KestrelPay/router/internal/storage"
	"github.com/KestrelPay/router/internal/strategy"
	"github.com/KestrelPay/router/internal/subscriptions"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := config.Default()
	cfg.Server.RateLimit = 0

	performanceRepo := intelligence.NewPerformanceRepository(
		storage.NewMemoryKeyValueStore[[]routing.ProviderPerformance]())

	engine := routing.NewEngine(routing.EngineConfig{
		Fees:            routing.DefaultFeeTable(),
		Performance:     performanceRepo,
		Health:          health.NewMemoryReader(),
		Strategy:        strategy.NewLeastCost(),
		Fallback:        strategy.NewLeastCost(),
		DefaultProvider: routing.ProviderStripe,
		Logger:          zerolog.Nop(),
	})

	merchantRepo := merchants.NewMemoryRepository()
	customerRepo := customers.NewMemoryRepository()
	subRepo := subscriptions.NewMemoryRepository()

	chargeSvc := payments.NewService(payments.ServiceConfig{
		Payments:        payments.NewMemoryRepository(),
		Merchants:       merchantRepo,
		Customers:       customerRepo,
		Router:          engine,
		Registry:        processors.DefaultRegistry(),
		Precalc:         precalc.NewKVRepository(storage.NewMemoryKeyValueStore[precalc.Route]()),
		Collector:       feedback.NewCollector(feedback.NewMemoryStore()),
		DefaultProvider: routing.ProviderStripe,
		Logger:          zerolog.Nop(),
	})

	ingestor := ingestion.NewIngestor(performanceRepo,
		intelligence.NewAggregator(0.30, 2.9), zerolog.Nop())

	return New(cfg, chargeSvc, merchantRepo, customerRepo, subRepo,
		performanceRepo, ingestor, zerolog.Nop())
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var parsed map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
			t.Fatalf("%s %s: bad json response %q", method, path, rec.Body.String())
		}
	}
	return rec, parsed
}

func TestChargeFlow(t *testing.T) {
	server := newTestServer(t)
	handler := server.Handler()

	rec, merchant := doJSON(t, handler, http.MethodPost, "/v1/merchants",
		`{"name": "Acme", "email": "ops@acme.test", "mcc": "5411", "country": "US", "currency": "USD", "tax_id": "tax-1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create merchant: %d %s", rec.Code, rec.Body.String())
	}
	merchantID := merchant["id"].(string)

	rec, customer := doJSON(t, handler, http.MethodPost, "/v1/customers",
		`{"merchant_id": "`+merchantID+`", "name": "Jordan", "email": "j@acme.test", "payment_method_token": "tok_visa"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create customer: %d %s", rec.Code, rec.Body.String())
	}
	customerID := customer["id"].(string)

	rec, payment := doJSON(t, handler, http.MethodPost, "/v1/charges",
		`{"merchant_id": "`+merchantID+`", "customer_id": "`+customerID+`", "amount": 100, "currency": "USD", "description": "order 1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create charge: %d %s", rec.Code, rec.Body.String())
	}
	if payment["status"] != "completed" {
		t.Errorf("expected completed payment, got %v", payment["status"])
	}
	// Adyen has the lowest default fees for a 100 USD domestic charge.
	if payment["provider"] != "adyen" {
		t.Errorf("expected least-cost adyen, got %v", payment["provider"])
	}

	rec, fetched := doJSON(t, handler, http.MethodGet, "/v1/payments/"+payment["id"].(string), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get payment: %d", rec.Code)
	}
	if fetched["id"] != payment["id"] {
		t.Errorf("fetched wrong payment")
	}
}

func TestChargeUnknownMerchant(t *testing.T) {
	server := newTestServer(t)

	rec, _ := doJSON(t, server.Handler(), http.MethodPost, "/v1/charges",
		`{"merchant_id": "ghost", "customer_id": "c1", "amount": 10, "currency": "USD"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestIngestEndpoint(t *testing.T) {
	server := newTestServer(t)
	handler := server.Handler()

	csv := "id,amount,currency,fee,net,type,created,card_brand,card_country,status\n" +
		"txn_1,120.50,usd,3.80,116.70,charge,2026-06-01 10:15:00,Visa,US,available\n"
	req := httptest.NewRequest(http.MethodPost, "/v1/routing/ingest?source=stripe", strings.NewReader(csv))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("ingest: %d %s", rec.Code, rec.Body.String())
	}

	rec2, listing := doJSON(t, handler, http.MethodGet, "/v1/routing/performance", "")
	if rec2.Code != http.StatusOK {
		t.Fatalf("performance listing: %d", rec2.Code)
	}
	if listing["count"].(float64) != 1 {
		t.Errorf("expected 1 performance record, got %v", listing["count"])
	}
}

func TestHealthz(t *testing.T) {
	server := newTestServer(t)
	rec, body := doJSON(t, server.Handler(), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("healthz: %d %v", rec.Code, body)
	}
}
