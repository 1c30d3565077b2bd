package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/KestrelPay/router/internal/apperrors"
	"github.com/KestrelPay/router/internal/customers"
	"github.com/KestrelPay/router/internal/ingestion"
	"github.com/KestrelPay/router/internal/merchants"
	"github.com/KestrelPay/router/internal/routing"
	"github.com/KestrelPay/router/internal/subscriptions"
	"github.com/KestrelPay/router/pkg/responders"
)

func (s *handlers) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	responders.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeAppError maps the error taxonomy onto the HTTP surface.
func writeAppError(w http.ResponseWriter, err error) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		responders.Error(w, appErr.Code.HTTPStatus(), string(appErr.Code), appErr.Message)
		return
	}
	responders.Error(w, http.StatusInternalServerError, string(apperrors.ErrCodeInternalError), "internal error")
}

type chargePayload struct {
	MerchantID     string  `json:"merchant_id"`
	CustomerID     string  `json:"customer_id"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	Description    string  `json:"description"`
	Provider       string  `json:"provider"`
	SubscriptionID string  `json:"subscription_id"`

	PaymentMethod *routing.PaymentMethodHint `json:"payment_method"`
}

func (s *handlers) handleCreateCharge(w http.ResponseWriter, r *http.Request) {
	var payload chargePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		responders.Error(w, http.StatusBadRequest, string(apperrors.ErrCodeInvalidField), "malformed JSON body")
		return
	}

	req := routing.ChargeRequest{
		MerchantID:     payload.MerchantID,
		CustomerID:     payload.CustomerID,
		Amount:         payload.Amount,
		Currency:       payload.Currency,
		Description:    payload.Description,
		SubscriptionID: payload.SubscriptionID,
		PaymentMethod:  payload.PaymentMethod,
	}
	if payload.Provider != "" {
		provider, err := routing.ParseProvider(payload.Provider)
		if err != nil {
			responders.Error(w, http.StatusBadRequest, string(apperrors.ErrCodeInvalidProvider), err.Error())
			return
		}
		req.Provider = provider
	}

	payment, err := s.charges.CreateCharge(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	responders.JSON(w, http.StatusCreated, payment)
}

func (s *handlers) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := s.charges.GetPayment(r.Context(), chi.URLParam(r, "paymentID"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	responders.JSON(w, http.StatusOK, payment)
}

func (s *handlers) handleRefundPayment(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Amount float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		responders.Error(w, http.StatusBadRequest, string(apperrors.ErrCodeInvalidField), "malformed JSON body")
		return
	}

	resp, err := s.charges.RefundPayment(r.Context(), chi.URLParam(r, "paymentID"), payload.Amount)
	if err != nil {
		writeAppError(w, err)
		return
	}
	responders.JSON(w, http.StatusOK, resp)
}

type merchantPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	MCC      string `json:"mcc"`
	Country  string `json:"country"`
	Currency string `json:"currency"`
	TaxID    string `json:"tax_id"`
}

func (s *handlers) handleCreateMerchant(w http.ResponseWriter, r *http.Request) {
	var payload merchantPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		responders.Error(w, http.StatusBadRequest, string(apperrors.ErrCodeInvalidField), "malformed JSON body")
		return
	}
	if payload.Name == "" || payload.Email == "" {
		responders.Error(w, http.StatusBadRequest, string(apperrors.ErrCodeMissingField), "name and email are required")
		return
	}

	merchant := merchants.New(payload.Name, payload.Email, payload.MCC,
		payload.Country, payload.Currency, payload.TaxID)
	if err := s.merchants.Create(r.Context(), merchant); err != nil {
		if errors.Is(err, merchants.ErrDuplicateTaxID) {
			responders.Error(w, http.StatusConflict, string(apperrors.ErrCodeDuplicateMerchant), err.Error())
			return
		}
		writeAppError(w, err)
		return
	}
	responders.JSON(w, http.StatusCreated, merchant)
}

func (s *handlers) handleGetMerchant(w http.ResponseWriter, r *http.Request) {
	merchant, err := s.merchants.Get(r.Context(), chi.URLParam(r, "merchantID"))
	if err != nil {
		if errors.Is(err, merchants.ErrNotFound) {
			responders.Error(w, http.StatusNotFound, string(apperrors.ErrCodeMerchantNotFound), err.Error())
			return
		}
		writeAppError(w, err)
		return
	}
	responders.JSON(w, http.StatusOK, merchant)
}

type customerPayload struct {
	MerchantID         string `json:"merchant_id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	PaymentMethodToken string `json:"payment_method_token"`
}

func (s *handlers) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var payload customerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		responders.Error(w, http.StatusBadRequest, string(apperrors.ErrCodeInvalidField), "malformed JSON body")
		return
	}
	if payload.MerchantID == "" || payload.PaymentMethodToken == "" {
		responders.Error(w, http.StatusBadRequest, string(apperrors.ErrCodeMissingField),
			"merchant_id and payment_method_token are required")
		return
	}

	customer := customers.New(payload.MerchantID, payload.Name, payload.Email, payload.PaymentMethodToken)
	if err := s.customers.Create(r.Context(), customer); err != nil {
		writeAppError(w, err)
		return
	}
	responders.JSON(w, http.StatusCreated, customer)
}

func (s *handlers) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := s.customers.Get(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		if errors.Is(err, customers.ErrNotFound) {
			responders.Error(w, http.StatusNotFound, string(apperrors.ErrCodeCustomerNotFound), err.Error())
			return
		}
		writeAppError(w, err)
		return
	}
	responders.JSON(w, http.StatusOK, customer)
}

type subscriptionPayload struct {
	CustomerID    string    `json:"customer_id"`
	MerchantID    string    `json:"merchant_id"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	NextRenewalAt time.Time `json:"next_renewal_at"`
}

func (s *handlers) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var payload subscriptionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		responders.Error(w, http.StatusBadRequest, string(apperrors.ErrCodeInvalidField), "malformed JSON body")
		return
	}
	if payload.CustomerID == "" || payload.MerchantID == "" {
		responders.Error(w, http.StatusBadRequest, string(apperrors.ErrCodeMissingField),
			"customer_id and merchant_id are required")
		return
	}

	sub := subscriptions.New(payload.CustomerID, payload.MerchantID,
		payload.Amount, payload.Currency, payload.NextRenewalAt)
	if err := s.subs.Save(r.Context(), sub); err != nil {
		writeAppError(w, err)
		return
	}
	responders.JSON(w, http.StatusCreated, sub)
}

func (s *handlers) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := s.subs.Get(r.Context(), chi.URLParam(r, "subscriptionID"))
	if err != nil {
		if errors.Is(err, subscriptions.ErrNotFound) {
			responders.Error(w, http.StatusNotFound, string(apperrors.ErrCodeSubscriptionNotFound), err.Error())
			return
		}
		writeAppError(w, err)
		return
	}
	responders.JSON(w, http.StatusOK, sub)
}

// handleIngestReport accepts a vendor transaction report CSV
// (?source=stripe|adyen) and feeds it through the aggregation pipeline.
func (s *handlers) handleIngestReport(w http.ResponseWriter, r *http.Request) {
	var parser ingestion.RowParser
	switch r.URL.Query().Get("source") {
	case "stripe":
		parser = ingestion.StripeCSVParser{}
	case "adyen":
		parser = ingestion.AdyenCSVParser{}
	default:
		responders.Error(w, http.StatusBadRequest, string(apperrors.ErrCodeInvalidField),
			"source must be stripe or adyen")
		return
	}

	records, err := ingestion.ParseCSV(r.Body, parser)
	if err != nil {
		responders.Error(w, http.StatusBadRequest, string(apperrors.ErrCodeInvalidField), err.Error())
		return
	}

	rows, err := s.ingestor.IngestRecords(r.Context(), records)
	if err != nil {
		writeAppError(w, err)
		return
	}
	responders.JSON(w, http.StatusOK, map[string]int{
		"records":          len(records),
		"performance_rows": rows,
	})
}

func (s *handlers) handleListPerformance(w http.ResponseWriter, r *http.Request) {
	records, err := s.performance.All(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	responders.JSON(w, http.StatusOK, map[string]any{
		"count":   len(records),
		"records": records,
	})
}
