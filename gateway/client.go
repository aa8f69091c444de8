// Package gateway bridges local order intent to the hosted payment
// provider. Raw card data never passes through this process: hosted
// checkout sessions redirect the customer to the provider, and direct
// charges accept tokenized payment sources only.
package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/conquestsam/African-Snakie/apperrors"
	"github.com/conquestsam/African-Snakie/models"
)

const (
	ModePayment      = "payment"
	ModeSubscription = "subscription"
)

type Client struct {
	apiURL    string
	secretKey string
	currency  string
	testMode  bool
	http      *http.Client
}

// NewClientFromEnv picks up the gateway configuration the same way the rest
// of the app reads its env: GATEWAY_API_URL, GATEWAY_SECRET_KEY, optional
// GATEWAY_CURRENCY (default usd) and GATEWAY_MODE=sandbox for test traffic.
func NewClientFromEnv() (*Client, error) {
	apiURL := os.Getenv("GATEWAY_API_URL")
	secretKey := os.Getenv("GATEWAY_SECRET_KEY")
	if apiURL == "" || secretKey == "" {
		return nil, fmt.Errorf("gateway configuration missing")
	}

	currency := os.Getenv("GATEWAY_CURRENCY")
	if currency == "" {
		currency = "usd"
	}

	mode := os.Getenv("GATEWAY_MODE")

	return &Client{
		apiURL:    strings.TrimRight(apiURL, "/"),
		secretKey: secretKey,
		currency:  strings.ToLower(currency),
		testMode:  mode == "sandbox" || mode == "dev",
		http:      &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// NewClient is used by tests to point the adapter at a fake provider.
func NewClient(apiURL, secretKey, currency string) *Client {
	return &Client{
		apiURL:    strings.TrimRight(apiURL, "/"),
		secretKey: secretKey,
		currency:  currency,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

func (cl *Client) Currency() string { return cl.currency }

// ToMinorUnits converts a decimal amount to minor currency units (cents)
// with round-half-up.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Floor(amount*100 + 0.5))
}

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// do posts a form-encoded request to the provider and decodes the JSON
// response into out. Any non-2xx answer becomes a *apperrors.GatewayError
// carrying the provider's message.
func (cl *Client) do(method, path string, form url.Values, headers map[string]string, out interface{}) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequest(method, cl.apiURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+cl.secretKey)
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := cl.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach payment gateway: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(raw)
		var ae apiError
		if json.Unmarshal(raw, &ae) == nil && ae.Error.Message != "" {
			msg = ae.Error.Message
		}
		return &apperrors.GatewayError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to parse gateway response: %w", err)
		}
	}
	return nil
}

type customerResponse struct {
	ID string `json:"id"`
}

// CreateCustomer registers a remote customer scoped by email with the local
// user id stored as metadata.
func (cl *Client) CreateCustomer(email, userID string) (string, error) {
	form := url.Values{}
	form.Set("email", email)
	form.Set("metadata[user_id]", userID)

	var resp customerResponse
	if err := cl.do(http.MethodPost, "/v1/customers", form, nil, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// DeleteCustomer removes a remote customer. Used only as best-effort cleanup
// when a mapping insert loses a race; callers log, never propagate.
func (cl *Client) DeleteCustomer(customerID string) error {
	return cl.do(http.MethodDelete, "/v1/customers/"+customerID, nil, nil, nil)
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateCheckoutSession builds a hosted session for a single synthetic line
// item priced at the order total. The customer completes payment on the
// provider's page and is redirected to successURL or cancelURL.
func (cl *Client) CreateCheckoutSession(customerID string, amountTotal float64, mode, successURL, cancelURL string, metadata map[string]string) (*CheckoutSession, error) {
	if mode != ModePayment && mode != ModeSubscription {
		return nil, fmt.Errorf("mode must be either %q or %q", ModePayment, ModeSubscription)
	}

	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("mode", mode)
	form.Set("success_url", successURL)
	form.Set("cancel_url", cancelURL)
	form.Set("payment_method_types[0]", "card")
	form.Set("line_items[0][price_data][currency]", cl.currency)
	form.Set("line_items[0][price_data][product_data][name]", "African Snakie Order")
	form.Set("line_items[0][price_data][product_data][description]", "Authentic African snacks and delicacies")
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(ToMinorUnits(amountTotal), 10))
	form.Set("line_items[0][quantity]", "1")
	for k, v := range metadata {
		form.Set("metadata["+k+"]", v)
	}
	if cl.testMode {
		form.Set("test", "1")
	}

	var session CheckoutSession
	if err := cl.do(http.MethodPost, "/v1/checkout/sessions", form, nil, &session); err != nil {
		return nil, err
	}
	if session.URL == "" {
		return nil, fmt.Errorf("gateway returned empty redirect url")
	}
	return &session, nil
}

type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

// CreatePaymentIntent opens a client-confirmable intent for the given
// decimal amount. The order ref travels in metadata for reconciliation.
func (cl *Client) CreatePaymentIntent(amount float64, orderRef, currency string) (*PaymentIntent, error) {
	if currency == "" {
		currency = cl.currency
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(ToMinorUnits(amount), 10))
	form.Set("currency", strings.ToLower(currency))
	form.Set("metadata[order_ref]", orderRef)
	form.Set("description", "African Snakie Order "+shortRef(orderRef))

	var intent PaymentIntent
	if err := cl.do(http.MethodPost, "/v1/payment_intents", form, nil, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

type PaymentResult struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	ReceiptRef string `json:"receipt_ref"`
}

// ProcessDirectPayment charges a tokenized payment source synchronously.
// The idempotency key (derived from orderRef plus submission time) makes
// retried submissions safe: the provider replays the first outcome instead
// of charging again. Declines surface as apperrors.ErrPaymentDeclined
// wrapped with the provider's message.
func (cl *Client) ProcessDirectPayment(sourceToken string, amountCents int64, currency, idempotencyKey string) (*PaymentResult, error) {
	if sourceToken == "" {
		return nil, &apperrors.ValidationError{Missing: []string{"source_id"}}
	}
	if currency == "" {
		currency = cl.currency
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountCents, 10))
	form.Set("currency", strings.ToLower(currency))
	form.Set("source", sourceToken)
	form.Set("confirm", "true")

	var result PaymentResult
	err := cl.do(http.MethodPost, "/v1/charges", form, map[string]string{"Idempotency-Key": idempotencyKey}, &result)
	if err != nil {
		var ge *apperrors.GatewayError
		if errors.As(err, &ge) && (ge.StatusCode == http.StatusPaymentRequired || strings.Contains(ge.Message, "declined")) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrPaymentDeclined, ge.Message)
		}
		return nil, err
	}
	if result.Status == "declined" || result.Status == "failed" {
		return nil, fmt.Errorf("%w: status %s", apperrors.ErrPaymentDeclined, result.Status)
	}
	return &result, nil
}

// EnsureCustomer returns the remote customer id for a user, creating both
// the remote customer and the local mapping on first checkout. Safe under
// concurrent calls for the same user: if the mapping insert loses to a
// racing request, the winner's customer id is reused and the freshly
// created remote customer is deleted best-effort.
func (cl *Client) EnsureCustomer(db *gorm.DB, userID, email string) (string, error) {
	if userID == "" {
		return "", apperrors.ErrNotAuthenticated
	}

	var mapping models.GatewayCustomer
	err := db.Where("user_id = ?", userID).First(&mapping).Error
	if err == nil {
		return mapping.CustomerID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	customerID, err := cl.CreateCustomer(email, userID)
	if err != nil {
		return "", err
	}

	mapping = models.GatewayCustomer{UserID: userID, CustomerID: customerID}
	if insertErr := db.Create(&mapping).Error; insertErr != nil {
		// Unique index on user_id: a concurrent checkout won the insert.
		var winner models.GatewayCustomer
		if err := db.Where("user_id = ?", userID).First(&winner).Error; err == nil {
			if delErr := cl.DeleteCustomer(customerID); delErr != nil {
				log.Warn().Err(delErr).Str("customer_id", customerID).Msg("failed to clean up orphaned gateway customer")
			}
			return winner.CustomerID, nil
		}
		// Insert failed for another reason; remove the remote customer so it
		// does not leak.
		if delErr := cl.DeleteCustomer(customerID); delErr != nil {
			log.Warn().Err(delErr).Str("customer_id", customerID).Msg("failed to clean up orphaned gateway customer")
		}
		return "", insertErr
	}

	return customerID, nil
}

// EnsureSubscriptionRecord guarantees a customer-scoped subscription row
// exists before a subscription-mode session is created.
func EnsureSubscriptionRecord(db *gorm.DB, customerID string) error {
	var sub models.GatewaySubscription
	err := db.Where("customer_id = ?", customerID).First(&sub).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return db.Create(&models.GatewaySubscription{
		CustomerID: customerID,
		Status:     models.SubscriptionNotStarted,
	}).Error
}

func shortRef(ref string) string {
	if len(ref) > 8 {
		return ref[:8]
	}
	return ref
}
