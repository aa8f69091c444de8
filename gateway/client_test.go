package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/conquestsam/African-Snakie/apperrors"
	"github.com/conquestsam/African-Snakie/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.GatewayCustomer{}, &models.GatewaySubscription{}))
	return db
}

func TestToMinorUnits(t *testing.T) {
	cases := []struct {
		amount float64
		want   int64
	}{
		{0, 0},
		{2.5, 250},
		{19.99, 1999},
		{34.0, 3400},
		{0.01, 1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ToMinorUnits(tc.amount), "amount %v", tc.amount)
	}
}

func TestCreateCheckoutSession(t *testing.T) {
	var gotForm string
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		gotForm = string(body)
		json.NewEncoder(w).Encode(map[string]string{"id": "cs_1", "url": "https://pay.example/cs_1"})
	}))
	defer server.Close()

	cl := NewClient(server.URL, "sk_test_1", "usd")
	session, err := cl.CreateCheckoutSession("cus_1", 34.0, ModePayment,
		"https://shop/payment-success?ref=x", "https://shop/payment-cancel?ref=x",
		map[string]string{"order_ref": "x"})
	require.NoError(t, err)
	assert.Equal(t, "cs_1", session.ID)
	assert.Equal(t, "https://pay.example/cs_1", session.URL)

	assert.Equal(t, "Bearer sk_test_1", gotAuth)
	// The order total is charged as one synthetic line item in minor units.
	assert.Contains(t, gotForm, "unit_amount%5D=3400")
	assert.Contains(t, gotForm, "order_ref%5D=x")
}

func TestCreateCheckoutSessionRejectsBadMode(t *testing.T) {
	cl := NewClient("http://unused", "sk", "usd")
	_, err := cl.CreateCheckoutSession("cus_1", 10, "setup", "s", "c", nil)
	assert.Error(t, err)
}

func TestCreateCheckoutSessionEmptyURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "cs_1", "url": ""})
	}))
	defer server.Close()

	cl := NewClient(server.URL, "sk", "usd")
	_, err := cl.CreateCheckoutSession("cus_1", 10, ModePayment, "s", "c", nil)
	assert.ErrorContains(t, err, "empty redirect url")
}

func TestGatewayErrorCarriesProviderMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"code": "parameter_missing", "message": "customer is required"},
		})
	}))
	defer server.Close()

	cl := NewClient(server.URL, "sk", "usd")
	_, err := cl.CreatePaymentIntent(10, "ref-1", "")

	var gerr *apperrors.GatewayError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, http.StatusBadRequest, gerr.StatusCode)
	assert.Equal(t, "customer is required", gerr.Message)
}

func TestProcessDirectPaymentDecline(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Idempotency-Key")
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"code": "card_declined", "message": "Your card was declined"},
		})
	}))
	defer server.Close()

	cl := NewClient(server.URL, "sk", "usd")
	_, err := cl.ProcessDirectPayment("tok_declined", 1000, "usd", "ref-1-1757000000")
	assert.ErrorIs(t, err, apperrors.ErrPaymentDeclined)
	assert.Equal(t, "ref-1-1757000000", gotKey)
}

func TestProcessDirectPaymentSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": "ch_1", "status": "succeeded", "amount": 1000, "currency": "usd", "receipt_ref": "rcpt_1",
		})
	}))
	defer server.Close()

	cl := NewClient(server.URL, "sk", "usd")
	result, err := cl.ProcessDirectPayment("tok_visa", 1000, "", "ref-1-1757000000")
	require.NoError(t, err)
	assert.Equal(t, "ch_1", result.ID)
	assert.Equal(t, "rcpt_1", result.ReceiptRef)
}

func TestProcessDirectPaymentRequiresSource(t *testing.T) {
	cl := NewClient("http://unused", "sk", "usd")
	_, err := cl.ProcessDirectPayment("", 1000, "usd", "k")

	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Missing, "source_id")
}

func TestEnsureCustomerCreatesOnce(t *testing.T) {
	db := openTestDB(t)

	var creates int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/customers", r.URL.Path)
		atomic.AddInt64(&creates, 1)
		json.NewEncoder(w).Encode(map[string]string{"id": "cus_1"})
	}))
	defer server.Close()

	cl := NewClient(server.URL, "sk", "usd")

	id, err := cl.EnsureCustomer(db, "user-1", "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "cus_1", id)

	// Second checkout for the same user reuses the stored mapping.
	id, err = cl.EnsureCustomer(db, "user-1", "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "cus_1", id)
	assert.EqualValues(t, 1, atomic.LoadInt64(&creates))

	var mappings int64
	require.NoError(t, db.Model(&models.GatewayCustomer{}).Count(&mappings).Error)
	assert.EqualValues(t, 1, mappings)
}

func TestEnsureCustomerRaceLoserAdoptsWinner(t *testing.T) {
	db := openTestDB(t)

	var deletes int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			atomic.AddInt64(&deletes, 1)
			json.NewEncoder(w).Encode(map[string]interface{}{"deleted": true})
			return
		}
		// Simulate a concurrent checkout winning the mapping insert while
		// this request is still talking to the provider.
		require.NoError(t, db.Create(&models.GatewayCustomer{UserID: "user-1", CustomerID: "cus_winner"}).Error)
		json.NewEncoder(w).Encode(map[string]string{"id": "cus_loser"})
	}))
	defer server.Close()

	cl := NewClient(server.URL, "sk", "usd")

	id, err := cl.EnsureCustomer(db, "user-1", "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "cus_winner", id)

	// The freshly created remote customer is orphaned and cleaned up.
	assert.EqualValues(t, 1, atomic.LoadInt64(&deletes))

	var mappings []models.GatewayCustomer
	require.NoError(t, db.Find(&mappings).Error)
	require.Len(t, mappings, 1)
	assert.Equal(t, "cus_winner", mappings[0].CustomerID)
}

func TestEnsureCustomerRequiresUser(t *testing.T) {
	db := openTestDB(t)
	cl := NewClient("http://unused", "sk", "usd")

	_, err := cl.EnsureCustomer(db, "", "ada@example.com")
	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
}

func TestEnsureSubscriptionRecordIdempotent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, EnsureSubscriptionRecord(db, "cus_1"))
	require.NoError(t, EnsureSubscriptionRecord(db, "cus_1"))

	var subs []models.GatewaySubscription
	require.NoError(t, db.Find(&subs).Error)
	require.Len(t, subs, 1)
	assert.Equal(t, models.SubscriptionNotStarted, subs[0].Status)
}

func TestNewClientTrimsTrailingSlash(t *testing.T) {
	cl := NewClient("https://api.example.com/", "sk", "usd")
	assert.False(t, strings.HasSuffix(cl.apiURL, "/"))
}
