package mpesa

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"billing-service/config"
	"billing-service/internal/domain"

	"go.uber.org/zap"
)

func TestDerivePassword(t *testing.T) {
	if got := DerivePassword("1", "2", "3"); got != "MTIz" {
		t.Errorf("DerivePassword(1,2,3) = %q, want %q", got, "MTIz")
	}

	shortcode, passkey, timestamp := "174379", "testpasskey", "20240101120000"
	want := base64.StdEncoding.EncodeToString([]byte(shortcode + passkey + timestamp))
	if got := DerivePassword(shortcode, passkey, timestamp); got != want {
		t.Errorf("DerivePassword() = %q, want %q", got, want)
	}

	// Deterministic across calls.
	if DerivePassword("a", "b", "c") != DerivePassword("a", "b", "c") {
		t.Error("DerivePassword is not deterministic")
	}
}

func TestAccessTokenDemoMode(t *testing.T) {
	client := NewClient(config.MpesaConfig{DemoMode: true}, nil, zap.NewNop())

	token, err := client.AccessToken(context.Background())
	if err != nil {
		t.Fatalf("AccessToken() error = %v", err)
	}
	if token != DemoToken {
		t.Errorf("AccessToken() = %q, want %q", token, DemoToken)
	}
}

func TestInitiateSTKPushDemoMode(t *testing.T) {
	client := NewClient(config.MpesaConfig{DemoMode: true}, nil, zap.NewNop())

	resp, err := client.InitiateSTKPush(context.Background(), PushRequest{
		PhoneNumber:      "254712345678",
		Amount:           100,
		AccountReference: "Premium-user-1",
	})
	if err != nil {
		t.Fatalf("InitiateSTKPush() error = %v", err)
	}

	if !strings.HasPrefix(resp.CheckoutRequestID, "ws_CO_") {
		t.Errorf("CheckoutRequestID = %q, want ws_CO_ prefix", resp.CheckoutRequestID)
	}
	if resp.MerchantRequestID != demoMerchantRequestID {
		t.Errorf("MerchantRequestID = %q, want %q", resp.MerchantRequestID, demoMerchantRequestID)
	}
	if resp.ResponseDescription == "" {
		t.Error("ResponseDescription is empty")
	}
}

// Back-to-back demo initiations land in the same millisecond; the checkout
// ids must still be distinct because a unique index keys on them.
func TestInitiateSTKPushDemoModeDistinctCheckoutIDs(t *testing.T) {
	client := NewClient(config.MpesaConfig{DemoMode: true}, nil, zap.NewNop())

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		resp, err := client.InitiateSTKPush(context.Background(), PushRequest{
			PhoneNumber: "254712345678",
			Amount:      100,
		})
		if err != nil {
			t.Fatalf("InitiateSTKPush() error = %v", err)
		}
		if seen[resp.CheckoutRequestID] {
			t.Fatalf("duplicate checkout id %q", resp.CheckoutRequestID)
		}
		seen[resp.CheckoutRequestID] = true
	}
}

func TestAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "key" || pass != "secret" {
			t.Errorf("unexpected basic auth: %q %q", user, pass)
		}
		json.NewEncoder(w).Encode(map[string]string{"access_token": "real-token"})
	}))
	defer srv.Close()

	client := NewClient(config.MpesaConfig{
		ConsumerKey:    "key",
		ConsumerSecret: "secret",
	}, nil, zap.NewNop())
	client.baseURL = srv.URL

	token, err := client.AccessToken(context.Background())
	if err != nil {
		t.Fatalf("AccessToken() error = %v", err)
	}
	if token != "real-token" {
		t.Errorf("AccessToken() = %q, want %q", token, "real-token")
	}
}

func TestAccessTokenRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(config.MpesaConfig{}, nil, zap.NewNop())
	client.baseURL = srv.URL

	_, err := client.AccessToken(context.Background())
	var authErr *domain.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("AccessToken() error = %v, want *domain.AuthError", err)
	}
}

type stubTokenStore struct {
	token string
	set   string
}

func (s *stubTokenStore) Get(context.Context) string { return s.token }
func (s *stubTokenStore) Set(_ context.Context, token string, _ time.Duration) {
	s.set = token
}

func TestAccessTokenUsesCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("oauth endpoint called despite cached token")
	}))
	defer srv.Close()

	client := NewClient(config.MpesaConfig{}, &stubTokenStore{token: "cached"}, zap.NewNop())
	client.baseURL = srv.URL

	token, err := client.AccessToken(context.Background())
	if err != nil {
		t.Fatalf("AccessToken() error = %v", err)
	}
	if token != "cached" {
		t.Errorf("AccessToken() = %q, want %q", token, "cached")
	}
}

func TestInitiateSTKPush(t *testing.T) {
	var gotPayload stkPushPayload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "oauth") {
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q, want Bearer tok", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Fatalf("failed to decode payload: %v", err)
		}
		json.NewEncoder(w).Encode(PushResponse{
			MerchantRequestID:   "merchant-1",
			CheckoutRequestID:   "ws_CO_123",
			ResponseCode:        "0",
			ResponseDescription: "Success. Request accepted for processing",
		})
	}))
	defer srv.Close()

	client := NewClient(config.MpesaConfig{
		ShortCode:   "174379",
		Passkey:     "passkey",
		CallbackURL: "https://example.com/callback",
	}, nil, zap.NewNop())
	client.baseURL = srv.URL

	resp, err := client.InitiateSTKPush(context.Background(), PushRequest{
		PhoneNumber:      "254712345678",
		Amount:           150,
		AccountReference: "Premium-user-1",
		Description:      "Premium plan upgrade",
	})
	if err != nil {
		t.Fatalf("InitiateSTKPush() error = %v", err)
	}

	if resp.CheckoutRequestID != "ws_CO_123" {
		t.Errorf("CheckoutRequestID = %q, want ws_CO_123", resp.CheckoutRequestID)
	}
	if gotPayload.BusinessShortCode != "174379" {
		t.Errorf("BusinessShortCode = %q, want 174379", gotPayload.BusinessShortCode)
	}
	if gotPayload.TransactionType != "CustomerPayBillOnline" {
		t.Errorf("TransactionType = %q", gotPayload.TransactionType)
	}
	if gotPayload.Amount != 150 {
		t.Errorf("Amount = %d, want 150", gotPayload.Amount)
	}
	if gotPayload.PhoneNumber != "254712345678" || gotPayload.PartyA != "254712345678" {
		t.Errorf("payer fields = %q / %q", gotPayload.PhoneNumber, gotPayload.PartyA)
	}
	if gotPayload.CallBackURL != "https://example.com/callback" {
		t.Errorf("CallBackURL = %q", gotPayload.CallBackURL)
	}
	if len(gotPayload.Timestamp) != 14 {
		t.Errorf("Timestamp = %q, want 14 digits", gotPayload.Timestamp)
	}
	wantPassword := DerivePassword("174379", "passkey", gotPayload.Timestamp)
	if gotPayload.Password != wantPassword {
		t.Errorf("Password = %q, want %q", gotPayload.Password, wantPassword)
	}
}

func TestInitiateSTKPushGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "oauth") {
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(gatewayErrorPayload{
			ErrorCode:    "500.001.1001",
			ErrorMessage: "Invalid Amount",
		})
	}))
	defer srv.Close()

	client := NewClient(config.MpesaConfig{}, nil, zap.NewNop())
	client.baseURL = srv.URL

	_, err := client.InitiateSTKPush(context.Background(), PushRequest{Amount: 0})
	var gwErr *domain.GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("InitiateSTKPush() error = %v, want *domain.GatewayError", err)
	}
	if gwErr.Message != "Invalid Amount" {
		t.Errorf("GatewayError.Message = %q, want %q", gwErr.Message, "Invalid Amount")
	}
}
