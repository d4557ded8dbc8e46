// internal/provider/mpesa/mpesa.go
package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"billing-service/config"
	"billing-service/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DemoToken is returned by AccessToken when demo mode is enabled.
	DemoToken = "demo_access_token"

	// demoMerchantRequestID mirrors the fixed format Safaricom uses for
	// merchant request ids in the sandbox.
	demoMerchantRequestID = "29115-34620561-1"

	// Daraja access tokens expire after an hour; cache slightly under that.
	tokenTTL = 50 * time.Minute
)

// TokenStore caches gateway access tokens between initiations. A nil store
// disables caching.
type TokenStore interface {
	Get(ctx context.Context) string
	Set(ctx context.Context, token string, ttl time.Duration)
}

// Client talks to the Safaricom Daraja API. With cfg.DemoMode set, every
// operation short-circuits to deterministic synthetic values and no network
// call is made.
type Client struct {
	cfg        config.MpesaConfig
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore
	logger     *zap.Logger
}

func NewClient(cfg config.MpesaConfig, tokens TokenStore, logger *zap.Logger) *Client {
	baseURL := "https://sandbox.safaricom.co.ke"
	if cfg.Environment == "production" {
		baseURL = "https://api.safaricom.co.ke"
	}

	return &Client{
		cfg:        cfg,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     tokens,
		logger:     logger,
	}
}

// DerivePassword builds the STK push password required by the gateway:
// base64(shortcode || passkey || timestamp). Pure, no I/O.
func DerivePassword(shortcode, passkey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortcode + passkey + timestamp))
}

// AccessToken obtains a bearer credential via the OAuth endpoint using HTTP
// basic auth from the configured consumer key/secret pair.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	if c.cfg.DemoMode {
		c.logger.Debug("demo mode: returning mock access token")
		return DemoToken, nil
	}

	if c.tokens != nil {
		if token := c.tokens.Get(ctx); token != "" {
			return token, nil
		}
	}

	url := fmt.Sprintf("%s/oauth/v1/generate?grant_type=client_credentials", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &domain.AuthError{Err: err}
	}

	auth := base64.StdEncoding.EncodeToString([]byte(
		c.cfg.ConsumerKey + ":" + c.cfg.ConsumerSecret,
	))
	req.Header.Set("Authorization", "Basic "+auth)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &domain.AuthError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &domain.AuthError{Err: fmt.Errorf("oauth rejected: %s", string(body))}
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &domain.AuthError{Err: err}
	}

	if c.tokens != nil {
		c.tokens.Set(ctx, result.AccessToken, tokenTTL)
	}

	return result.AccessToken, nil
}

// PushRequest is what the lifecycle controller asks the gateway to do.
type PushRequest struct {
	PhoneNumber      string
	Amount           int
	AccountReference string
	Description      string
}

// PushResponse is the gateway's acceptance of an STK push.
type PushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// stkPushPayload is the wire format Daraja expects.
type stkPushPayload struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int    `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// gatewayErrorPayload is Daraja's error body on non-2xx responses.
type gatewayErrorPayload struct {
	RequestID    string `json:"requestId"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// InitiateSTKPush submits a payment push. It returns the gateway-assigned
// checkout and merchant request ids used later for callback correlation.
func (c *Client) InitiateSTKPush(ctx context.Context, req PushRequest) (*PushResponse, error) {
	if c.cfg.DemoMode {
		c.logger.Info("demo mode: returning mock STK push response",
			zap.String("phone_number", req.PhoneNumber),
			zap.Int("amount", req.Amount))
		// The uuid suffix keeps concurrent demo initiations from colliding
		// on the unique checkout id.
		return &PushResponse{
			MerchantRequestID:   demoMerchantRequestID,
			CheckoutRequestID:   fmt.Sprintf("ws_CO_%d_%s", time.Now().UnixMilli(), uuid.NewString()),
			ResponseCode:        "0",
			ResponseDescription: "Success. Request accepted for processing",
			CustomerMessage:     "Success. Request accepted for processing",
		}, nil
	}

	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := time.Now().Format("20060102150405")
	payload := stkPushPayload{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          DerivePassword(c.cfg.ShortCode, c.cfg.Passkey, timestamp),
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            req.Amount,
		PartyA:            req.PhoneNumber,
		PartyB:            c.cfg.ShortCode,
		PhoneNumber:       req.PhoneNumber,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  req.AccountReference,
		TransactionDesc:   req.Description,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &domain.GatewayError{Err: err}
	}

	url := fmt.Sprintf("%s/mpesa/stkpush/v1/processrequest", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &domain.GatewayError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &domain.GatewayError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.GatewayError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var gwErr gatewayErrorPayload
		if err := json.Unmarshal(respBody, &gwErr); err == nil && gwErr.ErrorMessage != "" {
			return nil, &domain.GatewayError{
				Message: gwErr.ErrorMessage,
				Err:     fmt.Errorf("stk push rejected with status %d", resp.StatusCode),
			}
		}
		return nil, &domain.GatewayError{
			Message: string(respBody),
			Err:     fmt.Errorf("stk push rejected with status %d", resp.StatusCode),
		}
	}

	var response PushResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, &domain.GatewayError{Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	return &response, nil
}
