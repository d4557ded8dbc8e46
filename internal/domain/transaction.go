// internal/domain/transaction.go
package domain

import (
	"encoding/json"
	"time"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// TransactionTypePremiumUpgrade is the only transaction type this service
// issues: an STK push charging a user for a premium plan upgrade.
const TransactionTypePremiumUpgrade = "premium_upgrade"

// Transaction represents one STK push payment attempt. The checkout request
// id is assigned by the gateway at initiation and is the correlation key for
// the asynchronous callback; it is unique and immutable after creation, as is
// the amount. Status only ever moves pending -> completed or pending -> failed.
type Transaction struct {
	ID                string            `json:"id" db:"id"`
	UserID            string            `json:"user_id" db:"user_id"`
	PhoneNumber       string            `json:"phone_number" db:"phone_number"`
	Amount            int               `json:"amount" db:"amount"`
	TransactionType   string            `json:"transaction_type" db:"transaction_type"`
	Status            TransactionStatus `json:"status" db:"status"`
	CheckoutRequestID string            `json:"checkout_request_id" db:"checkout_request_id"`
	MerchantRequestID string            `json:"merchant_request_id" db:"merchant_request_id"`

	ResultCode        *string         `json:"result_code,omitempty" db:"result_code"`
	ResultDescription *string         `json:"result_description,omitempty" db:"result_description"`
	PaymentDetails    json.RawMessage `json:"payment_details,omitempty" db:"payment_details"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TransactionResult is the terminal outcome applied to a pending transaction
// when the gateway callback arrives.
type TransactionResult struct {
	Status            TransactionStatus
	ResultCode        string
	ResultDescription string
	PaymentDetails    map[string]interface{}
}

// STKPushRequest is the client-facing initiation request.
type STKPushRequest struct {
	PhoneNumber string  `json:"phoneNumber"`
	Amount      float64 `json:"amount"`
	UserID      string  `json:"userId"`
}

// Validate collects every violation rather than stopping at the first, so a
// client sees all problems in one round trip. An empty slice means valid.
func (r *STKPushRequest) Validate() []string {
	var errs []string

	if len(r.PhoneNumber) < 9 {
		errs = append(errs, "Valid phone number is required")
	}

	// Amounts are charged in whole shillings; below one they truncate to zero.
	if r.Amount < 1 {
		errs = append(errs, "Valid amount is required (must be greater than 0)")
	}

	if r.UserID == "" {
		errs = append(errs, "User ID is required")
	}

	return errs
}

// STKPushResult is what initiation returns to the caller.
type STKPushResult struct {
	CheckoutRequestID   string `json:"checkoutRequestId"`
	MerchantRequestID   string `json:"merchantRequestId"`
	ResponseDescription string `json:"responseDescription"`
	TransactionID       string `json:"transactionId"`
}
