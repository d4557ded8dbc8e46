// internal/domain/user.go
package domain

import "time"

type UserPlan string

const (
	PlanFree    UserPlan = "free"
	PlanPremium UserPlan = "premium"
)

// User is owned by the client application; this service only mutates the
// plan fields when a payment resolves successfully.
type User struct {
	ID                       string     `json:"id" db:"id"`
	Plan                     UserPlan   `json:"plan" db:"plan"`
	PlanUpgradedAt           *time.Time `json:"plan_upgraded_at,omitempty" db:"plan_upgraded_at"`
	LastPaymentTransactionID *string    `json:"last_payment_transaction_id,omitempty" db:"last_payment_transaction_id"`
}
