// internal/repository/user_repo.go
package repository

import (
	"context"
	"fmt"

	"billing-service/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	UpgradePlan(ctx context.Context, userID string, plan domain.UserPlan, transactionID string) error
}

type userRepo struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &userRepo{db: db}
}

// UpgradePlan sets the user's plan tier and records the transaction that
// paid for it. Setting the same tier twice is harmless.
func (r *userRepo) UpgradePlan(ctx context.Context, userID string, plan domain.UserPlan, transactionID string) error {
	query := `
        UPDATE users
        SET
            plan = $1,
            plan_upgraded_at = NOW(),
            last_payment_transaction_id = $2,
            updated_at = NOW()
        WHERE id = $3
    `

	tag, err := r.db.Exec(ctx, query, plan, transactionID, userID)
	if err != nil {
		return fmt.Errorf("failed to upgrade user plan: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}
