// internal/repository/transaction_repo.go
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"billing-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*domain.Transaction, error)
	UpdateResult(ctx context.Context, id string, result *domain.TransactionResult) error
}

type transactionRepo struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) TransactionRepository {
	return &transactionRepo{db: db}
}

func (r *transactionRepo) Create(ctx context.Context, tx *domain.Transaction) error {
	query := `
        INSERT INTO transactions (
            id, user_id, phone_number, amount, transaction_type,
            status, checkout_request_id, merchant_request_id
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING created_at, updated_at
    `

	err := r.db.QueryRow(ctx, query,
		tx.ID,
		tx.UserID,
		tx.PhoneNumber,
		tx.Amount,
		tx.TransactionType,
		tx.Status,
		tx.CheckoutRequestID,
		tx.MerchantRequestID,
	).Scan(&tx.CreatedAt, &tx.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

func (r *transactionRepo) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	return r.get(ctx, "id = $1", id)
}

func (r *transactionRepo) GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*domain.Transaction, error) {
	return r.get(ctx, "checkout_request_id = $1", checkoutRequestID)
}

func (r *transactionRepo) get(ctx context.Context, where string, arg any) (*domain.Transaction, error) {
	query := `
        SELECT
            id, user_id, phone_number, amount, transaction_type,
            status, checkout_request_id, merchant_request_id,
            result_code, result_description, payment_details,
            created_at, updated_at
        FROM transactions
        WHERE ` + where

	var tx domain.Transaction
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&tx.ID,
		&tx.UserID,
		&tx.PhoneNumber,
		&tx.Amount,
		&tx.TransactionType,
		&tx.Status,
		&tx.CheckoutRequestID,
		&tx.MerchantRequestID,
		&tx.ResultCode,
		&tx.ResultDescription,
		&tx.PaymentDetails,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return &tx, nil
}

func (r *transactionRepo) UpdateResult(ctx context.Context, id string, result *domain.TransactionResult) error {
	query := `
        UPDATE transactions
        SET
            status = $1,
            result_code = $2,
            result_description = $3,
            payment_details = COALESCE($4, payment_details),
            updated_at = NOW()
        WHERE id = $5
    `

	var detailsJSON []byte
	if result.PaymentDetails != nil {
		detailsJSON, _ = json.Marshal(result.PaymentDetails)
	}

	tag, err := r.db.Exec(ctx, query,
		result.Status,
		result.ResultCode,
		result.ResultDescription,
		detailsJSON,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction result: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}
