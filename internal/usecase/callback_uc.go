// internal/usecase/callback_uc.go
package usecase

import (
	"context"
	"strconv"

	"billing-service/internal/domain"
	"billing-service/internal/provider/mpesa"
	"billing-service/internal/repository"

	"go.uber.org/zap"
)

type CallbackUsecase struct {
	txRepo   repository.TransactionRepository
	userRepo repository.UserRepository
	logger   *zap.Logger
}

func NewCallbackUsecase(
	txRepo repository.TransactionRepository,
	userRepo repository.UserRepository,
	logger *zap.Logger,
) *CallbackUsecase {
	return &CallbackUsecase{
		txRepo:   txRepo,
		userRepo: userRepo,
		logger:   logger,
	}
}

// ResolveSTKCallback applies a gateway callback to its pending transaction,
// located by checkout request id. ResultCode 0 completes the transaction and
// elevates the owning user's plan; any other code fails it with the verbatim
// result description. The record is updated exactly once per invocation.
//
// Replayed callbacks are not deduplicated: a second delivery for an
// already-terminal transaction reapplies the result and the plan upgrade.
func (uc *CallbackUsecase) ResolveSTKCallback(ctx context.Context, payload []byte) (*mpesa.StkCallback, error) {
	callback, err := mpesa.ParseSTKCallback(payload)
	if err != nil {
		uc.logger.Error("invalid callback data structure", zap.Error(err))
		return nil, err
	}

	tx, err := uc.txRepo.GetByCheckoutRequestID(ctx, callback.CheckoutRequestID)
	if err != nil {
		uc.logger.Error("transaction not found for callback",
			zap.String("checkout_request_id", callback.CheckoutRequestID),
			zap.Error(err))
		return nil, err
	}

	uc.logger.Info("processing callback",
		zap.String("transaction_id", tx.ID),
		zap.String("user_id", tx.UserID),
		zap.Int("result_code", callback.ResultCode))

	result := &domain.TransactionResult{
		ResultCode:        strconv.Itoa(callback.ResultCode),
		ResultDescription: callback.ResultDesc,
	}

	if callback.Success() {
		result.Status = domain.TransactionStatusCompleted
		result.PaymentDetails = callback.Metadata()
	} else {
		result.Status = domain.TransactionStatusFailed
		uc.logger.Warn("payment failed",
			zap.String("transaction_id", tx.ID),
			zap.String("user_id", tx.UserID),
			zap.String("result_description", callback.ResultDesc))
	}

	if err := uc.txRepo.UpdateResult(ctx, tx.ID, result); err != nil {
		uc.logger.Error("failed to update transaction result",
			zap.String("transaction_id", tx.ID),
			zap.Error(err))
		return nil, err
	}

	if callback.Success() {
		if err := uc.userRepo.UpgradePlan(ctx, tx.UserID, domain.PlanPremium, tx.ID); err != nil {
			uc.logger.Error("failed to upgrade user plan",
				zap.String("transaction_id", tx.ID),
				zap.String("user_id", tx.UserID),
				zap.Error(err))
			return nil, err
		}

		uc.logger.Info("user upgraded to premium",
			zap.String("transaction_id", tx.ID),
			zap.String("user_id", tx.UserID))
	}

	return callback, nil
}
