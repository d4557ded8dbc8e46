// internal/usecase/payment_uc.go
package usecase

import (
	"context"

	"billing-service/internal/domain"
	"billing-service/internal/provider/mpesa"
	"billing-service/internal/repository"
	"billing-service/pkg/phone"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Gateway is the payment provider boundary. Satisfied by *mpesa.Client.
type Gateway interface {
	InitiateSTKPush(ctx context.Context, req mpesa.PushRequest) (*mpesa.PushResponse, error)
}

// Completer schedules the synthetic success callback in demo mode.
// Satisfied by *simulator.Simulator; nil outside demo mode.
type Completer interface {
	Schedule(checkoutRequestID, merchantRequestID, phoneNumber string, amount int)
}

type PaymentUsecase struct {
	txRepo    repository.TransactionRepository
	gateway   Gateway
	completer Completer
	logger    *zap.Logger
}

func NewPaymentUsecase(
	txRepo repository.TransactionRepository,
	gateway Gateway,
	completer Completer,
	logger *zap.Logger,
) *PaymentUsecase {
	return &PaymentUsecase{
		txRepo:    txRepo,
		gateway:   gateway,
		completer: completer,
		logger:    logger,
	}
}

// InitiateSTKPush validates the request, normalizes the phone number, submits
// the push to the gateway, and persists a pending transaction keyed by the
// gateway-assigned checkout request id. Nothing is persisted when validation
// or the gateway call fails.
func (uc *PaymentUsecase) InitiateSTKPush(ctx context.Context, req *domain.STKPushRequest) (*domain.STKPushResult, error) {
	if errs := req.Validate(); len(errs) > 0 {
		uc.logger.Warn("stk push validation failed",
			zap.String("user_id", req.UserID),
			zap.Strings("details", errs))
		return nil, &domain.ValidationError{Details: errs}
	}

	phoneNumber := phone.Normalize(req.PhoneNumber)
	amount := int(req.Amount)

	// Generated before the gateway call so the id is available for
	// correlation even though persistence happens after.
	transactionID := uuid.NewString()

	uc.logger.Info("initiating stk push",
		zap.String("transaction_id", transactionID),
		zap.String("user_id", req.UserID),
		zap.String("phone_number", phoneNumber),
		zap.Int("amount", amount))

	resp, err := uc.gateway.InitiateSTKPush(ctx, mpesa.PushRequest{
		PhoneNumber:      phoneNumber,
		Amount:           amount,
		AccountReference: "Premium-" + req.UserID,
		Description:      "Premium plan upgrade",
	})
	if err != nil {
		uc.logger.Error("stk push failed",
			zap.String("transaction_id", transactionID),
			zap.String("user_id", req.UserID),
			zap.Error(err))
		return nil, err
	}

	tx := &domain.Transaction{
		ID:                transactionID,
		UserID:            req.UserID,
		PhoneNumber:       phoneNumber,
		Amount:            amount,
		TransactionType:   domain.TransactionTypePremiumUpgrade,
		Status:            domain.TransactionStatusPending,
		CheckoutRequestID: resp.CheckoutRequestID,
		MerchantRequestID: resp.MerchantRequestID,
	}

	if err := uc.txRepo.Create(ctx, tx); err != nil {
		uc.logger.Error("failed to persist transaction",
			zap.String("transaction_id", transactionID),
			zap.String("checkout_request_id", resp.CheckoutRequestID),
			zap.Error(err))
		return nil, err
	}

	uc.logger.Info("transaction created",
		zap.String("transaction_id", transactionID),
		zap.String("checkout_request_id", resp.CheckoutRequestID),
		zap.String("merchant_request_id", resp.MerchantRequestID))

	if uc.completer != nil {
		uc.completer.Schedule(resp.CheckoutRequestID, resp.MerchantRequestID, phoneNumber, amount)
	}

	return &domain.STKPushResult{
		CheckoutRequestID:   resp.CheckoutRequestID,
		MerchantRequestID:   resp.MerchantRequestID,
		ResponseDescription: resp.ResponseDescription,
		TransactionID:       transactionID,
	}, nil
}

// GetTransaction returns the current projected state of a transaction. An id
// that is not a UUID cannot match any row, so it reads as not found without
// touching the store (which would reject it as a type error).
func (uc *PaymentUsecase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrTransactionNotFound
	}
	return uc.txRepo.GetByID(ctx, id)
}
