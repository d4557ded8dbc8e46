// internal/handler/payment_handler.go
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"billing-service/internal/domain"
	"billing-service/internal/usecase"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	paymentUC *usecase.PaymentUsecase
	env       string
	logger    *zap.Logger
}

func NewPaymentHandler(paymentUC *usecase.PaymentUsecase, env string, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentUC: paymentUC,
		env:       env,
		logger:    logger,
	}
}

// HandleSTKPush handles POST /stkpush.
func (h *PaymentHandler) HandleSTKPush(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.STKPushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode stk push request", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "Validation failed",
			"details": []string{"Request body must be valid JSON"},
		})
		return
	}

	result, err := h.paymentUC.InitiateSTKPush(ctx, &req)
	if err != nil {
		h.respondInitiateError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "STK Push initiated successfully",
		"data":    result,
	})
}

func (h *PaymentHandler) respondInitiateError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "Validation failed",
			"details": validationErr.Details,
		})
		return
	}

	message := err.Error()
	var gatewayErr *domain.GatewayError
	if errors.As(err, &gatewayErr) && gatewayErr.Message != "" {
		message = gatewayErr.Message
	}

	writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
		"success": false,
		"error":   "Failed to initiate STK Push",
		"message": message,
	})
}

// HandleGetTransaction handles GET /transaction/{id}.
func (h *PaymentHandler) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	tx, err := h.paymentUC.GetTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{
				"success": false,
				"error":   "Transaction not found",
			})
			return
		}

		h.logger.Error("failed to fetch transaction",
			zap.String("transaction_id", id),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   "Failed to fetch transaction",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"transactionId":     tx.ID,
			"status":            tx.Status,
			"amount":            tx.Amount,
			"resultCode":        tx.ResultCode,
			"resultDescription": tx.ResultDescription,
			"createdAt":         tx.CreatedAt,
			"updatedAt":         tx.UpdatedAt,
		},
	})
}

// HandleHealth handles GET /health.
func (h *PaymentHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"message":     "Payment service is healthy",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": h.env,
	})
}
