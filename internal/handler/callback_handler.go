// internal/handler/callback_handler.go
package handler

import (
	"errors"
	"io"
	"net/http"

	"billing-service/internal/domain"
	"billing-service/internal/usecase"

	"go.uber.org/zap"
)

type CallbackHandler struct {
	callbackUC *usecase.CallbackUsecase
	logger     *zap.Logger
}

func NewCallbackHandler(callbackUC *usecase.CallbackUsecase, logger *zap.Logger) *CallbackHandler {
	return &CallbackHandler{
		callbackUC: callbackUC,
		logger:     logger,
	}
}

// HandleSTKCallback handles POST /callback. The callback is processed
// synchronously so the response status reflects the outcome (400 malformed,
// 404 unknown checkout id).
func (h *CallbackHandler) HandleSTKCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	h.logger.Info("received stk callback",
		zap.String("remote_addr", r.RemoteAddr))

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("failed to read callback payload", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"message": "Invalid callback data",
		})
		return
	}

	callback, err := h.callbackUC.ResolveSTKCallback(ctx, payload)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMalformedCallback):
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"message": "Invalid callback data",
			})
		case errors.Is(err, domain.ErrTransactionNotFound):
			writeJSON(w, http.StatusNotFound, map[string]interface{}{
				"message": "Transaction not found",
			})
		default:
			h.logger.Error("callback processing error", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"message": "Error processing callback",
				"error":   err.Error(),
			})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":    "Callback processed successfully",
		"resultCode": callback.ResultCode,
	})
}
