// internal/simulator/simulator.go
package simulator

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"billing-service/internal/provider/mpesa"

	"go.uber.org/zap"
)

// Resolver applies a callback envelope to its transaction. Satisfied by
// *usecase.CallbackUsecase.
type Resolver interface {
	ResolveSTKCallback(ctx context.Context, payload []byte) (*mpesa.StkCallback, error)
}

// Simulator owns the demo-mode success callback: each Schedule call starts a
// cancellable timer that, after the configured delay, delivers a synthetic
// ResultCode=0 envelope to the resolver. Tests set a zero delay and call
// Wait instead of racing a wall clock.
type Simulator struct {
	resolver Resolver
	delay    time.Duration
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(resolver Resolver, delay time.Duration, logger *zap.Logger) *Simulator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Simulator{
		resolver: resolver,
		delay:    delay,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Schedule arranges a synthetic success callback for the given checkout
// request id after the configured delay.
func (s *Simulator) Schedule(checkoutRequestID, merchantRequestID, phoneNumber string, amount int) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(s.delay)
		defer timer.Stop()

		select {
		case <-s.ctx.Done():
			return
		case <-timer.C:
		}

		payload := successPayload(checkoutRequestID, merchantRequestID, phoneNumber, amount)
		if _, err := s.resolver.ResolveSTKCallback(s.ctx, payload); err != nil {
			s.logger.Error("simulated callback failed",
				zap.String("checkout_request_id", checkoutRequestID),
				zap.Error(err))
			return
		}

		s.logger.Info("simulated callback delivered",
			zap.String("checkout_request_id", checkoutRequestID))
	}()
}

// Wait blocks until every scheduled callback has been delivered or cancelled.
func (s *Simulator) Wait() {
	s.wg.Wait()
}

// Shutdown cancels pending callbacks and waits for in-flight ones.
func (s *Simulator) Shutdown() {
	s.cancel()
	s.wg.Wait()
}

func successPayload(checkoutRequestID, merchantRequestID, phoneNumber string, amount int) []byte {
	var envelope mpesa.CallbackEnvelope
	envelope.Body.StkCallback = &mpesa.StkCallback{
		MerchantRequestID: merchantRequestID,
		CheckoutRequestID: checkoutRequestID,
		ResultCode:        mpesa.ResultCodeSuccess,
		ResultDesc:        "The service request is processed successfully.",
		CallbackMetadata: &mpesa.CallbackMetadata{
			Item: []mpesa.MetadataItem{
				{Name: "Amount", Value: amount},
				{Name: "MpesaReceiptNumber", Value: "NLJ7RT61SV"},
				{Name: "PhoneNumber", Value: phoneNumber},
			},
		},
	}

	payload, _ := json.Marshal(envelope)
	return payload
}
