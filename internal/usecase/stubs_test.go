package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"billing-service/internal/domain"
	"billing-service/internal/provider/mpesa"
)

// memTransactionRepo is an in-memory TransactionRepository.
type memTransactionRepo struct {
	transactions map[string]*domain.Transaction
	createErr    error
	getByIDErr   error
	updates      int
}

func newMemTransactionRepo() *memTransactionRepo {
	return &memTransactionRepo{transactions: make(map[string]*domain.Transaction)}
}

func (m *memTransactionRepo) Create(_ context.Context, tx *domain.Transaction) error {
	if m.createErr != nil {
		return m.createErr
	}
	now := time.Now()
	tx.CreatedAt = now
	tx.UpdatedAt = now
	stored := *tx
	m.transactions[tx.ID] = &stored
	return nil
}

func (m *memTransactionRepo) GetByID(_ context.Context, id string) (*domain.Transaction, error) {
	if m.getByIDErr != nil {
		return nil, m.getByIDErr
	}
	tx, ok := m.transactions[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	copied := *tx
	return &copied, nil
}

func (m *memTransactionRepo) GetByCheckoutRequestID(_ context.Context, checkoutRequestID string) (*domain.Transaction, error) {
	for _, tx := range m.transactions {
		if tx.CheckoutRequestID == checkoutRequestID {
			copied := *tx
			return &copied, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *memTransactionRepo) UpdateResult(_ context.Context, id string, result *domain.TransactionResult) error {
	tx, ok := m.transactions[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	tx.Status = result.Status
	tx.ResultCode = &result.ResultCode
	tx.ResultDescription = &result.ResultDescription
	if result.PaymentDetails != nil {
		details, _ := json.Marshal(result.PaymentDetails)
		tx.PaymentDetails = details
	}
	tx.UpdatedAt = time.Now()
	m.updates++
	return nil
}

// memUserRepo records plan upgrades.
type memUserRepo struct {
	upgrades   []planUpgrade
	upgradeErr error
}

type planUpgrade struct {
	userID        string
	plan          domain.UserPlan
	transactionID string
}

func (m *memUserRepo) UpgradePlan(_ context.Context, userID string, plan domain.UserPlan, transactionID string) error {
	if m.upgradeErr != nil {
		return m.upgradeErr
	}
	m.upgrades = append(m.upgrades, planUpgrade{userID, plan, transactionID})
	return nil
}

// stubGateway returns a fixed response or error.
type stubGateway struct {
	resp  *mpesa.PushResponse
	err   error
	calls int
}

func (g *stubGateway) InitiateSTKPush(_ context.Context, _ mpesa.PushRequest) (*mpesa.PushResponse, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.resp, nil
}

// stubCompleter records scheduled demo completions.
type stubCompleter struct {
	scheduled []string
}

func (c *stubCompleter) Schedule(checkoutRequestID, _, _ string, _ int) {
	c.scheduled = append(c.scheduled, checkoutRequestID)
}

var errGatewayDown = errors.New("gateway unreachable")
