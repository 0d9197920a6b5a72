package memory

import (
	"context"
	"sort"
	"sync"

	domainpayments "stayhub/internal/domain/payments"
	domainuser "stayhub/internal/domain/user"
)

// PaymentRepository stores payments in memory. Save enforces the same
// compare-and-set on Version and the same unique tx_ref rule the mongo
// implementation gets from its filter and index.
type PaymentRepository struct {
	mu      sync.RWMutex
	byID    map[domainpayments.PaymentID]*domainpayments.Payment
	byTxRef map[string]domainpayments.PaymentID
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{
		byID:    make(map[domainpayments.PaymentID]*domainpayments.Payment),
		byTxRef: make(map[string]domainpayments.PaymentID),
	}
}

func (r *PaymentRepository) ByID(ctx context.Context, id domainpayments.PaymentID) (*domainpayments.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, domainpayments.ErrNotFound
	}
	return clonePayment(p), nil
}

func (r *PaymentRepository) ByTxRef(ctx context.Context, txRef string) (*domainpayments.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byTxRef[txRef]
	if !ok {
		return nil, domainpayments.ErrNotFound
	}
	p, ok := r.byID[id]
	if !ok {
		return nil, domainpayments.ErrNotFound
	}
	return clonePayment(p), nil
}

func (r *PaymentRepository) Save(ctx context.Context, p *domainpayments.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existingID, ok := r.byTxRef[p.TxRef]; ok && existingID != p.ID {
		return domainpayments.ErrDuplicateTxRef
	}
	if existing, ok := r.byID[p.ID]; ok {
		if existing.Version != p.Version {
			return domainpayments.ErrConcurrentUpdate
		}
	} else if p.Version != 0 {
		return domainpayments.ErrConcurrentUpdate
	}

	p.Version++
	r.byTxRef[p.TxRef] = p.ID
	r.byID[p.ID] = clonePayment(p)
	return nil
}

func (r *PaymentRepository) ListByUser(ctx context.Context, userID domainuser.ID) ([]*domainpayments.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainpayments.Payment, 0)
	for _, p := range r.byID {
		if p.UserID == userID {
			matches = append(matches, clonePayment(p))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func clonePayment(p *domainpayments.Payment) *domainpayments.Payment {
	if p == nil {
		return nil
	}
	copyPayment := *p
	return &copyPayment
}

var _ domainpayments.Repository = (*PaymentRepository)(nil)
