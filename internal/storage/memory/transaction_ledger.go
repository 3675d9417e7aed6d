package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/prodhub/internal/domain"
)

const (
	outboxAggregateTransaction = "transaction"

	eventTransactionCreated = "transaction.created"
	eventTransactionUpdated = "transaction.updated"
	eventTransactionDeleted = "transaction.deleted"
)

// transactionLedgerInMemory — in-memory реализация TransactionLedger.
// Атомарность обеспечивается общим мьютексом хранилища: либо применяются
// все списания и вставки мутации, либо состояние не меняется вовсе.
type transactionLedgerInMemory struct {
	store      *Store
	emitOutbox bool
}

func (l *transactionLedgerInMemory) Create(_ context.Context, userID string, in domain.CreateTransaction) (domain.Transaction, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	if _, ok := l.store.users[userID]; !ok {
		return domain.Transaction{}, domain.ErrUserNotFound
	}
	if in.EventID != nil {
		if _, ok := l.store.events[*in.EventID]; !ok {
			return domain.Transaction{}, domain.ErrEventNotFound
		}
	}

	// Все проверки до первой мутации: частично применённых списаний
	// не бывает.
	deltas, err := l.stageDecrements(in.Sales, nil)
	if err != nil {
		return domain.Transaction{}, err
	}
	l.applyDeltas(deltas)

	rec := &transactionRecord{
		id:            uuid.NewString(),
		userID:        userID,
		eventID:       in.EventID,
		time:          time.Now().UTC(),
		paymentMethod: in.PaymentMethod,
	}
	rec.sales = l.buildSales(rec.id, in.Sales)
	l.store.transactions[rec.id] = rec

	created := l.store.transactionView(rec)
	if err := l.enqueueEvent(eventTransactionCreated, created); err != nil {
		return domain.Transaction{}, err
	}
	return created, nil
}

func (l *transactionLedgerInMemory) Get(_ context.Context, id string) (domain.Transaction, error) {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()

	rec, ok := l.store.transactions[id]
	if !ok {
		return domain.Transaction{}, domain.ErrTransactionNotFound
	}
	return l.store.transactionView(rec), nil
}

func (l *transactionLedgerInMemory) List(_ context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()

	result := make([]domain.Transaction, 0, len(l.store.transactions))
	for _, rec := range l.store.transactions {
		if !matchTransaction(rec, filter) {
			continue
		}
		result = append(result, l.store.transactionView(rec))
	}

	switch filter.OrderBy {
	case domain.TransactionOrderSum:
		sort.Slice(result, func(i, j int) bool { return result[i].Sum() < result[j].Sum() })
	case domain.TransactionOrderDate:
		sort.Slice(result, func(i, j int) bool { return result[i].Time.Before(result[j].Time) })
	default:
		sort.Slice(result, func(i, j int) bool { return result[i].Time.After(result[j].Time) })
	}
	return result, nil
}

func matchTransaction(rec *transactionRecord, filter domain.TransactionFilter) bool {
	if filter.Start != nil && !rec.time.After(*filter.Start) {
		return false
	}
	if filter.Finish != nil && !rec.time.Before(*filter.Finish) {
		return false
	}
	if filter.UserID != nil && rec.userID != *filter.UserID {
		return false
	}
	if filter.EventID != nil && (rec.eventID == nil || *rec.eventID != *filter.EventID) {
		return false
	}
	if filter.PaymentMethod != nil && rec.paymentMethod != *filter.PaymentMethod {
		return false
	}
	return true
}

func (l *transactionLedgerInMemory) Update(_ context.Context, id string, in domain.UpdateTransaction, force bool) (domain.Transaction, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	rec, ok := l.store.transactions[id]
	if !ok {
		return domain.Transaction{}, domain.ErrTransactionNotFound
	}
	if in.EventID != nil {
		if _, ok := l.store.events[*in.EventID]; !ok {
			return domain.Transaction{}, domain.ErrEventNotFound
		}
	}

	if in.Sales != nil {
		// Возвраты по старым позициям учитываются до списаний по новым,
		// поэтому замена может переиспользовать возвращённый остаток.
		var restores map[string]int
		if !force {
			restores = make(map[string]int, len(rec.sales))
			for _, sale := range rec.sales {
				if _, ok := l.store.products[sale.ProductID]; ok {
					restores[sale.ProductID] += sale.Amount
				}
			}
		}
		deltas, err := l.stageDecrements(*in.Sales, restores)
		if err != nil {
			return domain.Transaction{}, err
		}
		l.applyDeltas(deltas)
		rec.sales = l.buildSales(rec.id, *in.Sales)
	}

	if in.EventID != nil {
		rec.eventID = in.EventID
	}
	if in.PaymentMethod != nil {
		rec.paymentMethod = *in.PaymentMethod
	}

	updated := l.store.transactionView(rec)
	if err := l.enqueueEvent(eventTransactionUpdated, updated); err != nil {
		return domain.Transaction{}, err
	}
	return updated, nil
}

func (l *transactionLedgerInMemory) Delete(_ context.Context, id string, returnProducts bool) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	rec, ok := l.store.transactions[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}

	deleted := l.store.transactionView(rec)
	if returnProducts {
		for _, sale := range rec.sales {
			// Удалённый товар возвращать некуда, позиция пропускается.
			if product, ok := l.store.products[sale.ProductID]; ok {
				product.product.Stock += sale.Amount
			}
		}
	}
	delete(l.store.transactions, id)

	return l.enqueueEvent(eventTransactionDeleted, deleted)
}

// stageDecrements проверяет списания по всем позициям с учётом возвратов и
// возвращает итоговые изменения остатков. Хранилище не мутируется: первая
// нехватка прерывает операцию до каких-либо изменений.
func (l *transactionLedgerInMemory) stageDecrements(sales []domain.SaleInput, restores map[string]int) (map[string]int, error) {
	deltas := make(map[string]int, len(restores)+len(sales))
	for productID, amount := range restores {
		deltas[productID] += amount
	}
	for _, sale := range sales {
		rec, ok := l.store.products[sale.ProductID]
		if !ok {
			return nil, domain.ErrProductNotFound
		}
		deltas[sale.ProductID] -= sale.Amount
		if rec.product.Stock+deltas[sale.ProductID] < 0 {
			return nil, &domain.InsufficientStockError{ProductID: sale.ProductID}
		}
	}
	return deltas, nil
}

// applyDeltas применяет изменения остатков; вызывается под блокировкой
// после успешного stageDecrements.
func (l *transactionLedgerInMemory) applyDeltas(deltas map[string]int) {
	for productID, delta := range deltas {
		if rec, ok := l.store.products[productID]; ok {
			rec.product.Stock += delta
		}
	}
}

// buildSales материализует позиции; цена по умолчанию — текущая цена товара.
func (l *transactionLedgerInMemory) buildSales(transactionID string, inputs []domain.SaleInput) []domain.Sale {
	sales := make([]domain.Sale, 0, len(inputs))
	for _, in := range inputs {
		price := 0.0
		if in.Price != nil {
			price = *in.Price
		} else if rec, ok := l.store.products[in.ProductID]; ok {
			price = rec.product.Price
		}
		sales = append(sales, domain.Sale{
			ID:            uuid.NewString(),
			TransactionID: transactionID,
			ProductID:     in.ProductID,
			Amount:        in.Amount,
			Price:         price,
		})
	}
	return sales
}

type transactionEventPayload struct {
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	EventID       *string   `json:"event_id,omitempty"`
	PaymentMethod string    `json:"payment_method"`
	Sum           float64   `json:"sum"`
	SaleCount     int       `json:"sale_count"`
	Time          time.Time `json:"time"`
}

// enqueueEvent пишет событие мутации в outbox под той же блокировкой,
// что и сама мутация; вызывается последним, когда мутация уже применена.
func (l *transactionLedgerInMemory) enqueueEvent(eventType string, txn domain.Transaction) error {
	if !l.emitOutbox {
		return nil
	}

	var eventID *string
	if txn.Event != nil {
		eventID = &txn.Event.ID
	}
	payload, err := json.Marshal(transactionEventPayload{
		TransactionID: txn.ID,
		UserID:        txn.User.ID,
		EventID:       eventID,
		PaymentMethod: string(txn.PaymentMethod),
		Sum:           txn.Sum(),
		SaleCount:     len(txn.Sales),
		Time:          txn.Time,
	})
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}

	now := time.Now().UTC()
	msg := domain.OutboxMessage{
		ID:            uuid.NewString(),
		AggregateType: outboxAggregateTransaction,
		AggregateID:   txn.ID,
		EventType:     eventType,
		Payload:       payload,
	}
	l.store.outbox[msg.ID] = &outboxRecord{
		msg:       msg,
		status:    "pending",
		createdAt: now,
		updatedAt: now,
	}
	return nil
}

var _ domain.TransactionLedger = (*transactionLedgerInMemory)(nil)
