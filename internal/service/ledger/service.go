package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/prodhub/internal/domain"
	"github.com/vladislavdragonenkov/prodhub/internal/metrics"
)

// ValidationError агрегирует нарушения инвариантов входного запроса.
type ValidationError struct {
	Errs []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Service — Order Ledger: валидация запросов и делегирование атомарному
// журналу хранилища.
type Service struct {
	ledger  domain.TransactionLedger
	metrics *metrics.LedgerMetrics
	logger  *log.Entry
}

// NewService создаёт сервис ledger.
func NewService(l domain.TransactionLedger, m *metrics.LedgerMetrics) *Service {
	return &Service{
		ledger:  l,
		metrics: m,
		logger:  log.WithField("component", "ledger-service"),
	}
}

// Create создаёт транзакцию со списанием остатков по каждой позиции.
func (s *Service) Create(ctx context.Context, userID string, in domain.CreateTransaction) (domain.Transaction, error) {
	if errs := in.Validate(); len(errs) > 0 {
		return domain.Transaction{}, &ValidationError{Errs: errs}
	}

	start := time.Now()
	txn, err := s.ledger.Create(ctx, userID, in)
	s.observe("create", start)
	if err != nil {
		s.recordMutationError(err)
		return domain.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordTransactionCreated()
	}
	s.logger.WithFields(log.Fields{
		"transaction_id": txn.ID,
		"user_id":        userID,
		"sale_count":     len(txn.Sales),
	}).Info("transaction created")
	return txn, nil
}

// Get возвращает транзакцию по идентификатору.
func (s *Service) Get(ctx context.Context, id string) (domain.Transaction, error) {
	start := time.Now()
	txn, err := s.ledger.Get(ctx, id)
	s.observe("get", start)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return txn, nil
}

// List возвращает транзакции по конъюнкции фильтров.
func (s *Service) List(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	start := time.Now()
	txns, err := s.ledger.List(ctx, filter)
	s.observe("list", start)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txns, nil
}

// Update применяет patch заголовка и, если задан, новый список продаж.
// force отключает возврат остатков по замещаемым позициям.
func (s *Service) Update(ctx context.Context, id string, in domain.UpdateTransaction, force bool) (domain.Transaction, error) {
	if errs := in.Validate(); len(errs) > 0 {
		return domain.Transaction{}, &ValidationError{Errs: errs}
	}

	start := time.Now()
	txn, err := s.ledger.Update(ctx, id, in, force)
	s.observe("update", start)
	if err != nil {
		s.recordMutationError(err)
		return domain.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordTransactionUpdated()
	}
	s.logger.WithFields(log.Fields{
		"transaction_id": id,
		"force":          force,
	}).Info("transaction updated")
	return txn, nil
}

// Delete удаляет транзакцию; returnProducts управляет возвратом остатков.
func (s *Service) Delete(ctx context.Context, id string, returnProducts bool) error {
	start := time.Now()
	err := s.ledger.Delete(ctx, id, returnProducts)
	s.observe("delete", start)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordTransactionDeleted()
	}
	s.logger.WithFields(log.Fields{
		"transaction_id":  id,
		"return_products": returnProducts,
	}).Info("transaction deleted")
	return nil
}

func (s *Service) observe(operation string, start time.Time) {
	if s.metrics == nil {
		return
	}
	elapsed := time.Since(start)
	s.metrics.RecordOpDuration(operation, elapsed)
	if operation != "get" && operation != "list" {
		s.metrics.RecordLedgerDuration(elapsed)
	}
}

func (s *Service) recordMutationError(err error) {
	if s.metrics != nil && domain.IsInsufficientStock(err) {
		s.metrics.RecordStockConflict()
	}
}
