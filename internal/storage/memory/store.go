package memory

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/prodhub/internal/domain"
)

// userRecord хранит пользователя вместе с производными пароля.
type userRecord struct {
	user  domain.User
	creds domain.UserCredentials
}

// productRecord хранит товар и идентификаторы его категорий.
type productRecord struct {
	product    domain.Product
	categories []string
}

// transactionRecord хранит заголовок транзакции и её позиции.
type transactionRecord struct {
	id            string
	userID        string
	eventID       *string
	time          time.Time
	paymentMethod domain.PaymentMethod
	sales         []domain.Sale
}

// outboxRecord хранит сообщение и служебные поля для in-memory outbox.
type outboxRecord struct {
	msg        domain.OutboxMessage
	status     string
	attemptCnt int
	createdAt  time.Time
	updatedAt  time.Time
}

// Store — общее in-memory хранилище для локальной разработки и тестов.
// Один мьютекс на все таблицы: мутации ledger, затрагивающие остатки
// нескольких товаров, выполняются атомарно, как SQL-транзакция.
type Store struct {
	mu           sync.RWMutex
	users        map[string]userRecord
	sessions     map[string]domain.Session
	categories   map[string]domain.Category
	products     map[string]*productRecord
	events       map[string]domain.Event
	transactions map[string]*transactionRecord
	outbox       map[string]*outboxRecord
}

// NewStore создаёт пустое хранилище.
func NewStore() *Store {
	return &Store{
		users:        make(map[string]userRecord),
		sessions:     make(map[string]domain.Session),
		categories:   make(map[string]domain.Category),
		products:     make(map[string]*productRecord),
		events:       make(map[string]domain.Event),
		transactions: make(map[string]*transactionRecord),
		outbox:       make(map[string]*outboxRecord),
	}
}

// Users возвращает репозиторий пользователей поверх хранилища.
func (s *Store) Users() domain.UserRepository { return &userRepositoryInMemory{store: s} }

// Sessions возвращает репозиторий токенов поверх хранилища.
func (s *Store) Sessions() domain.SessionRepository { return &sessionRepositoryInMemory{store: s} }

// Categories возвращает репозиторий категорий поверх хранилища.
func (s *Store) Categories() domain.CategoryRepository { return &categoryRepositoryInMemory{store: s} }

// Products возвращает репозиторий товаров поверх хранилища.
func (s *Store) Products() domain.ProductRepository { return &productRepositoryInMemory{store: s} }

// Events возвращает репозиторий событий поверх хранилища.
func (s *Store) Events() domain.EventRepository { return &eventRepositoryInMemory{store: s} }

// Ledger возвращает журнал транзакций без публикации событий.
func (s *Store) Ledger() domain.TransactionLedger { return &transactionLedgerInMemory{store: s} }

// LedgerWithOutbox дополнительно пишет событие каждой мутации в outbox.
func (s *Store) LedgerWithOutbox() domain.TransactionLedger {
	return &transactionLedgerInMemory{store: s, emitOutbox: true}
}

// Outbox возвращает in-memory реализацию transactional outbox.
func (s *Store) Outbox() *OutboxRepository { return &OutboxRepository{store: s} }

// productView собирает domain.Product с категориями; вызывается под блокировкой.
func (s *Store) productView(rec *productRecord) domain.Product {
	product := rec.product
	product.Categories = make([]domain.Category, 0, len(rec.categories))
	for _, categoryID := range rec.categories {
		if category, ok := s.categories[categoryID]; ok {
			product.Categories = append(product.Categories, category)
		}
	}
	return product
}

// transactionView собирает domain.Transaction; вызывается под блокировкой.
func (s *Store) transactionView(rec *transactionRecord) domain.Transaction {
	txn := domain.Transaction{
		ID:            rec.id,
		Time:          rec.time,
		PaymentMethod: rec.paymentMethod,
		Sales:         append([]domain.Sale(nil), rec.sales...),
	}
	if user, ok := s.users[rec.userID]; ok {
		txn.User = user.user
	} else {
		txn.User = domain.User{ID: rec.userID}
	}
	if rec.eventID != nil {
		if event, ok := s.events[*rec.eventID]; ok {
			eventCopy := event
			txn.Event = &eventCopy
		}
	}
	return txn
}
