package kafka

import "time"

// EventType определяет тип события
type EventType string

const (
	// Transaction события
	EventTypeTransactionCreated EventType = "transaction.created"
	EventTypeTransactionUpdated EventType = "transaction.updated"
	EventTypeTransactionDeleted EventType = "transaction.deleted"
)

// Topics для Kafka
const (
	TopicTransactionEvents = "prodhub.transaction.events"
	TopicDeadLetterQueue   = "prodhub.dlq" // Dead Letter Queue для failed messages
)

// Kafka headers для retry логики
const (
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)

// TransactionEvent представляет событие транзакции
type TransactionEvent struct {
	EventType     EventType              `json:"event_type"`
	TransactionID string                 `json:"transaction_id"`
	UserID        string                 `json:"user_id"`
	Timestamp     time.Time              `json:"timestamp"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// NewTransactionEvent создает новое событие транзакции
func NewTransactionEvent(eventType EventType, transactionID, userID string, metadata map[string]interface{}) *TransactionEvent {
	return &TransactionEvent{
		EventType:     eventType,
		TransactionID: transactionID,
		UserID:        userID,
		Timestamp:     time.Now(),
		Metadata:      metadata,
	}
}
