package kafka

import (
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"
)

func TestProducer_PublishEvent(t *testing.T) {
	// Создаем mock producer
	mockProducer := mocks.NewSyncProducer(t, nil)

	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-producer-test"),
	}

	// Настраиваем ожидания
	mockProducer.ExpectSendMessageAndSucceed()

	// Создаем тестовое событие
	event := NewTransactionEvent(
		EventTypeTransactionCreated,
		"test-txn-123",
		"user-1",
		map[string]interface{}{
			"sum": 42.5,
		},
	)

	// Публикуем событие
	err := producer.PublishEvent(TopicTransactionEvents, "test-txn-123", event)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Проверяем, что все ожидания выполнены
	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishEvent_Error(t *testing.T) {
	// Создаем mock producer с ошибкой
	mockProducer := mocks.NewSyncProducer(t, nil)

	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-producer-test"),
	}

	// Настраиваем ожидание ошибки
	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	event := NewTransactionEvent(
		EventTypeTransactionCreated,
		"test-txn-123",
		"user-1",
		nil,
	)

	// Публикуем событие
	err := producer.PublishEvent(TopicTransactionEvents, "test-txn-123", event)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestNewTransactionEvent(t *testing.T) {
	transactionID := "txn-123"
	userID := "user-1"
	metadata := map[string]interface{}{
		"sum":        1000,
		"sale_count": 3,
	}

	event := NewTransactionEvent(EventTypeTransactionCreated, transactionID, userID, metadata)

	if event.EventType != EventTypeTransactionCreated {
		t.Errorf("expected event type %s, got %s", EventTypeTransactionCreated, event.EventType)
	}

	if event.TransactionID != transactionID {
		t.Errorf("expected transaction id %s, got %s", transactionID, event.TransactionID)
	}

	if event.UserID != userID {
		t.Errorf("expected user id %s, got %s", userID, event.UserID)
	}

	if event.Metadata["sale_count"] != 3 {
		t.Error("metadata not set correctly")
	}

	// Проверяем, что timestamp установлен
	if event.Timestamp.IsZero() {
		t.Error("timestamp should not be zero")
	}

	// Проверяем, что timestamp близок к текущему времени
	if time.Since(event.Timestamp) > time.Second {
		t.Error("timestamp should be close to current time")
	}
}
