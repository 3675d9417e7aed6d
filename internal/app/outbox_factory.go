package app

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/prodhub/internal/domain"
	"github.com/vladislavdragonenkov/prodhub/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/prodhub/internal/service/outbox"
)

// createOutboxWorker собирает воркер публикации событий транзакций.
// Без Kafka producer воркер не нужен: события копятся в outbox и будут
// опубликованы после появления брокера.
func createOutboxWorker(
	cfg Config,
	repo domain.OutboxRepository,
	producer *kafka.Producer,
	logger *log.Entry,
) *outbox.Worker {
	if producer == nil {
		return nil
	}

	publisher := kafka.NewOutboxPublisher(producer, kafka.TopicTransactionEvents)
	dlq := kafka.NewOutboxPublisher(producer, kafka.TopicDeadLetterQueue)

	return outbox.NewWorker(repo, publisher,
		outbox.WithLogger(logger.WithField("component", "outbox-worker")),
		outbox.WithDLQPublisher(dlq),
		outbox.WithPollInterval(cfg.OutboxPollInterval),
		outbox.WithBatchSize(cfg.OutboxBatchSize),
		outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
		outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
	)
}
