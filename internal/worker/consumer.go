package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/media-batch/internal/worker/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

// setupConsumer starts consuming with the worker id as consumer tag
func (w *Worker) setupConsumer() (<-chan amqp.Delivery, error) {
	deliveries, err := w.source.Consume(w.workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}
	return deliveries, nil
}

// startMessageDispatcher validates deliveries and hands them to the batch loops
func (w *Worker) startMessageDispatcher(ctx context.Context, deliveries <-chan amqp.Delivery) {
	w.logger.Info("Message dispatcher started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Message dispatcher stopped - context canceled")
			return

		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Warn("RabbitMQ delivery channel closed")
				return
			}

			msg, err := domain.ParseSubmission(delivery.Body)
			if err != nil {
				w.logger.Error("Rejecting batch message",
					slog.String("error", err.Error()),
					slog.Uint64("delivery_tag", delivery.DeliveryTag),
				)
				// Invalid messages are never requeued.
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					w.logger.Error("Failed to NACK invalid message",
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			sub := &submission{
				Submission: domain.Submission{
					BatchID:     msg.BatchID,
					URLs:        msg.URLs,
					DeliveryTag: delivery.DeliveryTag,
				},
				delivery: delivery,
			}

			select {
			case w.batchesChan <- sub:
				w.logger.Debug("Batch dispatched",
					slog.String("batch_id", msg.BatchID),
					slog.Uint64("delivery_tag", delivery.DeliveryTag),
				)
			case <-ctx.Done():
				w.logger.Info("Message dispatcher stopped while dispatching batch")
				if nackErr := delivery.Nack(false, true); nackErr != nil {
					w.logger.Error("Failed to NACK message on shutdown",
						slog.String("error", nackErr.Error()),
					)
				}
				return
			}
		}
	}
}
