package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/xavierca1/products-cms/internal/entity"
)

type AuditRecorder interface {
	Insert(ctx context.Context, e *entity.AuditEvent) error
}

// PublishNotifier announces products that went live.
type PublishNotifier interface {
	SendPublished(event *entity.AuditEvent) error
}

// Acknowledger is implemented by amqp.Delivery.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

type Worker struct {
	Channel  *amqp.Channel
	Recorder AuditRecorder
	Notifier PublishNotifier
	Log      *zap.Logger
}

// NewWorker builds a worker; notifier may be nil.
func NewWorker(ch *amqp.Channel, recorder AuditRecorder, notifier PublishNotifier, log *zap.Logger) *Worker {
	return &Worker{
		Channel:  ch,
		Recorder: recorder,
		Notifier: notifier,
		Log:      log.Named("audit-worker"),
	}
}

// Start consumes queueName until ctx is done or the channel closes.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	w.Log.Info("📥 Audit worker waiting", zap.String("queue", queueName))
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			w.Handle(ctx, d.Body, &d)
		}
	}
}

// Handle processes one delivery. Malformed bodies and storage failures are
// rejected without requeue so they land in the dead-letter queue.
func (w *Worker) Handle(ctx context.Context, body []byte, ack Acknowledger) {
	var event entity.AuditEvent
	if err := json.Unmarshal(body, &event); err != nil {
		w.Log.Error("❌ Invalid audit event", zap.Error(err))
		ack.Nack(false, false)
		return
	}

	if err := w.process(ctx, &event); err != nil {
		w.Log.Error("❌ Audit event not stored", zap.String("event_id", event.ID), zap.Error(err))
		ack.Nack(false, false)
		return
	}

	ack.Ack(false)
}

func (w *Worker) process(ctx context.Context, event *entity.AuditEvent) error {
	if err := w.Recorder.Insert(ctx, event); err != nil {
		return err
	}
	w.Log.Info("✅ Audit event stored",
		zap.String("event_id", event.ID),
		zap.String("action", string(event.Action)),
		zap.String("product_id", event.ProductID.String()),
		zap.String("actor", event.Actor),
	)

	if w.Notifier == nil || event.Action == entity.AuditDelete || event.Status != entity.StatusPublished {
		return nil
	}
	// The event is already stored; a mail failure must not dead-letter it.
	if err := w.Notifier.SendPublished(event); err != nil {
		w.Log.Warn("⚠️ Publish notice not sent", zap.String("event_id", event.ID), zap.Error(err))
	}
	return nil
}
