// Package worker delivers bill alert messages consumed from AMQP.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"finsight/internal/amqp"
)

// AlertWorker turns queued bill alerts into user-facing deliveries. The
// delivery channel is pluggable; by default alerts are written to the
// structured log, which downstream log shippers pick up.
type AlertWorker struct {
	deliver   func(ctx context.Context, msg *amqp.BillAlertMessage) error
	delivered atomic.Int64
}

// NewAlertWorker creates a worker. deliver may be nil, in which case alerts
// are logged only.
func NewAlertWorker(deliver func(ctx context.Context, msg *amqp.BillAlertMessage) error) *AlertWorker {
	return &AlertWorker{deliver: deliver}
}

// HandleAlertMessage processes a single bill alert message from AMQP.
// A returned error causes the message to be requeued.
func (w *AlertWorker) HandleAlertMessage(ctx context.Context, msg *amqp.BillAlertMessage) error {
	if msg == nil {
		return errors.New("nil alert message")
	}
	if msg.NotificationID == "" {
		return errors.New("alert message missing notification id")
	}

	slog.InfoContext(ctx, "Delivering bill alert",
		"notification_id", msg.NotificationID,
		"bill_id", msg.BillID,
		"classification", msg.NotificationType,
		"severity", msg.Severity,
		"toast", msg.Toast,
		"play_sound", msg.PlaySound)

	if w.deliver != nil {
		if err := w.deliver(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Alert delivery failed",
				"notification_id", msg.NotificationID,
				"error", err)
			return err
		}
	}

	w.delivered.Add(1)
	return nil
}

// Delivered returns the number of alerts processed since startup.
func (w *AlertWorker) Delivered() int64 {
	return w.delivered.Load()
}
