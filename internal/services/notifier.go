package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"finsight/internal/cache"
	"finsight/internal/core"
	applog "finsight/internal/log"
)

// DefaultDedupWindow is the rolling window during which a given
// (bill, classification) pair may produce at most one notification.
const DefaultDedupWindow = 12 * time.Hour

const cooldownCacheSize = 4096

// NotificationStore is the persistence port for the notifier. The recent
// check must be backed by durable storage so dedup survives restarts.
type NotificationStore interface {
	// CreateNotification persists a new notification for the user.
	CreateNotification(ctx context.Context, userID string, n core.Notification) error

	// HasRecentNotification reports whether a notification for the
	// (billID, notificationType) pair was created at or after since.
	HasRecentNotification(ctx context.Context, userID, billID, notificationType string, since time.Time) (bool, error)
}

// AlertPublisher delivers the toast/sound signal for a newly created
// notification. It is invoked once per created notification, never for
// deduplicated ones.
type AlertPublisher interface {
	PublishBillAlert(ctx context.Context, userID string, n core.Notification) error
}

// Notifier classifies a user's bills by urgency and emits rate-limited
// notifications. Two concurrent CheckAll runs for the same process are
// serialized, so both cannot pass the dedup check for the same key.
type Notifier struct {
	store  NotificationStore
	alerts AlertPublisher // optional
	window time.Duration

	// mu serializes the dedup check-and-set across concurrent triggers
	// (login hook and periodic timer).
	mu       sync.Mutex
	cooldown *cache.LRUCache[time.Time]
}

// NewNotifier creates a notifier with the given dedup window. A zero window
// falls back to DefaultDedupWindow. alerts may be nil when no delivery
// channel is configured.
func NewNotifier(store NotificationStore, alerts AlertPublisher, window time.Duration) *Notifier {
	if window <= 0 {
		window = DefaultDedupWindow
	}
	return &Notifier{
		store:    store,
		alerts:   alerts,
		window:   window,
		cooldown: cache.NewLRUCache[time.Time](cooldownCacheSize, window),
	}
}

// CheckAll classifies every bill in the snapshot and creates one notification
// per bill that passes classification and dedup. Each bill is processed
// independently: a storage failure for one bill is logged and does not stop
// the rest of the batch. Returns the number of notifications created.
func (n *Notifier) CheckAll(ctx context.Context, userID string, bills []core.Bill, now time.Time) (int, error) {
	if n.store == nil {
		return 0, fmt.Errorf("notifier not properly initialized")
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	created := 0
	for _, bill := range bills {
		cls, ok := Classify(bill, now)
		if !ok {
			continue
		}

		key := cooldownKey(userID, bill.ID, cls.Type)
		if last, hit := n.cooldown.Get(key); hit && now.Sub(last) < n.window {
			continue
		}

		recent, err := n.store.HasRecentNotification(ctx, userID, bill.ID, cls.Type, now.Add(-n.window))
		if err != nil {
			slog.ErrorContext(ctx, "Failed to check recent notifications",
				applog.FieldBillID, bill.ID,
				applog.FieldClassification, cls.Type,
				applog.FieldError, err)
			continue
		}
		if recent {
			// Not cached: now is the observation time, not the stored
			// notification's creation time, and caching it would stretch
			// the window after a restart.
			continue
		}

		notification := core.Notification{
			ID:                   uuid.NewString(),
			Title:                cls.Title,
			Message:              cls.Message,
			Severity:             cls.Severity,
			NotificationType:     cls.Type,
			Read:                 false,
			CreatedAt:            now,
			BillID:               bill.ID,
			DueDate:              bill.DueDate,
			RequiresConfirmation: true,
		}

		if err := n.store.CreateNotification(ctx, userID, notification); err != nil {
			// Cooldown is advanced only after a successful write so the
			// next run can retry a missed notification.
			slog.ErrorContext(ctx, "Failed to create notification",
				applog.FieldBillID, bill.ID,
				applog.FieldClassification, cls.Type,
				applog.FieldError, err)
			continue
		}
		n.cooldown.Set(key, now)
		created++

		fields := applog.NewFields().
			WithUser(userID).
			WithBill(bill.ID, bill.Title, bill.Amount, bill.Currency).
			WithNotification(notification.ID, cls.Type, string(cls.Severity))
		slog.InfoContext(ctx, "Created bill notification", fields.ToSlice()...)

		if n.alerts != nil {
			if err := n.alerts.PublishBillAlert(ctx, userID, notification); err != nil {
				// Notification is persisted; alert delivery is best-effort.
				slog.ErrorContext(ctx, "Failed to publish bill alert",
					applog.FieldBillID, bill.ID,
					applog.FieldNotificationID, notification.ID,
					applog.FieldError, err)
			}
		}
	}

	slog.InfoContext(ctx, "Bill notification check complete",
		"total_bills", len(bills),
		"created", created)

	return created, nil
}

func cooldownKey(userID, billID, classification string) string {
	return userID + "|" + billID + "|" + classification
}
