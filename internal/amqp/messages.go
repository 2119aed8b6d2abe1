package amqp

import (
	"encoding/json"
	"time"

	"finsight/internal/core"
)

// BillAlertMessage carries the UI-facing alert for a newly created bill
// notification: the toast text plus a sound trigger. Consumers fetch nothing
// extra; the message is self-contained.
type BillAlertMessage struct {
	UserID           string        `json:"user_id"`
	NotificationID   string        `json:"notification_id"`
	BillID           string        `json:"bill_id"`
	NotificationType string        `json:"notification_type"`
	Severity         core.Severity `json:"severity"`
	Toast            string        `json:"toast"`
	PlaySound        bool          `json:"play_sound"`
	Timestamp        time.Time     `json:"timestamp"`
}

// NewBillAlertMessage builds an alert message from a persisted notification.
func NewBillAlertMessage(userID string, n core.Notification) *BillAlertMessage {
	return &BillAlertMessage{
		UserID:           userID,
		NotificationID:   n.ID,
		BillID:           n.BillID,
		NotificationType: n.NotificationType,
		Severity:         n.Severity,
		Toast:            n.Message,
		PlaySound:        true,
		Timestamp:        time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *BillAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BillAlertMessageFromJSON creates a message from JSON bytes.
func BillAlertMessageFromJSON(data []byte) (*BillAlertMessage, error) {
	var msg BillAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
