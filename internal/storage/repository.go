// Package storage implements the SQLite-backed data store for transactions,
// bills and notifications. All queries are scoped to a user id supplied by
// the identity layer.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finsight/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateTransaction stores a transaction record for the user.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, userID string, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("validate transaction: %w", err)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, amount, type, category, date, currency)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, userID, t.Amount, string(t.Type), t.Category, t.Date.UTC(), t.Currency)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"type", string(t.Type),
		"category", t.Category,
		"amount", t.Amount)

	return nil
}

// ListRecentTransactions returns the user's latest transactions in
// chronological order (oldest first), which is the ordering the analytics
// trend and forecast computations expect.
func (r *SQLiteRepository) ListRecentTransactions(ctx context.Context, userID string, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, amount, type, category, date, currency
		 FROM transactions
		 WHERE user_id = ?
		 ORDER BY date DESC, created_at DESC
		 LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent transactions: %w", err)
	}
	defer rows.Close()

	var transactions []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var txType string
		if err := rows.Scan(&t.ID, &t.Amount, &txType, &t.Category, &t.Date, &t.Currency); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Type = core.TransactionType(txType)
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	// Query returns newest first; reverse into chronological order.
	for i, j := 0, len(transactions)-1; i < j; i, j = i+1, j-1 {
		transactions[i], transactions[j] = transactions[j], transactions[i]
	}

	return transactions, nil
}

// CreateBill stores a bill for the user.
func (r *SQLiteRepository) CreateBill(ctx context.Context, userID string, b core.Bill) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("validate bill: %w", err)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bills (id, user_id, title, amount, currency, due_date, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, userID, b.Title, b.Amount, b.Currency, b.DueDate.UTC(), string(b.Status))
	if err != nil {
		return fmt.Errorf("create bill: %w", err)
	}

	slog.InfoContext(ctx, "Bill saved",
		"id", b.ID,
		"title", b.Title,
		"due_date", b.DueDate.Format("2006-01-02"))

	return nil
}

// ListUnpaidBills returns the user's non-paid bills ordered by due date,
// which is the snapshot the notification scheduler consumes.
func (r *SQLiteRepository) ListUnpaidBills(ctx context.Context, userID string) ([]core.Bill, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, amount, currency, due_date, status
		 FROM bills
		 WHERE user_id = ? AND status != 'paid'
		 ORDER BY due_date`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list unpaid bills: %w", err)
	}
	defer rows.Close()

	return scanBills(rows)
}

// ListUserIDsWithUnpaidBills returns the users the periodic scheduler needs
// to check.
func (r *SQLiteRepository) ListUserIDsWithUnpaidBills(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM bills WHERE status != 'paid' ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list users with unpaid bills: %w", err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user ids: %w", err)
	}
	return userIDs, nil
}

// ListBills returns all of the user's bills ordered by due date.
func (r *SQLiteRepository) ListBills(ctx context.Context, userID string) ([]core.Bill, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, amount, currency, due_date, status
		 FROM bills
		 WHERE user_id = ?
		 ORDER BY due_date`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()

	return scanBills(rows)
}

func scanBills(rows *sql.Rows) ([]core.Bill, error) {
	var bills []core.Bill
	for rows.Next() {
		var b core.Bill
		var status string
		if err := rows.Scan(&b.ID, &b.Title, &b.Amount, &b.Currency, &b.DueDate, &status); err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		b.Status = core.BillStatus(status)
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bills: %w", err)
	}
	return bills, nil
}

// UpdateBillStatus changes a bill's status.
func (r *SQLiteRepository) UpdateBillStatus(ctx context.Context, userID, billID string, status core.BillStatus) error {
	if err := status.Validate(); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE bills SET status = ? WHERE id = ? AND user_id = ?`,
		string(status), billID, userID)
	if err != nil {
		return fmt.Errorf("update bill status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CreateNotification implements services.NotificationStore.
func (r *SQLiteRepository) CreateNotification(ctx context.Context, userID string, n core.Notification) error {
	var billID, notifDue any
	if n.BillID != "" {
		billID = n.BillID
	}
	if !n.DueDate.IsZero() {
		notifDue = n.DueDate.UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications
		 (id, user_id, title, message, severity, notification_type, read, created_at, bill_id, due_date, requires_confirmation)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, userID, n.Title, n.Message, string(n.Severity), n.NotificationType,
		n.Read, n.CreatedAt.UTC(), billID, notifDue, n.RequiresConfirmation)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	return nil
}

// HasRecentNotification implements services.NotificationStore. It reports
// whether a notification for the (billID, notificationType) pair exists at or
// after the window start, regardless of read state.
func (r *SQLiteRepository) HasRecentNotification(ctx context.Context, userID, billID, notificationType string, since time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM notifications
		   WHERE user_id = ? AND bill_id = ? AND notification_type = ? AND created_at >= ?
		 )`,
		userID, billID, notificationType, since.UTC()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check recent notification: %w", err)
	}
	return exists, nil
}

// ListNotifications returns the user's notifications, unread first, newest
// within each group.
func (r *SQLiteRepository) ListNotifications(ctx context.Context, userID string, limit int) ([]core.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, message, severity, notification_type, read, created_at,
		        COALESCE(bill_id, ''), due_date, requires_confirmation, confirmed, confirmed_at
		 FROM notifications
		 WHERE user_id = ?
		 ORDER BY read, created_at DESC
		 LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []core.Notification
	for rows.Next() {
		var n core.Notification
		var severity string
		var dueDate, confirmedAt sql.NullTime
		if err := rows.Scan(&n.ID, &n.Title, &n.Message, &severity, &n.NotificationType,
			&n.Read, &n.CreatedAt, &n.BillID, &dueDate, &n.RequiresConfirmation, &n.Confirmed, &confirmedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Severity = core.Severity(severity)
		if dueDate.Valid {
			n.DueDate = dueDate.Time
		}
		if confirmedAt.Valid {
			n.ConfirmedAt = confirmedAt.Time
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return notifications, nil
}

// ConfirmNotification marks a notification read and confirmed and, when it
// references a bill, acknowledges the bill in the same transaction.
func (r *SQLiteRepository) ConfirmNotification(ctx context.Context, userID, notificationID string, now time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin confirm transaction: %w", err)
	}
	defer tx.Rollback()

	var billID sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT bill_id FROM notifications WHERE id = ? AND user_id = ?`,
		notificationID, userID).Scan(&billID)
	if err != nil {
		return fmt.Errorf("load notification: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE notifications SET read = 1, confirmed = 1, confirmed_at = ?
		 WHERE id = ? AND user_id = ?`,
		now.UTC(), notificationID, userID)
	if err != nil {
		return fmt.Errorf("confirm notification: %w", err)
	}

	if billID.Valid && billID.String != "" {
		_, err = tx.ExecContext(ctx,
			`UPDATE bills SET acknowledged = 1, acknowledged_at = ?
			 WHERE id = ? AND user_id = ?`,
			now.UTC(), billID.String, userID)
		if err != nil {
			return fmt.Errorf("acknowledge bill: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit confirm transaction: %w", err)
	}

	slog.InfoContext(ctx, "Notification confirmed",
		"id", notificationID,
		"bill_id", billID.String)

	return nil
}
