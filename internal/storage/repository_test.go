package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"finsight/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "finsight_test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestTransactionRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	dates := []time.Time{
		time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC),
	}
	for i, d := range dates {
		tx := core.Transaction{
			ID:       string(rune('a' + i)),
			Amount:   float64(10 * (i + 1)),
			Type:     core.Expense,
			Category: "food",
			Date:     d,
			Currency: "USD",
		}
		if err := repo.CreateTransaction(ctx, "user1", tx); err != nil {
			t.Fatalf("CreateTransaction() error = %v", err)
		}
	}

	got, err := repo.ListRecentTransactions(ctx, "user1", 50)
	if err != nil {
		t.Fatalf("ListRecentTransactions() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d transactions, want 3", len(got))
	}
	// Chronological order: oldest first.
	if got[0].Amount != 10 || got[2].Amount != 30 {
		t.Errorf("transactions not in chronological order: %+v", got)
	}

	// Other users see nothing.
	other, err := repo.ListRecentTransactions(ctx, "user2", 50)
	if err != nil {
		t.Fatalf("ListRecentTransactions() error = %v", err)
	}
	if len(other) != 0 {
		t.Errorf("user2 sees %d transactions, want 0", len(other))
	}
}

func TestListRecentTransactions_Limit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		tx := core.Transaction{
			ID:       string(rune('a' + i)),
			Amount:   float64(i + 1),
			Type:     core.Expense,
			Category: "food",
			Date:     base.AddDate(0, 0, i),
			Currency: "USD",
		}
		if err := repo.CreateTransaction(ctx, "user1", tx); err != nil {
			t.Fatalf("CreateTransaction() error = %v", err)
		}
	}

	got, err := repo.ListRecentTransactions(ctx, "user1", 5)
	if err != nil {
		t.Fatalf("ListRecentTransactions() error = %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("got %d transactions, want 5", len(got))
	}
	// The latest five, oldest of them first.
	if got[0].Amount != 6 || got[4].Amount != 10 {
		t.Errorf("limit window wrong: first=%v last=%v", got[0].Amount, got[4].Amount)
	}
}

func TestListUnpaidBills(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	bills := []core.Bill{
		{ID: "b1", Title: "Rent", Amount: 800, Currency: "USD", DueDate: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), Status: core.BillPending},
		{ID: "b2", Title: "Internet", Amount: 40, Currency: "USD", DueDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), Status: core.BillOverdue},
		{ID: "b3", Title: "Gym", Amount: 30, Currency: "USD", DueDate: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Status: core.BillPaid},
	}
	for _, b := range bills {
		if err := repo.CreateBill(ctx, "user1", b); err != nil {
			t.Fatalf("CreateBill() error = %v", err)
		}
	}

	unpaid, err := repo.ListUnpaidBills(ctx, "user1")
	if err != nil {
		t.Fatalf("ListUnpaidBills() error = %v", err)
	}
	if len(unpaid) != 2 {
		t.Fatalf("got %d unpaid bills, want 2", len(unpaid))
	}
	// Ordered by due date.
	if unpaid[0].ID != "b2" || unpaid[1].ID != "b1" {
		t.Errorf("unpaid bills out of order: %+v", unpaid)
	}
}

func TestUpdateBillStatus(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	bill := core.Bill{
		ID: "b1", Title: "Rent", Amount: 800, Currency: "USD",
		DueDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		Status:  core.BillOverdue,
	}
	if err := repo.CreateBill(ctx, "user1", bill); err != nil {
		t.Fatalf("CreateBill() error = %v", err)
	}

	if err := repo.UpdateBillStatus(ctx, "user1", "b1", core.BillPaid); err != nil {
		t.Fatalf("UpdateBillStatus() error = %v", err)
	}

	// A settled bill never appears in the scheduler snapshot again.
	unpaid, err := repo.ListUnpaidBills(ctx, "user1")
	if err != nil {
		t.Fatalf("ListUnpaidBills() error = %v", err)
	}
	if len(unpaid) != 0 {
		t.Errorf("got %d unpaid bills after paying, want 0", len(unpaid))
	}

	all, err := repo.ListBills(ctx, "user1")
	if err != nil {
		t.Fatalf("ListBills() error = %v", err)
	}
	if len(all) != 1 || all[0].Status != core.BillPaid {
		t.Errorf("bill not marked paid: %+v", all)
	}

	if err := repo.UpdateBillStatus(ctx, "user1", "missing", core.BillPaid); err == nil {
		t.Error("UpdateBillStatus() on unknown bill should error")
	}
	if err := repo.UpdateBillStatus(ctx, "user2", "b1", core.BillPaid); err == nil {
		t.Error("UpdateBillStatus() for another user's bill should error")
	}
}

func TestListUserIDsWithUnpaidBills(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	due := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)

	seed := []struct {
		userID string
		bill   core.Bill
	}{
		{"user1", core.Bill{ID: "b1", Title: "Rent", Amount: 800, Currency: "USD", DueDate: due, Status: core.BillPending}},
		{"user2", core.Bill{ID: "b2", Title: "Gym", Amount: 30, Currency: "USD", DueDate: due, Status: core.BillPaid}},
		{"user3", core.Bill{ID: "b3", Title: "Internet", Amount: 40, Currency: "USD", DueDate: due, Status: core.BillOverdue}},
	}
	for _, s := range seed {
		if err := repo.CreateBill(ctx, s.userID, s.bill); err != nil {
			t.Fatalf("CreateBill() error = %v", err)
		}
	}

	got, err := repo.ListUserIDsWithUnpaidBills(ctx)
	if err != nil {
		t.Fatalf("ListUserIDsWithUnpaidBills() error = %v", err)
	}
	if len(got) != 2 || got[0] != "user1" || got[1] != "user3" {
		t.Errorf("ListUserIDsWithUnpaidBills() = %v, want [user1 user3]", got)
	}
}

func TestNotificationDedupQuery(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	n := core.Notification{
		ID:                   "n1",
		Title:                "Bill Due Today",
		Message:              "Rent is due today (800 USD)",
		Severity:             core.SeverityError,
		NotificationType:     "due-today",
		CreatedAt:            now,
		BillID:               "b1",
		DueDate:              now,
		RequiresConfirmation: true,
	}
	if err := repo.CreateNotification(ctx, "user1", n); err != nil {
		t.Fatalf("CreateNotification() error = %v", err)
	}

	tests := []struct {
		name             string
		billID           string
		notificationType string
		since            time.Time
		want             bool
	}{
		{"inside window", "b1", "due-today", now.Add(-12 * time.Hour), true},
		{"outside window", "b1", "due-today", now.Add(time.Minute), false},
		{"different classification", "b1", "overdue", now.Add(-12 * time.Hour), false},
		{"different bill", "b2", "due-today", now.Add(-12 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.HasRecentNotification(ctx, "user1", tt.billID, tt.notificationType, tt.since)
			if err != nil {
				t.Fatalf("HasRecentNotification() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("HasRecentNotification() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfirmNotification(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	bill := core.Bill{
		ID: "b1", Title: "Rent", Amount: 800, Currency: "USD",
		DueDate: now, Status: core.BillPending,
	}
	if err := repo.CreateBill(ctx, "user1", bill); err != nil {
		t.Fatalf("CreateBill() error = %v", err)
	}

	n := core.Notification{
		ID:               "n1",
		Title:            "Bill Due Today",
		Message:          "Rent is due today (800 USD)",
		Severity:         core.SeverityError,
		NotificationType: "due-today",
		CreatedAt:        now,
		BillID:           "b1",
	}
	if err := repo.CreateNotification(ctx, "user1", n); err != nil {
		t.Fatalf("CreateNotification() error = %v", err)
	}

	if err := repo.ConfirmNotification(ctx, "user1", "n1", now.Add(time.Hour)); err != nil {
		t.Fatalf("ConfirmNotification() error = %v", err)
	}

	list, err := repo.ListNotifications(ctx, "user1", 10)
	if err != nil {
		t.Fatalf("ListNotifications() error = %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d notifications, want 1", len(list))
	}
	if !list[0].Read || !list[0].Confirmed {
		t.Errorf("notification not marked read/confirmed: %+v", list[0])
	}
	if list[0].ConfirmedAt.IsZero() {
		t.Error("confirmed_at not set")
	}
}

func TestConfirmNotification_Unknown(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.ConfirmNotification(context.Background(), "user1", "missing", time.Now()); err == nil {
		t.Error("ConfirmNotification() on unknown id should error")
	}
}
