package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finsight/internal/core"
)

type fakeStore struct {
	transactions  []core.Transaction
	bills         []core.Bill
	notifications []core.Notification
	confirmed     []string
}

func (f *fakeStore) CreateTransaction(_ context.Context, _ string, t core.Transaction) error {
	f.transactions = append(f.transactions, t)
	return nil
}

func (f *fakeStore) ListRecentTransactions(_ context.Context, _ string, limit int) ([]core.Transaction, error) {
	if len(f.transactions) > limit {
		return f.transactions[len(f.transactions)-limit:], nil
	}
	return f.transactions, nil
}

func (f *fakeStore) CreateBill(_ context.Context, _ string, b core.Bill) error {
	f.bills = append(f.bills, b)
	return nil
}

func (f *fakeStore) ListBills(_ context.Context, _ string) ([]core.Bill, error) {
	return f.bills, nil
}

func (f *fakeStore) UpdateBillStatus(_ context.Context, _, billID string, status core.BillStatus) error {
	for i, b := range f.bills {
		if b.ID == billID {
			f.bills[i].Status = status
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeStore) ListUnpaidBills(_ context.Context, _ string) ([]core.Bill, error) {
	var unpaid []core.Bill
	for _, b := range f.bills {
		if !b.IsPaid() {
			unpaid = append(unpaid, b)
		}
	}
	return unpaid, nil
}

func (f *fakeStore) ListNotifications(_ context.Context, _ string, _ int) ([]core.Notification, error) {
	return f.notifications, nil
}

func (f *fakeStore) ConfirmNotification(_ context.Context, _, notificationID string, _ time.Time) error {
	for _, n := range f.notifications {
		if n.ID == notificationID {
			f.confirmed = append(f.confirmed, notificationID)
			return nil
		}
	}
	return sql.ErrNoRows
}

type fakeNotifier struct {
	checked int
	created int
}

func (f *fakeNotifier) CheckAll(_ context.Context, _ string, bills []core.Bill, _ time.Time) (int, error) {
	f.checked += len(bills)
	return f.created, nil
}

func newTestServer(t *testing.T, store *fakeStore, notifier *fakeNotifier) *Server {
	t.Helper()
	s := NewServer(":0", store, store, store, notifier, nil, Options{})
	t.Cleanup(func() { s.limiter.stop() })
	return s
}

func doRequest(s *Server, method, path, userID, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	if userID != "" {
		r.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(w, r)
	return w
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, &fakeStore{}, &fakeNotifier{})

	w := doRequest(s, http.MethodGet, "/healthz", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestMissingUserHeader(t *testing.T) {
	s := newTestServer(t, &fakeStore{}, &fakeNotifier{})

	w := doRequest(s, http.MethodGet, "/api/insights", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal error body: %v", err)
	}
	if resp["error"] == "" {
		t.Error("expected error message in body")
	}
}

func TestCreateTransaction(t *testing.T) {
	store := &fakeStore{}
	s := newTestServer(t, store, &fakeNotifier{})

	body := `{"amount":"12,50","type":"expense","category":"food","date":"2024-01-15","currency":"EUR"}`
	w := doRequest(s, http.MethodPost, "/api/transactions", "user1", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	if len(store.transactions) != 1 {
		t.Fatalf("stored %d transactions, want 1", len(store.transactions))
	}

	got := store.transactions[0]
	if got.Amount != 12.5 {
		t.Errorf("amount = %v, want 12.5", got.Amount)
	}
	if got.Currency != "EUR" {
		t.Errorf("currency = %s, want EUR", got.Currency)
	}
	if got.ID == "" {
		t.Error("expected generated id")
	}
}

func TestCreateTransactionRoundsToCents(t *testing.T) {
	store := &fakeStore{}
	s := newTestServer(t, store, &fakeNotifier{})

	body := `{"amount":"12.345","type":"expense","category":"food","date":"2024-01-15","currency":"EUR"}`
	w := doRequest(s, http.MethodPost, "/api/transactions", "user1", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	if got := store.transactions[0].Amount; got != 12.35 {
		t.Errorf("amount = %v, want 12.35", got)
	}
}

func TestCreateTransactionRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"negative amount", `{"amount":"-5","type":"expense","category":"food","date":"2024-01-15","currency":"EUR"}`},
		{"bad type", `{"amount":"5","type":"transfer","category":"food","date":"2024-01-15","currency":"EUR"}`},
		{"missing category", `{"amount":"5","type":"expense","category":"","date":"2024-01-15","currency":"EUR"}`},
		{"bad date", `{"amount":"5","type":"expense","category":"food","date":"15/01/2024","currency":"EUR"}`},
		{"not json", `{{{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			s := newTestServer(t, store, &fakeNotifier{})

			w := doRequest(s, http.MethodPost, "/api/transactions", "user1", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if len(store.transactions) != 0 {
				t.Errorf("stored %d transactions, want 0", len(store.transactions))
			}
		})
	}
}

func TestCreateBill(t *testing.T) {
	store := &fakeStore{}
	s := newTestServer(t, store, &fakeNotifier{})

	body := `{"title":"Internet","amount":"45.50","currency":"USD","dueDate":"2024-02-01"}`
	w := doRequest(s, http.MethodPost, "/api/bills", "user1", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	if len(store.bills) != 1 {
		t.Fatalf("stored %d bills, want 1", len(store.bills))
	}
	if store.bills[0].Status != core.BillPending {
		t.Errorf("status = %s, want pending", store.bills[0].Status)
	}
}

func TestPayBill(t *testing.T) {
	store := &fakeStore{
		bills: []core.Bill{
			{ID: "b1", Title: "Rent", Amount: 800, Currency: "USD", DueDate: time.Now(), Status: core.BillOverdue},
		},
	}
	s := newTestServer(t, store, &fakeNotifier{})

	w := doRequest(s, http.MethodPost, "/api/bills/b1/pay", "user1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if store.bills[0].Status != core.BillPaid {
		t.Errorf("bill status = %s, want paid", store.bills[0].Status)
	}

	// Paid bills leave the scheduler's snapshot.
	unpaid, _ := store.ListUnpaidBills(context.Background(), "user1")
	if len(unpaid) != 0 {
		t.Errorf("got %d unpaid bills after paying, want 0", len(unpaid))
	}
}

func TestPayBillNotFound(t *testing.T) {
	s := newTestServer(t, &fakeStore{}, &fakeNotifier{})

	w := doRequest(s, http.MethodPost, "/api/bills/missing/pay", "user1", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestInsights(t *testing.T) {
	store := &fakeStore{
		transactions: []core.Transaction{
			{ID: "t1", Amount: 3000, Type: core.Income, Category: "salary", Date: time.Now(), Currency: "USD"},
			{ID: "t2", Amount: 150, Type: core.Expense, Category: "food", Date: time.Now(), Currency: "USD"},
			{ID: "t3", Amount: 20, Type: core.Expense, Category: "transport", Date: time.Now(), Currency: "USD"},
		},
	}
	s := newTestServer(t, store, &fakeNotifier{})

	w := doRequest(s, http.MethodGet, "/api/insights?days=7", "user1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var report struct {
		Patterns     []json.RawMessage `json:"spendingPatterns"`
		ForecastDays int               `json:"forecastDays"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if len(report.Patterns) != 2 {
		t.Errorf("got %d patterns, want 2", len(report.Patterns))
	}
	if report.ForecastDays != 7 {
		t.Errorf("forecastDays = %d, want 7", report.ForecastDays)
	}
}

func TestInsightsRejectsBadDays(t *testing.T) {
	s := newTestServer(t, &fakeStore{}, &fakeNotifier{})

	for _, days := range []string{"0", "-1", "366", "abc"} {
		w := doRequest(s, http.MethodGet, "/api/insights?days="+days, "user1", "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("days=%s: status = %d, want %d", days, w.Code, http.StatusBadRequest)
		}
	}
}

func TestConfirmNotification(t *testing.T) {
	store := &fakeStore{
		notifications: []core.Notification{{ID: "n1", Title: "Bill Due Today"}},
	}
	s := newTestServer(t, store, &fakeNotifier{})

	w := doRequest(s, http.MethodPost, "/api/notifications/n1/confirm", "user1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if len(store.confirmed) != 1 || store.confirmed[0] != "n1" {
		t.Errorf("confirmed = %v, want [n1]", store.confirmed)
	}
}

func TestConfirmNotificationNotFound(t *testing.T) {
	s := newTestServer(t, &fakeStore{}, &fakeNotifier{})

	w := doRequest(s, http.MethodPost, "/api/notifications/missing/confirm", "user1", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestRunChecks(t *testing.T) {
	store := &fakeStore{
		bills: []core.Bill{
			{ID: "b1", Title: "Rent", Amount: 900, Currency: "USD", DueDate: time.Now(), Status: core.BillPending},
			{ID: "b2", Title: "Paid", Amount: 10, Currency: "USD", DueDate: time.Now(), Status: core.BillPaid},
		},
	}
	notifier := &fakeNotifier{created: 1}
	s := newTestServer(t, store, notifier)

	w := doRequest(s, http.MethodPost, "/api/checks", "user1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp map[string]int
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["checked"] != 1 {
		t.Errorf("checked = %d, want 1 (paid bill excluded)", resp["checked"])
	}
	if resp["created"] != 1 {
		t.Errorf("created = %d, want 1", resp["created"])
	}
}

func TestListCurrencies(t *testing.T) {
	s := newTestServer(t, &fakeStore{}, &fakeNotifier{})

	w := doRequest(s, http.MethodGet, "/api/currencies", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var currencies []map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &currencies); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(currencies) == 0 {
		t.Fatal("expected at least one currency")
	}
	found := false
	for _, c := range currencies {
		if c["code"] == "USD" && c["symbol"] == "$" {
			found = true
		}
	}
	if !found {
		t.Errorf("USD missing from %v", currencies)
	}
}

func TestInsightsCurrencyConversion(t *testing.T) {
	store := &fakeStore{
		transactions: []core.Transaction{
			{ID: "t1", Amount: 100, Type: core.Expense, Category: "food", Date: time.Now(), Currency: "USD"},
		},
	}
	s := newTestServer(t, store, &fakeNotifier{})

	w := doRequest(s, http.MethodGet, "/api/insights?currency=USD", "user1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	w = doRequest(s, http.MethodGet, "/api/insights?currency=XXX", "user1", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("unsupported currency: status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestExportReportWithoutBackend(t *testing.T) {
	s := newTestServer(t, &fakeStore{}, &fakeNotifier{})

	w := doRequest(s, http.MethodPost, "/api/reports/export", "user1", "")
	if w.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotImplemented)
	}
}
