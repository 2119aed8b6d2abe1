// Package http provides the JSON API server for insights, bills,
// transactions and notifications.
package http

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"finsight/internal/core"
	"finsight/internal/middleware/trace"
	"finsight/internal/report"
)

// TransactionStore is the persistence port for transaction endpoints.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, userID string, t core.Transaction) error
	ListRecentTransactions(ctx context.Context, userID string, limit int) ([]core.Transaction, error)
}

// BillStore is the persistence port for bill endpoints.
type BillStore interface {
	CreateBill(ctx context.Context, userID string, b core.Bill) error
	ListBills(ctx context.Context, userID string) ([]core.Bill, error)
	ListUnpaidBills(ctx context.Context, userID string) ([]core.Bill, error)
	UpdateBillStatus(ctx context.Context, userID, billID string, status core.BillStatus) error
}

// NotificationStore is the persistence port for notification endpoints.
type NotificationStore interface {
	ListNotifications(ctx context.Context, userID string, limit int) ([]core.Notification, error)
	ConfirmNotification(ctx context.Context, userID, notificationID string, now time.Time) error
}

// Notifier runs a bill notification check for a snapshot of bills.
type Notifier interface {
	CheckAll(ctx context.Context, userID string, bills []core.Bill, now time.Time) (int, error)
}

// Options tunes the analytics endpoints.
type Options struct {
	RecentWindow int // latest N transactions fed to the analyzer
	ForecastDays int // default forecast horizon
}

type Server struct {
	*http.Server

	transactions  TransactionStore
	bills         BillStore
	notifications NotificationStore
	notifier      Notifier
	reports       report.Writer // optional
	opts          Options

	limiter *rateLimiter
}

// NewServer wires the API routes. reports may be nil when no export backend
// is configured.
func NewServer(addr string, transactions TransactionStore, bills BillStore, notifications NotificationStore, notifier Notifier, reports report.Writer, opts Options) *Server {
	if opts.RecentWindow <= 0 {
		opts.RecentWindow = 50
	}
	if opts.ForecastDays <= 0 {
		opts.ForecastDays = 30
	}

	s := &Server{
		transactions:  transactions,
		bills:         bills,
		notifications: notifications,
		notifier:      notifier,
		reports:       reports,
		opts:          opts,
		limiter:       newRateLimiter(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/currencies", s.handleListCurrencies)
	mux.HandleFunc("GET /api/insights", s.requireUser(s.handleInsights))
	mux.HandleFunc("POST /api/transactions", s.requireUser(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/bills", s.requireUser(s.handleListBills))
	mux.HandleFunc("POST /api/bills", s.requireUser(s.handleCreateBill))
	mux.HandleFunc("POST /api/bills/{id}/pay", s.requireUser(s.handlePayBill))
	mux.HandleFunc("GET /api/notifications", s.requireUser(s.handleListNotifications))
	mux.HandleFunc("POST /api/notifications/{id}/confirm", s.requireUser(s.handleConfirmNotification))
	mux.HandleFunc("POST /api/checks", s.requireUser(s.handleRunChecks))
	mux.HandleFunc("POST /api/reports/export", s.requireUser(s.handleExportReport))

	traced := trace.NewMiddleware(extractClientIP)
	handler := traced.Middleware(s.rateLimit(mux))

	s.Server = &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	return s
}

// Shutdown stops the server and its rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.stop()
	return s.Server.Shutdown(ctx)
}

type userHandler func(w http.ResponseWriter, r *http.Request, userID string)

// requireUser extracts the identity-provider supplied user id. The core never
// authenticates; it only scopes queries to the given user.
func (s *Server) requireUser(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "missing X-User-ID header")
			return
		}
		next(w, r, userID)
	}
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(extractClientIP(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
