package http

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"finsight/internal/analytics"
	"finsight/internal/core"
	"finsight/internal/currency"
)

const notificationPageSize = 50

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListCurrencies(w http.ResponseWriter, r *http.Request) {
	codes := currency.Supported()
	out := make([]map[string]string, 0, len(codes))
	for _, code := range codes {
		out = append(out, map[string]string{"code": code, "symbol": currency.Symbol(code)})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleInsights runs the full analyzer over the user's recent transaction
// window. The report is recomputed on every call; nothing is cached.
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request, userID string) {
	ctx := r.Context()

	days := s.opts.ForecastDays
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 365 {
			writeError(w, http.StatusBadRequest, "days must be an integer between 1 and 365")
			return
		}
		days = parsed
	}

	transactions, err := s.transactions.ListRecentTransactions(ctx, userID, s.opts.RecentWindow)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load transactions for insights", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}

	// Optional pre-conversion to a single currency before analysis. The
	// analyzer itself never converts.
	if target := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("currency"))); target != "" {
		for i, tx := range transactions {
			converted, err := currency.Convert(tx.Amount, tx.Currency, target)
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("cannot convert %s to %s: unsupported currency", tx.Currency, target))
				return
			}
			transactions[i].Amount = converted
			transactions[i].Currency = target
		}
	}

	report := analytics.New(transactions).Analyze(days)
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	ctx := r.Context()

	t, err := parseTransactionRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.transactions.CreateTransaction(ctx, userID, t); err != nil {
		slog.ErrorContext(ctx, "Failed to create transaction", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create transaction")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": t.ID})
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request, userID string) {
	ctx := r.Context()

	bills, err := s.bills.ListBills(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list bills", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list bills")
		return
	}

	writeJSON(w, http.StatusOK, bills)
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request, userID string) {
	ctx := r.Context()

	b, err := parseBillRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.bills.CreateBill(ctx, userID, b); err != nil {
		slog.ErrorContext(ctx, "Failed to create bill", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create bill")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": b.ID})
}

// handlePayBill settles a bill. Paid bills drop out of the scheduler's
// snapshot, so no further notifications are emitted for them.
func (s *Server) handlePayBill(w http.ResponseWriter, r *http.Request, userID string) {
	ctx := r.Context()

	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing bill id")
		return
	}

	if err := s.bills.UpdateBillStatus(ctx, userID, id, core.BillPaid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "bill not found")
			return
		}
		slog.ErrorContext(ctx, "Failed to mark bill paid", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update bill")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(core.BillPaid)})
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request, userID string) {
	ctx := r.Context()

	notifications, err := s.notifications.ListNotifications(ctx, userID, notificationPageSize)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list notifications", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}

	writeJSON(w, http.StatusOK, notifications)
}

func (s *Server) handleConfirmNotification(w http.ResponseWriter, r *http.Request, userID string) {
	ctx := r.Context()

	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing notification id")
		return
	}

	if err := s.notifications.ConfirmNotification(ctx, userID, id, time.Now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "notification not found")
			return
		}
		slog.ErrorContext(ctx, "Failed to confirm notification", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to confirm notification")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "confirmed"})
}

// handleRunChecks triggers a notification check outside the periodic
// schedule, e.g. right after login.
func (s *Server) handleRunChecks(w http.ResponseWriter, r *http.Request, userID string) {
	ctx := r.Context()

	bills, err := s.bills.ListUnpaidBills(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load bills for check", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load bills")
		return
	}

	created, err := s.notifier.CheckAll(ctx, userID, bills, time.Now())
	if err != nil {
		slog.ErrorContext(ctx, "Notification check failed", "error", err)
		writeError(w, http.StatusInternalServerError, "notification check failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{
		"checked": len(bills),
		"created": created,
	})
}

func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request, userID string) {
	ctx := r.Context()

	if s.reports == nil {
		writeError(w, http.StatusNotImplemented, "report export not configured")
		return
	}

	transactions, err := s.transactions.ListRecentTransactions(ctx, userID, s.opts.RecentWindow)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load transactions for export", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}

	report := analytics.New(transactions).Analyze(s.opts.ForecastDays)
	ref, err := s.reports.AppendReport(ctx, userID, time.Now(), report)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to export report", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export report")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"ref": ref})
}
