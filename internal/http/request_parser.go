package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"finsight/internal/core"
)

const dateLayout = "2006-01-02"

type transactionRequest struct {
	Amount   json.Number `json:"amount"`
	Type     string      `json:"type"`
	Category string      `json:"category"`
	Date     string      `json:"date"`
	Currency string      `json:"currency"`
}

type billRequest struct {
	Title    string      `json:"title"`
	Amount   json.Number `json:"amount"`
	Currency string      `json:"currency"`
	DueDate  string      `json:"dueDate"`
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("missing date")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}

func parseTransactionRequest(r *http.Request) (core.Transaction, error) {
	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		return core.Transaction{}, err
	}

	amount, err := core.ParseAmount(req.Amount.String())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("invalid amount %q: %w", req.Amount.String(), err)
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}

	t := core.Transaction{
		ID:       uuid.NewString(),
		Amount:   core.RoundCents(amount),
		Type:     core.TransactionType(strings.ToLower(strings.TrimSpace(req.Type))),
		Category: strings.TrimSpace(req.Category),
		Date:     date,
		Currency: strings.ToUpper(strings.TrimSpace(req.Currency)),
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func parseBillRequest(r *http.Request) (core.Bill, error) {
	var req billRequest
	if err := decodeBody(r, &req); err != nil {
		return core.Bill{}, err
	}

	amount, err := core.ParseAmount(req.Amount.String())
	if err != nil {
		return core.Bill{}, fmt.Errorf("invalid amount %q: %w", req.Amount.String(), err)
	}

	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		return core.Bill{}, err
	}

	b := core.Bill{
		ID:       uuid.NewString(),
		Title:    strings.TrimSpace(req.Title),
		Amount:   core.RoundCents(amount),
		Currency: strings.ToUpper(strings.TrimSpace(req.Currency)),
		DueDate:  dueDate,
		Status:   core.BillPending,
	}
	if err := b.Validate(); err != nil {
		return core.Bill{}, err
	}
	return b, nil
}
