package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	BillPending BillStatus = "pending"
	BillPaid    BillStatus = "paid"
	BillOverdue BillStatus = "overdue"
)

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

type (
	TransactionType string

	BillStatus string

	// Severity is the display severity of a notification.
	Severity string

	// Transaction is a single income or expense record. Amounts are raw
	// numeric values in the stated currency; the analytics layer never
	// converts between currencies, so callers must pre-convert if they want
	// cross-currency aggregation.
	Transaction struct {
		ID       string
		Amount   float64
		Type     TransactionType
		Category string
		Date     time.Time
		Currency string
	}

	// Bill is a payable obligation with a due date. Callers may set the
	// status to overdue explicitly, but the notification scheduler derives
	// overdueness from the due date independently for pending bills.
	Bill struct {
		ID       string
		Title    string
		Amount   float64
		Currency string
		DueDate  time.Time
		Status   BillStatus
	}

	// Notification is created by the scheduler and persisted by storage.
	// The UI later marks it read/confirmed; the core only creates.
	Notification struct {
		ID                   string
		Title                string
		Message              string
		Severity             Severity
		NotificationType     string // dedup key: due-tomorrow, due-today, overdue
		Read                 bool
		CreatedAt            time.Time
		BillID               string
		DueDate              time.Time
		RequiresConfirmation bool
		Confirmed            bool
		ConfirmedAt          time.Time
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrInvalidStatus   = errors.New("invalid bill status")
	ErrEmptyCategory   = errors.New("empty category")
	ErrEmptyTitle      = errors.New("empty title")
	ErrEmptyCurrency   = errors.New("empty currency")
	ErrZeroDate        = errors.New("date cannot be zero")
	ErrUnknownCurrency = errors.New("unknown currency")
)

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	}
	return ErrInvalidType
}

func (s BillStatus) Validate() error {
	switch s {
	case BillPending, BillPaid, BillOverdue:
		return nil
	}
	return ErrInvalidStatus
}

func (t Transaction) Validate() error {
	if t.Amount < 0 {
		return ErrInvalidAmount
	}
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	if strings.TrimSpace(t.Currency) == "" {
		return ErrEmptyCurrency
	}
	return nil
}

func (b Bill) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return ErrEmptyTitle
	}
	if len(b.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if b.Amount < 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(b.Currency) == "" {
		return ErrEmptyCurrency
	}
	if b.DueDate.IsZero() {
		return ErrZeroDate
	}
	return b.Status.Validate()
}

// IsPaid reports whether the bill is settled and exempt from notifications.
func (b Bill) IsPaid() bool {
	return b.Status == BillPaid
}
