// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for bill urgency classification.
// Each urgency window (due tomorrow, due today, overdue) has its own rule
// that encapsulates the matching logic and the notification content.
package services

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"finsight/internal/core"
)

const (
	ClassDueTomorrow = "due-tomorrow"
	ClassDueToday    = "due-today"
	ClassOverdue     = "overdue"
)

// Classification is the outcome of matching a bill against an urgency rule.
type Classification struct {
	Type     string
	Severity core.Severity
	Title    string
	Message  string
}

// UrgencyRule is the strategy interface for a single urgency window.
type UrgencyRule interface {
	// Class returns the stable classification key used for deduplication.
	Class() string

	// Matches reports whether the rule applies for the given calendar-day
	// difference between the due date and today.
	Matches(daysDiff int) bool

	// Describe builds the notification content for a matched bill.
	Describe(bill core.Bill, daysDiff int) Classification
}

// dueTomorrowRule matches bills due on the next calendar day.
type dueTomorrowRule struct{}

func (dueTomorrowRule) Class() string { return ClassDueTomorrow }
func (dueTomorrowRule) Matches(daysDiff int) bool { return daysDiff == 1 }

func (r dueTomorrowRule) Describe(bill core.Bill, _ int) Classification {
	return Classification{
		Type:     r.Class(),
		Severity: core.SeverityWarning,
		Title:    "Bill Due Tomorrow",
		Message:  fmt.Sprintf("%s is due tomorrow (%s %s)", bill.Title, formatAmount(bill.Amount), bill.Currency),
	}
}

// dueTodayRule matches bills due on the current calendar day.
type dueTodayRule struct{}

func (dueTodayRule) Class() string { return ClassDueToday }
func (dueTodayRule) Matches(daysDiff int) bool { return daysDiff == 0 }

func (r dueTodayRule) Describe(bill core.Bill, _ int) Classification {
	return Classification{
		Type:     r.Class(),
		Severity: core.SeverityError,
		Title:    "Bill Due Today",
		Message:  fmt.Sprintf("%s is due today (%s %s)", bill.Title, formatAmount(bill.Amount), bill.Currency),
	}
}

// overdueRule matches bills whose due date has passed.
type overdueRule struct{}

func (overdueRule) Class() string { return ClassOverdue }
func (overdueRule) Matches(daysDiff int) bool { return daysDiff < 0 }

func (r overdueRule) Describe(bill core.Bill, daysDiff int) Classification {
	late := -daysDiff
	unit := "days"
	if late == 1 {
		unit = "day"
	}
	return Classification{
		Type:     r.Class(),
		Severity: core.SeverityError,
		Title:    "Overdue Bill",
		Message:  fmt.Sprintf("%s was due %d %s ago", bill.Title, late, unit),
	}
}

// urgencyRules are evaluated in order; the first match wins. Bills more than
// one day out match nothing and produce no notification.
var urgencyRules = []UrgencyRule{
	dueTomorrowRule{},
	dueTodayRule{},
	overdueRule{},
}

// DaysUntil returns the calendar-day difference between the due date and now,
// rounded up. Partial days round toward the future, so "due tomorrow" means
// the due date falls on the next calendar day.
func DaysUntil(dueDate, now time.Time) int {
	return int(math.Ceil(dueDate.Sub(now).Hours() / 24))
}

// Classify matches a bill against the urgency rules relative to now.
// Paid bills never classify. The second return is false when no rule applies.
func Classify(bill core.Bill, now time.Time) (Classification, bool) {
	if bill.IsPaid() {
		return Classification{}, false
	}

	daysDiff := DaysUntil(bill.DueDate, now)
	for _, rule := range urgencyRules {
		if rule.Matches(daysDiff) {
			return rule.Describe(bill, daysDiff), true
		}
	}
	return Classification{}, false
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
