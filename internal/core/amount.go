// Package core provides amount parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings as
// they arrive from HTTP forms and JSON payloads.
package core

import (
	"math"
	"strconv"
	"strings"
)

// ParseAmount converts a decimal string to a non-negative amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Returns an error for invalid formats, negative values, or non-finite
// results.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-5")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only unsigned values allowed
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// RoundCents rounds an amount to two decimal places, half up.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
