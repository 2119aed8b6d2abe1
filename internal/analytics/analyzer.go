// Package analytics implements the expense-analytics engine: spending-pattern
// analysis, statistical anomaly detection, savings recommendations, income
// stability scoring and short-horizon expense forecasting.
//
// All functions are pure computations over the snapshot supplied at
// construction time. They perform no I/O, never cache and are safe for
// concurrent use.
package analytics

import (
	"fmt"
	"math"
	"sort"

	"finsight/internal/core"
)

const (
	// highSpendingThreshold is the percentage of total expenses above which
	// a category is flagged. Strictly greater than: exactly 30% is not high.
	highSpendingThreshold = 30.0

	// anomalySigmas is the number of population standard deviations a
	// transaction amount must deviate from the mean to count as an anomaly.
	anomalySigmas = 2.0

	// smallTransactionLimit marks a transaction as "small" for the frequent
	// small purchases recommendation.
	smallTransactionLimit = 10.0

	// smallTransactionShare is the fraction of all transactions that must be
	// small expenses before the medium-priority recommendation fires.
	smallTransactionShare = 0.2

	// stableVariationLimit is the coefficient-of-variation cutoff below
	// which income is considered stable.
	stableVariationLimit = 0.15

	// trendChangePercent is the half-to-half mean change beyond which the
	// income trend is reported as increasing or decreasing.
	trendChangePercent = 5.0
)

const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
)

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

type (
	// Trend describes the direction of income over the snapshot window.
	Trend string

	// CategorySpending is the per-category breakdown of expense volume.
	CategorySpending struct {
		Category     string  `json:"category"`
		Amount       float64 `json:"amount"`
		Percentage   float64 `json:"percentage"`
		HighSpending bool    `json:"isHighSpending"`
	}

	// Recommendation is a savings suggestion derived from spending patterns.
	Recommendation struct {
		Category string `json:"category"`
		Message  string `json:"message"`
		Priority string `json:"priority"`
	}

	// IncomeStability summarizes how regular income amounts are.
	IncomeStability struct {
		Stable             bool    `json:"stable"`
		VariabilityPercent float64 `json:"variabilityPercent"`
		Trend              Trend   `json:"trend"`
	}

	// Report bundles all analyzer outputs for a single snapshot. It is
	// recomputed on every call and never persisted.
	Report struct {
		Patterns        []CategorySpending `json:"spendingPatterns"`
		Anomalies       []core.Transaction `json:"anomalies"`
		Recommendations []Recommendation   `json:"recommendations"`
		IncomeStability *IncomeStability   `json:"incomeStability"`
		ForecastDays    int                `json:"forecastDays"`
		Forecast        float64            `json:"forecast"`
	}
)

// Analyzer computes insights over a fixed snapshot of transactions.
//
// Precondition for trend analysis and forecasting: the caller should supply
// transactions in chronological order. All other computations are
// order-independent aggregates.
type Analyzer struct {
	transactions []core.Transaction
}

// New creates an analyzer over the given snapshot. The slice is not copied;
// callers must not mutate it while the analyzer is in use.
func New(transactions []core.Transaction) *Analyzer {
	return &Analyzer{transactions: transactions}
}

// AnalyzeSpendingPatterns returns the expense breakdown by category.
// Percentages sum to 100 when total expense volume is positive. The result
// is empty when there are no expenses. Ordering is descending by amount,
// ties broken by category name.
func (a *Analyzer) AnalyzeSpendingPatterns() []CategorySpending {
	totals := make(map[string]float64)
	for _, t := range a.transactions {
		if t.Type == core.Expense {
			totals[t.Category] += t.Amount
		}
	}

	var total float64
	for _, amount := range totals {
		total += amount
	}
	if total == 0 {
		return nil
	}

	patterns := make([]CategorySpending, 0, len(totals))
	for category, amount := range totals {
		pct := amount / total * 100
		patterns = append(patterns, CategorySpending{
			Category:     category,
			Amount:       amount,
			Percentage:   pct,
			HighSpending: pct > highSpendingThreshold,
		})
	}

	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Amount != patterns[j].Amount {
			return patterns[i].Amount > patterns[j].Amount
		}
		return patterns[i].Category < patterns[j].Category
	})

	return patterns
}

// DetectAnomalies returns the transactions whose amount deviates from the
// mean of all transaction amounts (income and expense combined) by more than
// two population standard deviations. When all amounts are identical the
// deviation is zero and nothing is anomalous.
func (a *Analyzer) DetectAnomalies() []core.Transaction {
	if len(a.transactions) == 0 {
		return nil
	}

	amounts := make([]float64, len(a.transactions))
	for i, t := range a.transactions {
		amounts[i] = t.Amount
	}
	mu := mean(amounts)
	sigma := stdDev(amounts, mu)

	var anomalies []core.Transaction
	for _, t := range a.transactions {
		if math.Abs(t.Amount-mu) > anomalySigmas*sigma {
			anomalies = append(anomalies, t)
		}
	}
	return anomalies
}

// GenerateSavingsRecommendations derives actionable suggestions: one
// high-priority entry per category above the high-spending threshold, plus a
// single medium-priority entry when small expenses make up more than 20% of
// all transactions.
func (a *Analyzer) GenerateSavingsRecommendations() []Recommendation {
	var recs []Recommendation

	for _, p := range a.AnalyzeSpendingPatterns() {
		if p.Percentage > highSpendingThreshold {
			recs = append(recs, Recommendation{
				Category: p.Category,
				Message: fmt.Sprintf(
					"Consider reducing spending in %s as it represents %.1f%% of your expenses",
					p.Category, p.Percentage),
				Priority: PriorityHigh,
			})
		}
	}

	smallCount := 0
	for _, t := range a.transactions {
		if t.Type == core.Expense && t.Amount < smallTransactionLimit {
			smallCount++
		}
	}
	if float64(smallCount) > float64(len(a.transactions))*smallTransactionShare {
		recs = append(recs, Recommendation{
			Category: "Small Expenses",
			Message:  "You have many small transactions. Consider bundling purchases to reduce impulse spending.",
			Priority: PriorityMedium,
		})
	}

	return recs
}

// AnalyzeIncomeStability scores income regularity via the coefficient of
// variation over income amounts. Returns nil when fewer than two income
// transactions exist.
//
// The trend split assumes chronological order; with unordered input the
// trend value is meaningless, though still deterministic.
func (a *Analyzer) AnalyzeIncomeStability() *IncomeStability {
	var incomes []float64
	for _, t := range a.transactions {
		if t.Type == core.Income {
			incomes = append(incomes, t.Amount)
		}
	}
	if len(incomes) < 2 {
		return nil
	}

	mu := mean(incomes)
	cv := 0.0
	if mu != 0 {
		cv = stdDev(incomes, mu) / mu
	}

	return &IncomeStability{
		Stable:             cv < stableVariationLimit,
		VariabilityPercent: cv * 100,
		Trend:              incomeTrend(incomes),
	}
}

// incomeTrend compares the mean of the first half against the second half.
func incomeTrend(values []float64) Trend {
	half := len(values) / 2
	firstMean := mean(values[:half])
	secondMean := mean(values[half:])

	if firstMean == 0 {
		return TrendStable
	}
	change := (secondMean - firstMean) / firstMean * 100
	switch {
	case change > trendChangePercent:
		return TrendIncreasing
	case change < -trendChangePercent:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// PredictFutureExpenses fits an ordinary least-squares line over
// (index, amount) pairs of expense transactions and evaluates it at
// index = count + daysAhead. The raw prediction is returned without
// clamping, so a declining spend history can yield a negative forecast.
//
// Fallbacks for an underdetermined regression: 0 with no expense
// transactions, the single amount with exactly one.
func (a *Analyzer) PredictFutureExpenses(daysAhead int) float64 {
	var amounts []float64
	for _, t := range a.transactions {
		if t.Type == core.Expense {
			amounts = append(amounts, t.Amount)
		}
	}

	n := len(amounts)
	switch n {
	case 0:
		return 0
	case 1:
		return amounts[0]
	}

	// Closed-form OLS over x = 0..n-1, y = amounts.
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range amounts {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	fn := float64(n)
	slope := (fn*sumXY - sumX*sumY) / (fn*sumXX - sumX*sumX)
	intercept := (sumY - slope*sumX) / fn

	return intercept + slope*float64(n+daysAhead)
}

// Analyze runs every analyzer function and bundles the results.
func (a *Analyzer) Analyze(forecastDays int) Report {
	return Report{
		Patterns:        a.AnalyzeSpendingPatterns(),
		Anomalies:       a.DetectAnomalies(),
		Recommendations: a.GenerateSavingsRecommendations(),
		IncomeStability: a.AnalyzeIncomeStability(),
		ForecastDays:    forecastDays,
		Forecast:        a.PredictFutureExpenses(forecastDays),
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev is the population standard deviation (divisor N, not N-1).
func stdDev(values []float64, mu float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sq float64
	for _, v := range values {
		d := v - mu
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}
