// internal/services/pricing.go
package services

import (
	"math"
	"time"
)

// Pure derived-value calculators for PTT display and transition logic.

// PurchasePrice is the cash a funder pays for a PTT offered at the given
// discount percentage of face value.
func PurchasePrice(amount, discountPercentage float64) float64 {
	return amount * (1 - discountPercentage/100)
}

// DiscountAmount is the funder's margin at maturity.
func DiscountAmount(amount, discountPercentage float64) float64 {
	return amount - PurchasePrice(amount, discountPercentage)
}

// MaturityDate adds calendar days, not business days.
func MaturityDate(issueDate time.Time, maturityDays int) time.Time {
	return issueDate.AddDate(0, 0, maturityDays)
}

// DaysToMaturity rounds up, so a PTT maturing later today still reports one
// day remaining. Zero or negative means matured.
func DaysToMaturity(maturityDate, now time.Time) int {
	return int(math.Ceil(maturityDate.Sub(now).Hours() / 24))
}

// Matured compares calendar dates only, so settlement is allowed on the
// maturity day itself regardless of the issuance time of day.
func Matured(maturityDate, now time.Time) bool {
	return !dateOf(maturityDate).After(dateOf(now))
}

func dateOf(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
