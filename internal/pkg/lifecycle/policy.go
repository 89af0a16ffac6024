package lifecycle

import (
	"fmt"
	"math"

	"github.com/ManuelReschke/EduPay/app/models"
)

// PaymentPolicy decides the monthly amount suggested to a customer.
type PaymentPolicy string

const (
	// PolicyFlat divides the remaining balance by the full installment count.
	PolicyFlat PaymentPolicy = "flat"
	// PolicyAmortized divides the remaining balance by the installments still open.
	PolicyAmortized PaymentPolicy = "amortized"
)

// ParsePaymentPolicy accepts "flat" and "amortized". Empty means flat.
func ParsePaymentPolicy(s string) (PaymentPolicy, error) {
	switch PaymentPolicy(s) {
	case "", PolicyFlat:
		return PolicyFlat, nil
	case PolicyAmortized:
		return PolicyAmortized, nil
	}
	return "", fmt.Errorf("unknown payment policy %q", s)
}

// MonthlyPayment is the rounded equal share of total over count installments.
func MonthlyPayment(total float64, count int) float64 {
	if count < 1 {
		count = 1
	}
	return math.Round(total / float64(count))
}

// SuggestedPayment returns the amount to propose for the next monthly
// payment, never more than the remaining balance.
func SuggestedPayment(policy PaymentPolicy, plan *models.InstallmentPlan, payments []models.Payment) float64 {
	if plan.RemainingBalance <= 0 {
		return 0
	}

	count := plan.InstallmentCount
	if policy == PolicyAmortized {
		for _, p := range payments {
			if p.PaymentType == models.PaymentTypeMonthly {
				count--
			}
		}
	}

	suggested := MonthlyPayment(plan.RemainingBalance, count)
	if suggested <= 0 || suggested > plan.RemainingBalance {
		return models.RoundAmount(plan.RemainingBalance)
	}
	return suggested
}
