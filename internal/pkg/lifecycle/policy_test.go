package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/EduPay/app/models"
)

func TestSuggestedPayment(t *testing.T) {
	monthly := func(n int) []models.Payment {
		out := []models.Payment{{PaymentType: models.PaymentTypeDownPayment, Amount: 200}}
		for i := 0; i < n; i++ {
			out = append(out, models.Payment{PaymentType: models.PaymentTypeMonthly, Amount: 100})
		}
		return out
	}

	tests := []struct {
		name      string
		policy    PaymentPolicy
		remaining float64
		count     int
		payments  []models.Payment
		want      float64
	}{
		{"flat ignores payments", PolicyFlat, 1000, 12, monthly(4), 83},
		{"amortized counts monthly payments", PolicyAmortized, 1000, 12, monthly(4), 125},
		{"amortized ignores down payment", PolicyAmortized, 1200, 12, monthly(0), 100},
		{"capped at remaining balance", PolicyAmortized, 40, 12, monthly(12), 40},
		{"small remainder is paid in full", PolicyFlat, 3, 12, nil, 3},
		{"nothing left", PolicyFlat, 0, 12, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := &models.InstallmentPlan{RemainingBalance: tt.remaining, InstallmentCount: tt.count}
			assert.Equal(t, tt.want, SuggestedPayment(tt.policy, plan, tt.payments))
		})
	}
}

func TestMonthlyPayment(t *testing.T) {
	assert.Equal(t, 100.0, MonthlyPayment(1200, 12))
	assert.Equal(t, 83.0, MonthlyPayment(1000, 12))
	assert.Equal(t, 50.0, MonthlyPayment(50, 0))
}

func TestParsePaymentPolicy(t *testing.T) {
	p, err := ParsePaymentPolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyFlat, p)

	p, err = ParsePaymentPolicy("amortized")
	require.NoError(t, err)
	assert.Equal(t, PolicyAmortized, p)

	_, err = ParsePaymentPolicy("weekly")
	assert.Error(t, err)
}
