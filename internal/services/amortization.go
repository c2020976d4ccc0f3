package services

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// vatOnInterest is the tax factor applied to the monthly interest rate.
// Interest carries 12% VAT; principal, insurance and GPS do not.
var vatOnInterest = decimal.NewFromFloat(1.12)

// ScheduleTerms are the credit terms needed to build an amortization schedule
type ScheduleTerms struct {
	Principal        decimal.Decimal
	MonthlyRate      decimal.Decimal // nominal percent per month, e.g. 2
	TermMonths       int
	PayDay           int
	StartDate        time.Time
	MonthlyInsurance decimal.Decimal
	MonthlyGPS       decimal.Decimal
}

// ScheduleRow is one line of the amortization table. Sequence 0 is the
// disbursement row: no payment, interest on the full balance for disclosure,
// closing balance equal to the principal.
type ScheduleRow struct {
	Sequence       int
	DueDate        time.Time
	AmountDue      decimal.Decimal
	Principal      decimal.Decimal
	Interest       decimal.Decimal
	Insurance      decimal.Decimal
	GPS            decimal.Decimal
	ClosingBalance decimal.Decimal
}

// EffectiveMonthlyRate converts the nominal monthly percentage to the
// fraction charged on the outstanding balance, VAT included.
func EffectiveMonthlyRate(monthlyRate decimal.Decimal) decimal.Decimal {
	return monthlyRate.Div(decimal.NewFromInt(100)).Mul(vatOnInterest)
}

// amortizedPayment is the level payment covering principal and interest
func amortizedPayment(principal, monthlyRate decimal.Decimal, termMonths int) decimal.Decimal {
	if termMonths <= 0 {
		return decimal.Zero
	}

	r := EffectiveMonthlyRate(monthlyRate)
	if r.IsZero() {
		return principal.Div(decimal.NewFromInt(int64(termMonths))).Round(2)
	}

	// (1+r)^n comes from float math; every money operation stays decimal.
	rf, _ := r.Float64()
	factor := decimal.NewFromFloat(math.Pow(1+rf, float64(termMonths)))

	payment := principal.Mul(r).Mul(factor).Div(factor.Sub(decimal.New(1, 0)))
	return payment.Round(2)
}

// MonthlyPayment computes the full monthly obligation: the level amortized
// payment plus the fixed charges (insurance, GPS), which ride on top and
// never compound into principal.
func MonthlyPayment(principal, monthlyRate decimal.Decimal, termMonths int, fixedCharges decimal.Decimal) decimal.Decimal {
	base := amortizedPayment(principal, monthlyRate, termMonths)
	if base.IsZero() {
		return base
	}
	return base.Add(fixedCharges)
}

// BuildSchedule produces the full amortization table: the synthetic
// disbursement row plus one row per month. The payment stays level through
// the final period; the closing balance is clamped so rounding drift ends
// exactly on zero.
func BuildSchedule(terms ScheduleTerms) []ScheduleRow {
	n := terms.TermMonths
	rows := make([]ScheduleRow, 0, n+1)

	r := EffectiveMonthlyRate(terms.MonthlyRate)

	rows = append(rows, ScheduleRow{
		Sequence:       0,
		DueDate:        terms.StartDate,
		AmountDue:      decimal.Zero,
		Principal:      decimal.Zero,
		Interest:       terms.Principal.Mul(r).Round(2),
		Insurance:      decimal.Zero,
		GPS:            decimal.Zero,
		ClosingBalance: terms.Principal,
	})

	basePayment := amortizedPayment(terms.Principal, terms.MonthlyRate, n)
	balance := terms.Principal

	for k := 1; k <= n; k++ {
		interest := balance.Mul(r).Round(2)
		principal := basePayment.Sub(interest)

		balance = balance.Sub(principal)
		if balance.IsNegative() || k == n {
			balance = decimal.Zero
		}

		rows = append(rows, ScheduleRow{
			Sequence:       k,
			DueDate:        dueDateFor(terms.StartDate, k, terms.PayDay),
			AmountDue:      basePayment.Add(terms.MonthlyInsurance).Add(terms.MonthlyGPS),
			Principal:      principal,
			Interest:       interest,
			Insurance:      terms.MonthlyInsurance,
			GPS:            terms.MonthlyGPS,
			ClosingBalance: balance,
		})
	}

	return rows
}

// dueDateFor places installment k on the pay day of the k-th month after the
// start date, clamping to the last day of short months.
func dueDateFor(start time.Time, k, payDay int) time.Time {
	firstOfMonth := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location())
	target := firstOfMonth.AddDate(0, k, 0)

	lastDay := time.Date(target.Year(), target.Month()+1, 0, 0, 0, 0, 0, start.Location()).Day()
	day := payDay
	if day > lastDay {
		day = lastDay
	}
	if day < 1 {
		day = 1
	}

	return time.Date(target.Year(), target.Month(), day, 0, 0, 0, 0, start.Location())
}
