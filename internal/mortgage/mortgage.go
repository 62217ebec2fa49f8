// Package mortgage computes fixed-rate annuity loan payments.
package mortgage

import (
	"errors"
	"fmt"
	"math"
)

// Loan describes a fixed-rate mortgage. AnnualRate is a percentage, e.g.
// 4.5 for 4.5% per year.
type Loan struct {
	Price       float64
	DownPayment float64
	AnnualRate  float64
	Years       int
}

// Payment is one month of the amortization schedule.
type Payment struct {
	Month     int
	Payment   float64
	Interest  float64
	Principal float64
	Balance   float64
}

var (
	ErrNonPositivePrice = errors.New("price must be positive")
	ErrNegativeRate     = errors.New("interest rate must be a finite, non-negative percentage")
	ErrNonPositiveTerm  = errors.New("term must be at least one year")
	ErrDownPayment      = errors.New("down payment must be between 0 and the price")
)

func (l Loan) Validate() error {
	switch {
	case l.Price <= 0 || math.IsNaN(l.Price) || math.IsInf(l.Price, 0):
		return ErrNonPositivePrice
	case l.AnnualRate < 0 || math.IsNaN(l.AnnualRate) || math.IsInf(l.AnnualRate, 0):
		return ErrNegativeRate
	case l.Years <= 0:
		return ErrNonPositiveTerm
	// NaN fails every comparison, so check it explicitly.
	case math.IsNaN(l.DownPayment) || l.DownPayment < 0 || l.DownPayment >= l.Price:
		return ErrDownPayment
	}
	return nil
}

// Principal is the financed amount.
func (l Loan) Principal() float64 {
	return l.Price - l.DownPayment
}

func (l Loan) Months() int {
	return l.Years * 12
}

// MonthlyPayment returns P·r / (1 - (1+r)^-n) with r the monthly rate, or
// P/n for an interest-free loan.
func (l Loan) MonthlyPayment() (float64, error) {
	if err := l.Validate(); err != nil {
		return 0, err
	}

	p := l.Principal()
	n := float64(l.Months())
	r := l.AnnualRate / 100 / 12
	if r == 0 {
		return p / n, nil
	}
	return p * r / (1 - math.Pow(1+r, -n)), nil
}

// Schedule returns the month-by-month amortization table. The last
// payment absorbs rounding so the final balance is exactly zero.
func (l Loan) Schedule() ([]Payment, error) {
	payment, err := l.MonthlyPayment()
	if err != nil {
		return nil, err
	}

	months := l.Months()
	r := l.AnnualRate / 100 / 12
	balance := l.Principal()
	schedule := make([]Payment, 0, months)

	for m := 1; m <= months; m++ {
		interest := balance * r
		principal := payment - interest
		pay := payment
		if m == months || principal > balance {
			principal = balance
			pay = principal + interest
		}
		balance -= principal
		if balance < 0 {
			balance = 0
		}
		schedule = append(schedule, Payment{
			Month:     m,
			Payment:   pay,
			Interest:  interest,
			Principal: principal,
			Balance:   balance,
		})
	}

	return schedule, nil
}

// Totals sums a schedule.
type Totals struct {
	Paid     float64
	Interest float64
}

func Sum(schedule []Payment) Totals {
	var t Totals
	for _, p := range schedule {
		t.Paid += p.Payment
		t.Interest += p.Interest
	}
	return t
}

func (p Payment) String() string {
	return fmt.Sprintf("%4d  %12.2f  %12.2f  %12.2f  %14.2f", p.Month, p.Payment, p.Interest, p.Principal, p.Balance)
}
