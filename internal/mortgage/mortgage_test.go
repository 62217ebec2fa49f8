package mortgage

import (
	"errors"
	"math"
	"testing"
)

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestMonthlyPayment(t *testing.T) {
	tests := []struct {
		name string
		loan Loan
		want float64
	}{
		// 200k over 30 years at 6%: the textbook 1199.10.
		{"standard", Loan{Price: 250000, DownPayment: 50000, AnnualRate: 6, Years: 30}, 1199.10},
		{"zero rate", Loan{Price: 120000, AnnualRate: 0, Years: 10}, 1000},
		{"short term", Loan{Price: 12000, AnnualRate: 12, Years: 1}, 1066.19},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.loan.MonthlyPayment()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !approx(got, tt.want, 0.01) {
				t.Errorf("MonthlyPayment = %.4f, want %.2f", got, tt.want)
			}
		})
	}
}

func TestSchedule(t *testing.T) {
	loan := Loan{Price: 250000, DownPayment: 50000, AnnualRate: 6, Years: 30}
	schedule, err := loan.Schedule()
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	if len(schedule) != 360 {
		t.Fatalf("expected 360 payments, got %d", len(schedule))
	}

	first := schedule[0]
	if !approx(first.Interest, 1000, 0.001) {
		t.Errorf("first interest = %.4f, want 1000", first.Interest)
	}
	if !approx(first.Principal, 199.10, 0.01) {
		t.Errorf("first principal = %.4f, want 199.10", first.Principal)
	}

	last := schedule[len(schedule)-1]
	if last.Balance != 0 {
		t.Errorf("final balance = %v, want 0", last.Balance)
	}

	totals := Sum(schedule)
	var principal float64
	for _, p := range schedule {
		principal += p.Principal
	}
	if !approx(principal, loan.Principal(), 0.01) {
		t.Errorf("principal repaid = %.2f, want %.2f", principal, loan.Principal())
	}
	if !approx(totals.Paid-totals.Interest, loan.Principal(), 0.01) {
		t.Errorf("paid minus interest = %.2f, want %.2f", totals.Paid-totals.Interest, loan.Principal())
	}
}

func TestSchedule_ZeroRate(t *testing.T) {
	schedule, err := Loan{Price: 1200, Years: 1}.Schedule()
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	for _, p := range schedule {
		if p.Interest != 0 || !approx(p.Payment, 100, 1e-9) {
			t.Fatalf("unexpected payment %+v", p)
		}
	}
	if schedule[11].Balance != 0 {
		t.Errorf("final balance = %v", schedule[11].Balance)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		loan Loan
		want error
	}{
		{Loan{Price: 0, Years: 30}, ErrNonPositivePrice},
		{Loan{Price: math.NaN(), Years: 30}, ErrNonPositivePrice},
		{Loan{Price: 100, AnnualRate: -1, Years: 30}, ErrNegativeRate},
		{Loan{Price: 100, AnnualRate: math.Inf(1), Years: 30}, ErrNegativeRate},
		{Loan{Price: 100, AnnualRate: math.NaN(), Years: 30}, ErrNegativeRate},
		{Loan{Price: math.Inf(1), Years: 30}, ErrNonPositivePrice},
		{Loan{Price: 100, Years: 0}, ErrNonPositiveTerm},
		{Loan{Price: 100, DownPayment: 100, Years: 1}, ErrDownPayment},
		{Loan{Price: 100, DownPayment: -5, Years: 1}, ErrDownPayment},
		{Loan{Price: 100, DownPayment: math.NaN(), Years: 1}, ErrDownPayment},
		{Loan{Price: 100, DownPayment: math.Inf(-1), Years: 1}, ErrDownPayment},
		{Loan{Price: 100, DownPayment: 20, AnnualRate: 3, Years: 1}, nil},
	}
	for _, tt := range tests {
		if err := tt.loan.Validate(); !errors.Is(err, tt.want) {
			t.Errorf("Validate(%+v) = %v, want %v", tt.loan, err, tt.want)
		}
		if tt.want != nil {
			if _, err := tt.loan.Schedule(); err == nil {
				t.Errorf("Schedule(%+v) should fail", tt.loan)
			}
		}
	}
}
