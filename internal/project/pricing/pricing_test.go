package pricing

import (
	"errors"
	"testing"
)

func TestParseBudget(t *testing.T) {
	tests := []struct {
		in     string
		lo, hi float64
	}{
		{"$500 - $1000", 500, 1000},
		{"$500", 500, 500},
		{"$1,500 - $2,000", 1500, 2000},
		{"2000-1000", 1000, 2000},
		{"₹250.50 to ₹300", 250.5, 300},
	}
	for _, tt := range tests {
		lo, hi, err := ParseBudget(tt.in)
		if err != nil {
			t.Fatalf("ParseBudget(%q): %v", tt.in, err)
		}
		if lo != tt.lo || hi != tt.hi {
			t.Errorf("ParseBudget(%q) = %v, %v; want %v, %v", tt.in, lo, hi, tt.lo, tt.hi)
		}
	}
	if _, _, err := ParseBudget("negotiable"); !errors.Is(err, ErrEmptyBudget) {
		t.Fatalf("expected ErrEmptyBudget, got %v", err)
	}
}

func TestMidpoint(t *testing.T) {
	got, err := Midpoint("$500 - $1000")
	if err != nil {
		t.Fatal(err)
	}
	if got != 750 {
		t.Fatalf("expected 750, got %v", got)
	}
	got, err = Midpoint("$500")
	if err != nil {
		t.Fatal(err)
	}
	if got != 500 {
		t.Fatalf("expected 500, got %v", got)
	}
}

func TestEscrowAmount(t *testing.T) {
	agreed := 900.0
	tests := []struct {
		strategy string
		agreed   *float64
		want     float64
	}{
		{"", nil, 750},
		{StrategyMidpoint, &agreed, 750},
		{StrategyMin, nil, 500},
		{StrategyMax, nil, 1000},
		{StrategyAgreed, &agreed, 900},
		{StrategyAgreed, nil, 750},
	}
	for _, tt := range tests {
		got, err := EscrowAmount(tt.strategy, "$500 - $1000", tt.agreed)
		if err != nil {
			t.Fatalf("strategy %q: %v", tt.strategy, err)
		}
		if got != tt.want {
			t.Errorf("strategy %q: got %v, want %v", tt.strategy, got, tt.want)
		}
	}
	if _, err := EscrowAmount("random", "$500", nil); !errors.Is(err, ErrUnknownStrategy) {
		t.Fatalf("expected ErrUnknownStrategy, got %v", err)
	}
}
