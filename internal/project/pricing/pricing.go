package pricing

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Escrow amount strategies.
const (
	StrategyMidpoint = "midpoint"
	StrategyMin      = "min"
	StrategyMax      = "max"
	StrategyAgreed   = "agreed"
)

var (
	ErrEmptyBudget     = errors.New("budget has no amount")
	ErrUnknownStrategy = errors.New("unknown escrow amount strategy")
)

var amountPattern = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

// ParseBudget extracts the lower and upper bound from strings like "$500 - $1000".
// A single amount yields equal bounds.
func ParseBudget(budget string) (float64, float64, error) {
	matches := amountPattern.FindAllString(budget, 2)
	if len(matches) == 0 {
		return 0, 0, ErrEmptyBudget
	}
	values := make([]float64, 0, len(matches))
	for _, m := range matches {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
		if err != nil {
			return 0, 0, fmt.Errorf("parse budget amount %q: %w", m, err)
		}
		values = append(values, v)
	}
	if len(values) == 1 {
		return values[0], values[0], nil
	}
	lo, hi := values[0], values[1]
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi, nil
}

// Midpoint returns the flat midpoint of a budget string.
func Midpoint(budget string) (float64, error) {
	lo, hi, err := ParseBudget(budget)
	if err != nil {
		return 0, err
	}
	return (lo + hi) / 2, nil
}

// EscrowAmount picks the amount to capture for a project. The agreed strategy
// falls back to the midpoint when no final price was entered.
func EscrowAmount(strategy, budget string, agreed *float64) (float64, error) {
	if strategy == "" {
		strategy = StrategyMidpoint
	}
	if strategy == StrategyAgreed {
		if agreed != nil && *agreed > 0 {
			return *agreed, nil
		}
		strategy = StrategyMidpoint
	}
	lo, hi, err := ParseBudget(budget)
	if err != nil {
		return 0, err
	}
	switch strategy {
	case StrategyMidpoint:
		return (lo + hi) / 2, nil
	case StrategyMin:
		return lo, nil
	case StrategyMax:
		return hi, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownStrategy, strategy)
}

// ValidStrategy reports whether s names a known strategy.
func ValidStrategy(s string) bool {
	switch s {
	case StrategyMidpoint, StrategyMin, StrategyMax, StrategyAgreed:
		return true
	}
	return false
}
