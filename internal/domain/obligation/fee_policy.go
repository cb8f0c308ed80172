package obligation

import (
	"strings"

	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// FeePolicyType selects how late fees are computed
type FeePolicyType string

const (
	FeePolicyFlat       FeePolicyType = "flat"
	FeePolicyPercentage FeePolicyType = "percentage"
	FeePolicyNone       FeePolicyType = "none"
)

// FeePolicy computes the late fee accrued when an obligation becomes overdue,
// and the tolerance accepted when matching callback amounts.
type FeePolicy struct {
	Type       FeePolicyType
	FlatAmount decimal.Decimal
	Percentage decimal.Decimal
	Tolerance  decimal.Decimal
}

// NewFlatFeePolicy charges a fixed amount per overdue obligation
func NewFlatFeePolicy(amount decimal.Decimal) FeePolicy {
	return FeePolicy{Type: FeePolicyFlat, FlatAmount: amount}
}

// NewPercentageFeePolicy charges a percentage of the obligation amount
func NewPercentageFeePolicy(pct decimal.Decimal) FeePolicy {
	return FeePolicy{Type: FeePolicyPercentage, Percentage: pct}
}

// ParseFeePolicyType parses a configured policy name
func ParseFeePolicyType(s string) (FeePolicyType, error) {
	switch t := FeePolicyType(strings.ToLower(strings.TrimSpace(s))); t {
	case FeePolicyFlat, FeePolicyPercentage, FeePolicyNone:
		return t, nil
	case "":
		return FeePolicyNone, nil
	default:
		return "", shared.NewValidationError("unknown fee policy %q", s)
	}
}

// WithTolerance returns a copy accepting callback amounts within tol of the amount due
func (p FeePolicy) WithTolerance(tol decimal.Decimal) FeePolicy {
	p.Tolerance = tol
	return p
}

// Validate checks the policy parameters
func (p FeePolicy) Validate() error {
	switch p.Type {
	case FeePolicyFlat:
		if p.FlatAmount.IsNegative() {
			return shared.NewValidationError("flat late fee cannot be negative")
		}
	case FeePolicyPercentage:
		if p.Percentage.IsNegative() || p.Percentage.GreaterThan(decimal.NewFromInt(100)) {
			return shared.NewValidationError("late fee percentage must be between 0 and 100")
		}
	case FeePolicyNone:
	default:
		return shared.NewValidationError("unknown fee policy %q", p.Type)
	}
	if p.Tolerance.IsNegative() {
		return shared.NewValidationError("tolerance cannot be negative")
	}
	return nil
}

// Compute returns the late fee for an obligation
func (p FeePolicy) Compute(o *PaymentObligation) decimal.Decimal {
	switch p.Type {
	case FeePolicyFlat:
		return shared.RoundMoney(p.FlatAmount)
	case FeePolicyPercentage:
		return shared.RoundMoney(o.Amount.Mul(p.Percentage).Div(decimal.NewFromInt(100)))
	default:
		return decimal.Zero
	}
}

// Matches reports whether paid covers due within the tolerance
func (p FeePolicy) Matches(due, paid decimal.Decimal) bool {
	return due.Sub(paid).Abs().LessThanOrEqual(p.Tolerance)
}

// NewFeePolicy builds and validates a policy from configured settings
func NewFeePolicy(kind string, flat, pct, tolerance decimal.Decimal) (FeePolicy, error) {
	typ, err := ParseFeePolicyType(kind)
	if err != nil {
		return FeePolicy{}, err
	}
	p := FeePolicy{Type: typ, FlatAmount: flat, Percentage: pct, Tolerance: tolerance}
	if err := p.Validate(); err != nil {
		return FeePolicy{}, err
	}
	return p, nil
}
