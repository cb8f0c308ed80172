package shared

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// MoneyScale is the number of fractional digits kept for stored amounts
const MoneyScale int32 = 2

// RoundMoney rounds half away from zero to MoneyScale places
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// NormalizeCurrency upper-cases and validates an ISO 4217 code
func NormalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", NewValidationError("unknown currency %q", code)
	}
	return unit.String(), nil
}

// ValidatePositiveAmount rejects zero, negative and sub-cent amounts
func ValidatePositiveAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return NewValidationError("%s must be greater than zero", field)
	}
	if !amount.Equal(RoundMoney(amount)) {
		return NewValidationError("%s must have at most %d decimal places", field, MoneyScale)
	}
	return nil
}
