package payment

import (
	"strings"

	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// minorUnits converts amount into the smallest unit of its currency, e.g.
// cents for USD. Amounts that do not fit the currency's scale are rejected.
func minorUnits(amount decimal.Decimal, code string) (int64, error) {
	unit, err := currency.ParseISO(strings.ToUpper(code))
	if err != nil {
		return 0, shared.NewValidationError("unknown currency %q", code)
	}
	scale, _ := currency.Standard.Rounding(unit)
	minor := amount.Shift(int32(scale))
	if !minor.IsInteger() {
		return 0, shared.NewValidationError("amount %s has more precision than %s allows", amount, unit)
	}
	return minor.IntPart(), nil
}
