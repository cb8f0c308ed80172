// Package notifier delivers obligation notifications to a log or a Redis stream.
package notifier

import (
	"fmt"

	"github.com/rentflow/backend/internal/application/notification"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders human-readable notification text in one locale
type Formatter struct {
	printer *message.Printer
}

// NewFormatter creates a formatter for the BCP 47 locale tag. Unknown tags
// fall back to English.
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Formatter{printer: message.NewPrinter(tag)}
}

// Amount renders amount with grouping separators, e.g. "USD 1,020.00"
func (f *Formatter) Amount(amount decimal.Decimal, currency string) string {
	v, _ := amount.Round(2).Float64()
	return f.printer.Sprintf("%s %.2f", currency, v)
}

// Subject is the one-line summary of n
func (f *Formatter) Subject(n notification.Notification) string {
	total := f.Amount(n.Total(), n.Currency)
	switch n.Status {
	case "PAID":
		return fmt.Sprintf("Payment of %s received", total)
	case "OVERDUE":
		if n.LateFee.IsPositive() {
			return fmt.Sprintf("Payment overdue: %s due including a late fee of %s", total, f.Amount(n.LateFee, n.Currency))
		}
		return fmt.Sprintf("Payment overdue: %s due", total)
	case "COMPLETED":
		return fmt.Sprintf("Split payment of %s completed", total)
	}
	return fmt.Sprintf("Payment %s: %s", n.Status, total)
}
