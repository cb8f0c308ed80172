package payment

import "strings"

// Rail is a distinct external payment processor or channel
type Rail string

const (
	RailCard         Rail = "CARD"
	RailMobileMoney  Rail = "MOBILE_MONEY"
	RailBankTransfer Rail = "BANK_TRANSFER"
)

// AllRails returns every supported rail
func AllRails() []Rail {
	return []Rail{RailCard, RailMobileMoney, RailBankTransfer}
}

// ParseRail accepts the canonical name in any case, or its kebab-case path form
func ParseRail(s string) (Rail, bool) {
	r := Rail(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	return r, r.IsValid()
}

// IsValid checks if the rail is a known value
func (r Rail) IsValid() bool {
	switch r {
	case RailCard, RailMobileMoney, RailBankTransfer:
		return true
	}
	return false
}

// String returns the string representation
func (r Rail) String() string {
	return string(r)
}

// TransactionStatus is the lifecycle state of a gateway transaction
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusSuccess   TransactionStatus = "SUCCESS"
	TransactionStatusFailed    TransactionStatus = "FAILED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
	TransactionStatusExpired   TransactionStatus = "EXPIRED"
)

// IsValid checks if the status is a known value
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusSuccess, TransactionStatusFailed,
		TransactionStatusCancelled, TransactionStatusExpired:
		return true
	}
	return false
}

// IsTerminal reports whether the transaction accepts no further outcome
func (s TransactionStatus) IsTerminal() bool {
	return s.IsValid() && s != TransactionStatusPending
}

// String returns the string representation
func (s TransactionStatus) String() string {
	return string(s)
}

// Outcome is the result a gateway reports in a callback
type Outcome string

const (
	OutcomeSuccess   Outcome = "SUCCESS"
	OutcomeFailed    Outcome = "FAILED"
	OutcomeCancelled Outcome = "CANCELLED"
	OutcomeExpired   Outcome = "EXPIRED"
)

// ParseOutcome parses a callback outcome case-insensitively
func ParseOutcome(s string) (Outcome, bool) {
	o := Outcome(strings.ToUpper(strings.TrimSpace(s)))
	return o, o.IsValid()
}

// IsValid checks if the outcome is a known value
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeSuccess, OutcomeFailed, OutcomeCancelled, OutcomeExpired:
		return true
	}
	return false
}

// Status maps the outcome to the transaction status it produces
func (o Outcome) Status() TransactionStatus {
	return TransactionStatus(o)
}

// String returns the string representation
func (o Outcome) String() string {
	return string(o)
}
