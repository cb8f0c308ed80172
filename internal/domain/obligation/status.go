package obligation

// Status is the lifecycle state of a payment obligation
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusOverdue   Status = "OVERDUE"
	StatusCancelled Status = "CANCELLED"
	StatusRefunded  Status = "REFUNDED"
)

// transitions is the only place allowed status changes are declared
var transitions = map[Status][]Status{
	StatusPending: {StatusPaid, StatusOverdue, StatusCancelled},
	StatusOverdue: {StatusPaid, StatusCancelled},
	StatusPaid:    {StatusRefunded},
}

// AllStatuses returns every obligation status
func AllStatuses() []Status {
	return []Status{StatusPending, StatusPaid, StatusOverdue, StatusCancelled, StatusRefunded}
}

// IsValid checks if the status is a known value
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusOverdue, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// String returns the string representation
func (s Status) String() string {
	return string(s)
}

// IsPayable reports whether a settlement may still be attempted
func (s Status) IsPayable() bool {
	return s == StatusPending || s == StatusOverdue
}

// IsTerminal reports whether no further transition exists
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// CanTransitionTo checks the transition table
func (s Status) CanTransitionTo(to Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Kind distinguishes rent installments from split plan legs
type Kind string

const (
	KindRentInstallment Kind = "RENT_INSTALLMENT"
	KindSplitDeposit    Kind = "SPLIT_DEPOSIT"
	KindSplitBalance    Kind = "SPLIT_BALANCE"
)

// IsValid checks if the kind is a known value
func (k Kind) IsValid() bool {
	switch k {
	case KindRentInstallment, KindSplitDeposit, KindSplitBalance:
		return true
	}
	return false
}

// IsSplitLeg reports whether the kind belongs to a split plan
func (k Kind) IsSplitLeg() bool {
	return k == KindSplitDeposit || k == KindSplitBalance
}

// String returns the string representation
func (k Kind) String() string {
	return string(k)
}
