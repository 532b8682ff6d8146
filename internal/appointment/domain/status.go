package domain

// Status is the appointment lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAssigned  Status = "assigned"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusClosed    Status = "closed"
	StatusCancelled Status = "cancelled"
)

// PaymentStatus is the payment sub-state.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// NotifyKind names the side effect a transition fires.
type NotifyKind int

const (
	NotifyNone NotifyKind = iota
	NotifyConfirmation
	NotifyCancellation
	NotifyInternal
)

// TransitionRule is the precondition and side effect for entering a
// target status. The workflow deliberately permits forward and backward
// writes between live states; the rules here are the full set of hard
// constraints.
type TransitionRule struct {
	RequiresDoctor bool
	Notify         NotifyKind
}

var transitionRules = map[Status]TransitionRule{
	StatusPending:   {},
	StatusAssigned:  {},
	StatusConfirmed: {Notify: NotifyConfirmation},
	StatusCompleted: {RequiresDoctor: true, Notify: NotifyInternal},
	StatusClosed:    {},
	StatusCancelled: {Notify: NotifyCancellation},
}

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (Status, bool) {
	status := Status(raw)
	_, ok := transitionRules[status]
	return status, ok
}

// IsTerminal reports whether no further transitions may leave a status.
func (s Status) IsTerminal() bool {
	return s == StatusClosed || s == StatusCancelled
}

// RuleFor returns the rule for entering the target status.
func RuleFor(target Status) (TransitionRule, bool) {
	rule, ok := transitionRules[target]
	return rule, ok
}

// ParsePaymentMethod validates a settlement method.
func ParsePaymentMethod(raw string) (string, bool) {
	switch raw {
	case "cash", "credit_card", "debit_card", "gcash", "paymaya":
		return raw, true
	}
	return "", false
}
