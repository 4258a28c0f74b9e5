package domain

// Status enumerates the loan lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusWaiting   Status = "waiting"
	StatusError     Status = "error"
	StatusApproved  Status = "approved"
	StatusRepaid    Status = "repaid"
	StatusDefaulted Status = "defaulted"
	StatusClosed    Status = "closed"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusWaiting, StatusApproved, StatusError},
	StatusWaiting:   {StatusApproved, StatusError},
	StatusError:     {StatusPending},
	StatusApproved:  {StatusDefaulted, StatusRepaid},
	StatusDefaulted: {StatusRepaid},
	StatusRepaid:    {StatusClosed},
}

// Valid reports whether s is a known lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusWaiting, StatusError, StatusApproved, StatusRepaid, StatusDefaulted, StatusClosed:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Projectable reports whether loans in this state take part in repayment projection.
func (s Status) Projectable() bool {
	return s == StatusApproved || s == StatusDefaulted
}

// LoanType distinguishes group loans from individual ones.
type LoanType string

const (
	LoanTypeGroup      LoanType = "group"
	LoanTypeIndividual LoanType = "individual"
)

func (t LoanType) Valid() bool {
	return t == LoanTypeGroup || t == LoanTypeIndividual
}
