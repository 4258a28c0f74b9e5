package domain

import "errors"

var (
	// ErrInvalidArgument marks input-contract violations of the projection engine.
	ErrInvalidArgument = errors.New("invalid argument")

	ErrInvalidCadence          = errors.New("cadence must be one of day, week, month")
	ErrInvalidInstallmentCount = errors.New("installment count must be greater than zero")

	// ErrIncompleteLoan marks a loan whose terms cannot be projected. Batch
	// reports skip such loans instead of failing.
	ErrIncompleteLoan = errors.New("loan terms are incomplete")

	ErrInvalidOffice       = errors.New("office id must be greater than zero")
	ErrInvalidLoanType     = errors.New("loan type must be group or individual")
	ErrInvalidPrincipal    = errors.New("principal must be greater than zero")
	ErrInvalidRate         = errors.New("interest rate must not be negative")
	ErrInvalidBorrowers    = errors.New("borrower count does not match loan type")
	ErrInvalidStatus       = errors.New("loan status is invalid")
	ErrInvalidTransition   = errors.New("loan status transition is not allowed")
	ErrMissingIssueDate    = errors.New("issue date is required")
	ErrEmptyName           = errors.New("customer name is required")
	ErrInvalidPhone        = errors.New("phone number is invalid")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInvalidDirection    = errors.New("transaction direction must be kuweka or kutoa")
	ErrInvalidCategory     = errors.New("transaction category is invalid")
	ErrLoanNotRepayable    = errors.New("repayments are only accepted on approved or defaulted loans")
	ErrBorrowerOtherOffice = errors.New("borrower belongs to a different office")
)
