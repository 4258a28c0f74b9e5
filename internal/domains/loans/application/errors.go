package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/mikopo/internal/domains/loans/domain"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid loan input")
	// ErrConflict signals the request clashes with the loan's current state.
	ErrConflict = errors.New("loan state conflict")
	// ErrUnprojectable signals a stored loan whose terms cannot be projected.
	ErrUnprojectable = errors.New("loan cannot be projected")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidTransition) ||
		errors.Is(err, domain.ErrLoanNotRepayable) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	if errors.Is(err, domain.ErrInvalidArgument) ||
		errors.Is(err, domain.ErrInvalidOffice) ||
		errors.Is(err, domain.ErrInvalidLoanType) ||
		errors.Is(err, domain.ErrInvalidPrincipal) ||
		errors.Is(err, domain.ErrInvalidRate) ||
		errors.Is(err, domain.ErrInvalidBorrowers) ||
		errors.Is(err, domain.ErrBorrowerOtherOffice) ||
		errors.Is(err, domain.ErrInvalidStatus) ||
		errors.Is(err, domain.ErrMissingIssueDate) ||
		errors.Is(err, domain.ErrIncompleteLoan) ||
		errors.Is(err, domain.ErrEmptyName) ||
		errors.Is(err, domain.ErrInvalidPhone) ||
		errors.Is(err, domain.ErrInvalidAmount) ||
		errors.Is(err, domain.ErrInvalidDirection) ||
		errors.Is(err, domain.ErrInvalidCategory) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
