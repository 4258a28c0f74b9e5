package mapper

import (
	"errors"

	loansapp "github.com/Apurer/mikopo/internal/domains/loans/application"
	"github.com/Apurer/mikopo/internal/domains/loans/ports"
	apierrors "github.com/Apurer/mikopo/internal/shared/errors"
)

// ProblemFor translates loans errors into problem details. Unknown errors
// are left to the responder's fallback.
func ProblemFor(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, ports.ErrLoanNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()).WithExtension("resourceType", "loan"), true
	case errors.Is(err, ports.ErrCustomerNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()).WithExtension("resourceType", "customer"), true
	case errors.Is(err, loansapp.ErrUnprojectable):
		return apierrors.ErrUnprocessable.WithDetail(err.Error()), true
	case errors.Is(err, loansapp.ErrConflict):
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	case errors.Is(err, loansapp.ErrInvalidInput):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}
