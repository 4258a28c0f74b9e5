package mikoposerver

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	loanmapper "github.com/Apurer/mikopo/internal/domains/loans/adapters/http/mapper"
	"github.com/Apurer/mikopo/internal/domains/loans/domain"
	"github.com/Apurer/mikopo/internal/domains/loans/ports"
)

// LoanAPI wires HTTP transport with the loan lifecycle and transactions.
type LoanAPI struct {
	service  ports.Service
	calendar BusinessCalendar
}

func NewLoanAPI(service ports.Service, calendar BusinessCalendar) LoanAPI {
	return LoanAPI{service: service, calendar: calendar}
}

// Post /v1/loans
func (api LoanAPI) CreateLoan(c *gin.Context) {
	var payload loanmapper.NewLoan
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	loan, err := api.service.CreateLoan(c.Request.Context(), loanmapper.ToCreateLoanInput(payload))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, loanmapper.FromDomainLoan(loan))
}

// Get /v1/loans?officeId=&status=
func (api LoanAPI) ListLoans(c *gin.Context) {
	officeID, ok := parseOptionalInt(c, "officeId")
	if !ok {
		return
	}
	filter := ports.LoanFilter{OfficeID: officeID}
	for _, s := range c.QueryArray("status") {
		filter.Statuses = append(filter.Statuses, domain.Status(s))
	}
	loans, err := api.service.ListLoans(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loanmapper.FromDomainLoans(loans))
}

// Get /v1/loans/:loanId
func (api LoanAPI) GetLoan(c *gin.Context) {
	api.withLoan(c, api.service.GetLoan)
}

// Post /v1/loans/:loanId/approve
func (api LoanAPI) ApproveLoan(c *gin.Context) {
	id, ok := parseIDParam(c, "loanId")
	if !ok {
		return
	}
	var payload loanmapper.ApproveLoan
	if err := c.ShouldBindJSON(&payload); err != nil && !errors.Is(err, io.EOF) {
		respondBadRequest(c, err)
		return
	}
	if !payload.IssueDate.IsValid() {
		payload.IssueDate = api.calendar.Today()
	}
	loan, err := api.service.ApproveLoan(c.Request.Context(), id, payload.IssueDate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loanmapper.FromDomainLoan(loan))
}

// Post /v1/loans/:loanId/default
func (api LoanAPI) MarkDefaulted(c *gin.Context) {
	api.withLoan(c, api.service.MarkDefaulted)
}

// Post /v1/loans/:loanId/close
func (api LoanAPI) CloseLoan(c *gin.Context) {
	api.withLoan(c, api.service.CloseLoan)
}

func (api LoanAPI) withLoan(c *gin.Context, call func(context.Context, int64) (*domain.Loan, error)) {
	id, ok := parseIDParam(c, "loanId")
	if !ok {
		return
	}
	loan, err := call(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loanmapper.FromDomainLoan(loan))
}

// Post /v1/loans/:loanId/transactions
func (api LoanAPI) RecordTransaction(c *gin.Context) {
	id, ok := parseIDParam(c, "loanId")
	if !ok {
		return
	}
	var payload loanmapper.NewTransaction
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	tx, err := api.service.RecordTransaction(c.Request.Context(), loanmapper.ToRecordTransactionInput(id, payload))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, loanmapper.FromDomainTransaction(tx))
}

// Get /v1/loans/:loanId/transactions
func (api LoanAPI) ListTransactions(c *gin.Context) {
	id, ok := parseIDParam(c, "loanId")
	if !ok {
		return
	}
	txs, err := api.service.ListTransactions(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loanmapper.FromDomainTransactions(txs))
}

// Get /v1/loans/:loanId/due?asOf=
func (api LoanAPI) DueAmount(c *gin.Context) {
	id, ok := parseIDParam(c, "loanId")
	if !ok {
		return
	}
	asOf, ok := parseAsOf(c, api.calendar)
	if !ok {
		return
	}
	due, err := api.service.LoanDueAmount(c.Request.Context(), id, asOf)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loanmapper.DueAmount{LoanID: id, AsOf: asOf, Due: due})
}
