package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNewLoan_Validates(t *testing.T) {
	tests := []struct {
		name      string
		office    int64
		loanType  LoanType
		principal string
		rate      string
		n         int
		cadence   Cadence
		borrowers []int64
		wantErr   error
	}{
		{name: "missing office", office: 0, loanType: LoanTypeIndividual, principal: "100", rate: "10", n: 3, cadence: CadenceMonth, borrowers: []int64{1}, wantErr: ErrInvalidOffice},
		{name: "unknown type", office: 1, loanType: "corporate", principal: "100", rate: "10", n: 3, cadence: CadenceMonth, borrowers: []int64{1}, wantErr: ErrInvalidLoanType},
		{name: "zero principal", office: 1, loanType: LoanTypeIndividual, principal: "0", rate: "10", n: 3, cadence: CadenceMonth, borrowers: []int64{1}, wantErr: ErrInvalidPrincipal},
		{name: "negative rate", office: 1, loanType: LoanTypeIndividual, principal: "100", rate: "-1", n: 3, cadence: CadenceMonth, borrowers: []int64{1}, wantErr: ErrInvalidRate},
		{name: "no installments", office: 1, loanType: LoanTypeIndividual, principal: "100", rate: "10", n: 0, cadence: CadenceMonth, borrowers: []int64{1}, wantErr: ErrInvalidInstallmentCount},
		{name: "bad cadence", office: 1, loanType: LoanTypeIndividual, principal: "100", rate: "10", n: 3, cadence: "mwaka", borrowers: []int64{1}, wantErr: ErrInvalidCadence},
		{name: "group needs two borrowers", office: 1, loanType: LoanTypeGroup, principal: "100", rate: "10", n: 3, cadence: CadenceWeek, borrowers: []int64{1}, wantErr: ErrInvalidBorrowers},
		{name: "individual needs one borrower", office: 1, loanType: LoanTypeIndividual, principal: "100", rate: "10", n: 3, cadence: CadenceWeek, borrowers: []int64{1, 2}, wantErr: ErrInvalidBorrowers},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoan(tt.office, tt.loanType, amount(tt.principal), amount(tt.rate), tt.n, tt.cadence, tt.borrowers)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoan_ApproveFixesTotalDue(t *testing.T) {
	loan, err := NewLoan(1, LoanTypeGroup, amount("250000"), amount("20"), 3, CadenceMonth, []int64{1, 2})
	require.NoError(t, err)
	require.Equal(t, StatusPending, loan.Status)

	require.NoError(t, loan.Approve(date(2025, 1, 1)))
	require.Equal(t, StatusApproved, loan.Status)
	require.NotNil(t, loan.IssueDate)
	requireAmount(t, "300000", loan.TotalDue.Decimal)

	terms, ok := loan.Terms()
	require.True(t, ok)
	require.Equal(t, 3, terms.Installments)
}

func TestLoan_Transitions(t *testing.T) {
	loan, err := NewLoan(1, LoanTypeIndividual, amount("100"), amount("10"), 2, CadenceDay, []int64{7})
	require.NoError(t, err)

	require.ErrorIs(t, loan.Transition(StatusRepaid), ErrInvalidTransition)
	require.NoError(t, loan.Approve(date(2025, 4, 1)))
	require.ErrorIs(t, loan.Approve(date(2025, 4, 2)), ErrInvalidTransition)
	require.NoError(t, loan.Transition(StatusDefaulted))
	require.NoError(t, loan.Transition(StatusRepaid))
	require.NoError(t, loan.Transition(StatusClosed))
	require.ErrorIs(t, loan.Transition("archived"), ErrInvalidStatus)
}

func TestLoan_TermsIncomplete(t *testing.T) {
	loan, err := NewLoan(1, LoanTypeIndividual, amount("100"), amount("10"), 2, CadenceDay, []int64{7})
	require.NoError(t, err)
	_, ok := loan.Terms()
	require.False(t, ok, "pending loan has no issue date")

	require.NoError(t, loan.Approve(date(2025, 4, 1)))
	loan.TotalDue = decimal.NullDecimal{}
	_, ok = loan.Terms()
	require.False(t, ok)
}

func TestLoan_CloneIsDeep(t *testing.T) {
	loan, err := NewLoan(1, LoanTypeGroup, amount("100"), amount("10"), 2, CadenceDay, []int64{1, 2})
	require.NoError(t, err)
	require.NoError(t, loan.Approve(date(2025, 4, 1)))

	clone := loan.Clone()
	clone.BorrowerIDs[0] = 99
	*clone.IssueDate = date(2030, 1, 1)
	require.Equal(t, int64(1), loan.BorrowerIDs[0])
	require.Equal(t, date(2025, 4, 1), *loan.IssueDate)
}

func TestNewCustomer(t *testing.T) {
	c, err := NewCustomer(3, "  Amina Juma ", "+255 712 345 678", "", "Arusha")
	require.NoError(t, err)
	require.Equal(t, "Amina Juma", c.FullName)
	require.Equal(t, "+255712345678", c.Phone)

	_, err = NewCustomer(3, "", "0712345678", "", "")
	require.ErrorIs(t, err, ErrEmptyName)
	_, err = NewCustomer(3, "Juma", "12ab", "", "")
	require.ErrorIs(t, err, ErrInvalidPhone)
}

func TestNewTransaction(t *testing.T) {
	at := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)
	tx, err := NewTransaction(1, DirectionDeposit, CategoryRepayment, amount("100.005"), at)
	require.NoError(t, err)
	requireAmount(t, "100.01", tx.Amount)
	require.True(t, tx.IsRepayment())

	_, err = NewTransaction(1, "in", CategoryRepayment, amount("1"), at)
	require.ErrorIs(t, err, ErrInvalidDirection)
	_, err = NewTransaction(1, DirectionDeposit, "riba", amount("1"), at)
	require.ErrorIs(t, err, ErrInvalidCategory)
	_, err = NewTransaction(1, DirectionDeposit, CategoryFee, amount("0"), at)
	require.ErrorIs(t, err, ErrInvalidAmount)
}
