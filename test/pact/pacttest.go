//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "mikopo-api"
	ConsumerName = "branch-dashboard"

	StatePortfolioBaseline = "loan portfolio baseline"
	StateLoanInArrears     = "loan 1 is in arrears"
	StateLoanMissing       = "no loan with id 404"
)

const (
	ArrearsLoanID int64 = 1
	MissingLoanID int64 = 404
	OfficeID      int64 = 7

	// The arrears fixture is 250000 at 20% over three monthly installments,
	// issued 2025-01-01 with 50000 repaid. On AsOf two installments are due.
	AsOf            = "2025-03-15"
	IssueDate       = "2025-01-01"
	ArrearsExpected = "200000"
	ArrearsPaid     = "50000"
	ArrearsBalance  = "150000"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the dashboard consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleCustomerPayload is the borrower registered by the dashboard.
func ExampleCustomerPayload() map[string]any {
	return map[string]any{
		"officeId": OfficeID,
		"fullName": "Amina Wanjiku",
		"phone":    "+254700000001",
	}
}

func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
