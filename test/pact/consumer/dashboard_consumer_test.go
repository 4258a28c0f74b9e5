//go:build pact
// +build pact

package consumer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	pacttest "github.com/Apurer/mikopo/test/pact"

	pactconsumer "github.com/pact-foundation/pact-go/v2/consumer"
	pactlog "github.com/pact-foundation/pact-go/v2/log"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/stretchr/testify/require"
)

type customerPayload struct {
	ID       int64  `json:"id"`
	OfficeID int64  `json:"officeId"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
}

type duePayload struct {
	LoanID int64  `json:"loanId"`
	AsOf   string `json:"asOf"`
	Due    string `json:"due"`
}

type arrearsRecordPayload struct {
	LoanID   int64  `json:"loanId"`
	Expected string `json:"expected"`
	Paid     string `json:"paid"`
	Balance  string `json:"balance"`
}

type arrearsPayload struct {
	AsOf    string                 `json:"asOf"`
	Records []arrearsRecordPayload `json:"records"`
}

type problemDetail struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

type apiError struct {
	status int
	title  string
	detail string
}

func (e apiError) Error() string {
	msg := e.title
	if msg == "" {
		msg = "api error"
	}
	if e.detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.detail)
	}
	return fmt.Sprintf("%s (status %d)", msg, e.status)
}

func TestBranchDashboardContract(t *testing.T) {
	pactlog.SetLogLevel("INFO")

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.ConsumerName,
		Provider: pacttest.ProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	jsonContentType := matchers.Regex("application/json; charset=utf-8", "application\\/json(?:;\\s?charset=utf-8)?")
	decimalString := func(example string) matchers.Matcher {
		return matchers.Term(example, `^-?\d+(\.\d+)?$`)
	}
	isoDate := func(example string) matchers.Matcher {
		return matchers.Term(example, `^\d{4}-\d{2}-\d{2}$`)
	}

	pact.AddInteraction().
		Given(pacttest.StatePortfolioBaseline).
		UponReceiving("a request to register a borrower").
		WithRequest("POST", "/v1/customers", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(pacttest.ExampleCustomerPayload())
		}).
		WillRespondWith(http.StatusCreated, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"id":       matchers.Like(int64(1)),
				"officeId": matchers.Like(pacttest.OfficeID),
				"fullName": matchers.Like("Amina Wanjiku"),
				"phone":    matchers.Like("+254700000001"),
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateLoanInArrears).
		UponReceiving("a request for the amount due on a loan").
		WithRequest("GET", fmt.Sprintf("/v1/loans/%d/due", pacttest.ArrearsLoanID), func(b *pactconsumer.V2RequestBuilder) {
			b.Query("asOf", matchers.S(pacttest.AsOf))
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"loanId": matchers.Like(pacttest.ArrearsLoanID),
				"asOf":   isoDate(pacttest.AsOf),
				"due":    decimalString(pacttest.ArrearsExpected),
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateLoanInArrears).
		UponReceiving("a request for the arrears report").
		WithRequest("GET", "/v1/reports/arrears", func(b *pactconsumer.V2RequestBuilder) {
			b.Query("asOf", matchers.S(pacttest.AsOf))
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"asOf": isoDate(pacttest.AsOf),
				"records": matchers.EachLike(matchers.Map{
					"loanId":   matchers.Like(pacttest.ArrearsLoanID),
					"expected": decimalString(pacttest.ArrearsExpected),
					"paid":     decimalString(pacttest.ArrearsPaid),
					"balance":  decimalString(pacttest.ArrearsBalance),
					"borrowers": matchers.EachLike(matchers.Map{
						"id":       matchers.Like(int64(1)),
						"fullName": matchers.Like("Amina Wanjiku"),
						"phone":    matchers.Like("+254700000001"),
					}, 1),
				}, 1),
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateLoanMissing).
		UponReceiving("a request for a missing loan").
		WithRequest("GET", fmt.Sprintf("/v1/loans/%d", pacttest.MissingLoanID)).
		WillRespondWith(http.StatusNotFound, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", matchers.S("application/problem+json"))
			b.JSONBody(matchers.Map{
				"type":   matchers.S("/problems/not-found"),
				"title":  matchers.S("Resource Not Found"),
				"status": matchers.Like(http.StatusNotFound),
			})
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		client := newDashboardClient(config)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		customer, err := client.RegisterCustomer(ctx, pacttest.ExampleCustomerPayload())
		if err != nil {
			return fmt.Errorf("register customer: %w", err)
		}
		if customer.ID == 0 {
			return fmt.Errorf("expected customer id to be set")
		}

		due, err := client.Due(ctx, pacttest.ArrearsLoanID, pacttest.AsOf)
		if err != nil {
			return fmt.Errorf("due amount: %w", err)
		}
		if due.Due != pacttest.ArrearsExpected {
			return fmt.Errorf("expected due %s, got %s", pacttest.ArrearsExpected, due.Due)
		}

		report, err := client.Arrears(ctx, pacttest.AsOf)
		if err != nil {
			return fmt.Errorf("arrears report: %w", err)
		}
		if len(report.Records) == 0 || report.Records[0].Balance != pacttest.ArrearsBalance {
			return fmt.Errorf("unexpected arrears report %+v", report)
		}

		if err := client.get(ctx, fmt.Sprintf("/v1/loans/%d", pacttest.MissingLoanID), &struct{}{}); err == nil {
			return fmt.Errorf("expected 404 for loan %d", pacttest.MissingLoanID)
		} else if apiErr, ok := err.(apiError); !ok || apiErr.status != http.StatusNotFound {
			return fmt.Errorf("expected 404, got %v", err)
		}
		return nil
	})
	require.NoError(t, err)
}

type dashboardClient struct {
	baseURL    string
	httpClient *http.Client
}

func newDashboardClient(config pactconsumer.MockServerConfig) *dashboardClient {
	host := config.Host
	if host == "" {
		host = "localhost"
	}
	transport := &http.Transport{TLSClientConfig: config.TLSConfig}
	return &dashboardClient{
		baseURL:    fmt.Sprintf("http://%s:%d", host, config.Port),
		httpClient: &http.Client{Transport: transport, Timeout: 10 * time.Second},
	}
}

func (c *dashboardClient) RegisterCustomer(ctx context.Context, payload map[string]any) (*customerPayload, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/customers", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	var out customerPayload
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *dashboardClient) Due(ctx context.Context, loanID int64, asOf string) (*duePayload, error) {
	var out duePayload
	if err := c.get(ctx, fmt.Sprintf("/v1/loans/%d/due?asOf=%s", loanID, asOf), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *dashboardClient) Arrears(ctx context.Context, asOf string) (*arrearsPayload, error) {
	var out arrearsPayload
	if err := c.get(ctx, "/v1/reports/arrears?asOf="+asOf, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *dashboardClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *dashboardClient) do(req *http.Request, out any) error {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(res)
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func decodeAPIError(res *http.Response) error {
	var problem problemDetail
	_ = json.NewDecoder(res.Body).Decode(&problem)
	status := problem.Status
	if status == 0 {
		status = res.StatusCode
	}
	return apiError{status: status, title: problem.Title, detail: problem.Detail}
}
