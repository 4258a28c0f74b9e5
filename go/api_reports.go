package mikoposerver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	loanmapper "github.com/Apurer/mikopo/internal/domains/loans/adapters/http/mapper"
	"github.com/Apurer/mikopo/internal/domains/loans/ports"
)

// ReportAPI serves the portfolio reports and triggers arrears sweeps.
type ReportAPI struct {
	service  ports.Service
	sweeps   ports.SweepOrchestrator
	calendar BusinessCalendar
}

// NewReportAPI wires the reports. A nil orchestrator runs sweeps through the service directly.
func NewReportAPI(service ports.Service, sweeps ports.SweepOrchestrator, calendar BusinessCalendar) ReportAPI {
	return ReportAPI{service: service, sweeps: sweeps, calendar: calendar}
}

// Get /v1/reports/arrears?asOf=&officeId=
func (api ReportAPI) Arrears(c *gin.Context) {
	asOf, ok := parseAsOf(c, api.calendar)
	if !ok {
		return
	}
	officeID, ok := parseOptionalInt(c, "officeId")
	if !ok {
		return
	}
	report, err := api.service.ListLoansInArrears(c.Request.Context(), ports.ArrearsQuery{AsOf: asOf, OfficeID: officeID})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loanmapper.FromArrearsReport(report))
}

// Get /v1/reports/portfolio?asOf=
func (api ReportAPI) Portfolio(c *gin.Context) {
	asOf, ok := parseAsOf(c, api.calendar)
	if !ok {
		return
	}
	summary, err := api.service.PortfolioSummary(c.Request.Context(), asOf)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loanmapper.FromPortfolioSummary(summary))
}

// Post /v1/reports/arrears/sweep?asOf=
func (api ReportAPI) SweepArrears(c *gin.Context) {
	asOf, ok := parseAsOf(c, api.calendar)
	if !ok {
		return
	}
	var (
		result *ports.SweepResult
		err    error
	)
	if api.sweeps != nil {
		result, err = api.sweeps.RunSweep(c.Request.Context(), asOf)
	} else {
		result, err = api.service.SweepArrears(c.Request.Context(), asOf)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loanmapper.FromSweepResult(result))
}
