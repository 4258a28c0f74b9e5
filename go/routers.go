package mikoposerver

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"
)

// Handlers bundles the API groups served under /v1.
type Handlers struct {
	Customers CustomerAPI
	Loans     LoanAPI
	Reports   ReportAPI
}

// NewRouter registers every route on a fresh gin engine.
func NewRouter(h Handlers, middleware ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware...)

	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	v1 := router.Group("/v1")
	v1.POST("/customers", h.Customers.RegisterCustomer)
	v1.GET("/customers/:customerId", h.Customers.GetCustomer)

	v1.POST("/loans", h.Loans.CreateLoan)
	v1.GET("/loans", h.Loans.ListLoans)
	v1.GET("/loans/:loanId", h.Loans.GetLoan)
	v1.POST("/loans/:loanId/approve", h.Loans.ApproveLoan)
	v1.POST("/loans/:loanId/default", h.Loans.MarkDefaulted)
	v1.POST("/loans/:loanId/close", h.Loans.CloseLoan)
	v1.POST("/loans/:loanId/transactions", h.Loans.RecordTransaction)
	v1.GET("/loans/:loanId/transactions", h.Loans.ListTransactions)
	v1.GET("/loans/:loanId/due", h.Loans.DueAmount)

	v1.GET("/reports/arrears", h.Reports.Arrears)
	v1.POST("/reports/arrears/sweep", h.Reports.SweepArrears)
	v1.GET("/reports/portfolio", h.Reports.Portfolio)
	return router
}

// BusinessCalendar turns "now" into the business date used when a request
// omits asOf.
type BusinessCalendar struct {
	Location *time.Location
	Now      func() time.Time
}

func (b BusinessCalendar) Today() civil.Date {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	loc := b.Location
	if loc == nil {
		loc = time.UTC
	}
	return civil.DateOf(now().In(loc))
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		responder.BadRequest(c, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

func parseOptionalInt(c *gin.Context, name string) (int64, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		responder.BadRequest(c, name+" must be a non-negative integer")
		return 0, false
	}
	return v, true
}

// parseAsOf reads the asOf query parameter, defaulting to today.
func parseAsOf(c *gin.Context, calendar BusinessCalendar) (civil.Date, bool) {
	raw := strings.TrimSpace(c.Query("asOf"))
	if raw == "" {
		return calendar.Today(), true
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		responder.BadRequest(c, "asOf must be a YYYY-MM-DD date")
		return civil.Date{}, false
	}
	return d, true
}
