package mikoposerver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	loanmapper "github.com/Apurer/mikopo/internal/domains/loans/adapters/http/mapper"
	"github.com/Apurer/mikopo/internal/domains/loans/ports"
)

// CustomerAPI wires HTTP transport with customer registration.
type CustomerAPI struct {
	service ports.Service
}

func NewCustomerAPI(service ports.Service) CustomerAPI {
	return CustomerAPI{service: service}
}

// Post /v1/customers
func (api CustomerAPI) RegisterCustomer(c *gin.Context) {
	var payload loanmapper.NewCustomer
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err)
		return
	}
	customer, err := api.service.RegisterCustomer(c.Request.Context(), loanmapper.ToRegisterCustomerInput(payload))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, loanmapper.FromDomainCustomer(customer))
}

// Get /v1/customers/:customerId
func (api CustomerAPI) GetCustomer(c *gin.Context) {
	id, ok := parseIDParam(c, "customerId")
	if !ok {
		return
	}
	customer, err := api.service.GetCustomer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loanmapper.FromDomainCustomer(customer))
}
