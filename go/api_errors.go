package mikoposerver

import (
	"github.com/gin-gonic/gin"

	loanmapper "github.com/Apurer/mikopo/internal/domains/loans/adapters/http/mapper"
	apierrors "github.com/Apurer/mikopo/internal/shared/errors"
)

var responder = apierrors.NewResponder("", loanmapper.ProblemFor)

// respondError sends err as RFC 7807 problem details.
func respondError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	responder.RespondError(c, err)
}

// respondBadRequest reports malformed input that never reached the service.
func respondBadRequest(c *gin.Context, err error) {
	responder.BadRequest(c, err.Error())
}
