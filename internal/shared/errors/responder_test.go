package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestResponder_UsesMappersBeforeFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sentinel := stderrors.New("boom")
	responder := NewResponder("https://mikopo.example", func(err error) (ProblemDetail, bool) {
		if stderrors.Is(err, sentinel) {
			return ErrConflict.WithDetail(err.Error()), true
		}
		return ProblemDetail{}, false
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/loans/1", nil)
	responder.RespondError(c, sentinel)

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "https://mikopo.example"+TypeConflict, body.Type)
	require.Equal(t, "/v1/loans/1", body.Instance)

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/loans", nil)
	responder.RespondError(c, stderrors.New("db down"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestNewNotFoundProblem(t *testing.T) {
	problem := NewNotFoundProblem("loan", int64(7))
	require.Equal(t, http.StatusNotFound, problem.Status)
	require.Equal(t, "loan", problem.Extensions["resourceType"])
	require.Contains(t, problem.Error(), "'7'")
	require.Nil(t, ErrNotFound.Extensions)
}
