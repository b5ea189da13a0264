package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submitRequest struct {
	Status   string `json:"status" validate:"required,oneof=approved rejected"`
	Reviewer string `json:"reviewer" validate:"required"`
}

func newContext(method, target, body string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestBindRequest(t *testing.T) {
	c := newContext(http.MethodPost, "/", `{"status":"approved","reviewer":"sam"}`)
	req, err := BindRequest[submitRequest](c)
	require.NoError(t, err)
	assert.Equal(t, "approved", req.Status)
	assert.Equal(t, "sam", req.Reviewer)
}

func TestBindRequest_InvalidBody(t *testing.T) {
	c := newContext(http.MethodPost, "/", `{"status":`)
	_, err := BindRequest[submitRequest](c)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestBindRequest_FailsValidation(t *testing.T) {
	c := newContext(http.MethodPost, "/", `{"status":"maybe"}`)
	_, err := BindRequest[submitRequest](c)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	assert.Contains(t, err.Error(), "field 'Status' failed rule 'oneof=approved rejected'")
	assert.Contains(t, err.Error(), "field 'Reviewer' failed rule 'required'")
}

func TestValidateValue(t *testing.T) {
	assert.NoError(t, ValidateValue(5, "min=1"))
	assert.Error(t, ValidateValue(0, "min=1"))
}

func TestPage(t *testing.T) {
	page, size := Page(newContext(http.MethodGet, "/?page=3&page_size=500", ""), 20, 100)
	assert.Equal(t, 3, page)
	assert.Equal(t, 100, size)

	page, size = Page(newContext(http.MethodGet, "/", ""), 20, 100)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)
}
