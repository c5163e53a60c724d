package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/piwi3910/GlassCut/internal/model"
	"github.com/piwi3910/GlassCut/internal/store"
)

// Response is the envelope every endpoint answers with. Code is 0 on success
// and status*100 otherwise; ErrorCode carries the domain error code.
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	ErrorCode string      `json:"error_code,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// Success 200
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

// Created 201
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Code: 0, Message: "success", Data: data})
}

// Error writes a failure envelope.
func Error(c *gin.Context, status int, errorCode, message string, data interface{}) {
	c.AbortWithStatusJSON(status, Response{
		Code:      status * 100,
		Message:   message,
		ErrorCode: errorCode,
		Data:      data,
	})
}

// BadRequest is used for malformed bodies and parameters.
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, "BAD_REQUEST", message, nil)
}

// statusFor maps an error to its HTTP status and domain code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrParse):
		return http.StatusBadRequest, model.CodeParseError
	case errors.Is(err, model.ErrInvalidSpec):
		return http.StatusUnprocessableEntity, model.CodeInvalidSpec
	case errors.Is(err, model.ErrInvalidCut):
		return http.StatusUnprocessableEntity, model.CodeInvalidCut
	case errors.Is(err, model.ErrConfigMissing):
		return http.StatusUnprocessableEntity, model.CodeConfigMissing
	case errors.Is(err, store.ErrQuoteNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, store.ErrNoChanges):
		return http.StatusConflict, "NO_CHANGES"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// fail reports err with the status its type calls for. Domain errors carry
// their structured fields in data so clients can point at the bad input.
func fail(c *gin.Context, err error) {
	status, code := statusFor(err)
	_ = c.Error(err)

	var data interface{}
	var specErr *model.InvalidSpecError
	var cutErr *model.InvalidCutError
	var cfgErr *model.ConfigMissingError
	var parseErr *model.ParseError
	switch {
	case errors.As(err, &specErr):
		data = specErr
	case errors.As(err, &cutErr):
		data = cutErr
	case errors.As(err, &cfgErr):
		data = cfgErr
	case errors.As(err, &parseErr):
		data = parseErr
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	Error(c, status, code, message, data)
}

// bindError reports a body that failed to decode. Measurement fields fail
// with a parse error, which keeps its own code.
func bindError(c *gin.Context, err error) {
	if errors.Is(err, model.ErrParse) {
		fail(c, err)
		return
	}
	BadRequest(c, "invalid request body: "+err.Error())
}
