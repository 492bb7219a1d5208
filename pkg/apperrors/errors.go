// Package apperrors classifies failures so handlers can map them to responses.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidation  = "VALIDATION_ERROR"
	CodeNotFound    = "NOT_FOUND"
	CodeUpstream    = "UPSTREAM_ERROR"
	CodePersistence = "PERSISTENCE_ERROR"
)

type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Cause is the wrapped error text, or empty.
func (e *AppError) Cause() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func New(code, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

func Validation(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest, nil)
}

// Invalid is a validation error carrying the underlying cause.
func Invalid(message string, err error) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest, err)
}

func NotFound(message string) *AppError {
	return New(CodeNotFound, message, http.StatusNotFound, nil)
}

func Upstream(message string, err error) *AppError {
	return New(CodeUpstream, message, http.StatusBadGateway, err)
}

func Persistence(message string, err error) *AppError {
	return New(CodePersistence, message, http.StatusInternalServerError, err)
}

// HTTPStatus maps any error to a response status; unclassified errors are 500.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

func hasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsValidation(err error) bool  { return hasCode(err, CodeValidation) }
func IsNotFound(err error) bool    { return hasCode(err, CodeNotFound) }
func IsUpstream(err error) bool    { return hasCode(err, CodeUpstream) }
func IsPersistence(err error) bool { return hasCode(err, CodePersistence) }
