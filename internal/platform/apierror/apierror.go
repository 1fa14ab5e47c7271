// Package apierror generalizes the teacher's src/errors package into the
// full error taxonomy of spec.md §7. Handlers map domain sentinel errors to
// an APIError at the HTTP boundary; the stores and the Transactions service
// also return APIError values directly for storage failures and policy
// denials, which handlers pass through unchanged.
package apierror

import (
	"net/http"
)

type APIError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e APIError) Error() string {
	return e.Message
}

const (
	CodeValidation           = "VALIDATION_ERROR"
	CodeNotFound             = "NOT_FOUND"
	CodeConflict             = "CONFLICT"
	CodeAlreadyActive        = "ALREADY_ACTIVE"
	CodeAlreadyInactive      = "ALREADY_INACTIVE"
	CodeAccountClosed        = "ACCOUNT_CLOSED"
	CodeAccountInactive      = "ACCOUNT_INACTIVE"
	CodeSameAccount          = "SAME_ACCOUNT"
	CodeDuplicate            = "DUPLICATE"
	CodeInvalidPin           = "INVALID_PIN"
	CodeInsufficientFunds    = "INSUFFICIENT_FUNDS"
	CodeDailyLimitExceeded   = "DAILY_LIMIT_EXCEEDED"
	CodeDailyCountExceeded   = "DAILY_COUNT_EXCEEDED"
	CodeBalanceOverflow      = "BALANCE_OVERFLOW"
	CodeUnauthenticated      = "UNAUTHENTICATED"
	CodeForbidden            = "FORBIDDEN"
	CodeServiceUnavailable   = "SERVICE_UNAVAILABLE"
	CodeTimeout              = "TIMEOUT"
	CodeStorageFailure       = "STORAGE_FAILURE"
)

func New(code, message string, status int) APIError {
	return APIError{Code: code, Message: message, Status: status}
}

func Validation(message string) APIError {
	return New(CodeValidation, message, http.StatusUnprocessableEntity)
}

func NotFound(message string) APIError {
	return New(CodeNotFound, message, http.StatusNotFound)
}

func Conflict(code, message string) APIError {
	return New(code, message, http.StatusConflict)
}

func InvalidPin() APIError {
	return New(CodeInvalidPin, "PIN verification failed", http.StatusUnauthorized)
}

func Unauthenticated(message string) APIError {
	return New(CodeUnauthenticated, message, http.StatusUnauthorized)
}

func Forbidden(message string) APIError {
	return New(CodeForbidden, message, http.StatusForbidden)
}

func ServiceUnavailable(message string) APIError {
	return New(CodeServiceUnavailable, message, http.StatusServiceUnavailable)
}

func Timeout(message string) APIError {
	return New(CodeTimeout, message, http.StatusServiceUnavailable)
}

func StorageFailure(message string) APIError {
	return New(CodeStorageFailure, message, http.StatusInternalServerError)
}
