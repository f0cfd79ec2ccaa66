package apperror

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string            `json:"error_code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	HTTPStatus int               `json:"-"`
	Err        error             `json:"-"` // Wrapped internal error (not exposed to client)
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

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Validation (VAL) ----

func ErrInvalidAmount() *AppError {
	return New("VAL_001", "Amount must be positive with at most 2 decimal places", http.StatusBadRequest)
}

// Validation returns a VAL_002 error for malformed request input.
func Validation(message string) *AppError {
	return New("VAL_002", message, http.StatusBadRequest)
}

// ---- Account state (ACC) ----

// ErrAccountNotFound covers both missing accounts and accounts owned by a
// different user, so callers cannot probe for other users' account ids.
func ErrAccountNotFound() *AppError {
	return New("ACC_001", "Account not found", http.StatusNotFound)
}

func ErrAccountFrozen() *AppError {
	return New("ACC_002", "Account is frozen and cannot be debited", http.StatusForbidden)
}

func ErrInsufficientFunds() *AppError {
	return New("ACC_003", "Insufficient funds", http.StatusPaymentRequired)
}

func ErrDuplicateRecord(entity string) *AppError {
	return New("ACC_004", fmt.Sprintf("%s already exists", entity), http.StatusConflict)
}

func ErrNotFound(entity string) *AppError {
	return New("ACC_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Transfer rules (TRF, LIM) ----

func ErrSelfTransfer() *AppError {
	return New("TRF_001", "Source and destination must differ", http.StatusBadRequest)
}

// ErrDailyLimitExceeded reports the allowance still available in the trailing
// 24-hour window so the caller can self-correct.
func ErrDailyLimitExceeded(remaining decimal.Decimal) *AppError {
	e := New("LIM_001", "Daily transfer limit exceeded", http.StatusUnprocessableEntity)
	e.Details = map[string]string{"remaining_allowance": remaining.StringFixed(2)}
	return e
}

// ---- Identity & authorization (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrAuthorizationFailed() *AppError {
	return New("AUTH_002", "Authorization code is invalid or expired", http.StatusForbidden)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps a storage or infrastructure failure. The wrapped error
// is logged but never serialized to the caller.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// ErrLockTimeout reports a unit of work that could not acquire its row locks
// within the configured wait. Retryable: nothing was committed.
func ErrLockTimeout(err error) *AppError {
	return Wrap("SYS_002", "Operation timed out waiting for account locks, retry later", http.StatusServiceUnavailable, err)
}
