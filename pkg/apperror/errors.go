package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
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

// Codes matched programmatically by callers.
const (
	CodeInsufficientBalance = "LED_002"
)

// ---- Ledger (LED) ----

func ErrInvalidAmount() *AppError {
	return New("LED_001", "Amount must be positive", http.StatusBadRequest)
}

func ErrInsufficientBalance() *AppError {
	return New(CodeInsufficientBalance, "Insufficient wallet balance", http.StatusPaymentRequired)
}

func ErrImmutableRecord() *AppError {
	return New("LED_003", "Ledger records are immutable; use compensating transactions", http.StatusConflict)
}

// ---- Checkout / Orders (ORD) ----

func ErrNotFound(entity string) *AppError {
	return New("ORD_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrEmptyOrder() *AppError {
	return New("ORD_002", "Order total must be positive", http.StatusBadRequest)
}

func ErrInvalidTransition(from, to string) *AppError {
	return New("ORD_003", fmt.Sprintf("Invalid status transition %s -> %s", from, to), http.StatusBadRequest)
}

func ErrReversalFailed(reason string) *AppError {
	return New("ORD_004", fmt.Sprintf("Order reversal failed: %s", reason), http.StatusBadRequest)
}

// ---- Audit (AUD) ----

func ErrSnapshotMissing() *AppError {
	return New("AUD_001", "No financial snapshot exists for this order", http.StatusBadRequest)
}

// ---- Authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrForbidden(action string) *AppError {
	return New("AUTH_002", fmt.Sprintf("Role not permitted to %s", action), http.StatusForbidden)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a bad-input error with a caller-supplied message.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}
