package errors

import (
	stderrors "errors"
	"fmt"
)

// Codes carried by typed errors. Clients branch on these, not on messages.
const (
	CodeEmptyCart           = "EMPTY_CART"
	CodeMissingTotal        = "MISSING_TOTAL"
	CodeMissingName         = "MISSING_NAME"
	CodeMissingPhone        = "MISSING_PHONE"
	CodeMissingAddress      = "MISSING_ADDRESS"
	CodeInvalidQuantity     = "INVALID_QUANTITY"
	CodeInvalidAmount       = "INVALID_AMOUNT"
	CodeUnknownProduct      = "UNKNOWN_PRODUCT"
	CodeProfileIncomplete   = "PROFILE_INCOMPLETE"
	CodePhoneAlreadyClaimed = "PHONE_ALREADY_CLAIMED"
	CodeUsernameTaken       = "USERNAME_TAKEN"
	CodeAccountHasProfile   = "ACCOUNT_HAS_PROFILE"
	CodeKeyExists           = "KEY_EXISTS"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeAuthRequired        = "AUTH_REQUIRED"
)

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ValidationError struct {
	Message string
	Details []ValidationDetail
}

func (e *ValidationError) Error() string {
	return e.Message
}

// HasCode reports whether any detail carries the given code.
func (e *ValidationError) HasCode(code string) bool {
	for _, d := range e.Details {
		if d.Code == code {
			return true
		}
	}
	return false
}

func NewValidationError(message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: details,
	}
}

func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if stderrors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

func IsNotFoundError(err error) (*NotFoundError, bool) {
	var nfe *NotFoundError
	if stderrors.As(err, &nfe) {
		return nfe, true
	}
	return nil, false
}

type ConflictError struct {
	Message string
	Code    string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflictError(code, message string) *ConflictError {
	return &ConflictError{Message: message, Code: code}
}

func NewPhoneAlreadyClaimedError() *ConflictError {
	return NewConflictError(CodePhoneAlreadyClaimed, "phone number is already linked to another account")
}

func IsConflictError(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if stderrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsPhoneAlreadyClaimed is a shorthand used by the registration and checkout flows.
func IsPhoneAlreadyClaimed(err error) bool {
	ce, ok := IsConflictError(err)
	return ok && ce.Code == CodePhoneAlreadyClaimed
}

type UnauthorizedError struct {
	Message string
	Code    string
}

func (e *UnauthorizedError) Error() string {
	return e.Message
}

func NewUnauthorizedError(code, message string) *UnauthorizedError {
	return &UnauthorizedError{Message: message, Code: code}
}

func IsUnauthorizedError(err error) (*UnauthorizedError, bool) {
	var ue *UnauthorizedError
	if stderrors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

func NewForbiddenError(message string) *ForbiddenError {
	return &ForbiddenError{Message: message}
}

func IsForbiddenError(err error) (*ForbiddenError, bool) {
	var fe *ForbiddenError
	if stderrors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{
		Message: message,
		Cause:   cause,
	}
}

func IsInternalError(err error) (*InternalError, bool) {
	var ie *InternalError
	if stderrors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
