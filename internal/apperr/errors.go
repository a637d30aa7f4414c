package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the contract every domain error satisfies so handlers can map
// errors to a category and an HTTP status without switching on concrete types.
type AppError interface {
	error
	Category() string
	HTTPStatus() int
}

// --- Validation ---

// ValidationError is a field-level input failure.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	return e.Msg
}
func (e *ValidationError) Category() string { return "VALIDATION_ERROR" }
func (e *ValidationError) HTTPStatus() int  { return http.StatusBadRequest }

func NewValidation(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Msg: msg}
}

// --- Business rule ---

// BusinessRuleError names a violated rule (e.g. "composite_weight_rule")
// together with a user-facing message.
type BusinessRuleError struct {
	Rule    string
	Msg     string
	Context map[string]interface{}
}

func (e *BusinessRuleError) Error() string    { return e.Msg }
func (e *BusinessRuleError) Category() string { return "BUSINESS_RULE_ERROR" }
func (e *BusinessRuleError) HTTPStatus() int  { return http.StatusUnprocessableEntity }

func NewBusinessRule(rule, msg string) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Msg: msg}
}

// --- Not found ---

type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Resource, e.Key)
}
func (e *NotFoundError) Category() string { return "NOT_FOUND" }
func (e *NotFoundError) HTTPStatus() int  { return http.StatusNotFound }

func NewNotFound(resource, key string) *NotFoundError {
	return &NotFoundError{Resource: resource, Key: key}
}

// --- Conflict ---

type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string    { return e.Msg }
func (e *ConflictError) Category() string { return "CONFLICT" }
func (e *ConflictError) HTTPStatus() int  { return http.StatusConflict }

func NewConflict(msg string) *ConflictError { return &ConflictError{Msg: msg} }

// --- Storage ---

// StorageError wraps an infrastructure failure with the repository
// operation that produced it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string    { return fmt.Sprintf("storage %s: %v", e.Op, e.Err) }
func (e *StorageError) Category() string { return "STORAGE_ERROR" }
func (e *StorageError) HTTPStatus() int  { return http.StatusInternalServerError }
func (e *StorageError) Unwrap() error    { return e.Err }

func NewStorage(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// --- Migration ---

// Migration error codes.
const (
	CodeProductNotFound = "PRODUCT_NOT_FOUND"
	CodeNoVariations    = "NO_VARIATIONS"
	CodeRollbackFailed  = "ROLLBACK_FAILED"
	CodeStepFailed      = "STEP_FAILED"
)

// MigrationError carries the failed step and whether the caller may retry.
type MigrationError struct {
	Code        string
	Step        string
	Msg         string
	Recoverable bool
	Err         error
}

func (e *MigrationError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("migration step '%s' failed: %s", e.Step, e.Msg)
	}
	return e.Msg
}
func (e *MigrationError) Category() string { return "MIGRATION_ERROR" }
func (e *MigrationError) HTTPStatus() int  { return http.StatusInternalServerError }
func (e *MigrationError) Unwrap() error    { return e.Err }

func NewMigration(code, step, msg string, recoverable bool) *MigrationError {
	return &MigrationError{Code: code, Step: step, Msg: msg, Recoverable: recoverable}
}

// HTTPStatus resolves the status for any error, defaulting to 500.
func HTTPStatus(err error) int {
	var app AppError
	if errors.As(err, &app) {
		return app.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// CategoryOf resolves the category for any error, defaulting to "INTERNAL".
func CategoryOf(err error) string {
	var app AppError
	if errors.As(err, &app) {
		return app.Category()
	}
	return "INTERNAL"
}
