package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeSchema           ErrorType = "SCHEMA"
	ErrTypeMissingColumn    ErrorType = "MISSING_COLUMN"
	ErrTypeParsing          ErrorType = "PARSING"
	ErrTypeAlignment        ErrorType = "ALIGNMENT"
	ErrTypeInsufficientData ErrorType = "INSUFFICIENT_DATA"
	ErrTypeStorage          ErrorType = "STORAGE"
	ErrTypeValidation       ErrorType = "VALIDATION"
	ErrTypeNotFound         ErrorType = "NOT_FOUND"
	ErrTypeConfig           ErrorType = "CONFIG"
)

// Context keys attached to pipeline errors.
const (
	CtxStage    = "stage"
	CtxTable    = "table"
	CtxColumn   = "column"
	CtxDate     = "date"
	CtxRow      = "row"
	CtxRequired = "required"
	CtxActual   = "actual"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := e.Message
	if stage, ok := e.Context[CtxStage].(string); ok && stage != "" {
		msg = stage + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, msg)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Stage returns the pipeline stage recorded on the error, if any.
func (e *AppError) Stage() string {
	s, _ := e.Context[CtxStage].(string)
	return s
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewSchemaError reports a table or join key that a stage requires but
// the input does not carry. column may be empty when a whole table is absent.
func NewSchemaError(stage, table, column string) *AppError {
	msg := fmt.Sprintf("table %q is missing", table)
	if column != "" {
		msg = fmt.Sprintf("table %q is missing required column %q", table, column)
	}
	return NewAppError(ErrTypeSchema, msg, nil).
		WithContext(CtxStage, stage).
		WithContext(CtxTable, table).
		WithContext(CtxColumn, column)
}

// NewMissingColumnError reports a configured column absent from a record set.
func NewMissingColumnError(stage, column string, available []string) *AppError {
	return NewAppError(ErrTypeMissingColumn,
		fmt.Sprintf("column %q not found (available: %v)", column, available), nil).
		WithContext(CtxStage, stage).
		WithContext(CtxColumn, column)
}

// NewParseError reports a value that could not be parsed where one is required.
func NewParseError(stage, table, column string, row int, value string, cause error) *AppError {
	return NewAppError(ErrTypeParsing,
		fmt.Sprintf("cannot parse %q in %s.%s at row %d", value, table, column, row), cause).
		WithContext(CtxStage, stage).
		WithContext(CtxTable, table).
		WithContext(CtxColumn, column).
		WithContext(CtxRow, row)
}

// NewAlignmentError reports a held-out date with no matching forecast.
func NewAlignmentError(stage, date string) *AppError {
	return NewAppError(ErrTypeAlignment,
		fmt.Sprintf("forecast has no value for test date %s", date), nil).
		WithContext(CtxStage, stage).
		WithContext(CtxDate, date)
}

// NewInsufficientDataError reports a series too short for the requested horizon.
func NewInsufficientDataError(stage string, required, actual int) *AppError {
	return NewAppError(ErrTypeInsufficientData,
		fmt.Sprintf("need more than %d points, have %d", required, actual), nil).
		WithContext(CtxStage, stage).
		WithContext(CtxRequired, required).
		WithContext(CtxActual, actual)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// AsAppError extracts the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err wraps an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Type == errType
}

func IsSchemaError(err error) bool           { return IsType(err, ErrTypeSchema) }
func IsMissingColumnError(err error) bool    { return IsType(err, ErrTypeMissingColumn) }
func IsParseError(err error) bool            { return IsType(err, ErrTypeParsing) }
func IsAlignmentError(err error) bool        { return IsType(err, ErrTypeAlignment) }
func IsInsufficientDataError(err error) bool { return IsType(err, ErrTypeInsufficientData) }
