package errors

import (
	stdErrors "errors"
	"fmt"
)

type Code string

const (
	// CodeValidation marks malformed input: an invalid period string,
	// region code, or unparseable row.
	CodeValidation Code = "VALIDATION_ERROR"
	// CodeConfig marks a missing or invalid startup configuration value.
	CodeConfig Code = "CONFIG_ERROR"
	// CodeNotFound marks a missing table or partition.
	CodeNotFound Code = "NOT_FOUND"
	// CodeDependency marks a failed call to the transaction-price API.
	CodeDependency Code = "DEPENDENCY_ERROR"
	// CodeStore marks a failed read or write against the relational store.
	CodeStore Code = "STORE_ERROR"
	CodeInternal Code = "INTERNAL_ERROR"
)

type Metadata struct {
	Retryable bool
	Fatal     bool
	Message   string
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		Retryable: false,
		Fatal:     false,
		Message:   "validation failed",
	},
	CodeConfig: {
		Retryable: false,
		Fatal:     true,
		Message:   "configuration invalid",
	},
	CodeNotFound: {
		Retryable: false,
		Fatal:     false,
		Message:   "resource not found",
	},
	CodeDependency: {
		Retryable: true,
		Fatal:     false,
		Message:   "dependency unavailable",
	},
	CodeStore: {
		Retryable: true,
		Fatal:     true,
		Message:   "store operation failed",
	},
	CodeInternal: {
		Retryable: true,
		Fatal:     true,
		Message:   "internal error",
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// IsFatal reports whether the error should abort the whole run rather
// than be skipped as a per-unit failure.
func IsFatal(err error) bool {
	typed := As(err)
	if typed == nil {
		return true
	}
	return MetadataFor(typed.Code()).Fatal
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}
