// Package errors contains the error categories used across the relayer
package errors

import (
	"errors"
	"net/http"
)

// Category defines error category
type Category int

const (
	// CategoryNoError marks a successful call in metrics labels.
	CategoryNoError Category = iota
	// CategoryValidation Malformed input, e.g. an order amount that is not a number.
	CategoryValidation
	// CategoryConfiguration A required setting such as the signing key or hook address is missing.
	CategoryConfiguration
	// CategoryNotFound The requested resource does not exist
	CategoryNotFound
	// CategoryRateLimited A dependent service asked us to back off
	CategoryRateLimited
	// CategoryTransient A network or RPC failure that is expected to recover
	CategoryTransient
	// CategoryRevert An on-chain call reverted or its receipt reported failure
	CategoryRevert
	// CategoryTimeout A bounded wait, such as attestation polling, ran out of attempts
	CategoryTimeout
	// CategoryGeneralError The service failed in an unexpected way
	CategoryGeneralError
)

func (c Category) String() string {
	switch c {
	case CategoryNoError:
		return "none"
	case CategoryValidation:
		return "validation"
	case CategoryConfiguration:
		return "configuration"
	case CategoryNotFound:
		return "not_found"
	case CategoryRateLimited:
		return "rate_limited"
	case CategoryTransient:
		return "transient"
	case CategoryRevert:
		return "revert"
	case CategoryTimeout:
		return "timeout"
	default:
		return "general"
	}
}

// ServiceError represents service specific type that
// is used all over the services.
type ServiceError struct {
	Category Category
	Message  string
	Err      error
}

// Error method to comply with error interface
func (err *ServiceError) Error() string {
	if err.Err != nil {
		if err.Message != "" {
			return err.Message + ": " + err.Err.Error()
		}
		return err.Err.Error()
	}
	return err.Message
}

// Unwrap returns the underlying error
func (err *ServiceError) Unwrap() error {
	return err.Err
}

// Is checks that provided error is a ServiceError with desired Category
func Is(err error, cat Category) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.Category == cat {
		return true
	}
	return false
}

// CategoryOf returns the category of err, CategoryGeneralError for plain errors
// and CategoryNoError for nil.
func CategoryOf(err error) Category {
	if err == nil {
		return CategoryNoError
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Category
	}
	return CategoryGeneralError
}

// IsRetryable reports whether the next sweep may succeed where this one failed
func IsRetryable(err error) bool {
	switch CategoryOf(err) {
	case CategoryTransient, CategoryRateLimited, CategoryTimeout:
		return true
	default:
		return false
	}
}

func newError(cat Category, err error, message string) error {
	if err == nil {
		err = errors.New(message)
		message = ""
	}
	return &ServiceError{Category: cat, Message: message, Err: err}
}

// GeneralError returns a general service error
func GeneralError(err error) error {
	if err == nil {
		err = errors.New("internal error")
	}
	return &ServiceError{Category: CategoryGeneralError, Err: err}
}

// ValidationError returns an error with category Validation
func ValidationError(err error, message string) error {
	return newError(CategoryValidation, err, message)
}

// ConfigurationError returns an error with category Configuration
func ConfigurationError(message string) error {
	return newError(CategoryConfiguration, nil, message)
}

// NotFoundError returns an error with category NotFound
func NotFoundError(err error, message string) error {
	return newError(CategoryNotFound, err, message)
}

// RateLimitedError returns an error with category RateLimited
func RateLimitedError(err error, message string) error {
	return newError(CategoryRateLimited, err, message)
}

// TransientError returns an error with category Transient
func TransientError(err error, message string) error {
	return newError(CategoryTransient, err, message)
}

// RevertError returns an error with category Revert
func RevertError(err error, message string) error {
	return newError(CategoryRevert, err, message)
}

// TimeoutError returns an error with category Timeout
func TimeoutError(err error, message string) error {
	return newError(CategoryTimeout, err, message)
}

// StatusCode returns the HTTP status code for the error category
func (err *ServiceError) StatusCode() int {
	return StatusCode(err.Category)
}

// StatusCode maps a category onto an HTTP status code
func StatusCode(cat Category) int {
	switch cat {
	case CategoryValidation:
		return http.StatusBadRequest
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryRateLimited:
		return http.StatusTooManyRequests
	case CategoryTransient, CategoryRevert:
		return http.StatusBadGateway
	case CategoryTimeout:
		return http.StatusGatewayTimeout
	case CategoryConfiguration:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
