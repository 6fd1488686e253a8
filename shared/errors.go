package shared

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"
)

// ErrorCategory represents the failure classes an extraction run can hit
type ErrorCategory string

const (
	ErrorCategoryTransport      ErrorCategory = "transport"
	ErrorCategoryStructuralMiss ErrorCategory = "structural_miss"
	ErrorCategoryFieldParse     ErrorCategory = "field_parse"
	ErrorCategoryLookupMiss     ErrorCategory = "lookup_miss"
	ErrorCategoryConfiguration  ErrorCategory = "configuration"
	ErrorCategorySearch         ErrorCategory = "search"
)

var (
	// ErrLookupMiss is returned when a name cannot be resolved against any known source
	ErrLookupMiss = errors.New("no matching entity found")

	// ErrSearchUnavailable is returned when the external search utility is not installed
	ErrSearchUnavailable = errors.New("search utility unavailable")
)

// ServiceError represents a standardized error with additional context
type ServiceError struct {
	Category    ErrorCategory `json:"category"`
	Code        string        `json:"code"`
	Message     string        `json:"message"`
	Details     interface{}   `json:"details,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
	ServiceName string        `json:"service_name"`
	Operation   string        `json:"operation"`
	Retryable   bool          `json:"retryable"`
	Cause       error         `json:"-"`
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// NewServiceError creates a new service error
func NewServiceError(category ErrorCategory, code, message, serviceName, operation string, retryable bool, cause error) *ServiceError {
	return &ServiceError{
		Category:    category,
		Code:        code,
		Message:     message,
		Timestamp:   time.Now(),
		ServiceName: serviceName,
		Operation:   operation,
		Retryable:   retryable,
		Cause:       cause,
	}
}

// NewTransportError wraps a fetch failure that survived every retry attempt
func NewTransportError(serviceName, url string, attempts int, cause error) *ServiceError {
	return NewServiceError(
		ErrorCategoryTransport,
		"FETCH_FAILED",
		fmt.Sprintf("fetching %s failed after %d attempt(s)", url, attempts),
		serviceName,
		"Fetch",
		false,
		cause,
	).WithDetails(map[string]interface{}{"url": url, "attempts": attempts})
}

// WithDetails adds additional details to the error
func (e *ServiceError) WithDetails(details interface{}) *ServiceError {
	e.Details = details
	return e
}

// HTTPStatusError is returned for non-success HTTP statuses; these are never retried
type HTTPStatusError struct {
	StatusCode int
	URL        string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("GET %s returned HTTP %d", e.URL, e.StatusCode)
}

// IsTransportError reports whether err is a fetch failure after retries or a status error
func IsTransportError(err error) bool {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) && serviceErr.Category == ErrorCategoryTransport {
		return true
	}
	var statusErr *HTTPStatusError
	return errors.As(err, &statusErr)
}

// IsLookupMiss reports whether err means a name resolved to nothing
func IsLookupMiss(err error) bool {
	if errors.Is(err, ErrLookupMiss) {
		return true
	}
	var serviceErr *ServiceError
	return errors.As(err, &serviceErr) && serviceErr.Category == ErrorCategoryLookupMiss
}

// IsTransientNetworkError classifies errors that justify another attempt:
// connection resets, failures to connect, read timeouts and truncated responses.
// Cancellation of the caller's context is never transient.
func IsTransientNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}
