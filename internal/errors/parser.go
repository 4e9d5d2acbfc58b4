package errors

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ikkim/storefront/internal/catalog"
	"gorm.io/gorm"
)

// ErrorInfo is the client-facing view of an error
type ErrorInfo struct {
	Status  int
	Code    string
	Message string
}

// ParseError turns an internal error into a status, code and safe message.
// context names the operation, e.g. "product" or "cart export".
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Status:  http.StatusInternalServerError,
			Code:    InternalServerError,
			Message: getDefaultErrorMessage(context),
		}
	}

	// 1. Catalog sentinels
	if errors.Is(err, catalog.ErrProductNotFound) {
		return ErrorInfo{
			Status:  http.StatusNotFound,
			Code:    CatalogProductMissing,
			Message: getNotFoundMessage(context),
		}
	}
	if errors.Is(err, catalog.ErrUnavailable) {
		return ErrorInfo{
			Status:  http.StatusServiceUnavailable,
			Code:    CatalogUnavailable,
			Message: "The product catalog is currently unavailable. Please try again later",
		}
	}

	// 2. Storage backends
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Status:  http.StatusNotFound,
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
		}
	}

	// 3. Cancellation
	if isContextError(err) {
		return ErrorInfo{
			Status:  http.StatusGatewayTimeout,
			Code:    InternalExternalAPI,
			Message: "The request took too long. Please try again",
		}
	}

	// 4. Network errors that escaped classification
	errStrLower := strings.ToLower(err.Error())
	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Status:  http.StatusBadGateway,
			Code:    InternalExternalAPI,
			Message: "Could not reach an upstream service. Please try again later",
		}
	}

	return ErrorInfo{
		Status:  http.StatusInternalServerError,
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(context),
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "product") {
		return "Product not found"
	}
	if strings.Contains(contextLower, "cart") {
		return "Cart item not found"
	}
	return "The requested resource was not found"
}

func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "export") {
		return "Could not export the cart. Please try again later"
	}
	if strings.Contains(contextLower, "cart") {
		return "Could not update the cart. Please try again later"
	}
	return "Something went wrong. Please try again later"
}
