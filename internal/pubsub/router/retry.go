package router

import (
	"net"
	"net/http"

	"github.com/branchschool/installments/internal/errors"
	"github.com/branchschool/installments/internal/httpclient"
	"github.com/branchschool/installments/internal/logger"
)

// ShouldRetry reports whether a failed delivery is worth parking on the
// dead letter topic. Permanent failures are dropped by the caller.
func ShouldRetry(logger *logger.Logger, err error) bool {
	if httpErr, ok := httpclient.IsHTTPError(err); ok {
		switch httpErr.StatusCode {
		case http.StatusRequestTimeout,
			http.StatusTooManyRequests,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			logger.Debugw("retryable HTTP error",
				"status_code", httpErr.StatusCode,
				"error", httpErr,
			)
			return true
		}
		logger.Debugw("non-retryable HTTP error",
			"status_code", httpErr.StatusCode,
			"error", httpErr,
		)
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		logger.Debugw("retryable network timeout", "error", netErr)
		return true
	}

	if errors.IsValidation(err) || errors.IsNotFound(err) {
		return false
	}

	return true
}
