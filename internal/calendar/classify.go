package calendar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"

	"google.golang.org/api/googleapi"

	"github.com/osse101/calsync/internal/domain"
	"github.com/osse101/calsync/internal/metrics"
)

// Google reasons for a 403 that should be retried
var rateLimitReasons = map[string]bool{
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
}

// Classify maps a raw provider error onto the domain taxonomy.
// Errors already in the taxonomy pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, domain.ErrIntegrationMissing),
		errors.Is(err, domain.ErrReauthRequired),
		errors.Is(err, domain.ErrRemoteTransient),
		errors.Is(err, domain.ErrRemoteRejected),
		errors.Is(err, domain.ErrRemoteUnauthorized):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", domain.ErrRemoteTransient, err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr)
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: network error", domain.ErrRemoteTransient)
	}

	return fmt.Errorf("%w: %v", domain.ErrRemoteRejected, err)
}

func classifyStatus(apiErr *googleapi.Error) error {
	code := apiErr.Code
	switch {
	case code == http.StatusUnauthorized:
		return fmt.Errorf("%w: status %d", domain.ErrRemoteUnauthorized, code)
	case code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
		return fmt.Errorf("%w: status %d", domain.ErrRemoteTransient, code)
	case code == http.StatusForbidden && hasRateLimitReason(apiErr):
		return fmt.Errorf("%w: status %d rate limited", domain.ErrRemoteTransient, code)
	case code == http.StatusNotFound || code == http.StatusGone:
		return fmt.Errorf("%w: status %d", domain.ErrRemoteNotFound, code)
	default:
		return fmt.Errorf("%w: status %d", domain.ErrRemoteRejected, code)
	}
}

func hasRateLimitReason(apiErr *googleapi.Error) bool {
	for _, item := range apiErr.Errors {
		if rateLimitReasons[item.Reason] {
			return true
		}
	}
	return false
}

// ErrorCode is the loggable provider code for err: an HTTP status, an API
// reason or a coarse class. It never contains payload text.
func ErrorCode(err error) string {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if len(apiErr.Errors) > 0 && apiErr.Errors[0].Reason != "" {
			return strconv.Itoa(apiErr.Code) + ":" + apiErr.Errors[0].Reason
		}
		return strconv.Itoa(apiErr.Code)
	}

	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, domain.ErrReauthRequired):
		return "reauth_required"
	case errors.Is(err, domain.ErrIntegrationMissing):
		return "not_connected"
	case errors.Is(err, domain.ErrRemoteNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrRemoteUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrRemoteTransient):
		return "transient"
	case errors.Is(err, domain.ErrRemoteRejected):
		return "rejected"
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return "network"
	}
	return "unknown"
}

// outcome is the metrics label for a classified error
func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeCanceled
	case errors.Is(err, domain.ErrReauthRequired), errors.Is(err, domain.ErrIntegrationMissing):
		return metrics.OutcomeReauth
	case errors.Is(err, domain.ErrRemoteNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, domain.ErrRemoteUnauthorized):
		return metrics.OutcomeUnauthorized
	case errors.Is(err, domain.ErrRemoteTransient):
		return metrics.OutcomeTransient
	default:
		return metrics.OutcomeRejected
	}
}
