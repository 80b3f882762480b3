package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))
	if body == "" {
		body = http.StatusText(resp.StatusCode())
	}

	switch code := resp.StatusCode(); {
	case code == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrBadRequest, body)
	case code == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, body)
	case code == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrForbidden, body)
	case code == http.StatusNotFound, code == http.StatusGone:
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, body)
	case code == http.StatusTooManyRequests, code == http.StatusRequestTimeout, code >= http.StatusInternalServerError:
		return fmt.Errorf("%w: http %d: %s", ErrRemoteUnavailable, code, body)
	default:
		return fmt.Errorf("http %d: %s", code, body)
	}
}

// mapTransportError classifies an error returned by resty before any response
// was received. Cancellation is passed through untouched so callers can tell
// logout from an outage.
func mapTransportError(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrRemoteUnavailable, err)
}
