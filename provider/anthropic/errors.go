package anthropic

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/droverhq/drover"
)

// wrapError classifies an Anthropic SDK error so the orchestrator knows
// whether to retry. Status codes and Retry-After headers are preserved.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		// Likely a network error; the retry heuristics handle those.
		return err
	}

	code := apiErr.StatusCode
	retryAfter := parseRetryAfter(apiErr.Response)
	msg := err.Error()

	if retryAfter > 0 {
		return drover.NewTransientErrorWithRetry(msg, code, retryAfter, err)
	}

	switch classifyStatusCode(code) {
	case drover.ClassTransient:
		return drover.NewTransientError(msg, code, err)
	case drover.ClassInvalid:
		return drover.NewInvalidRequestError(msg, code, err)
	default:
		return drover.NewPermanentError(msg, code, err)
	}
}

func classifyStatusCode(code int) drover.ErrorClass {
	switch {
	case code == 429:
		return drover.ClassTransient
	case code >= 500 && code < 600:
		return drover.ClassTransient
	case code == 400 || code == 404 || code == 422:
		return drover.ClassInvalid
	default:
		return drover.ClassPermanent
	}
}

// parseRetryAfter extracts the Retry-After duration from an HTTP response.
// Returns 0 if the header is not present or cannot be parsed.
func parseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}

	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		if delay := time.Until(t); delay > 0 {
			return delay
		}
	}

	return 0
}
