package google

import (
	"errors"

	"google.golang.org/genai"

	"github.com/droverhq/drover"
)

// wrapError classifies a Google GenAI error so the orchestrator knows
// whether to retry. The genai API error does not expose headers, so no
// Retry-After hint is available.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		// Likely a network error; the retry heuristics handle those.
		return err
	}

	code := apiErr.Code
	msg := err.Error()

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
