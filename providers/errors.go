package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind is a discrete category of generation failure. Each kind maps to
// distinct user-facing messaging and a recommended HTTP status, so callers
// can distinguish "retry later" from "fix your input" from "fix your
// configuration".
type ErrorKind string

const (
	// KindInvalidRequest means the request was rejected locally (e.g.,
	// empty prompt) before any network call.
	KindInvalidRequest ErrorKind = "invalid_request"

	// KindUnauthorized means the provider rejected the configured
	// credential. Operators must fix configuration; retrying won't help.
	KindUnauthorized ErrorKind = "unauthorized"

	// KindRateLimited means the provider signalled an exhausted quota or
	// rate limit. Callers may back off and retry.
	KindRateLimited ErrorKind = "rate_limited"

	// KindContentRejected means the provider's safety or policy filter
	// blocked the request. The user should try a different prompt.
	KindContentRejected ErrorKind = "content_rejected"

	// KindEmptyResponse means the transport succeeded but no candidate
	// text could be extracted from the response envelope.
	KindEmptyResponse ErrorKind = "empty_response"

	// KindProviderError covers any other non-2xx or malformed response.
	KindProviderError ErrorKind = "provider_error"

	// KindNetworkError means the transport failed (DNS, reset, timeout)
	// before any response was received.
	KindNetworkError ErrorKind = "network_error"
)

// Error is a normalized generation failure.
type Error struct {
	Kind    ErrorKind
	Message string

	// ProviderStatus is the HTTP status received from the provider,
	// zero when the failure happened before or without a response.
	ProviderStatus int
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// HTTPStatus returns the recommended HTTP status for surfacing this error
// to API callers.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindContentRejected:
		return http.StatusUnprocessableEntity
	case KindEmptyResponse, KindNetworkError:
		return http.StatusBadGateway
	default:
		if e.ProviderStatus >= 400 {
			return e.ProviderStatus
		}
		return http.StatusBadGateway
	}
}

// NewError creates an Error with the given kind and message.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// NetworkError wraps a transport-level failure.
func NetworkError(err error) *Error {
	return &Error{Kind: KindNetworkError, Message: err.Error()}
}

// AsError unwraps err into a *Error when possible.
func AsError(err error) (*Error, bool) {
	var genErr *Error
	if errors.As(err, &genErr) {
		return genErr, true
	}
	return nil, false
}

// providerErrorEnvelope covers the error body shapes the known providers
// return: {"error":{"message":"..."}}, {"error":"..."} and {"message":"..."}.
type providerErrorEnvelope struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

// ExtractErrorMessage pulls a human-readable message out of a provider
// error body. Returns "" when no message is extractable.
func ExtractErrorMessage(body []byte) string {
	var envelope providerErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}

	if len(envelope.Error) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(envelope.Error, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
		var plain string
		if err := json.Unmarshal(envelope.Error, &plain); err == nil {
			return plain
		}
	}

	return envelope.Message
}

// ClassifyHTTPError turns a non-2xx provider response into a normalized
// Error. The message is the provider's own error message when extractable,
// else a synthesized "API Error: <status> <statusText>".
func ClassifyHTTPError(statusCode int, body []byte) *Error {
	message := ExtractErrorMessage(body)
	if message == "" {
		message = fmt.Sprintf("API Error: %d %s", statusCode, http.StatusText(statusCode))
	}

	return &Error{
		Kind:           classify(statusCode, message),
		Message:        message,
		ProviderStatus: statusCode,
	}
}

// classify pattern-matches provider error text and status codes into kinds.
func classify(statusCode int, message string) ErrorKind {
	lower := strings.ToLower(message)

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return KindUnauthorized
	case statusCode == http.StatusTooManyRequests:
		return KindRateLimited
	case containsAny(lower, "invalid api key", "incorrect api key", "unauthorized", "authentication"):
		return KindUnauthorized
	case containsAny(lower, "quota", "rate limit", "too many requests", "credits"):
		return KindRateLimited
	case containsAny(lower, "content policy", "safety", "moderation", "flagged", "blocked by"):
		return KindContentRejected
	default:
		return KindProviderError
	}
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
