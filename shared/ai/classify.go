package ai

import (
	"errors"
	"net/http"

	"google.golang.org/genai"
)

type Class int

const (
	Terminal Class = iota
	Retriable
)

func (c Class) String() string {
	if c == Retriable {
		return "retriable"
	}
	return "terminal"
}

var (
	// ErrEmptyResponse is returned when the model answers with no text,
	// which usually means a filtered or truncated candidate.
	ErrEmptyResponse = errors.New("empty model response")
	// ErrAttemptTimeout marks a single attempt that ran past its own
	// deadline while the caller's context was still live.
	ErrAttemptTimeout = errors.New("generation attempt timed out")
)

// Classify decides whether a failed model call is worth repeating. Only
// capacity and availability errors, empty answers and per-attempt
// timeouts are retriable; anything unrecognized is terminal.
func Classify(err error) Class {
	if err == nil {
		return Terminal
	}
	if errors.Is(err, ErrEmptyResponse) || errors.Is(err, ErrAttemptTimeout) {
		return Retriable
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyAPIError(apiErr)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return classifyAPIError(*apiErrPtr)
	}
	return Terminal
}

func classifyAPIError(e genai.APIError) Class {
	switch e.Code {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return Retriable
	}
	switch e.Status {
	case "RESOURCE_EXHAUSTED", "UNAVAILABLE":
		return Retriable
	}
	return Terminal
}
