package mathverify

import "errors"

var (
	// ErrServerUnavailable is returned when the LLM server cannot be reached
	ErrServerUnavailable = errors.New("LLM server is not reachable")
	// ErrModelNotAvailable is returned when the configured model is not installed on the server
	ErrModelNotAvailable = errors.New("model is not available on the server")
	// ErrEmptyResponse is returned when the LLM produced no text
	ErrEmptyResponse = errors.New("empty response from LLM")
	// ErrGenerationFailed is returned when LLM generation fails
	ErrGenerationFailed = errors.New("LLM generation failed")
)
