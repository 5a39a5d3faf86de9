package translate

import "fmt"

// ProviderError reports a transport-level failure talking to the
// translation provider: a network error, a timeout, or a non-2xx response.
type ProviderError struct {
	// Status is the HTTP status code (0 for transport errors).
	Status int
	// Body is the truncated response body, if any.
	Body string
	// Err is the underlying transport error, if any.
	Err error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider request failed: %v", e.Err)
	}
	return fmt.Sprintf("provider returned status %d: %s", e.Status, e.Body)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ResponseParseError reports a provider payload that is not valid JSON
// after stripping any surrounding markdown code fences.
type ResponseParseError struct {
	Err error
	// Snippet is the truncated payload, for diagnostics.
	Snippet string
}

func (e *ResponseParseError) Error() string {
	return fmt.Sprintf("provider response is not valid JSON: %v\nResponse: %s", e.Err, e.Snippet)
}

func (e *ResponseParseError) Unwrap() error { return e.Err }

// ResponseShapeError reports a parsed payload that is not an array of
// strings with one element per input string.
type ResponseShapeError struct {
	// Want is the batch length the provider was asked to answer.
	Want int
	// Got is the parsed array length (0 when the payload is not an array).
	Got int
	// Reason is set when the payload is not an array of strings at all.
	Reason string
}

func (e *ResponseShapeError) Error() string {
	if e.Reason != "" {
		return "provider response: " + e.Reason
	}
	return fmt.Sprintf("provider returned %d translations, expected %d", e.Got, e.Want)
}

// BatchExhaustedError reports a batch whose retry budget ran out. The run
// for the current target language aborts when this is returned.
type BatchExhaustedError struct {
	// Batch is the 1-indexed ordinal of the failed batch.
	Batch int
	// Total is the batch count for the language.
	Total int
	// Cause is the last underlying error.
	Cause error
}

func (e *BatchExhaustedError) Error() string {
	return fmt.Sprintf("batch %d/%d failed after all retries: %v", e.Batch, e.Total, e.Cause)
}

func (e *BatchExhaustedError) Unwrap() error { return e.Cause }
