package client

import (
	"encoding/json"
	"fmt"
)

// ResponseError is returned when the server answered with a non-2xx status
type ResponseError struct {
	StatusCode int
	Body       []byte

	message string
}

func newResponseError(status int, body []byte) *ResponseError {
	e := &ResponseError{
		StatusCode: status,
		Body:       body,
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		e.message = payload.Message
	}

	return e
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("request failed with status code %d", e.StatusCode)
}

// Message returns the "message" field of the error body, or "" if absent
func (e *ResponseError) Message() string {
	return e.message
}

// NoResponseError is returned when the request went out but no response came
// back (connection failures, timeouts, truncated bodies).
type NoResponseError struct {
	Err error
}

func (e *NoResponseError) Error() string { return e.Err.Error() }

func (e *NoResponseError) Unwrap() error { return e.Err }

// DecodeError is returned when a 2xx response body is not the expected JSON.
// Body holds the raw response.
type DecodeError struct {
	StatusCode int
	Body       []byte
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// RequestError is returned when the request could not be built or the
// outgoing hook failed. Its message is the underlying error's, unchanged.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string { return e.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }
