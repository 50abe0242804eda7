package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// Method names one of the two Bot API operations this client speaks.
type Method string

const (
	MethodGetUpdates  Method = "getUpdates"
	MethodSendMessage Method = "sendMessage"
)

// Error is the only error kind returned by Client operations.
//
// StatusCode 0 marks a transport failure (timeout, cancellation, connection
// error): no HTTP response was obtained. Any other value is the HTTP status
// of the response that was rejected.
type Error struct {
	Method     Method
	StatusCode int
	Message    string
}

func (e *Error) Error() string { return e.Message }

// IsTransport reports whether the failure happened before a response arrived.
func (e *Error) IsTransport() bool { return e.StatusCode == 0 }

// Temporary reports whether repeating the same call later may succeed:
// transport failures, rate limiting and upstream 5xx.
func (e *Error) Temporary() bool {
	return e.StatusCode == 0 ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= http.StatusInternalServerError
}

// AsError unwraps err into a *Error when it carries one.
func AsError(err error) (*Error, bool) {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr, true
	}
	return nil, false
}

func timeoutError(method Method) *Error {
	return &Error{Method: method, Message: fmt.Sprintf("%s timed out", method)}
}

func canceledError(method Method) *Error {
	return &Error{Method: method, Message: fmt.Sprintf("%s canceled", method)}
}

func connectError(method Method, cause string) *Error {
	return &Error{Method: method, Message: fmt.Sprintf("%s failed to connect: %s", method, cause)}
}

func statusError(method Method, status int, detail string) *Error {
	return &Error{Method: method, StatusCode: status, Message: fmt.Sprintf("%s failed: %s", method, detail)}
}
