package hyper

import (
	"fmt"
	"net/http"

	"github.com/hashicorp-forge/hyperresource/pkg/transport"
)

// ValidationError reports a malformed link specification or adapter input.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Field != "" {
		return fmt.Sprintf("validation failed: %s: %s", e.Field, msg)
	}
	return "validation failed: " + msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// TemplateExpansionError reports a URI template that could not be expanded.
type TemplateExpansionError struct {
	Template string
	Err      error
}

func (e *TemplateExpansionError) Error() string {
	return fmt.Sprintf("failed to expand uri template %q: %v", e.Template, e.Err)
}

func (e *TemplateExpansionError) Unwrap() error {
	return e.Err
}

// ResponseError is returned when a request completes with an unusable
// response: an unexpected status, an undecodable body, or a timeout.
// ClientError and ServerError unwrap to a ResponseError.
type ResponseError struct {
	Message string

	// Response is the raw response, nil on timeouts.
	Response *transport.Response

	// Body is the decoded response body, nil when absent or undecodable.
	Body map[string]any

	// Cause is the underlying failure, if any.
	Cause error
}

func (e *ResponseError) Error() string {
	msg := e.Message
	if e.Response != nil {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Response.Status)
	}
	if detail, ok := e.Body["error"].(string); ok && detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, detail)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ResponseError) Unwrap() error {
	return e.Cause
}

// Status returns the response status code, or 0 if there was no response.
func (e *ResponseError) Status() int {
	if e.Response == nil {
		return 0
	}
	return e.Response.Status
}

// ClientError is returned for 4xx responses.
type ClientError struct {
	*ResponseError
}

func (e *ClientError) Unwrap() error {
	return e.ResponseError
}

// ServerError is returned for 5xx responses.
type ServerError struct {
	*ResponseError
}

func (e *ServerError) Unwrap() error {
	return e.ResponseError
}

// NoSuchMemberError is returned when a member name matches no attribute,
// embedded object or link.
type NoSuchMemberError struct {
	Name string
	Type string
}

func (e *NoSuchMemberError) Error() string {
	return fmt.Sprintf("no such member %q on %s", e.Name, e.Type)
}

// statusError builds the error for a non-2xx response.
func statusError(resp *transport.Response, body map[string]any) error {
	base := &ResponseError{
		Response: resp,
		Body:     body,
	}
	switch {
	case resp.Status >= 400 && resp.Status < 500:
		base.Message = "client error: " + http.StatusText(resp.Status)
		return &ClientError{base}
	case resp.Status >= 500 && resp.Status < 600:
		base.Message = "server error: " + http.StatusText(resp.Status)
		return &ServerError{base}
	default:
		base.Message = "unexpected response status"
		return base
	}
}
