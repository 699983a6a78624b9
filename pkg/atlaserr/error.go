package atlaserr

import "fmt"

// Error is the typed error every core Atlas package returns. Details is a
// small set of stable diagnostic key/value pairs (not free-form — callers
// at the HTTP boundary render it verbatim into the error envelope).
type Error struct {
	Code    Code
	Message string
	Details map[string]string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New builds an *Error for code with message, no details.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds an *Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithDetail returns a copy of e with an added detail key/value.
func (e *Error) WithDetail(key, value string) *Error {
	if e == nil {
		return nil
	}
	out := &Error{Code: e.Code, Message: e.Message, Details: make(map[string]string, len(e.Details)+1)}
	for k, v := range e.Details {
		out.Details[k] = v
	}
	out.Details[key] = value
	return out
}

// HTTPStatus reports the status code this error should map to.
func (e *Error) HTTPStatus() int {
	if e == nil {
		return 200
	}
	return LookupMeta(e.Code).HTTPStatus
}

// Retryable reports whether a client may retry this error as-is.
func (e *Error) Retryable() bool {
	if e == nil {
		return false
	}
	return LookupMeta(e.Code).Retryable
}

// As extracts an *Error from err, if err is one.
func As(err error) (*Error, bool) {
	ae, ok := err.(*Error)
	return ae, ok
}
