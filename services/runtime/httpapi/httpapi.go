// Package httpapi provides the HTTP handlers that a caller wires into any
// router (the serving stack itself is transport-agnostic, per the spec's
// non-goal that router wiring is an external collaborator). Handlers here
// are written against net/http's Handler/HandlerFunc so cmd/atlas-server's
// gorilla/mux wiring is the only place that actually chooses a router,
// mirroring the gateway's own separation between api/router.go (wiring)
// and handlers (logic). Error rendering follows the gateway's
// errorBody/writeError pattern, generalized to the full envelope shape and
// status mapping table.
package httpapi

import (
	"encoding/json"
	"net/http"
	"runtime/debug"
	"strconv"
	"sync/atomic"

	"github.com/bijux/atlas/pkg/atlaserr"
)

// requestIDCounter is the process-scoped monotonic counter used when no
// caller-supplied request ID header is present, grounded on the spec's
// deterministic-paths preference over randomness.
var requestIDCounter atomic.Uint64

func nextRequestID() string {
	return "req-" + strconv.FormatUint(requestIDCounter.Add(1), 10)
}

type errorDetail struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"request_id"`
}

type errorEnvelope struct {
	Error errorDetail `json:"error"`
}

const retryAfterSeconds = "3"

// WriteError renders err as the spec's error envelope, mapping its code to
// an HTTP status and attaching a retry-after header for 429/503 per §6.
func WriteError(w http.ResponseWriter, requestID string, err error) {
	ae, ok := atlaserr.As(err)
	if !ok {
		ae = atlaserr.New(atlaserr.Internal, err.Error())
	}
	status := ae.HTTPStatus()
	if requestID == "" {
		requestID = nextRequestID()
	}

	w.Header().Set("content-type", "application/json; charset=utf-8")
	if status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable {
		w.Header().Set("retry-after", retryAfterSeconds)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: errorDetail{
		Code:      string(ae.Code),
		Message:   ae.Message,
		Details:   ae.Details,
		RequestID: requestID,
	}})
}

// RequestID extracts the caller-supplied request ID, or mints one.
func RequestID(r *http.Request) string {
	if id := r.Header.Get("x-request-id"); id != "" {
		return id
	}
	return nextRequestID()
}

// Recoverer converts a panic in next into a 500 error envelope rather than
// crashing the serving goroutine, matching the gateway's own recoverer
// middleware.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				_ = debug.Stack()
				WriteError(w, RequestID(r), atlaserr.New(atlaserr.Internal, "internal server error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// WriteJSON writes a 200 response with body marshaled as JSON.
func WriteJSON(w http.ResponseWriter, body any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(body)
}
