package adaptapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/oklog/ulid/v2"

	"github.com/bhatti/adaptapi-go/internal/jsoncodec"
)

// RequestIDHeader is read to correlate error responses; a ULID is generated
// when the caller did not send one.
const RequestIDHeader = "X-Request-ID"

// Error codes used in error responses.
const (
	CodeBodyTooLarge    = "body_too_large"
	CodeInvalidBody     = "invalid_body"
	CodeTransformFailed = "transform_failed"
	CodeResponseFailed  = "response_adaptation_failed"
)

// ErrorBody is the JSON object written by DefaultErrorHandler.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one failed request.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// DefaultErrorHandler writes an ErrorBody. Server-side failures get a generic
// message; the cause is only logged.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, status int, err error) {
	requestID := r.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = ulid.Make().String()
	}

	detail := ErrorDetail{
		Code:      errorCode(status, err),
		Message:   err.Error(),
		RequestID: requestID,
	}
	if status >= http.StatusInternalServerError {
		detail.Message = "the response could not be adapted to the requested API version"
	}

	body, mErr := jsoncodec.Marshal(ErrorBody{Error: detail})
	if mErr != nil {
		http.Error(w, http.StatusText(status), status)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Content-Length", strconv.Itoa(len(body)))
	h.Set(RequestIDHeader, requestID)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func errorCode(status int, err error) string {
	if status >= http.StatusInternalServerError {
		return CodeResponseFailed
	}
	var transformErr *TransformError
	switch {
	case errors.Is(err, ErrBodyTooLarge):
		return CodeBodyTooLarge
	case errors.As(err, &transformErr):
		return CodeTransformFailed
	default:
		return CodeInvalidBody
	}
}
