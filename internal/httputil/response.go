package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Error codes shared across handlers. Codes are stable API surface;
// messages are free-form.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeMediaRequired    = "MEDIA_REQUIRED"
	CodeNotFound         = "NOT_FOUND"
	CodeInvalidCategory  = "INVALID_CATEGORY"
	CodeInvalidField     = "INVALID_FIELD"
	CodeUnsupportedMedia = "UNSUPPORTED_MEDIA_TYPE"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeTooManyParts     = "TOO_MANY_PARTS"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeInternal         = "INTERNAL"
)

type Response struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  *ErrorBody  `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Status: "ok", Data: data})
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{
		Status: "error",
		Error:  &ErrorBody{Code: code, Message: message},
	})
}

func ReadJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

// APIError carries an HTTP status and wire code alongside the message so
// service-layer errors map onto responses without per-handler switches.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string { return e.Message }

func NewAPIError(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

// WriteErr renders err: APIErrors keep their status/code, anything else
// becomes an opaque 500.
func WriteErr(w http.ResponseWriter, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		WriteError(w, apiErr.Status, apiErr.Code, apiErr.Message)
		return
	}
	WriteError(w, http.StatusInternalServerError, CodeInternal, "internal server error")
}
