package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/middlemost/sayit"
)

const (
	ErrNotAcceptable = sayit.Error("not acceptable")
	ErrInvalidJSON   = sayit.Error("invalid json body")
	ErrAutocertHost  = sayit.Error("autocert requires a public host")
)

// errorMap is a whitelist that maps errors to status codes.
var errorMap = map[error]int{
	ErrNotAcceptable: http.StatusNotAcceptable,
	ErrInvalidJSON:   http.StatusBadRequest,
}

// kindStatusCodes maps conversion failures to status codes.
var kindStatusCodes = map[sayit.ErrorKind]int{
	sayit.EmptyInput:          http.StatusBadRequest,
	sayit.InvalidLanguage:     http.StatusBadRequest,
	sayit.ProviderUnavailable: http.StatusBadGateway,
	sayit.UnknownFailure:      http.StatusInternalServerError,
}

// ErrorStatusCode returns the HTTP status code for an error object.
func ErrorStatusCode(err error) int {
	if code, ok := errorMap[err]; ok {
		return code
	}

	var f *sayit.Failure
	if errors.As(err, &f) {
		return kindStatusCodes[f.Kind]
	}
	return http.StatusInternalServerError
}

// Error writes an error reponse to the writer.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	// Determine status code.
	code := ErrorStatusCode(err)

	// Log error.
	if logOutput := LogOutputFromContext(r.Context()); logOutput != nil {
		fmt.Fprintf(logOutput, "http: error: req=%s status=%d err=%q\n", RequestIDFromContext(r.Context()), code, err.Error())
	}

	// Mask unrecognized errors from end users.
	resp := errorResponse{Err: err.Error()}
	var f *sayit.Failure
	if errors.As(err, &f) {
		resp.Kind = f.Kind.String()
	} else if _, ok := errorMap[err]; !ok {
		resp.Err = sayit.ErrInternal.Error()
	}

	// Write response.
	switch {
	case strings.Contains(r.Header.Get("Accept"), "application/json"):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(&resp)

	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(code)
		w.Write([]byte(resp.Err + "\n"))
	}
}

type errorResponse struct {
	Err  string `json:"error,omitempty"`
	Kind string `json:"kind,omitempty"`
}
