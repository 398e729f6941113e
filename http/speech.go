package http

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/middlemost/sayit"
)

// speechHandler represents an HTTP handler for direct audio downloads.
type speechHandler struct {
	router chi.Router

	catalog *sayit.Catalog

	// Services
	conversionService sayit.ConversionService
}

// newSpeechHandler returns a new instance of speechHandler.
func newSpeechHandler() *speechHandler {
	h := &speechHandler{router: chi.NewRouter()}
	h.router.Post("/", h.handlePostSpeech)
	return h
}

// ServeHTTP implements http.Handler.
func (h *speechHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *speechHandler) handlePostSpeech(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSpeechRequest(r)
	if err != nil {
		Error(w, r, err)
		return
	}
	if req.Language == "" {
		req.Language = h.catalog.DefaultLabel()
	}

	audio, err := h.conversionService.Convert(r.Context(), req.Text, req.Language, req.Slow)
	if err != nil {
		Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", audio.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(audio.Data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", audio.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write(audio.Data)
}

type speechRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Slow     bool   `json:"slow"`
}

// decodeSpeechRequest reads a request from either a JSON or a form body.
func decodeSpeechRequest(r *http.Request) (*speechRequest, error) {
	var req speechRequest
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, ErrInvalidJSON
		}
		return &req, nil
	}

	req.Text = r.FormValue("text")
	req.Language = r.FormValue("language")
	req.Slow = formBool(r.FormValue("slow"))
	return &req, nil
}

// formBool parses a form checkbox or boolean field. Unparseable values are false.
func formBool(v string) bool {
	if v == "on" {
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}
