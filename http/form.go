package http

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/middlemost/sayit"
)

//go:embed templates/*.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Notices displayed on the form.
const (
	SuccessNotice = "Audio generated successfully."
)

// formHandler represents an HTTP handler for the text to speech form.
type formHandler struct {
	router chi.Router

	catalog *sayit.Catalog

	// Services
	conversionService sayit.ConversionService
}

// newFormHandler returns a new instance of formHandler.
func newFormHandler() *formHandler {
	h := &formHandler{router: chi.NewRouter()}
	h.router.Get("/", h.handleGetIndex)
	h.router.Post("/", h.handlePostIndex)
	return h
}

// ServeHTTP implements http.Handler.
func (h *formHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *formHandler) handleGetIndex(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, &formView{
		Language: h.catalog.DefaultLabel(),
	})
}

func (h *formHandler) handlePostIndex(w http.ResponseWriter, r *http.Request) {
	view := &formView{
		Text:     r.FormValue("text"),
		Language: r.FormValue("language"),
		Slow:     formBool(r.FormValue("slow")),
	}
	if view.Language == "" {
		view.Language = h.catalog.DefaultLabel()
	}

	audio, err := h.conversionService.Convert(r.Context(), view.Text, view.Language, view.Slow)
	if err != nil {
		f := sayit.NewFailure(err)
		if f.Warning() {
			view.Warning = f.Message
		} else {
			view.Error = f.Message
		}
		if logOutput := LogOutputFromContext(r.Context()); logOutput != nil {
			fmt.Fprintf(logOutput, "http: form failure: req=%s kind=%s\n", RequestIDFromContext(r.Context()), f.Kind)
		}
		h.render(w, r, view)
		return
	}

	view.Success = SuccessNotice
	view.AudioURL = template.URL("data:" + audio.ContentType + ";base64," + base64.StdEncoding.EncodeToString(audio.Data))
	view.Filename = audio.Filename
	h.render(w, r, view)
}

// render executes the index template into a buffer so a template error
// can still be reported as a proper error response.
func (h *formHandler) render(w http.ResponseWriter, r *http.Request, view *formView) {
	view.Languages = h.catalog.Languages()

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, view); err != nil {
		Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// formView is the data passed to the index template.
type formView struct {
	Languages []sayit.Language

	// Submitted values.
	Text     string
	Language string
	Slow     bool

	// Outcome. At most one of Success, Warning & Error is set.
	Success  string
	Warning  string
	Error    string
	AudioURL template.URL
	Filename string
}
