package http

import (
	"encoding/json"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/middlemost/sayit"
	"golang.org/x/crypto/acme/autocert"
)

// Server represents an HTTP server.
type Server struct {
	ln net.Listener

	// Services
	Catalog           *sayit.Catalog
	ConversionService sayit.ConversionService

	// Server options.
	Addr        string // bind address
	Host        string // external hostname
	Autocert    bool   // ACME autocert
	Recoverable bool   // panic recovery

	LogOutput io.Writer
}

// NewServer returns a new instance of Server.
func NewServer() *Server {
	return &Server{
		Recoverable: true,
		LogOutput:   io.Discard,
	}
}

// Open opens the server.
func (s *Server) Open() error {
	// Open listener on specified bind address.
	// Use HTTPS port if autocert is enabled.
	if s.Autocert {
		if s.Host == "" || sayit.IsLocal(s.Host) {
			return ErrAutocertHost
		}
		s.ln = autocert.NewListener(s.Host)
	} else {
		ln, err := net.Listen("tcp", s.Addr)
		if err != nil {
			return err
		}
		s.ln = ln
	}

	// Start HTTP server.
	go http.Serve(s.ln, s.router())

	return nil
}

// Close closes the socket.
func (s *Server) Close() error {
	if s.ln != nil {
		s.ln.Close()
	}
	return nil
}

// URL returns a base URL string with the scheme and host.
// This is available after the server has been opened.
func (s *Server) URL() url.URL {
	if s.ln == nil {
		return url.URL{}
	}

	if s.Autocert {
		return url.URL{Scheme: "https", Host: s.Host}
	}
	return url.URL{Scheme: "http", Host: s.ln.Addr().String()}
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()

	// Attach router middleware.
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(s.attachLogOutput)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  log.New(s.LogOutput, "", log.LstdFlags),
		NoColor: true,
	}))
	if s.Recoverable {
		r.Use(middleware.Recoverer)
	}
	r.Mount("/debug", middleware.Profiler())

	// Create routes.
	r.Route("/", func(r chi.Router) {
		r.Use(middleware.Compress(5))
		r.Get("/ping", s.handlePing)
		r.Get("/languages", s.handleLanguages)
		r.Mount("/speech", s.speechHandler())
		r.Mount("/", s.formHandler())
	})

	return r
}

// attachLogOutput adds the server's log output and the request id to the
// request context.
func (s *Server) attachLogOutput(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := NewContext(r.Context(), s.LogOutput, middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// handlePing returns a success if the server is running.
func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}` + "\n"))
}

// handleLanguages returns the language catalog.
func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&languagesResponse{
		Default:   s.Catalog.DefaultLabel(),
		Languages: s.Catalog.Languages(),
	})
}

type languagesResponse struct {
	Default   string           `json:"default"`
	Languages []sayit.Language `json:"languages"`
}

func (s *Server) speechHandler() *speechHandler {
	h := newSpeechHandler()
	h.catalog = s.Catalog
	h.conversionService = s.ConversionService
	return h
}

func (s *Server) formHandler() *formHandler {
	h := newFormHandler()
	h.catalog = s.Catalog
	h.conversionService = s.ConversionService
	return h
}
