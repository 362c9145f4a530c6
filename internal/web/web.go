package web

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"dsbcal/internal/config"
	"dsbcal/internal/convert"
	"dsbcal/internal/ics"
	appLog "dsbcal/internal/log"
	"dsbcal/internal/pdftext"
	"dsbcal/internal/ticket"
	"dsbcal/internal/tz"
)

const (
	serviceName    = "DSB Ticket to ICS Converter"
	serviceVersion = "1.0.0"
)

//go:embed static/index.html
var indexHTML []byte

// allowedExtensions are the upload types /api/convert accepts.
var allowedExtensions = map[string]bool{".pdf": true, ".txt": true}

// Server serves the upload page and the conversion API.
type Server struct {
	cfg     *config.Config
	conv    *convert.Converter
	router  *httprouter.Router
	limiter *rateLimiter

	// now supplies the reference date for year inference and DTSTAMP.
	now func() time.Time
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, conv *convert.Converter) *Server {
	s := &Server{
		cfg:     cfg,
		conv:    conv,
		router:  httprouter.New(),
		limiter: newRateLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst),
		now:     time.Now,
	}
	s.registerRoutes()
	return s
}

// Handler returns the full middleware chain around the router.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.router)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		h = s.basicAuthMiddleware(h)
	}
	h = corsMiddleware(s.cfg.CORSOrigins, h)
	return requestLogger(h)
}

// Serve runs the HTTP server on cfg.Listen until ctx is cancelled, then
// shuts down gracefully.
func Serve(ctx context.Context, cfg *config.Config, conv *convert.Converter) error {
	s := NewServer(cfg, conv)
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	appLog.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/api/health", s.handleAPIHealth)
	s.router.POST("/api/convert", s.limiter.Limit(s.handleConvert))

	s.router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found", "The requested resource was not found")
	})
	s.router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
	})
	s.router.PanicHandler = func(w http.ResponseWriter, _ *http.Request, v any) {
		appLog.Error("handler panic", fmt.Errorf("%v", v))
		writeError(w, http.StatusInternalServerError, "Internal server error", "An unexpected error occurred")
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

func (s *Server) handleAPIHealth(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "healthy",
		Service: serviceName,
		Version: serviceVersion,
	})
}

type formattedJourney struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	Departure string  `json:"departure"`
	Arrival   string  `json:"arrival,omitempty"`
	Train     *string `json:"train"`
}

type convertResponse struct {
	Success   bool             `json:"success"`
	Data      any              `json:"data"`
	Formatted formattedJourney `json:"formatted"`
}

// handleConvert accepts a multipart upload ("file", plus optional "format"
// of ics or json) and answers with a calendar download or the parsed record.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	maxBytes := int64(s.cfg.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large",
				fmt.Sprintf("Maximum file size is %dMB", s.cfg.MaxUploadMB))
			return
		}
		writeError(w, http.StatusBadRequest, "No file provided", "Please upload a PDF file")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if _, ok := r.MultipartForm.Value["file"]; ok {
			writeError(w, http.StatusBadRequest, "No file selected", "Please select a file to upload")
			return
		}
		writeError(w, http.StatusBadRequest, "No file provided", "Please upload a PDF file")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		writeError(w, http.StatusBadRequest, "Invalid file type", "Only PDF files are allowed")
		return
	}

	format := strings.ToLower(strings.TrimSpace(r.FormValue("format")))
	if format == "" {
		format = "ics"
	}
	if format != "ics" && format != "json" {
		writeError(w, http.StatusBadRequest, "Invalid format", "format must be ics or json")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		appLog.Error("read upload failed", err, "filename", header.Filename)
		writeError(w, http.StatusInternalServerError, "Internal server error", "Could not read the uploaded file")
		return
	}

	ref := s.now()
	var res convert.Result
	if ext == ".pdf" {
		res, err = s.conv.ConvertPDF(data, ref)
	} else {
		res, err = s.conv.Convert(string(data), ref)
	}
	if err != nil {
		s.writeConvertError(w, err, res)
		return
	}

	j := res.Journey
	if format == "json" {
		out := convertResponse{
			Success: true,
			Data:    j.Record(),
			Formatted: formattedJourney{
				From:      j.FromStation,
				To:        j.ToStation,
				Departure: j.FormattedDeparture(),
				Arrival:   j.FormattedArrival(),
			},
		}
		if j.TrainType != "" && j.TrainNumber != "" {
			train := j.Train()
			out.Formatted.Train = &train
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.FileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.ICS)
}

func (s *Server) writeConvertError(w http.ResponseWriter, err error, res convert.Result) {
	switch {
	case errors.Is(err, ics.ErrIncompleteJourney):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:         "Incomplete ticket information",
			Message:       "Could not extract all required information from the PDF",
			ExtractedData: res.Journey.Record(),
		})
	case errors.Is(err, ticket.ErrNotATicket),
		errors.Is(err, ticket.ErrUnparseableDate),
		errors.Is(err, pdftext.ErrNotPDF),
		errors.Is(err, pdftext.ErrUnreadable):
		writeError(w, http.StatusUnprocessableEntity, "Parsing error", "Failed to parse ticket: "+err.Error())
	case errors.Is(err, tz.ErrComposition):
		appLog.Error("calendar generation failed", err)
		writeError(w, http.StatusInternalServerError, "Calendar generation error", "Failed to generate calendar: "+err.Error())
	default:
		appLog.Error("conversion failed", err)
		writeError(w, http.StatusInternalServerError, "Internal server error", "An unexpected error occurred. Please try again.")
	}
}

type errorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message,omitempty"`
	ExtractedData any    `json:"extracted_data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg, detail string) {
	writeJSON(w, status, errorResponse{Error: msg, Message: detail})
}
