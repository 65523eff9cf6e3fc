// Package http implements the public HTTP API for sahayak.
//
// It exposes the multipart chat endpoint used by the web and phone clients,
// the legal-aid center lookup, a liveness probe and the Swagger UI.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/nadzzz/sahayak/internal/config"
	"github.com/nadzzz/sahayak/internal/dispatch"
	"github.com/nadzzz/sahayak/internal/message"
	"github.com/nadzzz/sahayak/internal/transport"
)

// Form field names accepted by POST /v2/chat.
const (
	fieldText     = "text_query"
	fieldLanguage = "language"
	fieldMode     = "mode"
	fieldAudio    = "audio_file"
)

const noQueryDetail = "No query provided."

// Transport implements transport.Transport over plain HTTP.
type Transport struct {
	port      int
	maxUpload int64
	centers   transport.AidCenterFinder
	version   string
	server    *http.Server
}

// New creates a new HTTP transport. centers may be nil, in which case the
// aid-center lookup always reports no match.
func New(cfg config.HTTPConfig, centers transport.AidCenterFinder, version string) *Transport {
	maxMB := cfg.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 25
	}
	return &Transport{
		port:      cfg.Port,
		maxUpload: int64(maxMB) << 20,
		centers:   centers,
		version:   version,
	}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// Routes builds the router serving the public API.
func (t *Transport) Routes(handler transport.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Post("/v2/chat", func(w http.ResponseWriter, r *http.Request) {
		t.handleChat(w, r, handler)
	})
	r.Get("/find_aid_centers", t.handleFindAidCenters)
	r.Get("/health", t.handleHealth)

	// Swagger UI serves the registered OpenAPI document.
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	return r
}

// Listen starts the HTTP server and routes incoming requests to the handler.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	t.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", t.port),
		Handler:           t.Routes(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("http transport listening", "port", t.port)

	go func() {
		<-ctx.Done()
		slog.Info("http transport shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = t.server.Shutdown(shutdownCtx)
	}()

	if err := t.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// handleChat processes a POST /v2/chat request.
//
// @Summary     Ask Sahayak a question
// @Description Accepts a typed or spoken query. Spoken queries are transcribed, the query is
// @Description translated to English, answered in the selected mode, translated back and
// @Description synthesized to speech. Translation and speech failures degrade the answer but
// @Description never fail the request.
// @Tags        chat
// @Accept      multipart/form-data
// @Accept      application/x-www-form-urlencoded
// @Produce     json
// @Param       text_query  formData  string  false  "Typed query (ignored when audio_file is present)"
// @Param       language    formData  string  false  "ISO-639-1 code of the user's language"  default(en)
// @Param       mode        formData  string  false  "Answering mode"  Enums(General Chat, Legal Aid (RAG))  default(General Chat)
// @Param       audio_file  formData  file    false  "Spoken query"
// @Success     200  {object}  message.ChatResponse
// @Failure     400  {object}  errorResponse  "No query could be resolved"
// @Failure     413  {object}  errorResponse  "Upload too large"
// @Failure     500  {object}  errorResponse  "Answer generation failed"
// @Router      /v2/chat [post]
func (t *Transport) handleChat(w http.ResponseWriter, r *http.Request, handler transport.Handler) {
	r.Body = http.MaxBytesReader(w, r.Body, t.maxUpload)

	if err := parseForm(r); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid form: "+err.Error())
		return
	}

	req := message.NewChatRequest("http",
		r.FormValue(fieldText), r.FormValue(fieldLanguage), r.FormValue(fieldMode))

	audio, contentType, err := readAudio(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading audio: "+err.Error())
		return
	}
	req.Audio = audio
	req.ContentType = contentType

	resp, err := handler(r.Context(), req)
	if err != nil {
		var genErr *dispatch.GenerationError
		switch {
		case errors.Is(err, dispatch.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, noQueryDetail)
		case errors.As(err, &genErr):
			slog.Error("generation failed", "request_id", req.ID, "error", err)
			writeError(w, http.StatusInternalServerError, genErr.Error())
		default:
			slog.Error("chat failed", "request_id", req.ID, "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleFindAidCenters processes a GET /find_aid_centers request.
//
// @Summary     Find legal-aid centers in a city
// @Description City matching is case-insensitive. When nothing matches, a message object is
// @Description returned instead of an array.
// @Tags        aid-centers
// @Produce     json
// @Param       city  query     string  true  "City name"
// @Success     200   {array}   message.AidCenter
// @Success     200   {object}  notFoundResponse  "No centers for the city"
// @Failure     422   {object}  errorResponse     "City missing"
// @Router      /find_aid_centers [get]
func (t *Transport) handleFindAidCenters(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	if strings.TrimSpace(city) == "" {
		writeError(w, http.StatusUnprocessableEntity, "city is required")
		return
	}

	var found []message.AidCenter
	if t.centers != nil {
		found = t.centers.Find(city)
	}
	if len(found) == 0 {
		writeJSON(w, http.StatusOK, notFoundResponse{
			Message: fmt.Sprintf("No legal aid centers found for %s.", city),
		})
		return
	}
	writeJSON(w, http.StatusOK, found)
}

// handleHealth processes a GET /health request.
//
// @Summary  Liveness probe
// @Tags     health
// @Produce  json
// @Success  200  {object}  healthResponse
// @Router   /health [get]
func (t *Transport) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: t.version})
}

// Close gracefully shuts down the HTTP server.
func (t *Transport) Close() error {
	if t.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return t.server.Shutdown(ctx)
	}
	return nil
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type notFoundResponse struct {
	Message string `json:"message"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// parseForm reads multipart and urlencoded bodies alike.
func parseForm(r *http.Request) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return r.ParseMultipartForm(8 << 20)
	}
	return r.ParseForm()
}

// readAudio returns the uploaded audio_file part, if any.
func readAudio(r *http.Request) ([]byte, string, error) {
	if r.MultipartForm == nil {
		return nil, "", nil
	}
	file, header, err := r.FormFile(fieldAudio)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}
	return data, header.Header.Get("Content-Type"), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
