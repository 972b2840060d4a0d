// Package server exposes the generation pipeline and stored quotes over
// HTTP.
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"quotecanvas/internal/background"
	"quotecanvas/internal/db"
	"quotecanvas/internal/overlay"
	"quotecanvas/internal/pipeline"
	"quotecanvas/internal/quotegen"
)

// Runner executes one generation request.
type Runner interface {
	Run(ctx context.Context, seed string) (*pipeline.Result, error)
}

// QuoteReader reads persisted quotes.
type QuoteReader interface {
	GetQuote(ctx context.Context, id int64) (db.Quote, error)
	ListQuotes(ctx context.Context) ([]db.Quote, error)
}

// Server is the HTTP surface of the application.
type Server struct {
	router chi.Router
	runner Runner
	quotes QuoteReader
	token  string
}

// Config holds server configuration.
type Config struct {
	Runner Runner
	Quotes QuoteReader
	Token  string // optional bearer token guarding the quote endpoints
}

// New creates a new Server with its routes registered.
func New(cfg Config) *Server {
	s := &Server{
		runner: cfg.Runner,
		quotes: cfg.Quotes,
		token:  cfg.Token,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Post("/quote-image", s.handleQuoteImage)
		r.Get("/quotes", s.handleListQuotes)
		r.Get("/quotes/{id}", s.handleGetQuote)
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// authenticate enforces the static bearer token when one is configured.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
			writeError(w, http.StatusUnauthorized, "invalid or missing token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type quoteImageRequest struct {
	Seed string `json:"seed"`
}

// handleQuoteImage runs the full pipeline and responds with the
// composited PNG.
func (s *Server) handleQuoteImage(w http.ResponseWriter, r *http.Request) {
	var req quoteImageRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	start := time.Now()
	result, err := s.runner.Run(r.Context(), req.Seed)
	if err != nil {
		slog.Error("quote image request failed", "stage", stageName(err), "error", err)
		writeError(w, http.StatusInternalServerError, stageName(err))
		return
	}

	slog.Info("quote image request complete",
		"id", result.Quote.ID,
		"duration", time.Since(start),
	)

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.OverlayPNG); err != nil {
		slog.Warn("write response", "error", err)
	}
}

type quoteResponse struct {
	ID                   int64   `json:"id"`
	Text                 string  `json:"quote_text"`
	DateGenerated        string  `json:"date_generated"`
	Seed                 *string `json:"seed,omitempty"`
	ImagePrompt          string  `json:"image_prompt"`
	RawImageFilename     string  `json:"raw_image_filename"`
	OverlayImageFilename string  `json:"overlay_image_filename"`
	CreatedAt            string  `json:"created_at"`
}

func toQuoteResponse(q db.Quote) quoteResponse {
	resp := quoteResponse{
		ID:                   q.ID,
		Text:                 q.Text,
		DateGenerated:        q.DateGenerated,
		ImagePrompt:          q.ImagePrompt,
		RawImageFilename:     q.RawImageFilename,
		OverlayImageFilename: q.OverlayImageFilename,
		CreatedAt:            q.CreatedAt.Format(time.RFC3339),
	}
	if q.Seed.Valid {
		resp.Seed = &q.Seed.String
	}
	return resp
}

func (s *Server) handleListQuotes(w http.ResponseWriter, r *http.Request) {
	quotes, err := s.quotes.ListQuotes(r.Context())
	if err != nil {
		slog.Error("list quotes failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to retrieve quotes")
		return
	}

	resp := make([]quoteResponse, 0, len(quotes))
	for _, q := range quotes {
		resp = append(resp, toQuoteResponse(q))
	}
	writeJSON(w, http.StatusOK, map[string]any{"quotes": resp})
}

func (s *Server) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid quote id")
		return
	}

	quote, err := s.quotes.GetQuote(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) || errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "quote not found")
		return
	}
	if err != nil {
		slog.Error("get quote failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to retrieve quote")
		return
	}

	writeJSON(w, http.StatusOK, toQuoteResponse(quote))
}

// stageName maps a pipeline error to the stage that failed, so callers
// know what broke without seeing internal detail.
func stageName(err error) string {
	switch {
	case errors.Is(err, quotegen.ErrGeneration):
		return "quote generation failed"
	case errors.Is(err, background.ErrImageGeneration):
		return "background generation failed"
	case errors.Is(err, overlay.ErrRender):
		return "text overlay failed"
	case errors.Is(err, pipeline.ErrPersistence):
		return "persistence failed"
	default:
		return "internal error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
