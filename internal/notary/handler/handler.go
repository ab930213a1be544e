package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"idattest/internal/notary/models"
	id "idattest/pkg/domain"
	dErrors "idattest/pkg/domain-errors"
	"idattest/pkg/platform/httputil"
	"idattest/pkg/requestcontext"
)

// MaxNotarizeBodyBytes bounds a notarize request, transcript included.
const MaxNotarizeBodyBytes = 4 << 20

// Service is the notary as seen by its HTTP surface.
type Service interface {
	Notarize(ctx context.Context, sessionID string, transcript []byte) (*models.Attestation, error)
	Pubkey() id.Pubkey
}

type Handler struct {
	logger    *slog.Logger
	notary    Service
	rateLimit func(http.Handler) http.Handler
}

// New creates a notary Handler. rateLimit wraps /notarize and may be nil.
func New(notary Service, rateLimit func(http.Handler) http.Handler, logger *slog.Logger) *Handler {
	return &Handler{
		logger:    logger,
		notary:    notary,
		rateLimit: rateLimit,
	}
}

// Register mounts /health, /notarize and /pubkey. No route is authenticated.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(AllowAllCORS)
		r.Get("/health", h.handleHealth)
		r.Get("/pubkey", h.handlePubkey)
		r.Group(func(r chi.Router) {
			if h.rateLimit != nil {
				r.Use(h.rateLimit)
			}
			r.Post("/notarize", h.handleNotarize)
		})
		r.Options("/*", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handlePubkey(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(models.PubkeyHex(h.notary.Pubkey())))
}

func (h *Handler) handleNotarize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var req models.NotarizeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxNotarizeBodyBytes)).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid notarize request",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	att, err := h.notary.Notarize(ctx, req.SessionID, req.TranscriptData)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewNotarizeResponse(att))
}

// AllowAllCORS answers preflights and allows every origin.
func AllowAllCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "*")
		h.Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
