package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"idattest/internal/events"
	"idattest/internal/platform/middleware"
	"idattest/internal/registry/models"
	id "idattest/pkg/domain"
	dErrors "idattest/pkg/domain-errors"
	"idattest/pkg/platform/httputil"
	"idattest/pkg/requestcontext"
)

// Service defines the registry operations exposed over HTTP.
type Service interface {
	Initialize(ctx context.Context, authority id.Pubkey, notaries []id.Pubkey) (*models.Receipt, error)
	RegisterIdentity(ctx context.Context, owner id.Pubkey, in models.RegisterInput) (*models.Receipt, error)
	VerifyProof(ctx context.Context, verifier id.Pubkey, in models.ProofInput) (*models.Receipt, error)
	Attest(ctx context.Context, owner id.Pubkey, in models.AttestInput) (*models.Receipt, error)
	RevokeIdentity(ctx context.Context, signer, owner id.Pubkey, platform uint8) (*models.Receipt, error)
	UpdateMetadata(ctx context.Context, signer, owner id.Pubkey, platform uint8, metadata string) (*models.Receipt, error)
	GetConfig(ctx context.Context) (*models.Config, error)
	GetIdentity(ctx context.Context, owner id.Pubkey, platform uint8) (*models.IdentityView, error)
	ListIdentities(ctx context.Context, owner id.Pubkey) ([]models.IdentityView, error)
	GetVerification(ctx context.Context, owner id.Pubkey, platform uint8) (*models.Verification, error)
}

// EventSource serves recently committed events.
type EventSource interface {
	Recent(limit int) []events.Envelope
}

const maxEventPage = 500

// Handler serves the registry HTTP API.
type Handler struct {
	logger    *slog.Logger
	registry  Service
	validator middleware.RequestValidator
	events    EventSource
}

// New creates a registry Handler. events may be nil, which disables /v1/events.
func New(registry Service, validator middleware.RequestValidator, events EventSource, logger *slog.Logger) *Handler {
	return &Handler{
		logger:    logger,
		registry:  registry,
		validator: validator,
		events:    events,
	}
}

// Register mounts the registry routes. Mutating routes require a signed request.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/config", h.handleGetConfig)
		r.Get("/identities/{owner}", h.handleListIdentities)
		r.Get("/identities/{owner}/{platform}", h.handleGetIdentity)
		r.Get("/identities/{owner}/{platform}/verification", h.handleGetVerification)
		if h.events != nil {
			r.Get("/events", h.handleListEvents)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSignedRequest(h.validator, h.logger))
			r.Post("/config", h.handleInitialize)
			r.Post("/identities", h.handleRegisterIdentity)
			r.Post("/identities/attest", h.handleAttest)
			r.Post("/proofs/verify", h.handleVerifyProof)
			r.Post("/identities/{owner}/{platform}/revoke", h.handleRevokeIdentity)
			r.Put("/identities/{owner}/{platform}/metadata", h.handleUpdateMetadata)
		})
	})
}

func (h *Handler) handleInitialize(w http.ResponseWriter, r *http.Request) {
	var req InitializeRequest
	if !h.decode(w, r, &req) {
		return
	}
	receipt, err := h.registry.Initialize(r.Context(), requestcontext.Signer(r.Context()), req.NotaryPubkeys)
	h.writeReceipt(w, r, http.StatusCreated, receipt, err)
}

func (h *Handler) handleRegisterIdentity(w http.ResponseWriter, r *http.Request) {
	var req RegisterIdentityRequest
	if !h.decode(w, r, &req) {
		return
	}
	receipt, err := h.registry.RegisterIdentity(r.Context(), requestcontext.Signer(r.Context()), req.toInput())
	h.writeReceipt(w, r, http.StatusCreated, receipt, err)
}

func (h *Handler) handleAttest(w http.ResponseWriter, r *http.Request) {
	var req AttestRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.writeError(w, r, err)
		return
	}
	receipt, err := h.registry.Attest(r.Context(), requestcontext.Signer(r.Context()), req.toInput())
	h.writeReceipt(w, r, http.StatusCreated, receipt, err)
}

func (h *Handler) handleVerifyProof(w http.ResponseWriter, r *http.Request) {
	var req VerifyProofRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.writeError(w, r, err)
		return
	}
	receipt, err := h.registry.VerifyProof(r.Context(), requestcontext.Signer(r.Context()), req.toInput())
	h.writeReceipt(w, r, http.StatusOK, receipt, err)
}

func (h *Handler) handleRevokeIdentity(w http.ResponseWriter, r *http.Request) {
	owner, platform, ok := h.identityPath(w, r)
	if !ok {
		return
	}
	receipt, err := h.registry.RevokeIdentity(r.Context(), requestcontext.Signer(r.Context()), owner, platform)
	h.writeReceipt(w, r, http.StatusOK, receipt, err)
}

func (h *Handler) handleUpdateMetadata(w http.ResponseWriter, r *http.Request) {
	owner, platform, ok := h.identityPath(w, r)
	if !ok {
		return
	}
	var req UpdateMetadataRequest
	if !h.decode(w, r, &req) {
		return
	}
	receipt, err := h.registry.UpdateMetadata(r.Context(), requestcontext.Signer(r.Context()), owner, platform, req.Metadata)
	h.writeReceipt(w, r, http.StatusOK, receipt, err)
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.registry.GetConfig(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toConfigResponse(cfg))
}

func (h *Handler) handleListIdentities(w http.ResponseWriter, r *http.Request) {
	owner, err := id.ParsePubkey(chi.URLParam(r, "owner"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	views, err := h.registry.ListIdentities(r.Context(), owner)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp := IdentityListResponse{Owner: owner, Identities: make([]IdentityResponse, 0, len(views))}
	for _, v := range views {
		resp.Identities = append(resp.Identities, toIdentityView(v))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetIdentity(w http.ResponseWriter, r *http.Request) {
	owner, platform, ok := h.identityPath(w, r)
	if !ok {
		return
	}
	view, err := h.registry.GetIdentity(r.Context(), owner, platform)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toIdentityView(*view))
}

func (h *Handler) handleGetVerification(w http.ResponseWriter, r *http.Request) {
	owner, platform, ok := h.identityPath(w, r)
	if !ok {
		return
	}
	ver, err := h.registry.GetVerification(r.Context(), owner, platform)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVerificationResponse(ver))
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = min(n, maxEventPage)
	}
	envs := h.events.Recent(limit)
	if envs == nil {
		envs = []events.Envelope{}
	}
	httputil.WriteJSON(w, http.StatusOK, EventListResponse{Events: envs})
}

// identityPath parses {owner} and {platform}; platform may be a name or a tag.
func (h *Handler) identityPath(w http.ResponseWriter, r *http.Request) (id.Pubkey, uint8, bool) {
	owner, err := id.ParsePubkey(chi.URLParam(r, "owner"))
	if err != nil {
		h.writeError(w, r, err)
		return id.Pubkey{}, 0, false
	}
	platform, err := models.ParsePlatform(chi.URLParam(r, "platform"))
	if err != nil {
		h.writeError(w, r, err)
		return id.Pubkey{}, 0, false
	}
	return owner, uint8(platform), true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		h.logger.WarnContext(r.Context(), "invalid request body",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return false
	}
	return true
}

func (h *Handler) writeReceipt(w http.ResponseWriter, r *http.Request, status int, receipt *models.Receipt, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, status, toReceiptResponse(receipt, requestcontext.Now(r.Context())))
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "registry request failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	} else {
		h.logger.WarnContext(ctx, "registry request rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}
