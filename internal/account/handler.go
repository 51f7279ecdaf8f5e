package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/frostx76/microservices-project/internal/account/entity"
	"github.com/frostx76/microservices-project/internal/token"
	"github.com/frostx76/microservices-project/pkg/apperr"
	"github.com/frostx76/microservices-project/pkg/utilities"
)

// Handler exposes HTTP endpoints for account operations.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{svc: svc, logger: logger}
}

// Mount registers the credential routes. requireToken guards /accounts/me.
func (h *Handler) Mount(r chi.Router, requireToken func(http.Handler) http.Handler) {
	r.Post("/register", h.Register)
	r.Delete("/accounts", h.Delete)
	r.With(requireToken).Get("/accounts/me", h.Me)
}

// CredentialsRequest is the body of /register and DELETE /accounts.
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// AccountResponse never carries the password hash.
type AccountResponse struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

func toResponse(a *entity.Account) AccountResponse {
	return AccountResponse{ID: a.ID, Email: a.Email, IsActive: a.IsActive}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := utilities.Bind(r, &req); err != nil {
		apperr.Write(w, err)
		return
	}
	a, err := h.svc.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Infow("register failed", "email", req.Email, "err", err)
		apperr.Write(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusCreated, toResponse(a))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if err := utilities.Bind(r, &req); err != nil {
		apperr.Write(w, err)
		return
	}
	if err := h.svc.Delete(r.Context(), req.Email, req.Password); err != nil {
		h.logger.Infow("account delete failed", "email", req.Email, "err", err)
		apperr.Write(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Get(r.Context(), token.Subject(r.Context()))
	if err != nil {
		apperr.Write(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, toResponse(a))
}
