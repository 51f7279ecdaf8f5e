package token

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/frostx76/microservices-project/pkg/apperr"
	"github.com/frostx76/microservices-project/pkg/utilities"
)

// Handler exposes POST /token and POST /verify.
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

func (h *Handler) Mount(r chi.Router) {
	r.Post("/token", h.Token)
	r.Post("/verify", h.Verify)
}

// TokenRequest accepts the OAuth2 password-form "username" as an alias of email.
type TokenRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := utilities.Bind(r, &req); err != nil {
		apperr.Write(w, err)
		return
	}
	email := req.Email
	if email == "" {
		email = req.Username
	}
	if email == "" {
		apperr.Write(w, apperr.Validation("email is required"))
		return
	}
	tok, err := h.svc.Issue(r.Context(), email, req.Password)
	if err != nil {
		h.logger.Debugw("token request rejected", "email", email, "err", err)
		apperr.Write(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, tok)
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	email, err := h.svc.Verify(r.Context(), BearerToken(r))
	if err != nil {
		apperr.Write(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, verifyResponse{Email: email})
}
