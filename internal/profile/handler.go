package profile

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/frostx76/microservices-project/internal/profile/entity"
	"github.com/frostx76/microservices-project/pkg/apperr"
	"github.com/frostx76/microservices-project/pkg/utilities"
)

// Handler exposes the /users routes.
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

// Mount registers /users. Reads are public, mutations go through requireToken.
func (h *Handler) Mount(r chi.Router, requireToken func(http.Handler) http.Handler) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Group(func(r chi.Router) {
			r.Use(requireToken)
			r.Post("/", h.Create)
			r.Patch("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

// CreateRequest is the body of POST /users.
type CreateRequest struct {
	ID          int64        `json:"id" validate:"gte=0"`
	Email       string       `json:"email" validate:"required,email"`
	FullName    *string      `json:"full_name" validate:"omitempty,max=100"`
	Bio         *string      `json:"bio" validate:"omitempty,max=500"`
	Birthdate   *entity.Date `json:"birthdate"`
	PhoneNumber *string      `json:"phone_number" validate:"omitempty,max=20"`
	Address     *string      `json:"address" validate:"omitempty,max=200"`
	IsActive    *bool        `json:"is_active"`
}

// Profile builds the entity; is_active defaults to true.
func (c CreateRequest) Profile() *entity.Profile {
	active := true
	if c.IsActive != nil {
		active = *c.IsActive
	}
	return &entity.Profile{
		ID:          c.ID,
		Email:       c.Email,
		FullName:    c.FullName,
		Bio:         c.Bio,
		Birthdate:   c.Birthdate,
		PhoneNumber: c.PhoneNumber,
		Address:     c.Address,
		IsActive:    active,
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := utilities.DecodeJSON(r, &req); err != nil {
		apperr.Write(w, err)
		return
	}
	if err := utilities.Validate(req); err != nil {
		apperr.Write(w, err)
		return
	}
	p, err := h.svc.Create(r.Context(), req.Profile())
	if err != nil {
		h.logger.Infow("create profile failed", "email", req.Email, "err", err)
		apperr.Write(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f entity.Filter
	var err error
	if f.Skip, err = queryInt(q.Get("skip"), 0); err != nil || f.Skip < 0 {
		apperr.Write(w, apperr.Validation("skip must be a non-negative integer"))
		return
	}
	if f.Limit, err = queryInt(q.Get("limit"), DefaultLimit); err != nil || f.Limit < 1 || f.Limit > MaxLimit {
		apperr.Write(w, apperr.Validation("limit must be between 1 and %d", MaxLimit))
		return
	}
	if v := q.Get("is_active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			apperr.Write(w, apperr.Validation("is_active must be a boolean"))
			return
		}
		f.IsActive = &b
	}
	out, err := h.svc.List(r.Context(), f)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	var patch entity.Patch
	if err := utilities.DecodeJSON(r, &patch); err != nil {
		apperr.Write(w, err)
		return
	}
	if err := utilities.Validate(patch); err != nil {
		apperr.Write(w, err)
		return
	}
	p, err := h.svc.Update(r.Context(), id, patch)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		apperr.Write(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PathID parses the {id} URL parameter.
func PathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, apperr.Validation("id must be an integer")
	}
	return id, nil
}

func queryInt(s string, fallback int) (int, error) {
	if s == "" {
		return fallback, nil
	}
	return strconv.Atoi(s)
}
