package review

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/frostx76/microservices-project/internal/review/entity"
	"github.com/frostx76/microservices-project/internal/token"
	"github.com/frostx76/microservices-project/pkg/apperr"
	"github.com/frostx76/microservices-project/pkg/utilities"
)

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

// Mount registers /reviews. POST checks its token inside Service.Create so
// the token check stays first in the write sequence.
func (h *Handler) Mount(r chi.Router, requireToken func(http.Handler) http.Handler) {
	r.Route("/reviews", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Post("/", h.Create)
		r.With(requireToken).Patch("/{id}/approve", h.Approve)
		r.With(requireToken).Delete("/{id}", h.Delete)
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in entity.NewReview
	if err := utilities.DecodeJSON(r, &in); err != nil {
		apperr.Write(w, err)
		return
	}
	rv, err := h.svc.Create(r.Context(), token.BearerToken(r), in)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusCreated, rv)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var f entity.Filter
	q := r.URL.Query()
	for key, dst := range map[string]**int64{"film_id": &f.FilmID, "user_id": &f.UserID} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			apperr.Write(w, apperr.Validation("%s must be an integer", key))
			return
		}
		*dst = &n
	}
	out, err := h.svc.List(r.Context(), f)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rv, err := h.svc.Get(r.Context(), id)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, rv)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rv, err := h.svc.Approve(r.Context(), id)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, rv)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		apperr.Write(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		apperr.Write(w, apperr.Validation("id must be an integer"))
		return 0, false
	}
	return id, true
}
