package film

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/frostx76/microservices-project/internal/film/entity"
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

// Mount registers /films. GET is public; POST, PUT and DELETE need a token.
func (h *Handler) Mount(r chi.Router, requireToken func(http.Handler) http.Handler) {
	r.Route("/films", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Group(func(r chi.Router) {
			r.Use(requireToken)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Replace)
			r.Delete("/{id}", h.Delete)
		})
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in entity.Input
	if err := utilities.DecodeJSON(r, &in); err != nil {
		apperr.Write(w, err)
		return
	}
	f, err := h.svc.Create(r.Context(), in)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusCreated, f)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	f, err := h.svc.Get(r.Context(), id)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, f)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	flt := entity.Filter{Title: q.Get("title"), Limit: DefaultLimit}
	if v := q.Get("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			apperr.Write(w, apperr.Validation("skip must be a non-negative integer"))
			return
		}
		flt.Skip = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxLimit {
			apperr.Write(w, apperr.Validation("limit must be between 1 and %d", MaxLimit))
			return
		}
		flt.Limit = n
	}
	out, err := h.svc.List(r.Context(), flt)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) Replace(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var in entity.Input
	if err := utilities.DecodeJSON(r, &in); err != nil {
		apperr.Write(w, err)
		return
	}
	f, err := h.svc.Replace(r.Context(), id, in)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, f)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		apperr.Write(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		apperr.Write(w, apperr.Validation("id must be an integer"))
		return 0, false
	}
	return id, true
}
