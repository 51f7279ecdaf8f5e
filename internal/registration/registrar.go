package registration

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/frostx76/microservices-project/internal/profile/entity"
	"github.com/frostx76/microservices-project/internal/remote"
	"github.com/frostx76/microservices-project/pkg/apperr"
	"github.com/frostx76/microservices-project/pkg/utilities"
)

// Accounts is the credential service as seen by signup; remote.AccountClient implements it.
type Accounts interface {
	Register(ctx context.Context, email, password string) (*remote.RegisteredAccount, error)
	Delete(ctx context.Context, email, password string) error
}

// Profiles creates the profile row; profile.Service implements it.
type Profiles interface {
	Create(ctx context.Context, p *entity.Profile) (*entity.Profile, error)
}

// SignupRequest is the body of POST /signup.
type SignupRequest struct {
	Email       string       `json:"email" validate:"required,email"`
	Password    string       `json:"password" validate:"required,min=8,max=72"`
	FullName    *string      `json:"full_name" validate:"omitempty,max=100"`
	Bio         *string      `json:"bio" validate:"omitempty,max=500"`
	Birthdate   *entity.Date `json:"birthdate"`
	PhoneNumber *string      `json:"phone_number" validate:"omitempty,max=20"`
	Address     *string      `json:"address" validate:"omitempty,max=200"`
}

type Registrar struct {
	accounts   Accounts
	profiles   Profiles
	compensate bool
	logger     *zap.SugaredLogger
}

func NewRegistrar(accounts Accounts, profiles Profiles, compensate bool, logger *zap.SugaredLogger) *Registrar {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Registrar{accounts: accounts, profiles: profiles, compensate: compensate, logger: logger}
}

// Register creates the account and then the profile with the account's id.
// If the profile step fails the account is deleted again, unless compensation
// is switched off, in which case the orphan is left for the reconciler.
func (r *Registrar) Register(ctx context.Context, req SignupRequest) (*entity.Profile, error) {
	sagaID := utilities.NewKSUID()
	log := r.logger.With("saga_id", sagaID, "email", req.Email)

	var (
		account *remote.RegisteredAccount
		created *entity.Profile
	)
	saga := &Saga{
		Compensate: r.compensate,
		Steps: []Step{
			{
				Name: "create-account",
				Do: func(ctx context.Context) error {
					a, err := r.accounts.Register(ctx, req.Email, req.Password)
					account = a
					return err
				},
				Undo: func(ctx context.Context) error {
					return r.accounts.Delete(ctx, req.Email, req.Password)
				},
			},
			{
				Name: "create-profile",
				Do: func(ctx context.Context) error {
					p, err := r.profiles.Create(ctx, &entity.Profile{
						ID:          account.ID,
						Email:       req.Email,
						FullName:    req.FullName,
						Bio:         req.Bio,
						Birthdate:   req.Birthdate,
						PhoneNumber: req.PhoneNumber,
						Address:     req.Address,
						IsActive:    true,
					})
					created = p
					return err
				},
			},
		},
	}

	err := saga.Run(ctx)
	if err == nil {
		log.Infow("registration completed", "id", created.ID)
		return created, nil
	}

	f, ok := AsFailure(err)
	if !ok {
		return nil, err
	}
	switch {
	case f.FailedStep == "create-account":
		log.Infow("registration rejected", "step", f.FailedStep, "err", f.Cause)
	case !f.Compensated:
		log.Errorw("registration left an orphan account; compensation disabled",
			"step", f.FailedStep, "cause", f.Cause, "account_id", account.ID)
	case f.CompensationFailed():
		log.Errorw("registration compensation failed; orphan account remains",
			"step", f.FailedStep, "cause", f.Cause, "account_id", account.ID, "undo", undoErrors(f))
	default:
		log.Warnw("registration rolled back",
			"step", f.FailedStep, "cause", f.Cause, "account_id", account.ID)
	}
	return nil, f
}

func undoErrors(f *Failure) []string {
	var out []string
	for _, u := range f.Undone {
		if u.Err != nil {
			out = append(out, u.Step+": "+u.Err.Error())
		}
	}
	return out
}

// Handler exposes POST /signup.
type Handler struct {
	reg *Registrar
}

func NewHandler(reg *Registrar) *Handler { return &Handler{reg: reg} }

func (h *Handler) Mount(r chi.Router) {
	r.Post("/signup", h.Signup)
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := utilities.DecodeJSON(r, &req); err != nil {
		apperr.Write(w, err)
		return
	}
	if err := utilities.Validate(req); err != nil {
		apperr.Write(w, err)
		return
	}
	p, err := h.reg.Register(r.Context(), req)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusCreated, p)
}
