// Command users runs the profile service and the signup flow.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/frostx76/microservices-project/internal/config"
	"github.com/frostx76/microservices-project/internal/profile"
	profilerepo "github.com/frostx76/microservices-project/internal/profile/repo"
	"github.com/frostx76/microservices-project/internal/registration"
	"github.com/frostx76/microservices-project/internal/remote"
	"github.com/frostx76/microservices-project/internal/router"
	"github.com/frostx76/microservices-project/internal/server"
	"github.com/frostx76/microservices-project/internal/token"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "users: %v\n", err)
		os.Exit(1)
	}
}

func run() (err error) {
	app, err := server.Start(config.ServiceUsers)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	defer app.Close()
	defer func() {
		if err != nil {
			app.Logger.Errorw("service stopped", "err", err)
		}
	}()
	sugar := app.Logger
	cfg := app.Config

	if err := app.OpenDB(); err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	profiles := profilerepo.NewProfileRepo(app.DB)
	if err := app.EnsureTables(profiles.EnsureTable); err != nil {
		return err
	}

	svc := profile.NewService(profiles, app.IDs, sugar)
	accounts := remote.NewAccountClient(remote.NewClient("auth", cfg.Remote.AuthURL, cfg.Remote.Timeout))
	registrar := registration.NewRegistrar(accounts, svc, cfg.RegistrationCompensate, sugar)
	if !cfg.RegistrationCompensate {
		sugar.Warn("REGISTRATION_COMPENSATE is off: failed signups leave accounts for cmd/reconcile")
	}

	requireToken := token.RequireToken(token.NewVerifier(cfg))
	handler := router.New(sugar,
		func(r chi.Router) { profile.NewHandler(svc, sugar).Mount(r, requireToken) },
		func(r chi.Router) { registration.NewHandler(registrar).Mount(r) },
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.Serve(ctx, handler)
}
