// Command auth runs the credential store and token service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/frostx76/microservices-project/internal/account"
	accountrepo "github.com/frostx76/microservices-project/internal/account/repo"
	"github.com/frostx76/microservices-project/internal/config"
	"github.com/frostx76/microservices-project/internal/router"
	"github.com/frostx76/microservices-project/internal/server"
	"github.com/frostx76/microservices-project/internal/token"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "auth: %v\n", err)
		os.Exit(1)
	}
}

func run() (err error) {
	app, err := server.Start(config.ServiceAuth)
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
	accounts := accountrepo.NewAccountRepo(app.DB)
	if err := app.EnsureTables(accounts.EnsureTable); err != nil {
		return err
	}

	hasher, err := account.NewHasher(cfg.PasswordHasher)
	if err != nil {
		return err
	}
	accountSvc := account.NewService(accounts, hasher, app.IDs, sugar)
	codec := token.NewCodec(cfg.JWT.Secret, cfg.JWT.TTL)
	tokenSvc := token.NewService(accountSvc, codec, sugar)

	// the token service checks its own tokens locally whatever TOKEN_VERIFY_MODE says
	requireToken := token.RequireToken(token.NewLocalVerifier(codec))

	handler := router.New(sugar,
		func(r chi.Router) { token.NewHandler(tokenSvc, sugar).Mount(r) },
		func(r chi.Router) { account.NewHandler(accountSvc, sugar).Mount(r, requireToken) },
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.Serve(ctx, handler)
}
