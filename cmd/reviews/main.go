// Command reviews runs the review service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/frostx76/microservices-project/internal/config"
	"github.com/frostx76/microservices-project/internal/remote"
	"github.com/frostx76/microservices-project/internal/review"
	reviewrepo "github.com/frostx76/microservices-project/internal/review/repo"
	"github.com/frostx76/microservices-project/internal/router"
	"github.com/frostx76/microservices-project/internal/server"
	"github.com/frostx76/microservices-project/internal/token"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "reviews: %v\n", err)
		os.Exit(1)
	}
}

func run() (err error) {
	app, err := server.Start(config.ServiceReviews)
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
	reviews := reviewrepo.NewReviewRepo(app.DB)
	if err := app.EnsureTables(reviews.EnsureTable); err != nil {
		return err
	}

	verifier := token.NewVerifier(cfg)
	films := remote.NewFilmClient(remote.NewClient("films", cfg.Remote.FilmsURL, cfg.Remote.Timeout))
	users := remote.NewUserClient(remote.NewClient("users", cfg.Remote.UsersURL, cfg.Remote.Timeout))
	svc := review.NewService(reviews, verifier, films, users, app.IDs, sugar)

	handler := router.New(sugar, func(r chi.Router) {
		review.NewHandler(svc, sugar).Mount(r, token.RequireToken(verifier))
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.Serve(ctx, handler)
}
