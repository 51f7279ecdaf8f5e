// Command films runs the film catalog.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/frostx76/microservices-project/internal/config"
	"github.com/frostx76/microservices-project/internal/film"
	filmrepo "github.com/frostx76/microservices-project/internal/film/repo"
	"github.com/frostx76/microservices-project/internal/router"
	"github.com/frostx76/microservices-project/internal/server"
	"github.com/frostx76/microservices-project/internal/token"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "films: %v\n", err)
		os.Exit(1)
	}
}

func run() (err error) {
	app, err := server.Start(config.ServiceFilms)
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
	films := filmrepo.NewFilmRepo(app.DB)
	if err := app.EnsureTables(films.EnsureTable); err != nil {
		return err
	}

	svc := film.NewService(films, app.IDs, sugar)
	requireToken := token.RequireToken(token.NewVerifier(cfg))
	handler := router.New(sugar, func(r chi.Router) {
		film.NewHandler(svc, sugar).Mount(r, requireToken)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.Serve(ctx, handler)
}
