package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/davecheney/doorman/internal/group"
	"github.com/davecheney/doorman/internal/httpx"
	"github.com/davecheney/doorman/internal/secret"
	"github.com/davecheney/doorman/models"
	"github.com/davecheney/doorman/oauth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/exp/slog"
	"gorm.io/gorm"
)

type ServeCmd struct {
	Addr             string `help:"address to listen" default:"127.0.0.1:9443"`
	SecretStrategy   string `enum:"plain,sha256,bcrypt" default:"bcrypt" help:"strategy used to store new client secrets"`
	FallbackStrategy string `help:"legacy strategy consulted during verification only"`
	RequireOwner     bool   `help:"require every application to reference an owner"`
}

func (s *ServeCmd) Run(ctx *Context) error {
	db, err := gorm.Open(ctx.Dialector, &ctx.Config)
	if err != nil {
		return err
	}

	if err := configureDB(db); err != nil {
		return err
	}

	// a bad strategy name aborts here, before any secret is transformed
	verifier, err := secret.NewVerifier(s.SecretStrategy, s.FallbackStrategy)
	if err != nil {
		return err
	}

	env := &models.Env{
		DB: db,
		Config: models.Config{
			Secret:       verifier,
			RequireOwner: s.RequireOwner,
		},
		Logger: slog.New(slog.NewTextHandler(os.Stderr)),
	}
	envFn := func(r *http.Request) *models.Env { return env }

	c := chi.NewRouter()
	c.Use(middleware.RequestID)
	c.Use(middleware.RealIP)
	c.Use(middleware.Logger)
	c.Use(middleware.Recoverer)

	c.Route("/api/v1/apps", func(r chi.Router) {
		r.Post("/", httpx.HandlerFunc(envFn, oauth.AppsCreate))
		r.Get("/", httpx.HandlerFunc(envFn, oauth.AppsIndex))
		r.Get("/verify_credentials", httpx.HandlerFunc(envFn, oauth.AppsVerifyCredentials))
		r.Delete("/{id:[0-9]+}", httpx.HandlerFunc(envFn, oauth.AppsDestroy))
	})
	c.Route("/oauth/authorized_applications", func(r chi.Router) {
		r.Get("/", httpx.HandlerFunc(envFn, oauth.AuthorizedAppsIndex))
		r.Delete("/{id:[0-9]+}", httpx.HandlerFunc(envFn, oauth.AuthorizedAppsDestroy))
	})

	env.Log().Info("listening", "addr", s.Addr, "strategy", s.SecretStrategy, "fallback", s.FallbackStrategy)

	svr := &http.Server{
		Addr:         s.Addr,
		Handler:      c,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g := group.New(sigCtx)
	g.AddContext(func(ctx context.Context) error {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return svr.Shutdown(shutdown)
	})
	g.AddContext(func(context.Context) error {
		if err := svr.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	return g.Wait()
}
