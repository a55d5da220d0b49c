package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/DebasishBarai/remind-me/config"
	"github.com/DebasishBarai/remind-me/db"
	"github.com/DebasishBarai/remind-me/handlers"
	"github.com/DebasishBarai/remind-me/middleware"
	"github.com/DebasishBarai/remind-me/services"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type app struct {
	cfg      *config.Config
	store    *db.Store
	sessions *services.SessionManager
	policy   services.AccessPolicy
	identity *services.IdentityService
	payments *services.PaymentService
	oauth    *handlers.OAuthHandler
}

func newApp(ctx context.Context, cfg *config.Config, store *db.Store) *app {
	a := &app{
		cfg:      cfg,
		store:    store,
		sessions: services.NewSessionManager(cfg.JWTSecret, cfg.SessionTTL),
		policy:   services.NewAccessPolicy(cfg.TrialPeriod()),
		identity: services.NewIdentityService(store),
	}

	if cfg.Features.BillingEnabled {
		processor := services.NewPayPalProcessor(services.PayPalConfig{
			ClientID: cfg.PayPalClientID,
			Secret:   cfg.PayPalSecret,
			APIBase:  services.APIBaseForMode(cfg.PayPalMode),
			BaseURL:  cfg.BaseURL,
			Timeout:  cfg.PayPalTimeout,
		})
		notifier := services.NewEmailNotifier(cfg.SendGridAPIKey, cfg.EmailFrom, log.Logger)
		a.payments = services.NewPaymentService(processor, store, cfg.Prices, cfg.PayPalCurrency, notifier, log.Logger)
	}
	if cfg.Features.GoogleLoginEnabled {
		a.oauth = handlers.NewGoogleOAuthHandler(ctx, cfg.GoogleClientID, cfg.GoogleClientSecret,
			cfg.GoogleRedirectURL(), a.identity, a.sessions, a.secureCookie())
	}
	return a
}

func (a *app) secureCookie() bool {
	return strings.HasPrefix(a.cfg.BaseURL, "https://")
}

func (a *app) router() *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(), middleware.Recovery())
	r.Use(middleware.NewGate(a.sessions, a.store, a.policy).Handler())

	r.GET("/healthz", handlers.Health(a.store))

	auth := handlers.NewAuthHandler(a.identity, a.sessions, a.store, a.policy, a.cfg.Features, a.secureCookie())
	r.POST("/api/auth/register", auth.Register)
	r.POST("/api/auth/login", auth.Login)
	r.POST("/api/auth/logout", auth.Logout)

	if a.oauth != nil {
		r.GET("/auth/google/login", a.oauth.Login)
		r.GET("/auth/google/callback", a.oauth.Callback)
	}

	reminders := handlers.NewReminderHandler(services.NewReminderService(a.store))
	contacts := handlers.NewContactHandler(a.store)
	groups := handlers.NewGroupHandler(a.store)
	billing := handlers.NewPaymentHandler(a.payments, a.cfg.Features)
	stats := handlers.NewStatsHandler(a.store)

	api := r.Group("/api")
	{
		api.GET("/me", auth.Me)
		api.GET("/stats/overview", stats.Overview)

		api.POST("/payment", billing.Create)
		api.PUT("/payment", billing.Capture)
		api.GET("/plans", billing.Plans)

		api.POST("/reminders", reminders.Create)
		api.GET("/reminders", reminders.List)
		api.DELETE("/reminders/:id", reminders.Delete)

		api.GET("/contacts", contacts.List)
		api.POST("/contacts", contacts.Create)
		api.PUT("/contacts/:id", contacts.Update)
		api.DELETE("/contacts/:id", contacts.Delete)

		api.GET("/groups", groups.List)
		api.POST("/groups", groups.Create)
		api.DELETE("/groups/:id", groups.Delete)
		api.POST("/groups/:id/contacts", groups.AddContact)
		api.DELETE("/groups/:id/contacts/:contactId", groups.RemoveContact)
	}

	if a.cfg.FrontendDir != "" {
		r.NoRoute(handlers.SPA(a.cfg.FrontendDir))
	} else {
		r.NoRoute(func(c *gin.Context) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		})
	}
	return r
}

type deliveryChannel interface {
	services.Sender
	Connect() error
}

// startDispatcher runs the dispatcher even when the first connection fails.
// Each send reconnects on its own, so an unreachable WhatsApp shows up as
// per-reminder delivery failures that are retried.
func startDispatcher(ctx context.Context, store services.DispatchStore, channel deliveryChannel, interval time.Duration) {
	switch err := channel.Connect(); {
	case errors.Is(err, services.ErrDeviceNotLinked):
		log.Warn().Msg("WhatsApp device is not linked, reminders will fail until link-whatsapp is run")
	case err != nil:
		log.Error().Err(err).Msg("WhatsApp connect failed, delivery will keep retrying")
	}
	go services.NewDispatcher(store, channel, log.Logger).Run(ctx, interval)
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log.Info().
		Str("version", Version).
		Bool("billing", cfg.Features.BillingEnabled).
		Bool("dispatch", cfg.Features.DispatchEnabled).
		Bool("signup", cfg.Features.SignupEnabled).
		Bool("google_login", cfg.Features.GoogleLoginEnabled).
		Msg("Starting RemindMe")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := db.Open(cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		return err
	}

	if cfg.Features.DispatchEnabled {
		sender, err := services.NewWhatsAppSender(ctx, cfg.WhatsAppStoreDialect, cfg.WhatsAppStoreDSN, log.Logger)
		if err != nil {
			return err
		}
		defer sender.Close()
		startDispatcher(ctx, store, sender, cfg.DispatchInterval)
	}

	if cfg.MetricsEnabled() {
		startMetricsServer(ctx, cfg.MetricsAddr)
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newApp(ctx, cfg, store).router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Shutting down server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}
	cancel()
	log.Info().Msg("Server stopped")
	return nil
}
