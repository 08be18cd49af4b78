package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dojo-hub/config"
	"dojo-hub/internal/adapter/gateway"
	adapterhandler "dojo-hub/internal/adapter/handler"
	"dojo-hub/internal/adapter/repository/postgres"
	"dojo-hub/internal/domain"
	"dojo-hub/internal/infrastructure/broadcast"
	infracache "dojo-hub/internal/infrastructure/cache"
	"dojo-hub/internal/infrastructure/mail"
	infratoken "dojo-hub/internal/infrastructure/token"
	"dojo-hub/internal/usecase"
	appmiddleware "dojo-hub/middleware"
	"dojo-hub/utils/logger"
	"dojo-hub/utils/otel"
	"dojo-hub/utils/validator"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Handle healthcheck subcommand (for Docker healthcheck in distroless image)
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		if err := runHealthcheck(); err != nil {
			fmt.Fprintf(os.Stderr, "Healthcheck failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("dojo-hub exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("server exited properly")
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	otelCfg := otel.ConfigFromEnv()
	otelShutdown, err := otel.InitProvider(ctx, otelCfg)
	if err != nil {
		slog.Warn("failed to initialize OpenTelemetry, continuing without tracing", "error", err)
		otelCfg.Enabled = false
		otelShutdown = func(context.Context) error { return nil }
	}

	log := logger.Init(otelCfg.ServiceName, otelCfg.Enabled)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log.InfoContext(ctx, "configuration loaded",
		"kratos_url", cfg.KratosURL,
		"profile_service_url", cfg.ProfileServiceURL,
		"port", cfg.Port,
		"profile_cache_ttl", cfg.ProfileCacheTTL,
		"credentials_enabled", cfg.DatabaseURL != "",
		"broadcast_enabled", cfg.RedisURL != "",
		"env", cfg.DeploymentEnv)

	// Infrastructure
	profileCache := infracache.NewProfileCache(cfg.ProfileCacheTTL,
		infracache.WithLoadTimeout(cfg.ProfileFetchTimeout))
	defer profileCache.Close()

	kratosGateway := gateway.NewKratosGateway(cfg.KratosURL, 5*time.Second)
	profileClient := gateway.NewProfileClient(cfg.ProfileServiceURL, cfg.ProfileFetchTimeout)
	jwtIssuer := infratoken.NewJWTIssuer(infratoken.JWTConfig{
		Secret: cfg.BackendTokenSecret,
		TTL:    cfg.BackendTokenTTL,
	})
	csrfGenerator := infratoken.NewHMACCSRFGenerator(cfg.CSRFSecret)

	pingers := map[string]adapterhandler.Pinger{}

	var broadcaster domain.InvalidationBroadcaster
	var invalidator *broadcast.RedisInvalidator
	if cfg.RedisURL != "" {
		invalidator, err = broadcast.NewRedisInvalidatorWithURL(cfg.RedisURL, cfg.InvalidationChannel, log)
		if err != nil {
			return fmt.Errorf("init redis invalidator: %w", err)
		}
		defer invalidator.Close()
		broadcaster = invalidator
		pingers["redis"] = invalidator
	}

	var credentialStore *postgres.CredentialStore
	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return fmt.Errorf("init database: %w", err)
		}
		defer pool.Close()

		credentialStore = postgres.NewCredentialStore(pool, log)
		if err := credentialStore.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure credential schema: %w", err)
		}
		pingers["postgres"] = credentialStore
	}

	var mailer domain.Mailer
	if cfg.ResendAPIKey != "" {
		mailer = mail.NewResendMailer(cfg.ResendAPIKey, cfg.MailFrom, cfg.AppURL)
	} else {
		log.WarnContext(ctx, "RESEND_API_KEY not set, credential mail is logged only")
		mailer = mail.NewLogMailer(cfg.AppURL, cfg.IsDevelopment(), log)
	}

	// Usecases
	currentUserUC := usecase.NewGetCurrentUser(kratosGateway, profileCache, profileClient, jwtIssuer, log)
	sessionUC := usecase.NewGetSession(currentUserUC, jwtIssuer, log)
	csrfUC := usecase.NewGenerateCSRF(kratosGateway, csrfGenerator, log)
	invalidateUC := usecase.NewInvalidateProfile(profileCache, broadcaster, log)
	updateProfileUC := usecase.NewUpdateProfile(profileClient, jwtIssuer, csrfGenerator, invalidateUC, log)
	verifyTokenUC := usecase.NewVerifyBridgeToken(jwtIssuer, log)

	// Handlers
	validateHandler := adapterhandler.NewValidateHandler(currentUserUC)
	sessionHandler := adapterhandler.NewSessionHandler(sessionUC)
	csrfHandler := adapterhandler.NewCSRFHandler(csrfUC)
	profileHandler := adapterhandler.NewProfileHandler(currentUserUC, updateProfileUC)
	healthHandler := adapterhandler.NewHealthHandler(pingers)
	internalHandler := adapterhandler.NewInternalHandler(invalidateUC, verifyTokenUC)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator.New()

	e.Use(appmiddleware.SecurityHeaders(cfg.IsProduction()))

	if otelCfg.Enabled {
		e.Use(otelecho.Middleware(otelCfg.ServiceName))
		e.Use(appmiddleware.OTelStatusMiddleware())
	}

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithRequestID(req.Context(), id)))
		},
	}))

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			switch c.Request().URL.Path {
			case "/health", "/ready", "/metrics":
				return true
			}
			return false
		},
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			rctx := c.Request().Context()
			if v.Error == nil || v.Status < http.StatusInternalServerError {
				log.InfoContext(rctx, "request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				log.ErrorContext(rctx, "request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	}))

	e.Use(middleware.Recover())
	e.Use(appmiddleware.RequestMetrics())

	// Rate limiters per endpoint group
	validateRL := appmiddleware.NewRateLimiter("validate", appmiddleware.PerMinute(100, 10))
	sessionRL := appmiddleware.NewRateLimiter("session", appmiddleware.PerMinute(30, 5))
	csrfRL := appmiddleware.NewRateLimiter("csrf", appmiddleware.PerMinute(10, 3))
	profileRL := appmiddleware.NewRateLimiter("profile", appmiddleware.PerMinute(30, 5))
	credentialRL := appmiddleware.NewRateLimiter("credential", appmiddleware.PerMinute(5, 2))
	internalRL := appmiddleware.NewRateLimiter("internal", appmiddleware.PerMinute(600, 50))
	for _, rl := range []*appmiddleware.RateLimiter{validateRL, sessionRL, csrfRL, profileRL, credentialRL, internalRL} {
		defer rl.Close()
	}

	// Public routes
	e.GET("/validate", validateHandler.Handle, validateRL.Middleware())
	e.GET("/session", sessionHandler.Handle, sessionRL.Middleware())
	e.POST("/csrf", csrfHandler.Handle, csrfRL.Middleware())
	e.GET("/profile", profileHandler.Get, profileRL.Middleware())
	e.PATCH("/profile", profileHandler.Update, profileRL.Middleware())
	e.GET("/health", healthHandler.Handle)
	e.GET("/ready", healthHandler.Ready)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	if credentialStore != nil {
		credentialHandler := adapterhandler.NewCredentialHandler(
			currentUserUC,
			usecase.NewIssueVerification(credentialStore, mailer, log),
			usecase.NewConfirmVerification(credentialStore, invalidateUC, log),
			usecase.NewRequestPasswordReset(credentialStore, mailer, log),
			usecase.NewResetPassword(credentialStore, invalidateUC, log),
			usecase.NewChangePassword(credentialStore, csrfGenerator, invalidateUC, log),
		)
		credentials := e.Group("", credentialRL.Middleware())
		credentials.POST("/verification", credentialHandler.IssueVerification)
		credentials.POST("/verification/confirm", credentialHandler.ConfirmVerification)
		credentials.POST("/password-reset", credentialHandler.RequestPasswordReset)
		credentials.POST("/password-reset/confirm", credentialHandler.ConfirmPasswordReset)
		credentials.POST("/password", credentialHandler.ChangePassword)
	}

	// Internal routes (protected by shared secret)
	internalGroup := e.Group("/internal",
		internalRL.Middleware(),
		appmiddleware.InternalAuth(cfg.AuthSharedSecret),
	)
	internalGroup.POST("/profile-cache/invalidate", internalHandler.HandleInvalidate)
	internalGroup.POST("/token/verify", internalHandler.HandleVerifyToken)

	address := fmt.Sprintf(":%s", cfg.Port)
	log.InfoContext(ctx, "starting dojo-hub server", "address", address)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if invalidator != nil {
		g.Go(func() error {
			// Replicas keep serving with local-only invalidation if the subscriber dies.
			if err := invalidator.Run(gCtx, invalidateUC.HandleRemote); err != nil && gCtx.Err() == nil {
				log.ErrorContext(gCtx, "invalidation subscriber stopped", "error", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return otelShutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// runHealthcheck performs a health check against the local server.
func runHealthcheck() error {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8888"
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%s/health", port))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health endpoint returned status: %d", resp.StatusCode)
	}
	return nil
}
