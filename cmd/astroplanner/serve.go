package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	adapthttp "astroplanner/internal/adapter/http"
	"astroplanner/internal/adapter/ics"
	"astroplanner/internal/adapter/memory"
	"astroplanner/internal/adapter/openmeteo"
	"astroplanner/internal/adapter/postgres"
	"astroplanner/internal/adapter/rediscache"
	"astroplanner/internal/adapter/skyapi"
	"astroplanner/internal/app"
	"astroplanner/internal/config"
	"astroplanner/internal/domain"
	"astroplanner/internal/logging"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the planner API server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address (overrides config)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return err
			}
			if addr := cmd.String("addr"); addr != "" {
				cfg.Server.Addr = addr
			}
			level := cfg.Log.Level
			if cmd.Bool("verbose") {
				level = "debug"
			}
			logger, err := logging.New(level, cfg.Log.Format)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return runServer(ctx, cfg, logger)
		},
	}
}

type repositories struct {
	users     domain.UserRepository
	tokens    domain.TokenRepository
	locations domain.LocationRepository
	sessions  domain.SessionRepository
	logs      domain.LogRepository
	close     func() error
}

func openStorage(cfg *config.Config, logger *zap.Logger) (*repositories, error) {
	if cfg.Database.URL == "" {
		logger.Warn("DATABASE_URL not set, data is kept in memory")
		db := memory.New()
		return &repositories{
			users: db, tokens: db.NewTokenRepo(), locations: db, sessions: db, logs: db,
			close: func() error { return nil },
		}, nil
	}

	db, err := postgres.Open(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %s", logging.SanitizeError(err))
	}
	logger.Info("Connected to PostgreSQL", zap.String("database", logging.SanitizeConnectionString(cfg.Database.URL)))
	return &repositories{
		users: db, tokens: postgres.NewTokenRepo(db), locations: db, sessions: db, logs: db,
		close: db.Close,
	}, nil
}

func runServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	repos, err := openStorage(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = repos.close() }()

	meteo := openmeteo.NewClient(cfg.Weather.ForecastURL, cfg.Weather.GeocodeURL, cfg.Weather.Timeout, logger)
	var weather domain.WeatherProvider = meteo
	if cfg.Redis.Addr != "" {
		rdb, err := rediscache.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		weather = rediscache.NewWeatherCache(rdb, meteo, cfg.Redis.TTL, logger)
		logger.Info("Forecast cache enabled", zap.String("redis", cfg.Redis.Addr), zap.Duration("ttl", cfg.Redis.TTL))
	}
	sky := skyapi.NewClient(cfg.Sky.URL, cfg.Sky.Timeout, logger)

	auth := app.NewAuthService(repos.users, repos.tokens, cfg.Auth.Secret, cfg.Auth.TokenTTL, logger)
	svc := adapthttp.Services{
		Auth:       auth,
		Locations:  app.NewLocationService(repos.locations),
		Sessions:   app.NewSessionService(repos.sessions, repos.locations),
		Logs:       app.NewLogService(repos.logs, repos.sessions),
		Visibility: app.NewVisibilityService(repos.locations, sky, logger),
		Forecast:   app.NewForecastService(repos.sessions, repos.locations, weather, logger),
		Calendar:   app.NewCalendarService(repos.sessions, repos.locations, ics.Encoder{}),
		Geocode:    app.NewGeocodeService(meteo),
	}
	server := adapthttp.New(svc, logger)

	if cfg.OIDC.Enabled() {
		provider, err := oidc.NewProvider(ctx, cfg.OIDC.Issuer)
		if err != nil {
			return fmt.Errorf("failed to discover OIDC provider: %w", err)
		}
		server.WithOIDC(adapthttp.OIDCConfig{
			Enabled:  true,
			Provider: provider,
			OAuth2Config: oauth2.Config{
				ClientID:     cfg.OIDC.ClientID,
				ClientSecret: cfg.OIDC.ClientSecret,
				RedirectURL:  cfg.OIDC.RedirectURL,
				Endpoint:     provider.Endpoint(),
				Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
			},
		})
		logger.Info("SSO enabled", zap.String("issuer", cfg.OIDC.Issuer))
	}

	sched := cron.New()
	if _, err := sched.AddFunc(cfg.Auth.PurgeSchedule, func() { purgeTokens(auth, logger) }); err != nil {
		return fmt.Errorf("invalid token purge schedule %q: %w", cfg.Auth.PurgeSchedule, err)
	}
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: server.Handler(), ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func purgeTokens(auth *app.AuthService, logger *zap.Logger) {
	n, err := auth.PurgeExpired(context.Background())
	if err != nil {
		logger.Error("Token purge failed", zap.Error(err))
		return
	}
	if n > 0 {
		logger.Info("Purged expired tokens", zap.Int64("count", n))
	}
}
