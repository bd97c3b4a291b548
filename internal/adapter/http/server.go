package adapthttp

import (
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"astroplanner/internal/app"
)

// Services are the application services the server routes to.
type Services struct {
	Auth       *app.AuthService
	Locations  *app.LocationService
	Sessions   *app.SessionService
	Logs       *app.LogService
	Visibility *app.VisibilityService
	Forecast   *app.ForecastService
	Calendar   *app.CalendarService
	Geocode    *app.GeocodeService
}

// OIDCConfig holds single sign-on settings. The zero value disables SSO.
type OIDCConfig struct {
	Enabled      bool
	Provider     *oidc.Provider
	OAuth2Config oauth2.Config
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	svc        Services
	oidcConfig OIDCConfig
	logger     *zap.Logger
}

// New creates a Server wired to the given application services.
func New(svc Services, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{svc: svc, logger: logger.Named("http")}
}

// WithOIDC enables single sign-on.
func (s *Server) WithOIDC(cfg OIDCConfig) *Server {
	s.oidcConfig = cfg
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})

	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.Handle("POST /auth/logout", s.authMiddleware(http.HandlerFunc(s.handleLogout)))
	mux.Handle("GET /auth/me", s.authMiddleware(http.HandlerFunc(s.handleMe)))
	mux.HandleFunc("GET /auth/sso/login", s.handleSSOLogin)
	mux.HandleFunc("GET /auth/sso/callback", s.handleSSOCallback)

	protected := map[string]http.HandlerFunc{
		"GET /locations/{$}":                 s.handleListLocations,
		"POST /locations/{$}":                s.handleCreateLocation,
		"GET /locations/{id}":                s.handleGetLocation,
		"PUT /locations/{id}":                s.handleUpdateLocation,
		"DELETE /locations/{id}":             s.handleDeleteLocation,
		"GET /sessions/{$}":                  s.handleListSessions,
		"POST /sessions/{$}":                 s.handleCreateSession,
		"GET /sessions/{id}":                 s.handleGetSession,
		"PATCH /sessions/{id}":               s.handleUpdateSession,
		"DELETE /sessions/{id}":              s.handleDeleteSession,
		"GET /sessions/{id}/logs/{$}":        s.handleListLogs,
		"POST /sessions/{id}/logs/{$}":       s.handleCreateLog,
		"PATCH /sessions/{id}/logs/{logId}":  s.handleUpdateLog,
		"DELETE /sessions/{id}/logs/{logId}": s.handleDeleteLog,
		"GET /sessions/{id}/weather/{$}":     s.handleSessionWeather,
		"GET /targets/visible":               s.handleVisibleTargets,
		"GET /geocode/{$}":                   s.handleGeocode,
		"GET /planner/ics":                   s.handleExportICS,
	}
	for pattern, h := range protected {
		mux.Handle(pattern, s.authMiddleware(h))
	}

	return RequestLogger(s.logger)(withNoCache(mux))
}
