package planner

import (
	"context"

	"astroplanner/internal/domain"
)

// LocationAPI is the server surface for locations.
type LocationAPI interface {
	ListLocations(ctx context.Context) ([]domain.Location, error)
	CreateLocation(ctx context.Context, in domain.LocationInput) (*domain.Location, error)
	UpdateLocation(ctx context.Context, id int64, in domain.LocationInput) (*domain.Location, error)
	DeleteLocation(ctx context.Context, id int64) error
}

// SessionAPI is the server surface for sessions.
type SessionAPI interface {
	ListSessions(ctx context.Context) ([]domain.Session, error)
	CreateSession(ctx context.Context, in domain.SessionInput) (*domain.Session, error)
	UpdateSession(ctx context.Context, id int64, patch domain.SessionPatch) (*domain.Session, error)
	DeleteSession(ctx context.Context, id int64) error
}

// LogAPI is the server surface for observation logs of one session.
type LogAPI interface {
	ListLogs(ctx context.Context, sessionID int64) ([]domain.ObservationLog, error)
	CreateLog(ctx context.Context, sessionID int64, in domain.LogInput) (*domain.ObservationLog, error)
	UpdateLog(ctx context.Context, sessionID, logID int64, in domain.LogInput) (*domain.ObservationLog, error)
	DeleteLog(ctx context.Context, sessionID, logID int64) error
}

// WeatherAPI fetches the forecast attached to a session.
type WeatherAPI interface {
	SessionWeather(ctx context.Context, sessionID int64, zone string) (*domain.WeatherSnapshot, error)
}

// TargetAPI fetches the visibility set for a location at a local time.
type TargetAPI interface {
	VisibleTargets(ctx context.Context, locationID int64, whenLocal, zone string) ([]domain.VisibleTarget, error)
}

// StoreAPI is what the entity store writes through to.
type StoreAPI interface {
	LocationAPI
	SessionAPI
	LogAPI
}

// API is the full server surface the planner consumes.
type API interface {
	StoreAPI
	WeatherAPI
	TargetAPI
}
