package domain

import (
	"context"
	"errors"
	"strings"
)

// Location is an observing site owned by a user.
type Location struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	// Timezone is a free-form IANA name. It is not validated on input; an
	// unknown zone only surfaces when something tries to format with it.
	Timezone string `json:"timezone,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// LocationInput is the body of a create or update request.
type LocationInput struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone,omitempty"`
	Notes     string  `json:"notes,omitempty"`
}

// Normalize trims the free-text fields and applies the default name.
func (in LocationInput) Normalize() LocationInput {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		in.Name = "New Location"
	}
	in.Timezone = strings.TrimSpace(in.Timezone)
	in.Notes = strings.TrimSpace(in.Notes)
	return in
}

// Validate checks coordinate ranges.
func (in LocationInput) Validate() error {
	if in.Latitude < -90 || in.Latitude > 90 {
		return errors.New("latitude must be within [-90, 90]")
	}
	if in.Longitude < -180 || in.Longitude > 180 {
		return errors.New("longitude must be within [-180, 180]")
	}
	return nil
}

// LocationRepository is the port for location persistence. Deleting a
// location must also delete its sessions and their logs.
type LocationRepository interface {
	ListLocations(ctx context.Context, userID int64) ([]Location, error)
	GetLocation(ctx context.Context, userID, id int64) (*Location, error)
	CreateLocation(ctx context.Context, userID int64, in LocationInput) (*Location, error)
	UpdateLocation(ctx context.Context, userID, id int64, in LocationInput) (*Location, error)
	DeleteLocation(ctx context.Context, userID, id int64) (bool, error)
}
