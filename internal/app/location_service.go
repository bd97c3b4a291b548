package app

import (
	"context"

	"astroplanner/internal/domain"
)

// LocationService encapsulates observing site use cases.
type LocationService struct {
	repo domain.LocationRepository
}

// NewLocationService creates a LocationService backed by the given repository.
func NewLocationService(repo domain.LocationRepository) *LocationService {
	return &LocationService{repo: repo}
}

// List returns the user's locations, newest first.
func (s *LocationService) List(ctx context.Context, userID int64) ([]domain.Location, error) {
	return s.repo.ListLocations(ctx, userID)
}

// Get returns one location.
func (s *LocationService) Get(ctx context.Context, userID, id int64) (*domain.Location, error) {
	loc, err := s.repo.GetLocation(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, ErrLocationNotFound
	}
	return loc, nil
}

// Create validates and stores a new location.
func (s *LocationService) Create(ctx context.Context, userID int64, in domain.LocationInput) (*domain.Location, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, domain.Invalid(err.Error())
	}
	return s.repo.CreateLocation(ctx, userID, in)
}

// Update replaces every field of a location.
func (s *LocationService) Update(ctx context.Context, userID, id int64, in domain.LocationInput) (*domain.Location, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, domain.Invalid(err.Error())
	}
	loc, err := s.repo.UpdateLocation(ctx, userID, id, in)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, ErrLocationNotFound
	}
	return loc, nil
}

// Delete removes a location together with its sessions and their logs.
func (s *LocationService) Delete(ctx context.Context, userID, id int64) error {
	ok, err := s.repo.DeleteLocation(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrLocationNotFound
	}
	return nil
}
