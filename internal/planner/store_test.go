package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"astroplanner/internal/domain"
)

func TestStoreReadsAreSnapshots(t *testing.T) {
	api := newFakeAPI()
	api.locations = []domain.Location{{ID: 1, Name: "Field"}}
	s := NewStore(api)
	require.NoError(t, s.Load(context.Background()))

	locs := s.Locations()
	locs[0].Name = "mutated"
	got, ok := s.Location(1)
	require.True(t, ok)
	assert.Equal(t, "Field", got.Name)
}

func TestStoreReplaceLogsIgnoresUnknownSession(t *testing.T) {
	s := NewStore(newFakeAPI())
	s.ReplaceLogs(42, []domain.ObservationLog{{ID: 1, SessionID: 42}})
	assert.Empty(t, s.Logs(42))
}

func TestStoreDeleteSessionPrunesLogs(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	api.sessions = []domain.Session{{ID: 7, LocationID: 1}}
	s := NewStore(api)
	require.NoError(t, s.Load(ctx))
	s.ReplaceLogs(7, []domain.ObservationLog{{ID: 1, SessionID: 7}})
	require.Len(t, s.Logs(7), 1)

	require.NoError(t, s.DeleteSession(ctx, 7))
	assert.Empty(t, s.Sessions())
	assert.Empty(t, s.Logs(7))
}

type failingDeletes struct {
	*fakeAPI
}

func (failingDeletes) DeleteLocation(context.Context, int64) error {
	return &domain.TransportError{Op: "DELETE /locations/1", Err: errors.New("timeout")}
}

func TestStoreFailedDeleteChangesNothing(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	api.locations = []domain.Location{{ID: 1, Name: "Field"}}
	api.sessions = []domain.Session{{ID: 7, LocationID: 1}}
	s := NewStore(failingDeletes{api})
	require.NoError(t, s.Load(ctx))

	_, err := s.DeleteLocation(ctx, 1)
	require.Error(t, err)
	assert.Len(t, s.Locations(), 1)
	assert.Len(t, s.Sessions(), 1)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Location not found", Describe(&domain.APIError{StatusCode: 404, Detail: "Location not found"}))
	assert.Equal(t, "Not Found", Describe(&domain.APIError{StatusCode: 404}))
	assert.Equal(t, "network error: reset", Describe(&domain.TransportError{Op: "GET /", Err: errors.New("reset")}))
	assert.Equal(t, "Pick a start time.", Describe(domain.Invalid("Pick a start time.")))
}
