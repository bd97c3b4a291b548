package memory

import (
	"context"
	"testing"
	"time"

	"astroplanner/internal/domain"
)

func TestLocationRepository(t *testing.T) {
	db := New()
	ctx := context.Background()
	userID := int64(1)

	first, err := db.CreateLocation(ctx, userID, domain.LocationInput{Name: "Backyard", Latitude: 43.6, Longitude: -79.4, Timezone: "America/Toronto"})
	if err != nil {
		t.Fatalf("CreateLocation: %v", err)
	}
	second, _ := db.CreateLocation(ctx, userID, domain.LocationInput{Name: "Dark site"})

	locs, err := db.ListLocations(ctx, userID)
	if err != nil {
		t.Fatalf("ListLocations: %v", err)
	}
	if len(locs) != 2 || locs[0].ID != second.ID {
		t.Fatalf("expected newest first, got %+v", locs)
	}

	// Other user sees nothing
	if other, _ := db.ListLocations(ctx, 999); len(other) != 0 {
		t.Error("expected 0 locations for other user")
	}
	if got, _ := db.GetLocation(ctx, 999, first.ID); got != nil {
		t.Error("expected nil for another user's location")
	}

	updated, err := db.UpdateLocation(ctx, userID, first.ID, domain.LocationInput{Name: "Roof"})
	if err != nil || updated == nil {
		t.Fatalf("UpdateLocation: %v %v", updated, err)
	}
	if updated.Name != "Roof" || updated.Timezone != "" {
		t.Errorf("expected full replacement, got %+v", updated)
	}

	if got, _ := db.UpdateLocation(ctx, userID, 12345, domain.LocationInput{}); got != nil {
		t.Error("expected nil updating a missing location")
	}
}

func TestDeleteLocationCascades(t *testing.T) {
	db := New()
	ctx := context.Background()
	userID := int64(1)

	keep, _ := db.CreateLocation(ctx, userID, domain.LocationInput{Name: "Keep"})
	drop, _ := db.CreateLocation(ctx, userID, domain.LocationInput{Name: "Drop"})

	start := time.Date(2024, 6, 2, 3, 0, 0, 0, time.UTC)
	s1, err := db.CreateSession(ctx, userID, domain.Session{TargetName: "Saturn", LocationID: drop.ID, ScheduledStart: start, Status: domain.StatusPlanned})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	s2, _ := db.CreateSession(ctx, userID, domain.Session{TargetName: "Mars", LocationID: keep.ID, ScheduledStart: start, Status: domain.StatusPlanned})
	if _, err := db.CreateLog(ctx, s1.ID, domain.LogInput{Notes: "gone"}); err != nil {
		t.Fatalf("CreateLog: %v", err)
	}
	db.CreateLog(ctx, s2.ID, domain.LogInput{Notes: "kept"})

	ok, err := db.DeleteLocation(ctx, userID, drop.ID)
	if err != nil || !ok {
		t.Fatalf("DeleteLocation: %v %v", ok, err)
	}

	sessions, _ := db.ListSessions(ctx, userID, domain.SessionFilter{})
	if len(sessions) != 1 || sessions[0].ID != s2.ID {
		t.Errorf("expected only session %d, got %+v", s2.ID, sessions)
	}
	if logs, _ := db.ListLogs(ctx, s1.ID); len(logs) != 0 {
		t.Errorf("expected logs of deleted session to be gone, got %d", len(logs))
	}
	if logs, _ := db.ListLogs(ctx, s2.ID); len(logs) != 1 {
		t.Errorf("expected 1 log on kept session, got %d", len(logs))
	}

	if ok, _ := db.DeleteLocation(ctx, userID, drop.ID); ok {
		t.Error("expected second delete to report false")
	}
}

func TestSessionRepository(t *testing.T) {
	db := New()
	ctx := context.Background()
	userID := int64(1)
	loc, _ := db.CreateLocation(ctx, userID, domain.LocationInput{Name: "Backyard"})

	if _, err := db.CreateSession(ctx, userID, domain.Session{LocationID: 999}); err == nil {
		t.Error("expected error for unknown location")
	}

	early := time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC)
	late := early.Add(24 * time.Hour)
	a, _ := db.CreateSession(ctx, userID, domain.Session{TargetName: "Saturn", LocationID: loc.ID, ScheduledStart: early, Status: domain.StatusPlanned})
	b, _ := db.CreateSession(ctx, userID, domain.Session{TargetName: "Mars", LocationID: loc.ID, ScheduledStart: late, Status: domain.StatusCompleted})

	all, _ := db.ListSessions(ctx, userID, domain.SessionFilter{})
	if len(all) != 2 || all[0].ID != b.ID {
		t.Fatalf("expected latest start first, got %+v", all)
	}

	planned, _ := db.ListSessions(ctx, userID, domain.SessionFilter{Status: domain.StatusPlanned})
	if len(planned) != 1 || planned[0].ID != a.ID {
		t.Errorf("expected status filter to match %d, got %+v", a.ID, planned)
	}

	a.Status = domain.StatusCancelled
	if got, _ := db.UpdateSession(ctx, userID, *a); got == nil || got.Status != domain.StatusCancelled {
		t.Errorf("UpdateSession: got %+v", got)
	}
	if got, _ := db.UpdateSession(ctx, 999, *a); got != nil {
		t.Error("expected nil updating another user's session")
	}

	db.CreateLog(ctx, b.ID, domain.LogInput{Notes: "n"})
	if ok, _ := db.DeleteSession(ctx, userID, b.ID); !ok {
		t.Fatal("expected DeleteSession to succeed")
	}
	if logs, _ := db.ListLogs(ctx, b.ID); len(logs) != 0 {
		t.Error("expected logs to be removed with their session")
	}
}

func TestLogRepository(t *testing.T) {
	db := New()
	ctx := context.Background()
	tick := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	db.now = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}

	rating := 4
	first, _ := db.CreateLog(ctx, 7, domain.LogInput{Notes: "first", Rating: &rating})
	second, _ := db.CreateLog(ctx, 7, domain.LogInput{Notes: "second"})

	logs, _ := db.ListLogs(ctx, 7)
	if len(logs) != 2 || logs[0].ID != second.ID {
		t.Fatalf("expected newest first, got %+v", logs)
	}

	rating = 1
	if *first.Rating != 4 {
		t.Error("stored rating must not alias the input")
	}

	updated, _ := db.UpdateLog(ctx, 7, first.ID, domain.LogInput{Notes: "edited"})
	if updated == nil || updated.Notes != "edited" || updated.Rating != nil {
		t.Errorf("UpdateLog: got %+v", updated)
	}
	if got, _ := db.UpdateLog(ctx, 8, first.ID, domain.LogInput{}); got != nil {
		t.Error("expected nil updating a log through the wrong session")
	}
	if ok, _ := db.DeleteLog(ctx, 7, first.ID); !ok {
		t.Error("expected DeleteLog to succeed")
	}
}

func TestTokenRepo(t *testing.T) {
	db := New()
	repo := db.NewTokenRepo()
	ctx := context.Background()
	now := time.Now()

	repo.Create(ctx, domain.AccessToken{ID: "live", UserID: 1, ExpiresAt: now.Add(time.Hour)})
	repo.Create(ctx, domain.AccessToken{ID: "old", UserID: 1, ExpiresAt: now.Add(-time.Minute)})

	n, err := repo.DeleteExpired(ctx, now)
	if err != nil || n != 1 {
		t.Fatalf("DeleteExpired: %d %v", n, err)
	}
	if got, _ := repo.Get(ctx, "live"); got == nil {
		t.Error("expected live token to survive")
	}
	repo.Delete(ctx, "live")
	if got, _ := repo.Get(ctx, "live"); got != nil {
		t.Error("expected token to be deleted")
	}
}

func TestUserRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	u, err := db.Create(ctx, "ada@example.com", "hash")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := db.Create(ctx, "ADA@example.com", "hash"); err == nil {
		t.Error("expected duplicate email to fail")
	}
	if got, _ := db.GetByEmail(ctx, "Ada@Example.com"); got == nil || got.ID != u.ID {
		t.Errorf("GetByEmail: got %+v", got)
	}
	if got, _ := db.GetByID(ctx, 42); got != nil {
		t.Error("expected nil for unknown user")
	}
}
