package planner

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"astroplanner/internal/domain"
	"astroplanner/internal/fetch"
)

// VisibilityKey is everything a visibility result depends on.
type VisibilityKey struct {
	LocationID int64
	LocalStart string
	Timezone   string
}

// Complete reports whether the key can be fetched. A key without a location
// or start time resolves to the empty set.
func (k VisibilityKey) Complete() bool {
	return k.LocationID != 0 && strings.TrimSpace(k.LocalStart) != ""
}

// VisibilityState is a snapshot of the resolver.
type VisibilityState struct {
	Key     VisibilityKey
	Targets []domain.VisibleTarget
	Loading bool
	Err     error
}

// VisibleNames lists the visible target names in source order.
func (s VisibilityState) VisibleNames() []string {
	return domain.VisibleNames(s.Targets)
}

// VisibilityResolver keeps the visible-target set in step with its key.
// Targets keep the order the source returned them in.
type VisibilityResolver struct {
	c *fetch.Coordinator[VisibilityKey, []domain.VisibleTarget]
}

// NewVisibilityResolver wires a resolver to the target API. onResult, when
// set, receives every applied result, including the empty set produced by
// an incomplete key or a failed fetch.
func NewVisibilityResolver(api TargetAPI, errs *ErrorSlot, logger *zap.Logger, onResult func(VisibilityKey, []domain.VisibleTarget)) *VisibilityResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	load := func(ctx context.Context, k VisibilityKey) ([]domain.VisibleTarget, error) {
		targets, err := api.VisibleTargets(ctx, k.LocationID, strings.TrimSpace(k.LocalStart), k.Timezone)
		if err != nil {
			return nil, err
		}
		return targets, nil
	}
	settle := func(k VisibilityKey, targets []domain.VisibleTarget, err error) {
		if err != nil {
			errs.Fail("Failed to load targets", err)
		}
		if onResult != nil {
			onResult(k, targets)
		}
	}
	return &VisibilityResolver{
		c: fetch.New(load, fetch.Options[VisibilityKey, []domain.VisibleTarget]{
			Complete: VisibilityKey.Complete,
			OnSettle: settle,
			Logger:   logger,
			Name:     "visibility",
		}),
	}
}

// Set moves the resolver to a new key.
func (r *VisibilityResolver) Set(k VisibilityKey) bool {
	return r.c.Set(k)
}

// State returns the current snapshot.
func (r *VisibilityResolver) State() VisibilityState {
	st := r.c.State()
	return VisibilityState{Key: st.Key, Targets: st.Result, Loading: st.Loading, Err: st.Err}
}

// Wait blocks until in-flight fetches finish.
func (r *VisibilityResolver) Wait() { r.c.Wait() }

// Close drops any in-flight result.
func (r *VisibilityResolver) Close() { r.c.Close() }
