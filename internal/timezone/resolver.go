package timezone

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/nudgebot/api/internal/timeutil"
)

// Inferrer is the external inference collaborator consulted when the curated
// table has no entry for a location string. Implementations may call an AI
// model; a nil Inferrer is valid and skips the fallback.
type Inferrer interface {
	InferTimezone(ctx context.Context, locationText string) (string, error)
}

// PreferenceStore persists the per-owner timezone preference.
type PreferenceStore interface {
	Get(ctx context.Context, owner string) (string, error)
	Upsert(ctx context.Context, owner, timezone string) error
}

// Resolver maps free-text locations to IANA timezone identifiers and manages
// per-owner preferences. Resolve never fails: reminder creation must not
// block on timezone ambiguity, so unresolvable input degrades to the process
// default.
type Resolver struct {
	inferrer  Inferrer
	prefs     PreferenceStore
	defaultTZ string
	logger    *zap.Logger
}

func NewResolver(inferrer Inferrer, prefs PreferenceStore, defaultTZ string, logger *zap.Logger) *Resolver {
	if _, err := timeutil.LoadLocation(defaultTZ); err != nil {
		logger.Warn("default timezone is not resolvable, using UTC", zap.String("timezone", defaultTZ))
		defaultTZ = "UTC"
	}
	return &Resolver{
		inferrer:  inferrer,
		prefs:     prefs,
		defaultTZ: defaultTZ,
		logger:    logger,
	}
}

// Resolve turns free-text location input into an IANA identifier.
// Lookup order: curated table, literal IANA name, inference fallback,
// process default.
func (r *Resolver) Resolve(ctx context.Context, locationText string) string {
	normalized := strings.ToLower(strings.TrimSpace(locationText))
	if normalized == "" {
		return r.defaultTZ
	}

	if tz, ok := lookupTable[normalized]; ok {
		return tz
	}

	// The user may have typed an IANA identifier verbatim.
	if _, err := timeutil.LoadLocation(locationText); err == nil {
		return locationText
	}

	if r.inferrer != nil {
		tz, err := r.inferrer.InferTimezone(ctx, locationText)
		if err != nil {
			r.logger.Warn("timezone inference failed",
				zap.String("location", locationText), zap.Error(err))
		} else if _, err := timeutil.LoadLocation(tz); err != nil {
			r.logger.Warn("timezone inference returned unresolvable identifier",
				zap.String("location", locationText), zap.String("inferred", tz))
		} else {
			return tz
		}
	}

	return r.defaultTZ
}

// Preference returns the owner's persisted timezone, or the process default
// if unset or unresolvable.
func (r *Resolver) Preference(ctx context.Context, owner string) string {
	tz, err := r.prefs.Get(ctx, owner)
	if err != nil || tz == "" {
		return r.defaultTZ
	}
	if _, err := timeutil.LoadLocation(tz); err != nil {
		r.logger.Warn("stored timezone preference is unresolvable, falling back to default",
			zap.String("owner", owner), zap.String("timezone", tz))
		return r.defaultTZ
	}
	return tz
}

// SetPreference validates and upserts the owner's timezone. Idempotent.
func (r *Resolver) SetPreference(ctx context.Context, owner, tz string) error {
	if _, err := timeutil.LoadLocation(tz); err != nil {
		return err
	}
	return r.prefs.Upsert(ctx, owner, tz)
}

// Default exposes the process default timezone.
func (r *Resolver) Default() string {
	return r.defaultTZ
}
