// Package reconcile merges a freshly scraped payload with the last published one.
//
// A collection that comes back empty is far more likely to be a broken selector
// than a genuinely empty shelf, so empty collections are replaced by the prior
// value. Scalars are always taken from the fresh scrape.
package reconcile

import (
	"github.com/rs/zerolog"

	"github.com/law-makers/profilefeed/pkg/models"
)

// CompositeKey is the section whose value is itself a set of sub-keys.
const CompositeKey = models.SectionMain

// Fallback records one section (or sub-key) that was carried forward.
type Fallback struct {
	Section models.SectionKey
	SubKey  models.SubKey
	// Recovered is false when the prior payload had nothing to carry either.
	Recovered bool
}

// Path renders the fallback location, e.g. "main.currentlyReading".
func (f Fallback) Path() string {
	if f.SubKey == "" {
		return string(f.Section)
	}
	return string(f.Section) + "." + string(f.SubKey)
}

// Report describes what a reconciliation did.
type Report struct {
	Fallbacks []Fallback
}

// Degraded reports whether any fallback found no prior value.
func (r Report) Degraded() bool {
	for _, f := range r.Fallbacks {
		if !f.Recovered {
			return true
		}
	}
	return false
}

// Paths lists the fallback locations in the order they were applied.
func (r Report) Paths() []string {
	paths := make([]string, 0, len(r.Fallbacks))
	for _, f := range r.Fallbacks {
		paths = append(paths, f.Path())
	}
	return paths
}

// Reconciler applies the carry-forward policy.
type Reconciler struct {
	logger zerolog.Logger
}

// New creates a Reconciler that writes fallback diagnostics to logger.
func New(logger zerolog.Logger) *Reconciler {
	return &Reconciler{logger: logger}
}

// Reconcile builds the payload to publish from fresh and prior.
//
// Only sections present in fresh appear in the result. A nil prior is treated
// as an empty prior. Neither input is modified.
func (r *Reconciler) Reconcile(fresh, prior *models.Payload) (*models.Payload, Report) {
	if prior == nil {
		prior = &models.Payload{}
	}
	final := &models.Payload{}
	var report Report
	if fresh == nil {
		return final, report
	}

	final.ToRead = carry(r, &report, models.SectionToRead, "", fresh.ToRead, prior.ToRead)
	final.Favorites = carry(r, &report, models.SectionFavorites, "", fresh.Favorites, prior.Favorites)
	final.Games = carry(r, &report, models.SectionGames, "", fresh.Games, prior.Games)

	if fresh.Main != nil {
		priorMain := prior.Main
		if priorMain == nil {
			priorMain = &models.Profile{}
		}
		main := &models.Profile{}
		main.CurrentlyReading = carry(r, &report, CompositeKey, models.SubCurrentlyReading,
			fresh.Main.CurrentlyReading, priorMain.CurrentlyReading)
		main.RecentlyRead = carry(r, &report, CompositeKey, models.SubRecentlyRead,
			fresh.Main.RecentlyRead, priorMain.RecentlyRead)
		main.ReadStyleSummary = fresh.Main.ReadStyleSummary
		main.ToReadCount = fresh.Main.ToReadCount
		final.Main = main
	}

	return final, report
}

// carry returns the value to publish for one collection location. Absent fresh
// values stay absent: a section that was never scraped is not reconciled.
func carry[T any](r *Reconciler, report *Report, section models.SectionKey, sub models.SubKey, fresh, prior []T) []T {
	shape := models.Schema[section]
	if sub != "" {
		shape = models.ProfileSchema[sub]
	}
	if !isFallbackEligibleAndEmpty(shape, fresh) {
		return fresh
	}

	fb := Fallback{Section: section, SubKey: sub, Recovered: len(prior) > 0}
	report.Fallbacks = append(report.Fallbacks, fb)

	event := r.logger.Warn()
	if !fb.Recovered {
		event = r.logger.Error()
	}
	event.
		Str("section", fb.Path()).
		Int("prior_count", len(prior)).
		Bool("recovered", fb.Recovered).
		Msg("Fresh section empty, falling back to prior payload")

	return clone(prior)
}

// isFallbackEligibleAndEmpty is true only for a present, zero-length collection.
// Falsy scalars such as 0 or "" never qualify.
func isFallbackEligibleAndEmpty[T any](shape models.Shape, value []T) bool {
	return shape == models.ShapeCollection && value != nil && len(value) == 0
}

func clone[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
