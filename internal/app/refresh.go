package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/law-makers/profilefeed/internal/extract"
	"github.com/law-makers/profilefeed/internal/pipeline"
	"github.com/law-makers/profilefeed/internal/reqctx"
	"github.com/law-makers/profilefeed/internal/utils/output"
	"github.com/law-makers/profilefeed/pkg/models"
)

// Status is the outcome of a refresh.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Result reports one refresh run.
type Result struct {
	RunID     string         `json:"runId"`
	Status    Status         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Duration  time.Duration  `json:"duration"`
	Local     bool           `json:"local"`
	ETag      string         `json:"etag,omitempty"`
	Location  string         `json:"location,omitempty"`
	Fallbacks []string       `json:"fallbacks"`
	Degraded  bool           `json:"degraded"`
	Counts    map[string]int `json:"counts,omitempty"`
	Error     string         `json:"error,omitempty"`
	ErrorCode string         `json:"errorCode,omitempty"`

	Payload *models.Payload `json:"-"`
}

// Refresh runs one scrape, reconcile and publish cycle.
//
// In local mode the prior document is never fetched and nothing is written
// to the store: the fresh payload is reconciled against an empty prior and
// emitted to the configured output. Only one refresh runs at a time; a
// concurrent call returns ErrBusy.
func (a *Application) Refresh(ctx context.Context) (*Result, error) {
	if !a.runMu.TryLock() {
		return nil, ErrBusy
	}
	defer a.runMu.Unlock()

	ctx = reqctx.WithRunContext(ctx)
	rc := reqctx.GetRunContext(ctx)
	logger := a.runLogger(ctx)
	ctx = logger.WithContext(ctx)

	ctx, cancel := context.WithTimeout(ctx, a.Config.RunTimeout)
	defer cancel()

	result := &Result{
		RunID:     rc.RunID,
		Local:     a.Config.Local,
		Fallbacks: []string{},
	}
	finish := func(err error) (*Result, error) {
		result.Timestamp = time.Now().UTC()
		result.Duration = rc.Elapsed()
		if err != nil {
			result.Status = StatusFailed
			result.Error = err.Error()
			result.ErrorCode = string(pipeline.CodeOf(err))
			logger.Error().Err(err).Str("code", result.ErrorCode).Dur("duration", result.Duration).Msg("Refresh failed")
			a.setLast(result)
			return result, reqctx.NewRunError(ctx, err)
		}
		result.Status = StatusOK
		logger.Info().
			Str("etag", result.ETag).
			Str("profile", output.Summary(result.Payload)).
			Strs("fallbacks", result.Fallbacks).
			Dur("duration", result.Duration).
			Msg("Refresh complete")
		a.setLast(result)
		return result, nil
	}

	logger.Info().Bool("local", a.Config.Local).Msg("Refresh started")

	fresh, err := a.scrape(ctx, logger)
	if err != nil {
		return finish(err)
	}

	prior := &models.Payload{}
	if !a.Config.Local {
		if a.Publisher == nil {
			return finish(pipeline.NewError(pipeline.ErrCodePublish, "no blob store configured", nil))
		}
		prior, err = a.Publisher.FetchPrior(ctx)
		if err != nil {
			return finish(fmt.Errorf("fetch prior payload: %w", err))
		}
	}

	final, report := a.Reconciler.Reconcile(fresh, prior)
	result.Payload = final
	result.Fallbacks = report.Paths()
	result.Degraded = report.Degraded()
	result.Counts = counts(final)

	if a.Config.Local {
		if err := a.emit(final); err != nil {
			return finish(fmt.Errorf("write local output: %w", err))
		}
		return finish(nil)
	}

	receipt, err := a.Publisher.Publish(ctx, final)
	if err != nil {
		return finish(err)
	}
	result.ETag = receipt.ETag
	result.Location = receipt.Location
	return finish(nil)
}

// scrape launches a browser, runs every page and always closes the browser.
func (a *Application) scrape(ctx context.Context, logger zerolog.Logger) (*models.Payload, error) {
	session, err := a.launch(ctx, a.BrowserOptions())
	if err != nil {
		return nil, pipeline.NewError(pipeline.ErrCodeNavigation, "failed to launch browser", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("Failed to close browser")
		}
	}()

	opts := []pipeline.Option{pipeline.WithLogger(logger)}
	if a.progress != nil {
		opts = append(opts, pipeline.WithProgress(a.progress))
	}
	return pipeline.New(session, opts...).Run(ctx, extract.Pages(a.Sources()))
}

// emit writes the would-be document for local inspection.
func (a *Application) emit(payload *models.Payload) error {
	if a.Config.Output == "" {
		if a.Config.Format == "csv" {
			return output.WriteCSV(a.stdout, payload)
		}
		return output.WriteJSON(a.stdout, payload, true)
	}

	var err error
	if a.Config.Format == "csv" {
		err = output.SaveCSV(payload, a.Config.Output)
	} else {
		err = output.SaveJSON(payload, a.Config.Output)
	}
	if err == nil {
		a.Logger.Info().Str("path", a.Config.Output).Msg("Local document written")
	}
	return err
}

func counts(p *models.Payload) map[string]int {
	c := map[string]int{}
	for _, key := range []models.SectionKey{models.SectionToRead, models.SectionFavorites, models.SectionGames} {
		if n := p.Len(key); n >= 0 {
			c[string(key)] = n
		}
	}
	if p.Main != nil {
		if p.Main.CurrentlyReading != nil {
			c["main.currentlyReading"] = len(p.Main.CurrentlyReading)
		}
		if p.Main.RecentlyRead != nil {
			c["main.recentlyRead"] = len(p.Main.RecentlyRead)
		}
	}
	return c
}

