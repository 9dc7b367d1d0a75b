// Package pipeline loads each configured profile page in turn and runs its
// section extractor against the rendered DOM.
package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/law-makers/profilefeed/pkg/models"
)

// Page is a single browser tab.
type Page interface {
	// Goto navigates to url and waits for the document to load.
	Goto(ctx context.Context, url string) error

	// Document snapshots the current DOM for querying.
	Document(ctx context.Context) (*goquery.Document, error)

	// Close releases the tab. Safe to call more than once.
	Close() error
}

// Session opens pages in one shared browser context.
type Session interface {
	NewPage(ctx context.Context) (Page, error)
}

// Extractor turns a loaded page into a section value: *models.Profile for the
// main section, []models.Book or []models.Game for collections.
type Extractor func(ctx context.Context, doc *goquery.Document) (any, error)

// PageConfig binds a URL to the extractor that reads it and the section it fills.
type PageConfig struct {
	URL       string
	Section   models.SectionKey
	Extractor Extractor
}

// Pipeline runs page configs sequentially against one session.
type Pipeline struct {
	session  Session
	logger   zerolog.Logger
	progress io.Writer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for per-page diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithProgress renders a progress bar to w.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) { p.progress = w }
}

// New creates a Pipeline over session.
func New(session Session, opts ...Option) *Pipeline {
	p := &Pipeline{
		session: session,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run visits every page in order and collects the raw payload.
//
// The first failure aborts the run: a half-scraped payload is never returned,
// since sections not yet reached would be indistinguishable from empty ones.
func (p *Pipeline) Run(ctx context.Context, pages []PageConfig) (*models.Payload, error) {
	if p.session == nil {
		return nil, NewError(ErrCodeNavigation, "cannot open pages", ErrNoSession)
	}

	var bar *progressbar.ProgressBar
	if p.progress != nil {
		bar = progressbar.NewOptions(len(pages),
			progressbar.OptionSetWriter(p.progress),
			progressbar.OptionSetDescription("Scraping"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Finish()
	}

	payload := &models.Payload{}
	for _, pc := range pages {
		if err := ctx.Err(); err != nil {
			return nil, NewError(ErrCodeNavigation, "run cancelled", err).WithSection(pc.Section).WithURL(pc.URL)
		}
		if bar != nil {
			bar.Describe(string(pc.Section))
		}

		value, err := p.visit(ctx, pc)
		if err != nil {
			return nil, err
		}
		if err := payload.Set(pc.Section, value); err != nil {
			return nil, NewError(ErrCodeExtraction, "unexpected section value", err).WithSection(pc.Section).WithURL(pc.URL)
		}

		if bar != nil {
			_ = bar.Add(1)
		}
	}

	return payload, nil
}

// visit opens one page, extracts its section and always closes the page.
func (p *Pipeline) visit(ctx context.Context, pc PageConfig) (value any, err error) {
	start := time.Now()
	logger := p.logger.With().Str("section", string(pc.Section)).Str("url", pc.URL).Logger()

	page, err := p.session.NewPage(ctx)
	if err != nil {
		return nil, NewError(ErrCodeNavigation, "failed to open page", err).WithSection(pc.Section).WithURL(pc.URL)
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			logger.Debug().Err(cerr).Msg("Failed to close page")
		}
	}()

	logger.Debug().Msg("Navigating")
	if err := page.Goto(ctx, pc.URL); err != nil {
		return nil, NewError(ErrCodeNavigation, "navigation failed", err).WithSection(pc.Section).WithURL(pc.URL)
	}

	doc, err := page.Document(ctx)
	if err != nil {
		return nil, NewError(ErrCodeNavigation, "failed to read page DOM", err).WithSection(pc.Section).WithURL(pc.URL)
	}

	value, err = pc.Extractor(ctx, doc)
	if err != nil {
		return nil, NewError(ErrCodeExtraction, "extractor failed", err).WithSection(pc.Section).WithURL(pc.URL)
	}

	logger.Info().
		Dur("duration", time.Since(start)).
		Msg("Section extracted")

	return value, nil
}
