// Package browser drives a headless Chrome through chromedp. A Session is one
// browser with one emulated client profile; each Page is a tab in it.
package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/profilefeed/internal/pipeline"
)

// Client profile defaults, matching a desktop Chrome on the US west coast.
const (
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
	DefaultLocale         = "en-US"
	DefaultTimezone       = "America/Los_Angeles"
	DefaultViewportWidth  = 1440
	DefaultViewportHeight = 850
	DefaultNavTimeout     = 30 * time.Second
)

// Options configures the browser and the client it emulates.
type Options struct {
	ChromePath     string
	Headless       bool
	UserAgent      string
	Proxy          string
	Locale         string
	Timezone       string
	ViewportWidth  int64
	ViewportHeight int64
	NavTimeout     time.Duration
	ExtraArgs      []chromedp.ExecAllocatorOption
}

func (o *Options) setDefaults() {
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Locale == "" {
		o.Locale = DefaultLocale
	}
	if o.Timezone == "" {
		o.Timezone = DefaultTimezone
	}
	if o.ViewportWidth <= 0 {
		o.ViewportWidth = DefaultViewportWidth
	}
	if o.ViewportHeight <= 0 {
		o.ViewportHeight = DefaultViewportHeight
	}
	if o.NavTimeout <= 0 {
		o.NavTimeout = DefaultNavTimeout
	}
}

// Session owns the browser process.
type Session struct {
	opts          Options
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	mu            sync.Mutex
	closed        bool
}

// Launch starts Chrome and returns a session ready to open pages.
func Launch(ctx context.Context, opts Options) (*Session, error) {
	opts.setDefaults()

	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("lang", opts.Locale),
		chromedp.UserAgent(opts.UserAgent),
		chromedp.WindowSize(int(opts.ViewportWidth), int(opts.ViewportHeight)),
	}

	if path := FindChrome(opts.ChromePath); path != "" {
		allocOpts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(path)}, allocOpts...)
	}

	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}

	if opts.Proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.Proxy))
	}

	allocOpts = append(allocOpts, opts.ExtraArgs...)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// The first Run starts the browser process.
	var product string
	if err := chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, prod, _, _, _, err := cdpbrowser.GetVersion().Do(ctx)
		product = prod
		return err
	})); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	log.Info().
		Str("product", product).
		Bool("headless", opts.Headless).
		Str("locale", opts.Locale).
		Str("timezone", opts.Timezone).
		Msg("Browser ready")

	return &Session{
		opts:          opts,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// NewPage opens a tab with the session's client emulation applied.
func (s *Session) NewPage(ctx context.Context) (pipeline.Page, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, pipeline.ErrNoSession
	}

	tabCtx, tabCancel := chromedp.NewContext(s.browserCtx)
	stop := context.AfterFunc(ctx, tabCancel)

	err := chromedp.Run(tabCtx,
		emulation.SetUserAgentOverride(s.opts.UserAgent).WithAcceptLanguage(s.opts.Locale),
		emulation.SetLocaleOverride().WithLocale(s.opts.Locale),
		emulation.SetTimezoneOverride(s.opts.Timezone),
		chromedp.EmulateViewport(s.opts.ViewportWidth, s.opts.ViewportHeight),
	)
	if err != nil {
		stop()
		tabCancel()
		return nil, fmt.Errorf("failed to prepare tab: %w", err)
	}

	return &Page{ctx: tabCtx, cancel: tabCancel, stop: stop, navTimeout: s.opts.NavTimeout}, nil
}

// Close shuts down the browser. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	s.browserCancel()
	s.allocCancel()

	log.Debug().Msg("Browser closed")
	return nil
}

// Page is one browser tab.
type Page struct {
	ctx        context.Context
	cancel     context.CancelFunc
	stop       func() bool
	navTimeout time.Duration
	once       sync.Once
}

// Goto navigates and waits for the load event, bounded by the navigation timeout.
func (p *Page) Goto(ctx context.Context, rawURL string) error {
	runCtx, cancel := context.WithTimeout(p.ctx, p.navTimeout)
	defer cancel()
	defer context.AfterFunc(ctx, cancel)()

	if err := chromedp.Run(runCtx, chromedp.Navigate(rawURL)); err != nil {
		return fmt.Errorf("navigate %s: %w", rawURL, err)
	}
	return nil
}

// Document snapshots the rendered DOM.
func (p *Page) Document(ctx context.Context) (*goquery.Document, error) {
	runCtx, cancel := context.WithTimeout(p.ctx, p.navTimeout)
	defer cancel()
	defer context.AfterFunc(ctx, cancel)()

	var html, location string
	if err := chromedp.Run(runCtx,
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("read DOM: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse DOM: %w", err)
	}
	if u, err := url.Parse(location); err == nil {
		doc.Url = u
	}
	return doc, nil
}

// Close closes the tab.
func (p *Page) Close() error {
	var err error
	p.once.Do(func() {
		p.stop()
		err = chromedp.Cancel(p.ctx)
		p.cancel()
	})
	return err
}
