package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/law-makers/profilefeed/internal/browser"
	"github.com/law-makers/profilefeed/internal/config"
	"github.com/law-makers/profilefeed/internal/pipeline"
	"github.com/law-makers/profilefeed/internal/storage"
	"github.com/law-makers/profilefeed/pkg/models"
)

const (
	profileHTML = `<div class="container">
		<div class="standard-pane"><span>Fast</span><span>Reader</span><button>Stats</button></div>
		<div class="standard-pane">
			<div><a class="book-page-link" href="/books/1"><img alt="Dune by Frank Herbert" src="d.jpg"></a></div>
			<div></div>
			<div><h2>12 books</h2></div>
		</div>
	</div>`
	toReadEmptyHTML = `<div id="up-next-book-panes"></div>`
	favoritesHTML   = `<div class="book-pane"><div class="book-cover"><a href="/books/2"><img alt="Emma by Jane Austen" src="e.jpg"></a></div></div>`
	gamesHTML       = `<div id="app-Profile"><div class="user-container"><ul class="list-unordered-base">
		<li><div><div class="game-info"><div class="box"><h3><a href="https://www.exophase.com/game/hades/">Hades</a></h3></div></div></div></li>
	</ul></div></div>`
)

func testConfig() *config.Config {
	return &config.Config{
		LogLevel:          "error",
		BooksBaseURL:      "https://books.example",
		BooksID:           "reader",
		GamesURL:          "https://games.example/reader",
		GameSearchBaseURL: config.DefaultGameSearchBaseURL,
		MaxGames:          3,
		Store:             config.StoreFile,
		BucketDir:         "feed",
		Format:            "json",
		Headless:          true,
		NavTimeout:        time.Second,
		RunTimeout:        10 * time.Second,
		Addr:              ":0",
	}
}

func defaultPages() map[string]string {
	return map[string]string{
		"https://books.example/profile/reader":   profileHTML,
		"https://books.example/to-read/reader":   toReadEmptyHTML,
		"https://books.example/favorites/reader": favoritesHTML,
		"https://games.example/reader":           gamesHTML,
	}
}

type fakePage struct {
	s    *fakeSession
	html string
}

func (p *fakePage) Goto(_ context.Context, url string) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	html, ok := p.s.pages[url]
	if !ok {
		return errors.New("net::ERR_NAME_NOT_RESOLVED")
	}
	p.html = html
	return nil
}

func (p *fakePage) Document(context.Context) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(p.html))
}

func (p *fakePage) Close() error { return nil }

type fakeSession struct {
	mu     sync.Mutex
	pages  map[string]string
	closed bool
}

func (s *fakeSession) NewPage(context.Context) (pipeline.Page, error) {
	return &fakePage{s: s}, nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func launcherFor(s *fakeSession) Launcher {
	return func(context.Context, browser.Options) (Session, error) { return s, nil }
}

type failingPut struct {
	*storage.MemoryStore
}

func (failingPut) Put(context.Context, string, []byte, string) (string, error) {
	return "", errors.New("SlowDown: please reduce your request rate")
}

func newTestApp(t *testing.T, cfg *config.Config, opts ...Option) *Application {
	t.Helper()
	a, err := New(context.Background(), cfg, opts...)
	require.NoError(t, err)
	return a
}

func TestRefresh_PublishesWithFallback(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	prior := `{"toRead":[{"title":"Kindred","author":"Octavia E. Butler","bookUrl":"","imgUrl":""}],"main":{"recentlyRead":[{"title":"Emma","author":"","bookUrl":"","imgUrl":""}],"toReadCount":3}}`
	_, err := store.Put(ctx, "feed/data.json", []byte(prior), "application/json")
	require.NoError(t, err)

	session := &fakeSession{pages: defaultPages()}
	a := newTestApp(t, testConfig(), WithStore(store), WithLauncher(launcherFor(session)))

	result, err := a.Refresh(ctx)
	require.NoError(t, err)
	require.Equal(t, StatusOK, result.Status)
	require.NotEmpty(t, result.ETag)
	require.NotEmpty(t, result.RunID)
	require.ElementsMatch(t, []string{"toRead", "main.recentlyRead"}, result.Fallbacks)
	require.False(t, result.Degraded)
	require.True(t, session.closed)

	raw, err := store.Get(ctx, "feed/data.json")
	require.NoError(t, err)
	var published models.Payload
	require.NoError(t, json.Unmarshal(raw, &published))

	require.Equal(t, "Kindred", published.ToRead[0].Title)
	require.Equal(t, "Emma", published.Main.RecentlyRead[0].Title)
	require.Equal(t, "Dune", published.Main.CurrentlyReading[0].Title)
	require.Equal(t, 12, *published.Main.ToReadCount)
	require.Equal(t, "Fast Reader", *published.Main.ReadStyleSummary)
	require.Equal(t, "Hades", published.Games[0].Title)
	require.Equal(t, 1, result.Counts["favorites"])
	require.Same(t, result, a.LastResult())
}

func TestRefresh_LocalNeverTouchesStore(t *testing.T) {
	cfg := testConfig()
	cfg.Local = true
	store := storage.NewMemoryStore()
	var out bytes.Buffer
	a := newTestApp(t, cfg, WithStore(store), WithStdout(&out),
		WithLauncher(launcherFor(&fakeSession{pages: defaultPages()})))

	result, err := a.Refresh(context.Background())
	require.NoError(t, err)
	require.True(t, result.Local)
	require.Empty(t, result.ETag)

	stats := store.Stats()
	require.Equal(t, uint64(0), stats["gets"])
	require.Equal(t, uint64(0), stats["puts"])

	var emitted models.Payload
	require.NoError(t, json.Unmarshal(out.Bytes(), &emitted))
	require.True(t, emitted.Has(models.SectionFavorites))
	require.False(t, emitted.Has(models.SectionToRead), "empty section without prior is absent")
	require.Equal(t, []string{"toRead", "main.recentlyRead"}, result.Fallbacks)
	require.True(t, result.Degraded)
}

func TestRefresh_ExtractionFailureNeverPublishes(t *testing.T) {
	pages := defaultPages()
	pages["https://books.example/profile/reader"] = `<p>maintenance</p>`
	store := storage.NewMemoryStore()
	a := newTestApp(t, testConfig(), WithStore(store), WithLauncher(launcherFor(&fakeSession{pages: pages})))

	result, err := a.Refresh(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, pipeline.ExtractionFailure)
	require.Equal(t, StatusFailed, result.Status)
	require.Equal(t, "EXTRACTION", result.ErrorCode)
	require.Equal(t, uint64(0), store.Stats()["puts"])
	require.Equal(t, uint64(0), store.Stats()["gets"])
}

func TestRefresh_PublishFailure(t *testing.T) {
	store := failingPut{storage.NewMemoryStore()}
	a := newTestApp(t, testConfig(), WithStore(store), WithLauncher(launcherFor(&fakeSession{pages: defaultPages()})))

	result, err := a.Refresh(context.Background())
	require.ErrorIs(t, err, pipeline.PublishFailure)
	require.Equal(t, "PUBLISH", result.ErrorCode)
	require.Contains(t, result.Error, "SlowDown")
}

func TestRefresh_LaunchFailure(t *testing.T) {
	launch := func(context.Context, browser.Options) (Session, error) {
		return nil, errors.New("chrome not found")
	}
	a := newTestApp(t, testConfig(), WithStore(storage.NewMemoryStore()), WithLauncher(launch))

	_, err := a.Refresh(context.Background())
	require.ErrorIs(t, err, pipeline.NavigationFailure)
}

func TestRefresh_RejectsConcurrentRun(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	session := &fakeSession{pages: defaultPages()}
	launch := func(context.Context, browser.Options) (Session, error) {
		close(entered)
		<-release
		return session, nil
	}
	a := newTestApp(t, testConfig(), WithStore(storage.NewMemoryStore()), WithLauncher(launch))

	done := make(chan error, 1)
	go func() {
		_, err := a.Refresh(context.Background())
		done <- err
	}()

	<-entered
	_, err := a.Refresh(context.Background())
	require.ErrorIs(t, err, ErrBusy)

	close(release)
	require.NoError(t, <-done)
}

func TestNew_LocalWithoutStore(t *testing.T) {
	cfg := testConfig()
	cfg.Local = true
	a := newTestApp(t, cfg)
	require.Nil(t, a.Store)
	require.Nil(t, a.Publisher)
	require.NoError(t, a.Close(context.Background()))
}

func TestNew_FileStoreFromConfig(t *testing.T) {
	cfg := testConfig()
	cfg.StoreDir = t.TempDir()
	a := newTestApp(t, cfg)
	require.IsType(t, &storage.FileStore{}, a.Store)
	require.Equal(t, "feed/data.json", a.Publisher.Key())
}

func TestS3OptionsFromConfig(t *testing.T) {
	cfg := testConfig()
	cfg.AWSRegion = "us-west-2"
	cfg.S3Endpoint = "http://localhost:9000"
	cfg.S3PathStyle = true
	cfg.S3AccessKeyID = "minio"
	cfg.S3SecretAccessKey = "minio-secret"

	require.Equal(t, storage.S3Options{
		Region:          "us-west-2",
		Endpoint:        "http://localhost:9000",
		PathStyle:       true,
		AccessKeyID:     "minio",
		SecretAccessKey: "minio-secret",
	}, s3Options(cfg))
}

func TestRefresh_CompletionLogCarriesProfileSummary(t *testing.T) {
	cfg := testConfig()
	cfg.LogLevel = "info"
	a := newTestApp(t, cfg, WithStore(storage.NewMemoryStore()),
		WithLauncher(launcherFor(&fakeSession{pages: defaultPages()})))
	var logs bytes.Buffer
	logger := zerolog.New(&logs).Level(zerolog.InfoLevel)
	a.Logger = &logger

	_, err := a.Refresh(context.Background())
	require.NoError(t, err)

	var complete map[string]any
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["message"] == "Refresh complete" {
			complete = entry
		}
	}
	require.NotNil(t, complete, logs.String())
	require.Equal(t, `toReadCount=12 readStyleSummary="Fast Reader"`, complete["profile"])
	require.NotEmpty(t, complete["run_id"])
}
