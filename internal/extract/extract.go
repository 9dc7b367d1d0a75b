// Package extract reads profile sections out of rendered page DOM snapshots.
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/profilefeed/internal/pipeline"
	urlutil "github.com/law-makers/profilefeed/internal/utils/url"
	"github.com/law-makers/profilefeed/pkg/models"
)

// DefaultMaxGames is how many recently played games are kept.
const DefaultMaxGames = 3

var validate = validator.New(validator.WithRequiredStructEnabled())

// Sources locates the scraped profiles.
type Sources struct {
	BooksBaseURL      string
	BooksID           string
	GamesURL          string
	GameSearchBaseURL string
	MaxGames          int
}

// Pages returns the page configs in scrape order: profile, to-read,
// favorites, games.
func Pages(src Sources) []pipeline.PageConfig {
	return []pipeline.PageConfig{
		{
			URL:       urlutil.ProfilePageURL(src.BooksBaseURL, "profile", src.BooksID),
			Section:   models.SectionMain,
			Extractor: Profile(src.BooksBaseURL),
		},
		{
			URL:       urlutil.ProfilePageURL(src.BooksBaseURL, "to-read", src.BooksID),
			Section:   models.SectionToRead,
			Extractor: ToRead(src.BooksBaseURL),
		},
		{
			URL:       urlutil.ProfilePageURL(src.BooksBaseURL, "favorites", src.BooksID),
			Section:   models.SectionFavorites,
			Extractor: Favorites(src.BooksBaseURL),
		},
		{
			URL:       src.GamesURL,
			Section:   models.SectionGames,
			Extractor: Games(src.GameSearchBaseURL, src.MaxGames),
		},
	}
}

// Profile extracts the composite main section.
func Profile(baseURL string) pipeline.Extractor {
	return func(ctx context.Context, doc *goquery.Document) (any, error) {
		return ParseProfile(ctx, doc, baseURL)
	}
}

// ToRead extracts the to-read shelf.
func ToRead(baseURL string) pipeline.Extractor {
	return func(ctx context.Context, doc *goquery.Document) (any, error) {
		return ParseShelf(ctx, doc, baseURL, false)
	}
}

// Favorites extracts the favorites shelf, including each book's tags.
func Favorites(baseURL string) pipeline.Extractor {
	return func(ctx context.Context, doc *goquery.Document) (any, error) {
		return ParseShelf(ctx, doc, baseURL, true)
	}
}

// Games extracts up to limit recently played games.
func Games(searchBase string, limit int) pipeline.Extractor {
	return func(ctx context.Context, doc *goquery.Document) (any, error) {
		return ParseGames(ctx, doc, searchBase, limit)
	}
}

// parseBook reads a book card from its cover link and image. The image alt
// text has the form "<title> by <author>".
func parseBook(link, img *goquery.Selection, baseURL string) models.Book {
	href, _ := link.Attr("href")
	alt, _ := img.Attr("alt")
	src, _ := img.Attr("src")

	title, author, _ := strings.Cut(alt, " by ")

	book := models.Book{
		Title:  strings.TrimSpace(title),
		Author: strings.TrimSpace(author),
		ImgURL: src,
	}
	if href != "" {
		book.BookURL = urlutil.ResolveURL(baseURL, href)
	}
	return book
}

// keep reports whether rec passes validation, logging the reason when it does not.
func keep(ctx context.Context, section string, index int, rec any) bool {
	if err := validate.Struct(rec); err != nil {
		log.Ctx(ctx).Warn().
			Str("section", section).
			Int("index", index).
			Err(err).
			Msg("Dropping invalid record")
		return false
	}
	return true
}

// text returns the selection's text with whitespace collapsed, close to what
// a browser reports as innerText for inline content.
func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

func missing(what string) error {
	return fmt.Errorf("%w: %s", pipeline.ErrElementMissing, what)
}
