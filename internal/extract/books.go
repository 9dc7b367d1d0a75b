package extract

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/profilefeed/pkg/models"
)

const (
	profileSectionsSelector = "div.container .standard-pane > div"
	profilePaneSelector     = "div.container .standard-pane"
	bookLinkSelector        = "a.book-page-link"
	favoritePaneSelector    = ".book-pane"
	toReadPaneSelector      = "#up-next-book-panes .book-pane"
	tagSelector             = ".book-pane-tag-section > div:first-of-type > span.text-teal-700"
)

var nonDigits = regexp.MustCompile(`\D+`)

// ParseProfile reads the profile page: currently reading (first section),
// recently read (second), the to-read count from the third section's heading
// and the reading style summary from the pane holding the "Stats" button.
func ParseProfile(ctx context.Context, doc *goquery.Document, baseURL string) (*models.Profile, error) {
	sections := doc.Find(profileSectionsSelector)
	if sections.Length() < 3 {
		return nil, missing("profile sections (found " + strconv.Itoa(sections.Length()) + ", want 3)")
	}

	summaryPane := doc.Find(profilePaneSelector).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Find("button").FilterFunction(func(_ int, b *goquery.Selection) bool {
			return strings.Contains(strings.ToLower(text(b)), "stats")
		}).Length() > 0
	}).First()
	if summaryPane.Length() == 0 {
		return nil, missing("reading summary pane")
	}

	var summary strings.Builder
	summaryPane.ChildrenFiltered("span").Each(func(i int, s *goquery.Selection) {
		if i > 0 {
			summary.WriteByte(' ')
		}
		summary.WriteString(text(s))
	})

	heading := sections.Eq(2).ChildrenFiltered("h2").First()
	if heading.Length() == 0 {
		return nil, missing("to-read pile heading")
	}
	count, err := strconv.Atoi(nonDigits.ReplaceAllString(text(heading), ""))
	if err != nil {
		count = 0
	}

	return &models.Profile{
		CurrentlyReading: sectionBooks(ctx, sections.Eq(0), baseURL, models.SubCurrentlyReading),
		RecentlyRead:     sectionBooks(ctx, sections.Eq(1), baseURL, models.SubRecentlyRead),
		ReadStyleSummary: models.String(summary.String()),
		ToReadCount:      models.Int(count),
	}, nil
}

func sectionBooks(ctx context.Context, section *goquery.Selection, baseURL string, sub models.SubKey) []models.Book {
	books := []models.Book{}
	section.Find(bookLinkSelector).Each(func(i int, link *goquery.Selection) {
		book := parseBook(link, link.Find("img").First(), baseURL)
		if keep(ctx, string(models.SectionMain)+"."+string(sub), i, book) {
			books = append(books, book)
		}
	})
	return books
}

// ParseShelf reads a shelf page. Favorites panes carry tags; to-read panes do
// not, but their books still get an empty tag list.
func ParseShelf(ctx context.Context, doc *goquery.Document, baseURL string, withTags bool) ([]models.Book, error) {
	section, selector := models.SectionToRead, toReadPaneSelector
	if withTags {
		section, selector = models.SectionFavorites, favoritePaneSelector
	}

	books := []models.Book{}
	doc.Find(selector).Each(func(i int, pane *goquery.Selection) {
		book := parseBook(pane.Find(".book-cover a").First(), pane.Find(".book-cover img").First(), baseURL)
		book.Tags = []string{}
		if withTags {
			book.Tags = paneTags(ctx, pane, i)
		}
		if keep(ctx, string(section), i, book) {
			books = append(books, book)
		}
	})
	return books, nil
}

func paneTags(ctx context.Context, pane *goquery.Selection, index int) []string {
	tags := []string{}
	tagEls := pane.Find(tagSelector)
	if tagEls.Length() == 0 && pane.Find(".book-pane-tag-section").Length() == 0 {
		log.Ctx(ctx).Debug().Int("index", index).Msg("Book pane has no tag section")
		return tags
	}
	tagEls.Each(func(_ int, s *goquery.Selection) {
		if t := text(s); t != "" {
			tags = append(tags, t)
		}
	})
	return tags
}
