package extract

import (
	"context"
	"regexp"

	"github.com/PuerkitoBio/goquery"

	urlutil "github.com/law-makers/profilefeed/internal/utils/url"
	"github.com/law-makers/profilefeed/pkg/models"
)

// DefaultGameSearchBaseURL is the search page each game's url points at.
const DefaultGameSearchBaseURL = "https://thegamesdb.net/search.php?name="

const (
	gameItemSelector     = "#app-Profile .user-container .list-unordered-base li > div"
	gameTitleSelector    = `.game-info .box h3 a[href^="https://www.exophase.com/game/"]`
	gameImageSelector    = ".col-image .image img"
	gameLastPlayed       = ".lastplayed"
	gamePlaytimeSelector = ".game-info .box .hours"
	gamePlatformSelector = ".game-info .box .platforms .inline-pf"
)

// gameImageSize matches the size letter after "games/" in a cover URL.
var gameImageSize = regexp.MustCompile(`(games/).`)

// ParseGames reads the first limit entries of the recently played list.
func ParseGames(ctx context.Context, doc *goquery.Document, searchBase string, limit int) ([]models.Game, error) {
	if limit <= 0 {
		limit = DefaultMaxGames
	}
	if searchBase == "" {
		searchBase = DefaultGameSearchBaseURL
	}

	items := doc.Find(gameItemSelector)
	if items.Length() > limit {
		items = items.Slice(0, limit)
	}

	games := []models.Game{}
	items.Each(func(i int, item *goquery.Selection) {
		src, _ := item.Find(gameImageSelector).First().Attr("src")
		title := text(item.Find(gameTitleSelector).First())

		game := models.Game{
			Title:         title,
			ImgURL:        LargeGameImage(src),
			LastPlayed:    text(item.Find(gameLastPlayed).First()),
			TotalPlaytime: text(item.Find(gamePlaytimeSelector).First()),
			Platform:      text(item.Find(gamePlatformSelector).First()),
			URL:           urlutil.SearchURL(searchBase, title),
		}
		if keep(ctx, string(models.SectionGames), i, game) {
			games = append(games, game)
		}
	})
	return games, nil
}

// LargeGameImage rewrites the first "games/<size>" segment to the large variant.
func LargeGameImage(src string) string {
	loc := gameImageSize.FindStringSubmatchIndex(src)
	if loc == nil {
		return src
	}
	return src[:loc[0]] + src[loc[2]:loc[3]] + "l" + src[loc[1]:]
}
