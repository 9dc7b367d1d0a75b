package output

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/law-makers/profilefeed/pkg/models"
)

var csvHeaders = []string{"section", "title", "author", "url", "image", "tags", "last_played", "playtime", "platform"}

// WriteCSV flattens every record in the payload to one row per book or game.
func WriteCSV(w io.Writer, payload *models.Payload) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeaders); err != nil {
		return err
	}

	books := func(section string, list []models.Book) error {
		for _, b := range list {
			row := []string{section, b.Title, b.Author, b.BookURL, b.ImgURL, strings.Join(b.Tags, ";"), "", "", ""}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
		return nil
	}

	if payload.Main != nil {
		if err := books("main.currentlyReading", payload.Main.CurrentlyReading); err != nil {
			return err
		}
		if err := books("main.recentlyRead", payload.Main.RecentlyRead); err != nil {
			return err
		}
	}
	if err := books(string(models.SectionToRead), payload.ToRead); err != nil {
		return err
	}
	if err := books(string(models.SectionFavorites), payload.Favorites); err != nil {
		return err
	}
	for _, g := range payload.Games {
		row := []string{string(models.SectionGames), g.Title, "", g.URL, g.ImgURL, "", g.LastPlayed, g.TotalPlaytime, g.Platform}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// SaveCSV writes the flattened payload to filepath. Returns an error on failure.
func SaveCSV(payload *models.Payload, filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := WriteCSV(file, payload); err != nil {
		return err
	}
	return file.Close()
}

// Summary renders scalar profile fields as "key=value" pairs for log lines.
func Summary(payload *models.Payload) string {
	if payload == nil || payload.Main == nil {
		return ""
	}
	var parts []string
	if payload.Main.ToReadCount != nil {
		parts = append(parts, "toReadCount="+strconv.Itoa(*payload.Main.ToReadCount))
	}
	if payload.Main.ReadStyleSummary != nil {
		parts = append(parts, "readStyleSummary="+strconv.Quote(*payload.Main.ReadStyleSummary))
	}
	return strings.Join(parts, " ")
}
