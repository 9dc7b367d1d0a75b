package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SectionKey names an independently reconcilable part of the published document.
type SectionKey string

const (
	SectionMain      SectionKey = "main"
	SectionToRead    SectionKey = "toRead"
	SectionFavorites SectionKey = "favorites"
	SectionGames     SectionKey = "games"
)

// SubKey names a field inside the composite main section.
type SubKey string

const (
	SubCurrentlyReading SubKey = "currentlyReading"
	SubRecentlyRead     SubKey = "recentlyRead"
	SubReadStyleSummary SubKey = "readStyleSummary"
	SubToReadCount      SubKey = "toReadCount"
)

// Shape declares how a section value is stored and whether it may fall back.
type Shape int

const (
	ShapeScalar Shape = iota
	ShapeCollection
	ShapeComposite
)

func (s Shape) String() string {
	switch s {
	case ShapeCollection:
		return "collection"
	case ShapeComposite:
		return "composite"
	default:
		return "scalar"
	}
}

// Schema is the fixed set of top-level sections and their shapes.
var Schema = map[SectionKey]Shape{
	SectionMain:      ShapeComposite,
	SectionToRead:    ShapeCollection,
	SectionFavorites: ShapeCollection,
	SectionGames:     ShapeCollection,
}

// ProfileSchema declares the shapes of the sub-keys inside SectionMain.
var ProfileSchema = map[SubKey]Shape{
	SubCurrentlyReading: ShapeCollection,
	SubRecentlyRead:     ShapeCollection,
	SubReadStyleSummary: ShapeScalar,
	SubToReadCount:      ShapeScalar,
}

// Book is a single book card scraped from the reading profile.
type Book struct {
	Title   string   `json:"title" validate:"required"`
	Author  string   `json:"author"`
	BookURL string   `json:"bookUrl" validate:"omitempty,url"`
	ImgURL  string   `json:"imgUrl"`
	Tags    []string `json:"tags,omitempty"`
}

// Game is a recently played game from the gaming profile.
type Game struct {
	Title         string `json:"title" validate:"required"`
	ImgURL        string `json:"imgUrl"`
	LastPlayed    string `json:"lastPlayed"`
	TotalPlaytime string `json:"totalPlaytime"`
	Platform      string `json:"platform"`
	URL           string `json:"url" validate:"omitempty,url"`
}

// Profile is the composite main section.
//
// A nil slice or nil pointer means the sub-key is absent. A non-nil empty slice
// means the page was scraped and the shelf came back empty.
type Profile struct {
	CurrentlyReading []Book  `json:"currentlyReading"`
	RecentlyRead     []Book  `json:"recentlyRead"`
	ReadStyleSummary *string `json:"readStyleSummary,omitempty"`
	ToReadCount      *int    `json:"toReadCount,omitempty"`
}

// Payload is the whole published document, keyed by section.
//
// Presence follows the same rule as Profile: nil is absent, empty is present.
type Payload struct {
	Main      *Profile `json:"main,omitempty"`
	ToRead    []Book   `json:"toRead"`
	Favorites []Book   `json:"favorites"`
	Games     []Game   `json:"games"`
}

// Has reports whether the payload carries a value for key.
func (p *Payload) Has(key SectionKey) bool {
	if p == nil {
		return false
	}
	switch key {
	case SectionMain:
		return p.Main != nil
	case SectionToRead:
		return p.ToRead != nil
	case SectionFavorites:
		return p.Favorites != nil
	case SectionGames:
		return p.Games != nil
	}
	return false
}

// Len returns the element count of a collection section, or -1 for absent or
// non-collection sections.
func (p *Payload) Len(key SectionKey) int {
	if !p.Has(key) {
		return -1
	}
	switch key {
	case SectionToRead:
		return len(p.ToRead)
	case SectionFavorites:
		return len(p.Favorites)
	case SectionGames:
		return len(p.Games)
	}
	return -1
}

// MarshalJSON omits absent collections and keeps present empty ones as [].
func (p Payload) MarshalJSON() ([]byte, error) {
	type wire struct {
		Main      *Profile `json:"main,omitempty"`
		ToRead    *[]Book  `json:"toRead,omitempty"`
		Favorites *[]Book  `json:"favorites,omitempty"`
		Games     *[]Game  `json:"games,omitempty"`
	}
	return marshalRaw(wire{
		Main:      p.Main,
		ToRead:    present(p.ToRead),
		Favorites: present(p.Favorites),
		Games:     present(p.Games),
	})
}

// MarshalJSON omits absent sub-keys and keeps present empty shelves as [].
func (p Profile) MarshalJSON() ([]byte, error) {
	type wire struct {
		CurrentlyReading *[]Book `json:"currentlyReading,omitempty"`
		RecentlyRead     *[]Book `json:"recentlyRead,omitempty"`
		ReadStyleSummary *string `json:"readStyleSummary,omitempty"`
		ToReadCount      *int    `json:"toReadCount,omitempty"`
	}
	return marshalRaw(wire{
		CurrentlyReading: present(p.CurrentlyReading),
		RecentlyRead:     present(p.RecentlyRead),
		ReadStyleSummary: p.ReadStyleSummary,
		ToReadCount:      p.ToReadCount,
	})
}

// Set records an extracted value under key. A nil collection is stored as
// present and empty: the page was scraped and yielded nothing.
func (p *Payload) Set(key SectionKey, value any) error {
	switch key {
	case SectionMain:
		v, ok := value.(*Profile)
		if !ok {
			return fmt.Errorf("section %s: want *Profile, got %T", key, value)
		}
		p.Main = v
	case SectionToRead, SectionFavorites:
		v, ok := value.([]Book)
		if !ok {
			return fmt.Errorf("section %s: want []Book, got %T", key, value)
		}
		if v == nil {
			v = []Book{}
		}
		if key == SectionToRead {
			p.ToRead = v
		} else {
			p.Favorites = v
		}
	case SectionGames:
		v, ok := value.([]Game)
		if !ok {
			return fmt.Errorf("section %s: want []Game, got %T", key, value)
		}
		if v == nil {
			v = []Game{}
		}
		p.Games = v
	default:
		return fmt.Errorf("unknown section %q", key)
	}
	return nil
}

// marshalRaw encodes v without HTML escaping. The outer encoder escapes if it
// is configured to.
func marshalRaw(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func present[T any](s []T) *[]T {
	if s == nil {
		return nil
	}
	return &s
}

// String returns a pointer to s, for building scalar sub-keys.
func String(s string) *string { return &s }

// Int returns a pointer to n, for building scalar sub-keys.
func Int(n int) *int { return &n }
